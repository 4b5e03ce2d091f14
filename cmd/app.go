package cmd

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/DollarNoob/Pay/config"
	"github.com/DollarNoob/Pay/pkg/client"
	"github.com/DollarNoob/Pay/pkg/convert"
	"github.com/DollarNoob/Pay/pkg/crypto"
	"github.com/DollarNoob/Pay/pkg/logger"
	"github.com/DollarNoob/Pay/pkg/notify"
	"github.com/DollarNoob/Pay/pkg/rates"
	"github.com/DollarNoob/Pay/pkg/storage/postgres"
	"github.com/DollarNoob/Pay/pkg/storage/redis"
	"github.com/DollarNoob/Pay/pkg/swap"
	"github.com/DollarNoob/Pay/pkg/types"
	"github.com/DollarNoob/Pay/pkg/wallet"
)

const receiptPoll = 2 * time.Second

// app is the wiring shared by every command.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	exchange  *client.FixedFloat
	market    *rates.Binance
	converter *convert.Converter

	orch    *swap.Orchestrator
	events  notify.Sink // external projection sink, nil when not configured
	closers []func()
}

// newApp loads configuration and builds the exchange and rate clients.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.Log.Level
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	log := logger.New(level, cfg.Log.Pretty)

	market := rates.NewBinance(cfg.Rates.BinanceURL, cfg.Rates.Timeout)
	return &app{
		cfg:       cfg,
		log:       log,
		exchange:  client.New(cfg.Exchange.APIKey, cfg.Exchange.APISecret, cfg.Exchange.BaseURL, cfg.Exchange.Timeout, log),
		market:    market,
		converter: convert.New(market, rates.NewKBTable(cfg.Rates.KBURL, cfg.Rates.Timeout), rates.NewUpbit(cfg.Rates.UpbitURL, cfg.Rates.Timeout), log),
	}, nil
}

// withCustody connects storage and the chains and builds the orchestrator.
func (a *app) withCustody(ctx context.Context) error {
	if a.cfg.Database.URL == "" {
		return fmt.Errorf("database.url is required. Please set PAY_DATABASE_URL")
	}
	sealer, err := crypto.NewSealer(a.cfg.Security.EncryptionKey)
	if err != nil {
		return fmt.Errorf("security.encryption_key: %w", err)
	}

	pool, err := postgres.NewPool(ctx, a.cfg.Database, a.log)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, pool.Close)
	if err := postgres.Migrate(ctx, pool); err != nil {
		return err
	}

	provider := wallet.NewProvider(postgres.NewUserRepo(pool), postgres.NewWalletRepo(pool), sealer, a.log)
	if err := a.connectChains(ctx, provider); err != nil {
		return err
	}

	deps := swap.Deps{
		Exchange:  a.exchange,
		Wallets:   provider,
		Converter: a.converter,
		Ledger:    postgres.NewPaymentRepo(pool),
		Market:    a.market,
	}
	if rdb, err := redis.NewClient(ctx, a.cfg.Redis, a.log); err != nil {
		a.log.Warn().Err(err).Msg("redis unavailable, checkpoints and locks stay in process")
	} else {
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		deps.Checkpoints = redis.NewCheckpointStore(rdb, a.cfg.Redis.CheckpointTTL)
		deps.Locker = redis.NewLocker(rdb, a.cfg.Redis.LockTTL, a.log)
	}

	if a.cfg.AMQP.URL != "" {
		sink, err := notify.NewAMQPSink(a.cfg.AMQP, a.log)
		if err != nil {
			a.log.Warn().Err(err).Msg("projection queue unavailable")
		} else {
			a.closers = append(a.closers, func() { _ = sink.Close() })
			a.events = sink
		}
	}

	a.orch = swap.New(deps, swap.Options{
		Source:       a.cfg.Exchange.Source,
		OrderURL:     a.cfg.Exchange.OrderURL,
		PollInterval: a.cfg.Polling.Interval,
		MaxAttempts:  a.cfg.Polling.MaxAttempts,
		Deadline:     a.cfg.Polling.Deadline,
	}, a.log)
	return nil
}

func (a *app) connectChains(ctx context.Context, provider *wallet.Provider) error {
	evm := a.cfg.Custody.EVM
	if evm.RPCURL != "" {
		backend, err := ethclient.DialContext(ctx, evm.RPCURL)
		if err != nil {
			return fmt.Errorf("connecting to polygon rpc: %w", err)
		}
		a.closers = append(a.closers, backend.Close)
		provider.WithEVM(backend, wallet.EVMOptions{
			ChainID:     big.NewInt(evm.ChainID),
			NativeAsset: types.ChainPolygon.NativeAsset(),
			Tokens: map[string]wallet.Token{
				"USDTPOL": {Contract: common.HexToAddress(evm.TokenContract), Decimals: evm.TokenDecimals},
			},
			GasLimit:       evm.GasLimit,
			ReceiptTimeout: evm.ReceiptTimeout,
			ReceiptPoll:    receiptPoll,
		})
	}

	sol := a.cfg.Custody.Solana
	if sol.RPCURL != "" {
		mint, err := solana.PublicKeyFromBase58(sol.TokenMint)
		if err != nil {
			return fmt.Errorf("custody.solana.token_mint: %w", err)
		}
		rpcClient := rpc.New(sol.RPCURL)
		a.closers = append(a.closers, func() { _ = rpcClient.Close() })
		provider.WithSolana(rpcClient, wallet.SolanaOptions{
			NativeAsset:    types.ChainSolana.NativeAsset(),
			Tokens:         map[string]wallet.SPLToken{"USDTSOL": {Mint: mint, Decimals: sol.TokenDecimals}},
			Commitment:     rpc.CommitmentConfirmed,
			ReceiptTimeout: sol.ReceiptTimeout,
			ReceiptPoll:    receiptPoll,
		})
	}
	return nil
}

// sink fans projections out to the terminal and the external queue.
func (a *app) sink(p *printer) notify.Sink {
	return notify.Multi(p, a.events)
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
