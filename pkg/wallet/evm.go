package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/DollarNoob/Pay/pkg/types"
)

// ERC20 transfer and balanceOf
const erc20ABI = `[
{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"},
{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"}
]`

var parsedERC20 = mustParseABI(erc20ABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("failed to parse ERC20 ABI: %v", err))
	}
	return parsed
}

const nativeDecimals = 18

// EVMBackend is the subset of *ethclient.Client the wallet uses.
type EVMBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *ethtypes.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*ethtypes.Receipt, error)
}

// Token is an ERC-20 contract held by the wallet.
type Token struct {
	Contract common.Address
	Decimals int32
}

// EVMOptions configures an EVMWallet.
type EVMOptions struct {
	ChainID        *big.Int
	NativeAsset    string           // e.g. POL
	Tokens         map[string]Token // asset code -> contract
	GasLimit       uint64
	ReceiptTimeout time.Duration
	ReceiptPoll    time.Duration
}

// EVMWallet is a custody wallet on an EVM chain.
type EVMWallet struct {
	backend EVMBackend
	key     *ecdsa.PrivateKey
	from    common.Address
	opts    EVMOptions
	logger  zerolog.Logger
}

// NewEVMWallet creates a wallet signing with key.
func NewEVMWallet(backend EVMBackend, key *ecdsa.PrivateKey, opts EVMOptions, logger zerolog.Logger) *EVMWallet {
	if opts.GasLimit == 0 {
		opts.GasLimit = 70000
	}
	if opts.ReceiptTimeout <= 0 {
		opts.ReceiptTimeout = 2 * time.Minute
	}
	if opts.ReceiptPoll <= 0 {
		opts.ReceiptPoll = 2 * time.Second
	}
	from := crypto.PubkeyToAddress(key.PublicKey)
	return &EVMWallet{
		backend: backend,
		key:     key,
		from:    from,
		opts:    opts,
		logger:  logger.With().Str("component", "evm_wallet").Str("address", from.Hex()).Logger(),
	}
}

func (w *EVMWallet) Address() string    { return w.from.Hex() }
func (w *EVMWallet) Chain() types.Chain { return types.ChainPolygon }

// Balance reads the live balance of asset.
func (w *EVMWallet) Balance(ctx context.Context, asset string) (decimal.Decimal, error) {
	if asset == w.opts.NativeAsset {
		raw, err := w.backend.BalanceAt(ctx, w.from, nil)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
		}
		return decimal.NewFromBigInt(raw, -nativeDecimals), nil
	}

	token, ok := w.opts.Tokens[asset]
	if !ok {
		return decimal.Zero, &ErrUnsupportedAsset{Chain: w.Chain(), Asset: asset}
	}
	raw, err := w.tokenBalance(ctx, token.Contract)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(raw, -token.Decimals), nil
}

func (w *EVMWallet) tokenBalance(ctx context.Context, contract common.Address) (*big.Int, error) {
	data, err := parsedERC20.Pack("balanceOf", w.from)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf data: %w", err)
	}

	result, err := w.backend.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call balanceOf: %w", err)
	}

	out, err := parsedERC20.Unpack("balanceOf", result)
	if err != nil || len(out) == 0 {
		return nil, fmt.Errorf("failed to decode balanceOf result: %v", err)
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", out[0])
	}
	return balance, nil
}

// Transfer signs and broadcasts one transaction, then waits for its receipt up
// to ReceiptTimeout. Nonce and gas price are fetched fresh on every call.
func (w *EVMWallet) Transfer(ctx context.Context, asset, destination string, amount decimal.Decimal) (*Receipt, error) {
	if !common.IsHexAddress(destination) {
		return nil, fmt.Errorf("invalid recipient address: %s", destination)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("invalid amount: %s", amount)
	}
	to := common.HexToAddress(destination)

	var (
		txTo  common.Address
		value *big.Int
		data  []byte
	)
	if asset == w.opts.NativeAsset {
		txTo = to
		value = toUnits(amount, nativeDecimals).BigInt()
	} else {
		token, ok := w.opts.Tokens[asset]
		if !ok {
			return nil, &ErrUnsupportedAsset{Chain: w.Chain(), Asset: asset}
		}
		packed, err := parsedERC20.Pack("transfer", to, toUnits(amount, token.Decimals).BigInt())
		if err != nil {
			return nil, fmt.Errorf("failed to pack transfer data: %w", err)
		}
		txTo = token.Contract
		value = big.NewInt(0)
		data = packed
	}

	nonce, err := w.backend.PendingNonceAt(ctx, w.from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := w.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}

	tx := ethtypes.NewTx(&ethtypes.LegacyTx{
		Nonce:    nonce,
		To:       &txTo,
		Value:    value,
		Gas:      w.opts.GasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := ethtypes.SignTx(tx, ethtypes.LatestSignerForChainID(w.opts.ChainID), w.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	hash := signed.Hash()
	if err := w.backend.SendTransaction(ctx, signed); err != nil {
		if !sendUncertain(err) {
			return nil, fmt.Errorf("failed to send transaction: %w", err)
		}
		w.logger.Warn().Err(err).Str("tx", hash.Hex()).Msg("send outcome unknown")
		return &Receipt{TxID: hash.Hex(), Status: StatusUnknown}, nil
	}

	w.logger.Info().
		Str("tx", hash.Hex()).
		Str("asset", asset).
		Str("amount", amount.String()).
		Uint64("nonce", nonce).
		Str("gas_price", gasPrice.String()).
		Msg("transfer broadcast")

	return &Receipt{TxID: hash.Hex(), Status: w.waitReceipt(ctx, hash)}, nil
}

func (w *EVMWallet) waitReceipt(ctx context.Context, hash common.Hash) ReceiptStatus {
	deadline := time.NewTimer(w.opts.ReceiptTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(w.opts.ReceiptPoll)
	defer ticker.Stop()

	for {
		receipt, err := w.backend.TransactionReceipt(ctx, hash)
		switch {
		case err == nil && receipt != nil:
			if receipt.Status == ethtypes.ReceiptStatusSuccessful {
				return StatusSuccess
			}
			w.logger.Warn().Str("tx", hash.Hex()).Msg("transfer reverted")
			return StatusFailed
		case err != nil && !errors.Is(err, ethereum.NotFound):
			w.logger.Warn().Err(err).Str("tx", hash.Hex()).Msg("receipt lookup failed")
		}

		select {
		case <-ctx.Done():
			return StatusUnknown
		case <-deadline.C:
			w.logger.Warn().Str("tx", hash.Hex()).Dur("timeout", w.opts.ReceiptTimeout).Msg("receipt not observed")
			return StatusUnknown
		case <-ticker.C:
		}
	}
}
