package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/DollarNoob/Pay/pkg/types"
)

const lamportDecimals = 9

// SolanaRPC is the subset of *rpc.Client the wallet uses.
type SolanaRPC interface {
	GetBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetBalanceResult, error)
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey, commitment rpc.CommitmentType) (*rpc.GetTokenAccountBalanceResult, error)
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// SPLToken is a token mint held by the wallet.
type SPLToken struct {
	Mint     solana.PublicKey
	Decimals int32
}

// SolanaOptions configures a SolanaWallet.
type SolanaOptions struct {
	NativeAsset    string // SOL
	Tokens         map[string]SPLToken
	Commitment     rpc.CommitmentType
	ReceiptTimeout time.Duration
	ReceiptPoll    time.Duration
}

// SolanaWallet is a custody wallet on Solana.
type SolanaWallet struct {
	client     SolanaRPC
	privateKey solana.PrivateKey
	publicKey  solana.PublicKey
	opts       SolanaOptions
	logger     zerolog.Logger
}

// NewSolanaWallet creates a wallet signing with privateKey.
func NewSolanaWallet(client SolanaRPC, privateKey solana.PrivateKey, opts SolanaOptions, logger zerolog.Logger) *SolanaWallet {
	if opts.Commitment == "" {
		opts.Commitment = rpc.CommitmentConfirmed
	}
	if opts.ReceiptTimeout <= 0 {
		opts.ReceiptTimeout = time.Minute
	}
	if opts.ReceiptPoll <= 0 {
		opts.ReceiptPoll = time.Second
	}
	pub := privateKey.PublicKey()
	return &SolanaWallet{
		client:     client,
		privateKey: privateKey,
		publicKey:  pub,
		opts:       opts,
		logger:     logger.With().Str("component", "solana_wallet").Str("address", pub.String()).Logger(),
	}
}

func (s *SolanaWallet) Address() string    { return s.publicKey.String() }
func (s *SolanaWallet) Chain() types.Chain { return types.ChainSolana }

// Balance reads the live balance of asset. A token account that was never
// created holds zero.
func (s *SolanaWallet) Balance(ctx context.Context, asset string) (decimal.Decimal, error) {
	if asset == s.opts.NativeAsset {
		res, err := s.client.GetBalance(ctx, s.publicKey, s.opts.Commitment)
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to get balance: %w", err)
		}
		return decimal.NewFromBigInt(new(big.Int).SetUint64(res.Value), -lamportDecimals), nil
	}

	tok, ok := s.opts.Tokens[asset]
	if !ok {
		return decimal.Zero, &ErrUnsupportedAsset{Chain: s.Chain(), Asset: asset}
	}
	ata, _, err := solana.FindAssociatedTokenAddress(s.publicKey, tok.Mint)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to derive token account: %w", err)
	}
	exists, err := s.accountExists(ctx, ata)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to check token account: %w", err)
	}
	if !exists {
		return decimal.Zero, nil
	}

	res, err := s.client.GetTokenAccountBalance(ctx, ata, s.opts.Commitment)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get token balance: %w", err)
	}
	if res.Value == nil {
		return decimal.Zero, nil
	}
	raw, err := decimal.NewFromString(res.Value.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse token balance: %w", err)
	}
	return raw.Shift(-int32(res.Value.Decimals)), nil
}

// Transfer sends an SPL token, creating the recipient's associated token
// account when it does not exist yet.
func (s *SolanaWallet) Transfer(ctx context.Context, asset, destination string, amount decimal.Decimal) (*Receipt, error) {
	tok, ok := s.opts.Tokens[asset]
	if !ok {
		return nil, &ErrUnsupportedAsset{Chain: s.Chain(), Asset: asset}
	}
	recipient, err := solana.PublicKeyFromBase58(destination)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("invalid amount: %s", amount)
	}
	units := toUnits(amount, tok.Decimals)
	if !units.BigInt().IsUint64() {
		return nil, fmt.Errorf("amount %s out of range", amount)
	}

	source, _, err := solana.FindAssociatedTokenAddress(s.publicKey, tok.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to get source token account: %w", err)
	}
	dest, _, err := solana.FindAssociatedTokenAddress(recipient, tok.Mint)
	if err != nil {
		return nil, fmt.Errorf("failed to get destination token account: %w", err)
	}
	destExists, err := s.accountExists(ctx, dest)
	if err != nil {
		return nil, fmt.Errorf("failed to check destination account: %w", err)
	}

	recent, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	var instructions []solana.Instruction
	if !destExists {
		instructions = append(instructions, associatedtokenaccount.NewCreateInstruction(
			s.publicKey, // payer
			recipient,
			tok.Mint,
		).Build())
	}
	instructions = append(instructions, token.NewTransferInstruction(
		units.BigInt().Uint64(),
		source,
		dest,
		s.publicKey,
		[]solana.PublicKey{},
	).Build())

	tx, err := solana.NewTransaction(instructions, recent.Value.Blockhash, solana.TransactionPayer(s.publicKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.publicKey) {
			return &s.privateKey
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := s.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: s.opts.Commitment,
	})
	if err != nil {
		if !sendUncertain(err) {
			return nil, fmt.Errorf("failed to send transaction: %w", err)
		}
		signed := tx.Signatures[0].String()
		s.logger.Warn().Err(err).Str("tx", signed).Msg("send outcome unknown")
		return &Receipt{TxID: signed, Status: StatusUnknown}, nil
	}

	s.logger.Info().
		Str("tx", sig.String()).
		Str("asset", asset).
		Str("amount", amount.String()).
		Bool("created_token_account", !destExists).
		Msg("transfer broadcast")

	return &Receipt{TxID: sig.String(), Status: s.waitConfirmation(ctx, sig)}, nil
}

func (s *SolanaWallet) waitConfirmation(ctx context.Context, sig solana.Signature) ReceiptStatus {
	deadline := time.NewTimer(s.opts.ReceiptTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(s.opts.ReceiptPoll)
	defer ticker.Stop()

	for {
		res, err := s.client.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			s.logger.Warn().Err(err).Str("tx", sig.String()).Msg("signature status lookup failed")
		} else if len(res.Value) > 0 && res.Value[0] != nil {
			st := res.Value[0]
			if st.Err != nil {
				return StatusFailed
			}
			if st.ConfirmationStatus == rpc.ConfirmationStatusConfirmed || st.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
				return StatusSuccess
			}
		}

		select {
		case <-ctx.Done():
			return StatusUnknown
		case <-deadline.C:
			return StatusUnknown
		case <-ticker.C:
		}
	}
}

func (s *SolanaWallet) accountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	info, err := s.client.GetAccountInfo(ctx, account)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return info != nil && info.Value != nil, nil
}
