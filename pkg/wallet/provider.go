package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	"github.com/DollarNoob/Pay/pkg/types"
)

// UserStore registers users on first contact.
type UserStore interface {
	Ensure(ctx context.Context, externalID string) error
}

// WalletStore persists sealed custody keys.
type WalletStore interface {
	// Get returns nil, nil when the user has no wallet on chain.
	Get(ctx context.Context, userID string, chain types.Chain) (*types.WalletRecord, error)
	// Create reports false when a wallet already existed.
	Create(ctx context.Context, rec *types.WalletRecord) (bool, error)
}

// KeySealer encrypts private keys at rest.
type KeySealer interface {
	Seal(address string, privateKey []byte) (string, error)
	Open(address, sealed string) ([]byte, error)
}

// Provider resolves the custody wallet of a user, provisioning one on first
// use. Private keys are only ever decrypted inside Provider.
type Provider struct {
	users   UserStore
	wallets WalletStore
	sealer  KeySealer
	logger  zerolog.Logger

	evm     EVMBackend
	evmOpts EVMOptions
	sol     SolanaRPC
	solOpts SolanaOptions

	now func() time.Time
}

// NewProvider creates a Provider. Either chain backend may be nil, in which case
// wallets on that chain are unavailable.
func NewProvider(users UserStore, wallets WalletStore, sealer KeySealer, logger zerolog.Logger) *Provider {
	return &Provider{
		users:   users,
		wallets: wallets,
		sealer:  sealer,
		logger:  logger.With().Str("component", "wallet_provider").Logger(),
		now:     time.Now,
	}
}

// WithEVM enables Polygon custody.
func (p *Provider) WithEVM(backend EVMBackend, opts EVMOptions) *Provider {
	p.evm = backend
	p.evmOpts = opts
	return p
}

// WithSolana enables Solana custody.
func (p *Provider) WithSolana(client SolanaRPC, opts SolanaOptions) *Provider {
	p.sol = client
	p.solOpts = opts
	return p
}

// ForAsset returns the user's wallet holding the custody asset.
func (p *Provider) ForAsset(ctx context.Context, userID, asset string) (Custody, error) {
	cur, ok := types.LookupCurrency(asset)
	if !ok || cur.Custody == "" {
		return nil, fmt.Errorf("%s is not a custody asset", asset)
	}
	return p.Wallet(ctx, userID, cur.Custody)
}

// Wallet returns the user's wallet on chain.
func (p *Provider) Wallet(ctx context.Context, userID string, chain types.Chain) (Custody, error) {
	if !p.supports(chain) {
		return nil, fmt.Errorf("custody on %s is not configured", chain)
	}

	rec, err := p.wallets.Get(ctx, userID, chain)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	if rec == nil {
		rec, err = p.provision(ctx, userID, chain)
		if err != nil {
			return nil, err
		}
	}

	raw, err := p.sealer.Open(rec.Address, rec.SealedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to unseal wallet key: %w", err)
	}

	switch chain {
	case types.ChainPolygon:
		key, err := crypto.ToECDSA(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid wallet key: %w", err)
		}
		return NewEVMWallet(p.evm, key, p.evmOpts, p.logger), nil
	case types.ChainSolana:
		return NewSolanaWallet(p.sol, solana.PrivateKey(raw), p.solOpts, p.logger), nil
	}
	return nil, fmt.Errorf("unsupported chain %s", chain)
}

func (p *Provider) supports(chain types.Chain) bool {
	switch chain {
	case types.ChainPolygon:
		return p.evm != nil
	case types.ChainSolana:
		return p.sol != nil
	}
	return false
}

func (p *Provider) provision(ctx context.Context, userID string, chain types.Chain) (*types.WalletRecord, error) {
	if err := p.users.Ensure(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	var (
		addr string
		key  []byte
		err  error
	)
	switch chain {
	case types.ChainPolygon:
		addr, key, err = GenerateEVMKey()
	case types.ChainSolana:
		addr, key, err = GenerateSolanaKey()
	default:
		err = fmt.Errorf("unsupported chain %s", chain)
	}
	if err != nil {
		return nil, err
	}

	sealed, err := p.sealer.Seal(addr, key)
	if err != nil {
		return nil, fmt.Errorf("failed to seal wallet key: %w", err)
	}

	rec := &types.WalletRecord{
		UserID:    userID,
		Chain:     chain,
		Address:   addr,
		SealedKey: sealed,
		CreatedAt: p.now().UTC(),
	}
	created, err := p.wallets.Create(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to store wallet: %w", err)
	}
	if !created {
		// lost a race with a concurrent first use
		existing, err := p.wallets.Get(ctx, userID, chain)
		if err != nil || existing == nil {
			return nil, fmt.Errorf("failed to load wallet after conflict: %v", err)
		}
		return existing, nil
	}

	p.logger.Info().Str("user_id", userID).Str("chain", string(chain)).Str("address", addr).Msg("custody wallet created")
	return rec, nil
}
