package wallet

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DollarNoob/Pay/pkg/crypto"
	"github.com/DollarNoob/Pay/pkg/types"
)

type memUsers struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memUsers) Ensure(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	m.seen[id] = true
	return nil
}

type memWallets struct {
	mu      sync.Mutex
	rows    map[string]*types.WalletRecord
	preempt *types.WalletRecord // inserted by a "concurrent" caller on first Create
	creates int
}

func (m *memWallets) key(user string, chain types.Chain) string { return user + "/" + string(chain) }

func (m *memWallets) Get(_ context.Context, user string, chain types.Chain) (*types.WalletRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[m.key(user, chain)], nil
}

func (m *memWallets) Create(_ context.Context, rec *types.WalletRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creates++
	if m.rows == nil {
		m.rows = map[string]*types.WalletRecord{}
	}
	k := m.key(rec.UserID, rec.Chain)
	if m.preempt != nil {
		m.rows[k] = m.preempt
		m.preempt = nil
	}
	if _, ok := m.rows[k]; ok {
		return false, nil
	}
	m.rows[k] = rec
	return true, nil
}

func newTestProvider(t *testing.T, wallets *memWallets) (*Provider, *memUsers) {
	t.Helper()
	sealer, err := crypto.NewSealer(strings.Repeat("11", 32))
	require.NoError(t, err)
	users := &memUsers{}
	p := NewProvider(users, wallets, sealer, zerolog.Nop()).
		WithEVM(&fakeEVM{}, EVMOptions{ChainID: big.NewInt(137), NativeAsset: "POL"}).
		WithSolana(&fakeSolana{}, SolanaOptions{NativeAsset: "SOL"})
	return p, users
}

func TestProvider_ProvisionsOnFirstUse(t *testing.T) {
	wallets := &memWallets{}
	p, users := newTestProvider(t, wallets)
	ctx := context.Background()

	w1, err := p.ForAsset(ctx, "user-1", "USDTPOL")
	require.NoError(t, err)
	assert.Equal(t, types.ChainPolygon, w1.Chain())
	assert.True(t, users.seen["user-1"])

	rec := wallets.rows["user-1/polygon"]
	require.NotNil(t, rec)
	assert.Equal(t, w1.Address(), rec.Address)

	w2, err := p.Wallet(ctx, "user-1", types.ChainPolygon)
	require.NoError(t, err)
	assert.Equal(t, w1.Address(), w2.Address())
	assert.Equal(t, 1, wallets.creates)
}

func TestProvider_SolanaWallet(t *testing.T) {
	wallets := &memWallets{}
	p, _ := newTestProvider(t, wallets)

	w, err := p.ForAsset(context.Background(), "user-2", "USDTSOL")
	require.NoError(t, err)
	assert.Equal(t, types.ChainSolana, w.Chain())
	assert.Equal(t, wallets.rows["user-2/solana"].Address, w.Address())
}

func TestProvider_KeyIsSealed(t *testing.T) {
	wallets := &memWallets{}
	p, _ := newTestProvider(t, wallets)

	_, err := p.Wallet(context.Background(), "user-3", types.ChainPolygon)
	require.NoError(t, err)

	rec := wallets.rows["user-3/polygon"]
	require.NotNil(t, rec)

	sealer, err := crypto.NewSealer(strings.Repeat("11", 32))
	require.NoError(t, err)
	raw, err := sealer.Open(rec.Address, rec.SealedKey)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.NotContains(t, rec.SealedKey, string(raw))
}

func TestProvider_ConcurrentFirstUseKeepsExistingRow(t *testing.T) {
	existingAddr, key, err := GenerateEVMKey()
	require.NoError(t, err)
	sealer, err := crypto.NewSealer(strings.Repeat("11", 32))
	require.NoError(t, err)
	sealed, err := sealer.Seal(existingAddr, key)
	require.NoError(t, err)

	wallets := &memWallets{preempt: &types.WalletRecord{
		UserID: "user-4", Chain: types.ChainPolygon, Address: existingAddr, SealedKey: sealed,
	}}
	p, _ := newTestProvider(t, wallets)

	w, err := p.Wallet(context.Background(), "user-4", types.ChainPolygon)
	require.NoError(t, err)
	assert.Equal(t, existingAddr, w.Address())
}

func TestProvider_Unsupported(t *testing.T) {
	sealer, err := crypto.NewSealer(strings.Repeat("11", 32))
	require.NoError(t, err)
	p := NewProvider(&memUsers{}, &memWallets{}, sealer, zerolog.Nop())

	_, err = p.Wallet(context.Background(), "u", types.ChainPolygon)
	assert.Error(t, err, "no EVM backend configured")

	_, err = p.ForAsset(context.Background(), "u", "TRX")
	assert.Error(t, err, "TRX is not held in custody")
}

func TestGenerateKeys(t *testing.T) {
	addr, key, err := GenerateEVMKey()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(addr, "0x"))
	assert.Len(t, key, 32)

	solAddr, solKey, err := GenerateSolanaKey()
	require.NoError(t, err)
	assert.NotEmpty(t, solAddr)
	assert.Len(t, solKey, 64)
}
