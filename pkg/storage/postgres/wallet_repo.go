package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/DollarNoob/Pay/pkg/types"
)

// WalletRepo stores custody wallets with their sealed keys.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Get fetches the user's wallet on chain, or nil when none exists.
func (r *WalletRepo) Get(ctx context.Context, userID string, chain types.Chain) (*types.WalletRecord, error) {
	query := `SELECT w.id, u.external_id, w.chain, w.address, w.sealed_key, w.created_at
		FROM wallets w JOIN users u ON u.id = w.user_id
		WHERE u.external_id = $1 AND w.chain = $2`

	w := &types.WalletRecord{}
	var chainName string
	err := r.pool.QueryRow(ctx, query, userID, string(chain)).Scan(
		&w.ID, &w.UserID, &chainName, &w.Address, &w.SealedKey, &w.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}
	w.Chain = types.Chain(chainName)
	return w, nil
}

// Create inserts the wallet. It reports false without error when the user
// already has a wallet on that chain.
func (r *WalletRepo) Create(ctx context.Context, w *types.WalletRecord) (bool, error) {
	query := `INSERT INTO wallets (user_id, chain, address, sealed_key, created_at)
		SELECT id, $2, $3, $4, $5 FROM users WHERE external_id = $1
		ON CONFLICT (user_id, chain) DO NOTHING`

	tag, err := r.pool.Exec(ctx, query, w.UserID, string(w.Chain), w.Address, w.SealedKey, w.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert wallet: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
