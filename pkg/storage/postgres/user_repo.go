package postgres

import (
	"context"
	"fmt"
)

// UserRepo registers users by their external (gateway) id.
type UserRepo struct {
	pool Pool
}

// NewUserRepo creates a new UserRepo.
func NewUserRepo(pool Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

// Ensure inserts the user unless it already exists.
func (r *UserRepo) Ensure(ctx context.Context, externalID string) error {
	query := `INSERT INTO users (external_id) VALUES ($1) ON CONFLICT (external_id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, externalID); err != nil {
		return fmt.Errorf("ensure user: %w", err)
	}
	return nil
}
