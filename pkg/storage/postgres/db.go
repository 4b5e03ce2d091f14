package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/DollarNoob/Pay/config"
)

// Pool is the subset of *pgxpool.Pool the repositories use.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Schema creates the ledger tables when missing.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id          BIGSERIAL PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS wallets (
	id         BIGSERIAL PRIMARY KEY,
	user_id    BIGINT NOT NULL REFERENCES users(id),
	chain      TEXT NOT NULL,
	address    TEXT NOT NULL,
	sealed_key TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (user_id, chain)
);

CREATE TABLE IF NOT EXISTS payments (
	id                 BIGSERIAL PRIMARY KEY,
	user_id            BIGINT NOT NULL REFERENCES users(id),
	txid               TEXT NOT NULL DEFAULT '',
	order_id           TEXT NOT NULL UNIQUE,
	order_token        TEXT NOT NULL,
	amount             NUMERIC(36, 18) NOT NULL,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	exchanged_at       TIMESTAMPTZ,
	exchanged_txid     TEXT,
	exchanged_currency TEXT,
	exchanged_amount   NUMERIC(36, 18)
);
`

// NewPool creates a PostgreSQL connection pool using pgx.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	log.Info().
		Str("host", poolCfg.ConnConfig.Host).
		Str("dbname", poolCfg.ConnConfig.Database).
		Int32("max_conns", poolCfg.MaxConns).
		Msg("PostgreSQL connection pool established")

	return pool, nil
}

// Migrate applies Schema.
func Migrate(ctx context.Context, pool Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}
