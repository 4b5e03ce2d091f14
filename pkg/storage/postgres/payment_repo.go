package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/DollarNoob/Pay/pkg/types"
)

// PaymentRepo is the ledger of funded exchange orders.
type PaymentRepo struct {
	pool Pool
}

// NewPaymentRepo creates a new PaymentRepo.
func NewPaymentRepo(pool Pool) *PaymentRepo {
	return &PaymentRepo{pool: pool}
}

// Create records an order right after it was created on the exchange.
func (r *PaymentRepo) Create(ctx context.Context, p *types.Payment) error {
	query := `INSERT INTO payments (user_id, txid, order_id, order_token, amount, created_at)
		SELECT id, $2, $3, $4, $5, $6 FROM users WHERE external_id = $1`

	tag, err := r.pool.Exec(ctx, query,
		p.UserID, p.TxID, p.OrderID, p.OrderToken, p.Amount.String(), p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("insert payment: unknown user %s", p.UserID)
	}
	return nil
}

// SetTxID records the custody transfer that funded the order.
func (r *PaymentRepo) SetTxID(ctx context.Context, orderID, txID string) error {
	query := `UPDATE payments SET txid = $2 WHERE order_id = $1`

	if _, err := r.pool.Exec(ctx, query, orderID, txID); err != nil {
		return fmt.Errorf("update payment txid: %w", err)
	}
	return nil
}

// MarkExchanged records the payout of a completed order.
func (r *PaymentRepo) MarkExchanged(ctx context.Context, orderID, txID, currency string, amount decimal.Decimal, at time.Time) error {
	query := `UPDATE payments
		SET exchanged_at = $2, exchanged_txid = $3, exchanged_currency = $4, exchanged_amount = $5
		WHERE order_id = $1 AND exchanged_at IS NULL`

	if _, err := r.pool.Exec(ctx, query, orderID, at, txID, currency, amount.String()); err != nil {
		return fmt.Errorf("mark payment exchanged: %w", err)
	}
	return nil
}

// GetByOrderID fetches a payment, or nil when the order is unknown.
func (r *PaymentRepo) GetByOrderID(ctx context.Context, orderID string) (*types.Payment, error) {
	query := `SELECT p.id, u.external_id, p.txid, p.order_id, p.order_token, p.amount::text, p.created_at,
			p.exchanged_at, p.exchanged_txid, p.exchanged_currency, p.exchanged_amount::text
		FROM payments p JOIN users u ON u.id = p.user_id
		WHERE p.order_id = $1`

	p := &types.Payment{}
	var amount string
	var exchangedAmount *string
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&p.ID, &p.UserID, &p.TxID, &p.OrderID, &p.OrderToken, &amount, &p.CreatedAt,
		&p.ExchangedAt, &p.ExchangedTxID, &p.ExchangedCurrency, &exchangedAmount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by order id: %w", err)
	}

	if p.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse payment amount: %w", err)
	}
	if exchangedAmount != nil {
		d, err := decimal.NewFromString(*exchangedAmount)
		if err != nil {
			return nil, fmt.Errorf("parse exchanged amount: %w", err)
		}
		p.ExchangedAmount = &d
	}
	return p, nil
}
