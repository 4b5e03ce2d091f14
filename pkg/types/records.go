package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletRecord is a persisted custody wallet. SealedKey never holds plaintext.
type WalletRecord struct {
	ID        int64
	UserID    string // external user id
	Chain     Chain
	Address   string
	SealedKey string
	CreatedAt time.Time
}

// Payment is one ledger row per funded order.
type Payment struct {
	ID                int64
	UserID            string
	TxID              string // custody transfer funding the order
	OrderID           string
	OrderToken        string
	Amount            decimal.Decimal
	CreatedAt         time.Time
	ExchangedAt       *time.Time
	ExchangedTxID     *string
	ExchangedCurrency *string
	ExchangedAmount   *decimal.Decimal
}

// Checkpoint is the resumable state of an order being polled.
type Checkpoint struct {
	OrderID     string    `json:"order_id"`
	Token       string    `json:"token"`
	UserID      string    `json:"user_id"`
	Asset       string    `json:"asset"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	LastStatus  string    `json:"last_status"`
	SourceTxID  string    `json:"source_tx_id,omitempty"`
	FromAmount  string    `json:"from_amount,omitempty"`
	ToAmount    string    `json:"to_amount,omitempty"`
	PayoutTxID  string    `json:"payout_tx_id,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}
