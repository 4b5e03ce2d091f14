package swap

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/DollarNoob/Pay/pkg/client"
	"github.com/DollarNoob/Pay/pkg/convert"
	"github.com/DollarNoob/Pay/pkg/types"
	"github.com/DollarNoob/Pay/pkg/wallet"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// Exchange quotes, creates and tracks orders.
type Exchange interface {
	GetQuote(ctx context.Context, req client.PriceRequest) (*client.Quote, error)
	CreateOrder(ctx context.Context, req client.CreateRequest) (*client.Order, error)
	GetOrder(ctx context.Context, id, token string) (*client.Order, error)
	ResolveEmergency(ctx context.Context, id, token string, choice client.EmergencyChoice, address string) (bool, error)
}

// Wallets resolves a user's custody wallet.
type Wallets interface {
	ForAsset(ctx context.Context, userID, asset string) (wallet.Custody, error)
}

// Converter normalizes the entered amount into the destination asset.
type Converter interface {
	Preview(ctx context.Context, req convert.Request) (*convert.Preview, error)
}

// Checkpoints persists the resumable state of orders being polled.
type Checkpoints interface {
	Save(ctx context.Context, cp *types.Checkpoint) error
	// Get returns nil, nil for an unknown order.
	Get(ctx context.Context, orderID string) (*types.Checkpoint, error)
}

// Ledger records funded orders.
type Ledger interface {
	Create(ctx context.Context, p *types.Payment) error
	SetTxID(ctx context.Context, orderID, txID string) error
	MarkExchanged(ctx context.Context, orderID, txID, currency string, amount decimal.Decimal, at time.Time) error
}

// Locker serializes transfers out of one wallet.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// PriceSource prices a coin in USD.
type PriceSource interface {
	Price(ctx context.Context, coin string) (decimal.Decimal, error)
}
