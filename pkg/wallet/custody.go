// Package wallet holds the custody wallets that fund swaps: balance reads and
// signed transfers on Polygon (ERC-20) and Solana (SPL).
package wallet

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/shopspring/decimal"

	"github.com/DollarNoob/Pay/pkg/types"
)

// ReceiptStatus is the observed outcome of a submitted transfer.
type ReceiptStatus int

const (
	StatusUnknown ReceiptStatus = iota // broadcast, outcome not observed
	StatusSuccess
	StatusFailed
)

func (s ReceiptStatus) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Receipt is the immutable result of one transfer submission.
type Receipt struct {
	TxID   string
	Status ReceiptStatus
}

//go:generate mockgen -source=custody.go -destination=../swap/mocks/custody.go -package=mocks

// Custody is a key-holding wallet. Transfer is not idempotent: callers must not
// retry it after an ambiguous outcome.
type Custody interface {
	Address() string
	Chain() types.Chain
	Balance(ctx context.Context, asset string) (decimal.Decimal, error)
	// Transfer returns an error only when nothing was broadcast.
	Transfer(ctx context.Context, asset, destination string, amount decimal.Decimal) (*Receipt, error)
}

// ErrUnsupportedAsset is returned for assets a wallet cannot hold.
type ErrUnsupportedAsset struct {
	Chain types.Chain
	Asset string
}

func (e *ErrUnsupportedAsset) Error() string {
	return fmt.Sprintf("asset %s is not held on %s", e.Asset, e.Chain)
}

// toUnits converts a decimal amount to integer base units, rounding up so an
// order is never underfunded by sub-unit dust.
func toUnits(amount decimal.Decimal, decimals int32) decimal.Decimal {
	return amount.Shift(decimals).Ceil()
}

// sendUncertain reports whether a failed send may still have reached the node.
// Timeouts and transport errors qualify; a node rejecting the transaction does not.
func sendUncertain(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
