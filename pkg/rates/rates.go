// Package rates fetches the market, fiat and regional-premium prices used to
// convert user-entered amounts. Every lookup hits the source; nothing is cached.
package rates

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// Source names carried by snapshots and RateUnavailable errors.
const (
	SourceMarket  = "binance"
	SourceFiat    = "kb-bank"
	SourcePremium = "upbit"
)

// MarketSource returns the global market price of a coin in USD.
type MarketSource interface {
	Price(ctx context.Context, coin string) (decimal.Decimal, error)
}

// FiatSource returns a fiat exchange table.
type FiatSource interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// PremiumSource returns a regional-market price of a coin in that region's fiat.
type PremiumSource interface {
	Price(ctx context.Context, coin string) (decimal.Decimal, error)
}

// QuoteUnits lists fiat codes a table quotes per N units rather than per one.
var QuoteUnits = map[string]int64{
	"JPY": 100,
}

// Snapshot is a single fetch of a rate table.
type Snapshot struct {
	Source    string
	Base      string // the unit every rate is expressed in
	Rates     map[string]decimal.Decimal
	FetchedAt time.Time
}

// Rate returns the price of one unit of code in the snapshot's base, applying
// QuoteUnits.
func (s *Snapshot) Rate(code string) (decimal.Decimal, bool) {
	if code == s.Base {
		return decimal.NewFromInt(1), true
	}
	r, ok := s.Rates[code]
	if !ok || !r.IsPositive() {
		return decimal.Zero, false
	}
	if n, ok := QuoteUnits[code]; ok {
		r = r.Div(decimal.NewFromInt(n))
	}
	return r, true
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
