package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Binance reads spot prices quoted against USDT.
type Binance struct {
	baseURL    string
	httpClient *http.Client
}

func NewBinance(baseURL string, timeout time.Duration) *Binance {
	return &Binance{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
	}
}

type binanceTicker struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

// Price returns the last traded price of {coin}USDT.
func (b *Binance) Price(ctx context.Context, coin string) (decimal.Decimal, error) {
	u := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", b.baseURL, url.QueryEscape(strings.ToUpper(coin)+"USDT"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to send request: %w", err)
	}
	body, err := readBody(resp)
	if err != nil {
		return decimal.Zero, err
	}

	var ticker binanceTicker
	if err := json.Unmarshal(body, &ticker); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse ticker: %w", err)
	}
	if !ticker.Price.IsPositive() {
		return decimal.Zero, fmt.Errorf("no price for %s", coin)
	}
	return ticker.Price, nil
}
