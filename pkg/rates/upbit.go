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

// Upbit reads KRW market prices, which carry the regional premium.
type Upbit struct {
	baseURL    string
	httpClient *http.Client
}

func NewUpbit(baseURL string, timeout time.Duration) *Upbit {
	return &Upbit{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
	}
}

type upbitTicker struct {
	Market     string          `json:"market"`
	TradePrice decimal.Decimal `json:"trade_price"`
}

// Price returns the last KRW-{coin} trade price.
func (u *Upbit) Price(ctx context.Context, coin string) (decimal.Decimal, error) {
	endpoint := fmt.Sprintf("%s/v1/ticker?markets=%s", u.baseURL, url.QueryEscape("KRW-"+strings.ToUpper(coin)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to send request: %w", err)
	}
	body, err := readBody(resp)
	if err != nil {
		return decimal.Zero, err
	}

	var tickers []upbitTicker
	if err := json.Unmarshal(body, &tickers); err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse ticker: %w", err)
	}
	if len(tickers) == 0 || !tickers[0].TradePrice.IsPositive() {
		return decimal.Zero, fmt.Errorf("no KRW market for %s", coin)
	}
	return tickers[0].TradePrice, nil
}
