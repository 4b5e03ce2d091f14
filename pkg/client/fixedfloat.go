package client

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/DollarNoob/Pay/pkg/apperror"
)

const (
	DefaultBaseURL = "https://ff.io"
	contentType    = "application/json; charset=UTF-8"
)

// FixedFloat is a client for the FixedFloat v2 API. Every request is a POST
// signed with HMAC-SHA256 over the exact body bytes.
type FixedFloat struct {
	apiKey     string
	secret     []byte
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// New creates a FixedFloat client.
func New(apiKey, secret, baseURL string, timeout time.Duration, logger zerolog.Logger) *FixedFloat {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &FixedFloat{
		apiKey:     apiKey,
		secret:     []byte(secret),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "fixedfloat").Logger(),
	}
}

// Sign returns the hex HMAC-SHA256 of body under the API secret.
func (c *FixedFloat) Sign(body []byte) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Currencies lists the currencies the exchange trades.
func (c *FixedFloat) Currencies(ctx context.Context) ([]Currency, error) {
	var out []Currency
	if err := c.call(ctx, "ccies", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetQuote prices a prospective order.
func (c *FixedFloat) GetQuote(ctx context.Context, req PriceRequest) (*Quote, error) {
	var out Quote
	if err := c.call(ctx, "price", req.payload(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateOrder opens an order. The returned order holds the deposit address
// in From.Address and the access token.
func (c *FixedFloat) CreateOrder(ctx context.Context, req CreateRequest) (*Order, error) {
	var out Order
	payload := createPayload{pricePayload: req.payload(), ToAddress: req.ToAddress}
	if err := c.call(ctx, "create", payload, &out); err != nil {
		return nil, err
	}
	c.logger.Info().Str("order_id", out.ID).Str("status", string(out.Status)).Msg("order created")
	return &out, nil
}

// GetOrder reads the current state of an order.
func (c *FixedFloat) GetOrder(ctx context.Context, id, token string) (*Order, error) {
	var out Order
	if err := c.call(ctx, "order", orderPayload{ID: id, Token: token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ResolveEmergency chooses between continuing the exchange and refunding to
// address for an order in EMERGENCY.
func (c *FixedFloat) ResolveEmergency(ctx context.Context, id, token string, choice EmergencyChoice, address string) (bool, error) {
	if choice != ChoiceExchange && choice != ChoiceRefund {
		return false, apperror.ErrValidation(fmt.Sprintf("invalid emergency choice %q", choice))
	}
	if choice == ChoiceRefund && address == "" {
		return false, apperror.ErrValidation("refund address is required")
	}
	var ok bool
	payload := emergencyPayload{ID: id, Token: token, Choice: choice, Address: address}
	if err := c.call(ctx, "emergency", payload, &ok); err != nil {
		return false, err
	}
	c.logger.Info().Str("order_id", id).Str("choice", string(choice)).Bool("accepted", ok).Msg("emergency resolved")
	return ok, nil
}

func (c *FixedFloat) call(ctx context.Context, method string, payload any, out any) error {
	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return apperror.ErrExchange("failed to encode request", err)
		}
		body = b
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/"+method, bytes.NewReader(body))
	if err != nil {
		return apperror.ErrExchange("failed to build request", err)
	}
	req.Header.Set("Accept", contentType)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("X-API-SIGN", c.Sign(body))

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.ErrExchange(method+" request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return apperror.ErrExchange("failed to read response", err)
	}
	c.logger.Debug().Str("method", method).Int("status", resp.StatusCode).Dur("took", time.Since(start)).Msg("exchange call")

	if resp.StatusCode != http.StatusOK {
		return apperror.ErrExchange(fmt.Sprintf("%s returned HTTP %d", method, resp.StatusCode), nil)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return apperror.ErrExchange("failed to decode response", err)
	}
	if env.Code != 0 {
		return apperror.ErrExchange(env.Msg, nil)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperror.ErrExchange("failed to decode "+method+" data", err)
	}
	return nil
}
