package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/DollarNoob/Pay/pkg/types"
)

// <amount> [<unit>] <asset> to <address>; the address keeps its case.
var sendPattern = regexp.MustCompile(`(?i)^(?:send\s+|swap\s+)?(\d+(?:\.\d+)?)\s+([a-z]+)(?:\s+([a-z]+))?\s+to\s+(\S+)$`)

// ParseSwapCommand parses a natural language send command
// Examples:
//   - "send 10 TRX to TXYZ..."
//   - "10 USD SOL to 7xKX..."
//   - "swap 15000 KRW LTC to ltc1q..."
func ParseSwapCommand(command string) (*types.SwapRequest, error) {
	command = strings.TrimSpace(command)

	matches := sendPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid send command format. Expected: 'send <amount> [unit] <asset> to <address>' (e.g., 'send 10 USD TRX to T...')")
	}

	amount, err := decimal.NewFromString(matches[1])
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", matches[1], err)
	}

	req := &types.SwapRequest{
		Amount:      amount,
		Unit:        types.UnitCoin,
		Destination: matches[4],
	}
	if matches[3] == "" {
		req.Asset = NormalizeTokenSymbol(matches[2])
	} else {
		req.Unit = strings.ToUpper(matches[2])
		req.Asset = NormalizeTokenSymbol(matches[3])
	}

	return req, nil
}

// ValidateSwapRequest validates that a swap request has all required fields
func ValidateSwapRequest(req *types.SwapRequest) error {
	if !req.Amount.IsPositive() {
		return fmt.Errorf("amount must be positive")
	}
	if req.Unit == "" {
		req.Unit = types.UnitCoin
	}
	if !types.IsUnit(req.Unit) {
		return fmt.Errorf("unsupported unit %s (supported: %s)", req.Unit, strings.Join(types.Units(), ", "))
	}
	if _, ok := types.LookupCurrency(req.Asset); !ok {
		return fmt.Errorf("unsupported currency %s", req.Asset)
	}
	if req.SourceOverride != "" {
		src, ok := types.LookupCurrency(req.SourceOverride)
		if !ok || src.Custody == "" {
			return fmt.Errorf("%s cannot be used as a source", req.SourceOverride)
		}
	}
	if strings.TrimSpace(req.Destination) == "" {
		return fmt.Errorf("destination address is required")
	}
	return nil
}

// NormalizeTokenSymbol normalizes token symbols to standard format
func NormalizeTokenSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	aliases := map[string]string{
		"MATIC":     "POL",
		"USDT":      "USDTPOL",
		"USDTMATIC": "USDTPOL",
		"TRON":      "TRX",
		"WSOL":      "SOL",
	}

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}

	return symbol
}
