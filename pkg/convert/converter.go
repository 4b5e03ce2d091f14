// Package convert turns a user-entered amount in any supported unit into the
// destination asset's native amount.
package convert

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/DollarNoob/Pay/pkg/address"
	"github.com/DollarNoob/Pay/pkg/apperror"
	"github.com/DollarNoob/Pay/pkg/rates"
	"github.com/DollarNoob/Pay/pkg/types"
)

// Places is the precision of every converted amount.
const Places = 8

// Request is an immutable conversion input.
type Request struct {
	Amount  decimal.Decimal
	Unit    string
	Asset   string
	Address string
}

// Preview is what the user confirms before a swap starts.
type Preview struct {
	Request    Request
	Currency   types.Currency
	Normalized decimal.Decimal
	Estimate   bool // amount went through a rate source
	Address    address.Verdict
}

// Converter resolves amounts against live rate sources.
type Converter struct {
	market  rates.MarketSource
	fiat    rates.FiatSource
	premium rates.PremiumSource
	logger  zerolog.Logger
}

func New(market rates.MarketSource, fiat rates.FiatSource, premium rates.PremiumSource, logger zerolog.Logger) *Converter {
	return &Converter{
		market:  market,
		fiat:    fiat,
		premium: premium,
		logger:  logger.With().Str("component", "converter").Logger(),
	}
}

// IsIdentity reports whether converting from unit to asset needs no rate.
func IsIdentity(unit string, cur types.Currency) bool {
	unit = strings.ToUpper(unit)
	return unit == "" || unit == types.UnitCoin || unit == cur.Code || (cur.Stable && unit == types.UnitUSD)
}

// Convert returns amount, denominated in unit, as an amount of asset rounded
// to eight decimal places.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, unit, asset string) (decimal.Decimal, error) {
	cur, ok := types.LookupCurrency(asset)
	if !ok {
		return decimal.Zero, apperror.ErrValidation("unsupported currency " + asset)
	}
	unit = strings.ToUpper(strings.TrimSpace(unit))
	if unit != "" && unit != cur.Code && !types.IsUnit(unit) {
		return decimal.Zero, apperror.ErrValidation("unsupported unit " + unit)
	}
	if amount.IsNegative() {
		return decimal.Zero, apperror.ErrValidation("amount must not be negative")
	}

	if IsIdentity(unit, cur) {
		return amount.Round(Places), nil
	}

	market, err := c.marketPrice(ctx, cur)
	if err != nil {
		return decimal.Zero, err
	}

	var out decimal.Decimal
	switch unit {
	case types.UnitUSD:
		out = amount.Div(market)

	case types.UnitKimchi:
		premium, err := c.premium.Price(ctx, cur.Coin)
		if err != nil {
			return decimal.Zero, apperror.ErrRateUnavailable(rates.SourcePremium, err)
		}
		out = amount.Div(premium.Div(market)).Div(market)

	default:
		snap, err := c.fiat.Snapshot(ctx)
		if err != nil {
			return decimal.Zero, apperror.ErrRateUnavailable(rates.SourceFiat, err)
		}
		perUnit, ok := snap.Rate(unit)
		if !ok {
			return decimal.Zero, apperror.ErrRateUnavailable(snap.Source, errMissingRate(unit))
		}
		perUSD, ok := snap.Rate(types.UnitUSD)
		if !ok {
			return decimal.Zero, apperror.ErrRateUnavailable(snap.Source, errMissingRate(types.UnitUSD))
		}
		out = amount.Mul(perUnit).Div(perUSD).Div(market)
	}

	out = out.Round(Places)
	c.logger.Debug().
		Str("amount", amount.String()).
		Str("unit", unit).
		Str("asset", cur.Code).
		Str("result", out.String()).
		Msg("amount converted")
	return out, nil
}

// Preview converts req and checks its destination address.
func (c *Converter) Preview(ctx context.Context, req Request) (*Preview, error) {
	normalized, err := c.Convert(ctx, req.Amount, req.Unit, req.Asset)
	if err != nil {
		return nil, err
	}
	cur, _ := types.LookupCurrency(req.Asset)
	return &Preview{
		Request:    req,
		Currency:   cur,
		Normalized: normalized,
		Estimate:   !IsIdentity(req.Unit, cur),
		Address:    address.Check(cur.Code, req.Address),
	}, nil
}

func (c *Converter) marketPrice(ctx context.Context, cur types.Currency) (decimal.Decimal, error) {
	if cur.Stable {
		return decimal.NewFromInt(1), nil
	}
	p, err := c.market.Price(ctx, cur.Coin)
	if err != nil {
		return decimal.Zero, apperror.ErrRateUnavailable(rates.SourceMarket, err)
	}
	if !p.IsPositive() {
		return decimal.Zero, apperror.ErrRateUnavailable(rates.SourceMarket, errMissingRate(cur.Coin))
	}
	return p, nil
}

type errMissingRate string

func (e errMissingRate) Error() string {
	return "no rate for " + string(e)
}
