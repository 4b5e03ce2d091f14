package types

import "strings"

// Chain identifies the custody chain a wallet lives on.
type Chain string

const (
	ChainPolygon Chain = "polygon"
	ChainSolana  Chain = "solana"
)

// NativeAsset is the code of the coin paying fees on c.
func (c Chain) NativeAsset() string {
	switch c {
	case ChainPolygon:
		return "POL"
	case ChainSolana:
		return "SOL"
	}
	return ""
}

// Currency describes a destination asset the service can send.
type Currency struct {
	Code         string // user-facing code, e.g. USDTPOL
	Name         string
	Coin         string // market ticker, e.g. USDT
	ExchangeCode string // FixedFloat ccy code
	Stable       bool   // pegged 1:1 to USD
	ExplorerTx   string // prefix for transaction links
	Custody      Chain  // non-empty when the service holds this asset itself
}

// DefaultSource is the custody asset used to fund swaps.
const DefaultSource = "USDTPOL"

var currencies = []Currency{
	{Code: "USDTPOL", Name: "Tether (Polygon)", Coin: "USDT", ExchangeCode: "USDTMATIC", Stable: true, ExplorerTx: "https://polygonscan.com/tx/", Custody: ChainPolygon},
	{Code: "POL", Name: "Polygon", Coin: "POL", ExchangeCode: "POL", ExplorerTx: "https://polygonscan.com/tx/"},
	{Code: "TRX", Name: "Tronix", Coin: "TRX", ExchangeCode: "TRX", ExplorerTx: "https://tronscan.org/#/transaction/"},
	{Code: "LTC", Name: "Litecoin", Coin: "LTC", ExchangeCode: "LTC", ExplorerTx: "https://blockchair.com/litecoin/transaction/"},
	{Code: "USDTSOL", Name: "Tether (Solana)", Coin: "USDT", ExchangeCode: "USDTSOL", Stable: true, ExplorerTx: "https://solscan.io/tx/", Custody: ChainSolana},
	{Code: "SOL", Name: "Solana", Coin: "SOL", ExchangeCode: "SOL", ExplorerTx: "https://solscan.io/tx/"},
}

// Currencies returns the supported destination assets in display order.
func Currencies() []Currency {
	out := make([]Currency, len(currencies))
	copy(out, currencies)
	return out
}

// LookupCurrency finds a currency by its user-facing code.
func LookupCurrency(code string) (Currency, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	for _, c := range currencies {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

// Amount units accepted for the entered amount.
const (
	UnitCoin   = "COIN"
	UnitUSD    = "USD"
	UnitKRW    = "KRW"
	UnitKimchi = "KIMCHI"
	UnitTRY    = "TRY"
	UnitJPY    = "JPY"
	UnitCNY    = "CNY"
)

var units = []string{UnitCoin, UnitUSD, UnitKRW, UnitKimchi, UnitTRY, UnitJPY, UnitCNY}

// Units returns the accepted amount units.
func Units() []string {
	out := make([]string, len(units))
	copy(out, units)
	return out
}

// IsUnit reports whether u is an accepted amount unit.
func IsUnit(u string) bool {
	for _, x := range units {
		if x == u {
			return true
		}
	}
	return false
}
