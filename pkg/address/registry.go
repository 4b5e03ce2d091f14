package address

import "strings"

var (
	evm      = EVMHex(true)
	tron     = Base58Check("T")
	litecoin = Any(Base58Check("L", "M"), Bech32("ltc"))
	solanaFm = CurvePoint()
)

var assetFamilies = map[string]ChainFamily{
	"USDTPOL": evm,
	"POL":     evm,
	"TRX":     tron,
	"LTC":     litecoin,
	"USDTSOL": solanaFm,
	"SOL":     solanaFm,
}

// ForAsset returns the address family for a currency code.
func ForAsset(asset string) (ChainFamily, bool) {
	f, ok := assetFamilies[strings.ToUpper(asset)]
	return f, ok
}

// Verdict is the outcome of an advisory address check.
type Verdict int

const (
	Unsupported Verdict = iota
	Valid
	Invalid
)

func (v Verdict) String() string {
	switch v {
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	}
	return "unsupported"
}

// Check validates address against the family registered for asset. Assets
// without a registered family are Unsupported, never Invalid.
func Check(asset, address string) Verdict {
	f, ok := ForAsset(asset)
	if !ok {
		return Unsupported
	}
	if IsValidAddress(f, address) {
		return Valid
	}
	return Invalid
}
