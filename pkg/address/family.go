// Package address performs offline, chain-specific validation of destination
// addresses. Validation is advisory: callers warn on a negative result but may
// still proceed.
package address

import (
	"bytes"
	"strings"

	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
)

// Kind tags a ChainFamily.
type Kind int

const (
	KindBase58Check Kind = iota + 1
	KindBech32
	KindCurvePoint
	KindEVMHex
	KindAny
)

func (k Kind) String() string {
	switch k {
	case KindBase58Check:
		return "base58check"
	case KindBech32:
		return "bech32"
	case KindCurvePoint:
		return "curve-point"
	case KindEVMHex:
		return "evm-hex"
	case KindAny:
		return "any"
	}
	return "unknown"
}

// ChainFamily describes how addresses of a chain are encoded. Only the fields
// relevant to Kind are set.
type ChainFamily struct {
	Kind     Kind
	Prefixes []string      // Base58Check: accepted leading characters
	HRP      string        // Bech32: human-readable part
	Checksum bool          // EVMHex: enforce EIP-55 on mixed-case input
	Members  []ChainFamily // Any
}

const (
	base58CheckLen = 25
	checksumLen    = 4
)

func Base58Check(prefixes ...string) ChainFamily {
	return ChainFamily{Kind: KindBase58Check, Prefixes: prefixes}
}

func Bech32(hrp string) ChainFamily {
	return ChainFamily{Kind: KindBech32, HRP: strings.ToLower(hrp)}
}

func CurvePoint() ChainFamily {
	return ChainFamily{Kind: KindCurvePoint}
}

func EVMHex(checksum bool) ChainFamily {
	return ChainFamily{Kind: KindEVMHex, Checksum: checksum}
}

// Any accepts an address valid under at least one of the given families.
func Any(families ...ChainFamily) ChainFamily {
	return ChainFamily{Kind: KindAny, Members: families}
}

// IsValidAddress reports whether address is well-formed for the chain family.
// It never panics and performs no I/O.
func IsValidAddress(chain ChainFamily, address string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	address = strings.TrimSpace(address)
	if address == "" {
		return false
	}

	switch chain.Kind {
	case KindBase58Check:
		return validBase58Check(address, chain.Prefixes)
	case KindBech32:
		return validBech32(address, chain.HRP)
	case KindCurvePoint:
		return validCurvePoint(address)
	case KindEVMHex:
		return validEVMHex(address, chain.Checksum)
	case KindAny:
		for _, m := range chain.Members {
			if IsValidAddress(m, address) {
				return true
			}
		}
	}
	return false
}

func validBase58Check(address string, prefixes []string) bool {
	if len(prefixes) > 0 && !hasAnyPrefix(address, prefixes) {
		return false
	}

	decoded := base58.Decode(address)
	if len(decoded) != base58CheckLen {
		return false
	}

	payload := decoded[:base58CheckLen-checksumLen]
	checksum := decoded[base58CheckLen-checksumLen:]
	return bytes.Equal(chainhash.DoubleHashB(payload)[:checksumLen], checksum)
}

func validBech32(address, hrp string) bool {
	got, data, _, err := bech32.DecodeGeneric(address)
	if err != nil || len(data) == 0 {
		return false
	}
	return got == hrp
}

func validCurvePoint(address string) bool {
	pk, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return false
	}
	return pk.IsOnCurve()
}

func validEVMHex(address string, checksum bool) bool {
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		return false
	}
	if !common.IsHexAddress(address) {
		return false
	}
	if !checksum {
		return true
	}

	hexPart := address[2:]
	if hexPart == strings.ToLower(hexPart) || hexPart == strings.ToUpper(hexPart) {
		return true
	}
	return common.HexToAddress(address).Hex() == "0x"+hexPart
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
