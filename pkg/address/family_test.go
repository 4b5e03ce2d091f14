package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	ltcLegacy = "LKKHMBjCU89fyFNgSRprDoD8Jb25N8uWvd"
	ltcP2SH   = "M7zVKQKmtV5Rc7erVGVVC3khZbXxsS5HEX"
	ltcBech32 = "ltc1qqypqxpq9qcrsszg2pvxq6rs0zqg3yyc5dyg36p"
	tronAddr  = "TA4Y62o6YC2Zsck9rZVGTvqW1AQ7X9zTnj"
	btcAddr   = "16L5yRNPTuciSgXGHqYwn9N6NeoKqopAu"
	btcBech32 = "bc1qqypqxpq9qcrsszg2pvxq6rs0zqg3yyc5fcj4z3"
	solWallet = "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU"
	solMint   = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	solOffCrv = "8qbHbw2BbbTHBW1sbeqakYXVKRQM8Ne7pLK7m6CVfeR"
)

func TestBase58Check(t *testing.T) {
	fam := Base58Check("L", "M")

	assert.True(t, IsValidAddress(fam, ltcLegacy))
	assert.True(t, IsValidAddress(fam, ltcP2SH))

	// corrupted last character
	assert.False(t, IsValidAddress(fam, "LKKHMBjCU89fyFNgSRprDoD8Jb25N8uWve"))
	// valid checksum, wrong prefix
	assert.False(t, IsValidAddress(fam, btcAddr))
	// truncated
	assert.False(t, IsValidAddress(fam, ltcLegacy[:20]))
	// characters outside the base58 alphabet
	assert.False(t, IsValidAddress(fam, "L0OIl"+ltcLegacy[5:]))
}

func TestBase58Check_EveryMutationRejected(t *testing.T) {
	fam := Base58Check("T")
	const alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

	for i := 1; i < len(tronAddr); i++ {
		for _, c := range alphabet {
			if byte(c) == tronAddr[i] {
				continue
			}
			mutated := tronAddr[:i] + string(c) + tronAddr[i+1:]
			if IsValidAddress(fam, mutated) {
				t.Fatalf("mutation at %d (%c) accepted: %s", i, c, mutated)
			}
		}
	}
}

func TestBech32(t *testing.T) {
	fam := Bech32("ltc")

	assert.True(t, IsValidAddress(fam, ltcBech32))
	assert.False(t, IsValidAddress(fam, btcBech32), "hrp mismatch")
	assert.False(t, IsValidAddress(fam, ltcBech32[:len(ltcBech32)-1]+"q"), "bad checksum")
}

func TestCurvePoint(t *testing.T) {
	fam := CurvePoint()

	assert.True(t, IsValidAddress(fam, solWallet))
	assert.True(t, IsValidAddress(fam, solMint))
	assert.False(t, IsValidAddress(fam, solOffCrv))
	assert.False(t, IsValidAddress(fam, "not-base58!"))
	assert.False(t, IsValidAddress(fam, tronAddr))
}

func TestEVMHex(t *testing.T) {
	checked := EVMHex(true)
	loose := EVMHex(false)

	assert.True(t, IsValidAddress(checked, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"))
	assert.True(t, IsValidAddress(checked, "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"))
	assert.True(t, IsValidAddress(checked, "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"), "all lower is unchecked")
	assert.True(t, IsValidAddress(checked, "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED"), "all upper is unchecked")

	bad := "0x5aaeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	assert.False(t, IsValidAddress(checked, bad))
	assert.True(t, IsValidAddress(loose, bad))

	assert.False(t, IsValidAddress(loose, "5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"), "missing 0x")
	assert.False(t, IsValidAddress(loose, "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeA"), "short")
	assert.False(t, IsValidAddress(loose, "0xZZAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"))
}

func TestAny(t *testing.T) {
	fam := Any(Base58Check("L", "M"), Bech32("ltc"))

	assert.True(t, IsValidAddress(fam, ltcLegacy))
	assert.True(t, IsValidAddress(fam, ltcBech32))
	assert.False(t, IsValidAddress(fam, btcBech32))
	assert.False(t, IsValidAddress(Any(), ltcLegacy))
}

func TestIsValidAddress_EmptyAndUnknownKind(t *testing.T) {
	assert.False(t, IsValidAddress(EVMHex(false), ""))
	assert.False(t, IsValidAddress(ChainFamily{}, ltcLegacy))
}

func TestIsValidAddress_Deterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.True(t, IsValidAddress(litecoin, ltcLegacy))
		assert.False(t, IsValidAddress(litecoin, tronAddr))
	}
}
