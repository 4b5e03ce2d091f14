package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = strings.Repeat("ab", 32)

func TestSealer_RoundTrip(t *testing.T) {
	s, err := NewSealer(testKey)
	require.NoError(t, err)

	secret := []byte("private-key-bytes")
	sealed, err := s.Seal("0xabc", secret)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "private")

	opened, err := s.Open("0xabc", sealed)
	require.NoError(t, err)
	assert.Equal(t, secret, opened)
}

func TestSealer_NonceIsRandom(t *testing.T) {
	s, err := NewSealer(testKey)
	require.NoError(t, err)

	a, err := s.Seal("addr", []byte("k"))
	require.NoError(t, err)
	b, err := s.Seal("addr", []byte("k"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSealer_BoundToAddress(t *testing.T) {
	s, err := NewSealer(testKey)
	require.NoError(t, err)

	sealed, err := s.Seal("wallet-a", []byte("k"))
	require.NoError(t, err)

	_, err = s.Open("wallet-b", sealed)
	assert.Error(t, err)
}

func TestSealer_WrongKey(t *testing.T) {
	s1, err := NewSealer(testKey)
	require.NoError(t, err)
	s2, err := NewSealer(strings.Repeat("cd", 32))
	require.NoError(t, err)

	sealed, err := s1.Seal("addr", []byte("k"))
	require.NoError(t, err)

	_, err = s2.Open("addr", sealed)
	assert.Error(t, err)
}

func TestSealer_BadInput(t *testing.T) {
	_, err := NewSealer("zz")
	assert.Error(t, err)

	_, err = NewSealer("abcd")
	assert.Error(t, err)

	s, err := NewSealer(testKey)
	require.NoError(t, err)

	_, err = s.Open("addr", "not-hex")
	assert.Error(t, err)

	_, err = s.Open("addr", "abcd")
	assert.ErrorIs(t, err, ErrCiphertextTooShort)
}
