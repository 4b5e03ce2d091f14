package wallet

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
)

// GenerateEVMKey creates a new secp256k1 key and returns its checksummed
// address and raw private key bytes.
func GenerateEVMKey() (string, []byte, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), crypto.FromECDSA(key), nil
}

// GenerateSolanaKey creates a new ed25519 keypair.
func GenerateSolanaKey() (string, []byte, error) {
	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key.PublicKey().String(), []byte(key), nil
}
