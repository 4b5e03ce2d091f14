// Package crypto seals custody private keys at rest with AES-256-GCM.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrCiphertextTooShort is returned for input shorter than a nonce.
var ErrCiphertextTooShort = errors.New("ciphertext too short")

// Sealer encrypts and decrypts key material. Output is hex(nonce || ciphertext).
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer builds a Sealer from a 64-character hex key.
func NewSealer(hexKey string) (*Sealer, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("decoding sealing key: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("sealing key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal encrypts a private key. The address is bound as additional data so a
// sealed key cannot be moved to another wallet row.
func (s *Sealer) Seal(address string, privateKey []byte) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generating nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, privateKey, []byte(address))
	return hex.EncodeToString(out), nil
}

// Open reverses Seal.
func (s *Sealer) Open(address, sealed string) ([]byte, error) {
	raw, err := hex.DecodeString(sealed)
	if err != nil {
		return nil, fmt.Errorf("decoding sealed key: %w", err)
	}
	n := s.aead.NonceSize()
	if len(raw) < n {
		return nil, ErrCiphertextTooShort
	}
	plain, err := s.aead.Open(nil, raw[:n], raw[n:], []byte(address))
	if err != nil {
		return nil, fmt.Errorf("opening sealed key: %w", err)
	}
	return plain, nil
}
