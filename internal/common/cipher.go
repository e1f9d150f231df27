package common

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
)

// Cipher encrypts provider access secrets before they are written to
// storage. The key is 32 bytes (AES-256); ciphertext is hex encoded with
// the random nonce prepended as "nonce:ciphertext".
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher creates a Cipher from a hex-encoded 32-byte key.
func NewCipher(hexKey string) (*Cipher, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("cipher key is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("cipher key must be 32 bytes, got %d", len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Cipher{aead: aead}, nil
}

// Encrypt encrypts plaintext and returns "nonce:ciphertext" in hex.
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := c.aead.Seal(nil, nonce, []byte(plaintext), nil)
	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt.
func (c *Cipher) Decrypt(encoded string) (string, error) {
	var nonceHex, sealedHex string
	for i := 0; i < len(encoded); i++ {
		if encoded[i] == ':' {
			nonceHex, sealedHex = encoded[:i], encoded[i+1:]
			break
		}
	}
	if nonceHex == "" || sealedHex == "" {
		return "", fmt.Errorf("malformed ciphertext")
	}

	nonce, err := hex.DecodeString(nonceHex)
	if err != nil {
		return "", fmt.Errorf("malformed nonce: %w", err)
	}
	sealed, err := hex.DecodeString(sealedHex)
	if err != nil {
		return "", fmt.Errorf("malformed ciphertext: %w", err)
	}

	plaintext, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}
