// Package cryptox provides passphrase-based sealing of small blobs.
// It is used by the vault to protect serialized key material at rest.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/passcapture/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	saltSize  = 16
	nonceSize = 12
	keySize   = 32
)

// DeriveKey derives a 256-bit AES key from a passphrase and salt using
// Argon2id. Same inputs always yield the same key.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, 1, 64*1024, 4, keySize)
}

// sealedBlob is the serialized envelope written to the key store when a
// passphrase is configured.
type sealedBlob struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Seal encrypts plaintext with AES-GCM under a key derived from the
// passphrase and a fresh random salt, and returns the JSON envelope.
func Seal(plaintext, passphrase []byte) ([]byte, error) {
	salt := common.GenerateRandByteArray(saltSize)
	nonce := common.GenerateRandByteArray(nonceSize)

	aesgcm, err := newGCM(DeriveKey(passphrase, salt))
	if err != nil {
		return nil, err
	}

	blob := sealedBlob{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aesgcm.Seal(nil, nonce, plaintext, nil),
	}
	return json.Marshal(blob)
}

// Open decrypts an envelope produced by Seal. A wrong passphrase or a
// tampered envelope yields an error.
func Open(data, passphrase []byte) ([]byte, error) {
	var blob sealedBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("malformed envelope: %w", err)
	}

	aesgcm, err := newGCM(DeriveKey(passphrase, blob.Salt))
	if err != nil {
		return nil, err
	}

	plaintext, err := aesgcm.Open(nil, blob.Nonce, blob.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("open envelope: %w", err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
