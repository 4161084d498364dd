// Package vault protects captured secrets with an RSA keypair that is
// generated once, persisted through a KeyStore, and reused for the life
// of the deployment. Losing the private key makes every stored secret
// permanently unrecoverable; the vault never regenerates over an
// existing keypair.
package vault

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/passcapture/internal/common"
	"github.com/dmitrijs2005/passcapture/internal/cryptox"
	"github.com/dmitrijs2005/passcapture/internal/logging"
)

const keyBits = 2048

const (
	pemTypePrivate = "PRIVATE KEY"
	pemTypePublic  = "PUBLIC KEY"
)

// Vault encrypts and decrypts secrets with RSA-OAEP (SHA-256). Init must
// complete before the server accepts traffic; Encrypt and Decrypt fail
// deterministically until it has.
type Vault struct {
	store      KeyStore
	passphrase []byte
	logger     logging.Logger

	mu   sync.Mutex
	priv *rsa.PrivateKey
}

// New returns an uninitialized vault. An empty passphrase stores the
// keypair unwrapped; otherwise the serialized keypair is sealed with a
// passphrase-derived key before it reaches the store.
func New(store KeyStore, passphrase string, logger logging.Logger) *Vault {
	return &Vault{
		store:      store,
		passphrase: []byte(passphrase),
		logger:     logger.With("module", "vault"),
	}
}

// Init loads the persisted keypair or, when none exists, generates and
// persists a new one. It is guarded by a mutex and idempotent: later
// calls are no-ops once key material is in place.
func (v *Vault) Init(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.priv != nil {
		return nil
	}

	data, err := v.store.Load(ctx)
	switch {
	case err == nil:
		priv, err := v.deserialize(data)
		if err != nil {
			return fmt.Errorf("%w: stored keypair: %w", common.ErrEncryption, err)
		}
		v.priv = priv
		v.logger.Info(ctx, "loaded existing keypair; losing it makes stored secrets unrecoverable")
		return nil

	case errors.Is(err, ErrNoKey):
		priv, err := rsa.GenerateKey(rand.Reader, keyBits)
		if err != nil {
			return fmt.Errorf("%w: generate keypair: %w", common.ErrEncryption, err)
		}
		data, err := v.serialize(priv)
		if err != nil {
			return fmt.Errorf("%w: serialize keypair: %w", common.ErrEncryption, err)
		}
		if err := v.store.Save(ctx, data); err != nil {
			return fmt.Errorf("%w: persist keypair: %w", common.ErrEncryption, err)
		}
		v.priv = priv
		v.logger.Info(ctx, "generated and persisted new keypair", "bits", keyBits)
		return nil

	default:
		return fmt.Errorf("%w: load keypair: %w", common.ErrEncryption, err)
	}
}

// Encrypt returns ciphertext bound to the current public key.
func (v *Vault) Encrypt(plaintext []byte) ([]byte, error) {
	priv := v.key()
	if priv == nil {
		return nil, fmt.Errorf("%w: no key material, vault not initialized", common.ErrEncryption)
	}

	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, &priv.PublicKey, plaintext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrEncryption, err)
	}
	return ciphertext, nil
}

// Decrypt recovers plaintext. Ciphertext produced under a different
// keypair, or malformed input, fails with an encryption error.
func (v *Vault) Decrypt(ciphertext []byte) ([]byte, error) {
	priv := v.key()
	if priv == nil {
		return nil, fmt.Errorf("%w: no key material, vault not initialized", common.ErrEncryption)
	}

	plaintext, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext does not match loaded keypair: %w", common.ErrEncryption, err)
	}
	return plaintext, nil
}

func (v *Vault) key() *rsa.PrivateKey {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.priv
}

// serialize renders both halves of the keypair as PEM blocks and, when a
// passphrase is configured, seals the result.
func (v *Vault) serialize(priv *rsa.PrivateKey) ([]byte, error) {
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, err
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, err
	}

	pemData := append(
		pem.EncodeToMemory(&pem.Block{Type: pemTypePrivate, Bytes: privDER}),
		pem.EncodeToMemory(&pem.Block{Type: pemTypePublic, Bytes: pubDER})...,
	)

	if len(v.passphrase) == 0 {
		return pemData, nil
	}
	return cryptox.Seal(pemData, v.passphrase)
}

func (v *Vault) deserialize(data []byte) (*rsa.PrivateKey, error) {
	if len(v.passphrase) > 0 {
		opened, err := cryptox.Open(data, v.passphrase)
		if err != nil {
			return nil, err
		}
		data = opened
	}

	for block, rest := pem.Decode(data); block != nil; block, rest = pem.Decode(rest) {
		if block.Type != pemTypePrivate {
			continue
		}
		key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, err
		}
		priv, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("stored key is not RSA")
		}
		return priv, nil
	}
	return nil, errors.New("no private key block found")
}
