package vault

import (
	"context"
	"errors"
)

// ErrNoKey is returned by a KeyStore when no keypair has been persisted
// yet. The vault reacts by generating one.
var ErrNoKey = errors.New("no stored keypair")

// KeyStore persists the serialized keypair. Implementations must return
// ErrNoKey (possibly wrapped) when nothing has been stored.
type KeyStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}
