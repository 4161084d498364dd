package vault

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/passcapture/internal/filex"
)

const keyFileName = "keypair.pem"

// FileStore keeps the serialized keypair in a single file under dir.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, keyFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoKey, s.dir)
		}
		return nil, fmt.Errorf("read keypair: %w", err)
	}
	return data, nil
}

func (s *FileStore) Save(ctx context.Context, data []byte) error {
	dir, err := filex.EnsureDir(s.dir)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, keyFileName), data, 0o600); err != nil {
		return fmt.Errorf("write keypair: %w", err)
	}
	return nil
}
