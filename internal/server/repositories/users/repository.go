package users

import (
	"context"

	"github.com/dmitrijs2005/passcapture/internal/server/models"
)

// Repository persists provisioned users. Every write requires exactly one
// affected row; anything else surfaces as a storage failure so the
// enclosing transaction rolls back.
type Repository interface {
	// LockIdentity serializes concurrent upserts of the same external id
	// for the lifetime of the surrounding transaction.
	LockIdentity(ctx context.Context, externalID string) error

	// Exists probes whether a row with the external id is present.
	Exists(ctx context.Context, externalID string) (bool, error)

	// Insert creates the row. The secret column is never written here.
	Insert(ctx context.Context, user *models.User) error

	// UpdateProfile rewrites name, login name and the active flag. The
	// secret column is left untouched.
	UpdateProfile(ctx context.Context, user *models.User) error

	// UpdateProfileWithSecret additionally stores the encrypted secret.
	UpdateProfileWithSecret(ctx context.Context, user *models.User, secret []byte) error

	// UpdateActive flips only the active flag.
	UpdateActive(ctx context.Context, externalID string, active bool) error

	// Get returns the stored row or common.ErrNotFound.
	Get(ctx context.Context, externalID string) (*models.User, error)
}
