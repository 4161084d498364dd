// Package services contains the connector's business logic. The
// ProvisioningService implements the scim.Service contract: idempotent
// upsert of externally-identified users with conditional secret
// encryption, a decrypting read path, and explicit not-supported results
// for everything else.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/passcapture/internal/common"
	"github.com/dmitrijs2005/passcapture/internal/dbx"
	"github.com/dmitrijs2005/passcapture/internal/logging"
	"github.com/dmitrijs2005/passcapture/internal/scim"
	"github.com/dmitrijs2005/passcapture/internal/server/identity"
	"github.com/dmitrijs2005/passcapture/internal/server/models"
	"github.com/dmitrijs2005/passcapture/internal/server/repositories/repomanager"
)

// SecretCipher is the slice of the vault the service needs. Encrypt runs
// on the critical path of every active-with-secret upsert, Decrypt on
// every read; nothing is cached across calls.
type SecretCipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

type ProvisioningService struct {
	db       *sql.DB
	repos    repomanager.RepositoryManager
	resolver *identity.Resolver
	cipher   SecretCipher
	logger   logging.Logger
}

var _ scim.Service = (*ProvisioningService)(nil)

func NewProvisioningService(db *sql.DB, repos repomanager.RepositoryManager,
	resolver *identity.Resolver, cipher SecretCipher, logger logging.Logger) *ProvisioningService {
	return &ProvisioningService{
		db:       db,
		repos:    repos,
		resolver: resolver,
		cipher:   cipher,
		logger:   logger.With("module", "provisioning"),
	}
}

// CreateUser provisions a user keyed by the external id resolved from the
// extension payload.
func (s *ProvisioningService) CreateUser(ctx context.Context, user *scim.User) (*scim.User, error) {
	externalID, err := s.resolver.Resolve(user.Extensions)
	if err != nil {
		return nil, err
	}

	if user.ID != "" && !strings.EqualFold(user.ID, externalID) {
		return nil, fmt.Errorf("%w: modifying the user id is not allowed", common.ErrValidation)
	}

	if err := s.upsert(ctx, externalID, user); err != nil {
		s.logger.Error(ctx, "create user failed", "external_id", externalID, "error", err.Error())
		return nil, err
	}

	s.logger.Info(ctx, "user provisioned", "external_id", externalID)
	return stamped(user, externalID), nil
}

// UpdateUser reconciles an existing user. The resolved external id must
// match the id the platform addresses; a mismatch is rejected before any
// storage access.
func (s *ProvisioningService) UpdateUser(ctx context.Context, id string, user *scim.User) (*scim.User, error) {
	externalID, err := s.resolver.Resolve(user.Extensions)
	if err != nil {
		return nil, err
	}

	if !strings.EqualFold(externalID, id) {
		return nil, fmt.Errorf("%w: modifying the user id is not allowed", common.ErrValidation)
	}

	if err := s.upsert(ctx, externalID, user); err != nil {
		s.logger.Error(ctx, "update user failed", "external_id", externalID, "error", err.Error())
		return nil, err
	}

	s.logger.Info(ctx, "user updated", "external_id", externalID)
	return stamped(user, externalID), nil
}

// upsert runs the existence probe and the matching statement variant in a
// single transaction. Concurrent calls for one external id are serialized
// by a transaction-scoped advisory lock; the primary key remains the
// backstop against duplicate inserts.
//
// Branches:
//   - row absent: insert the profile; a supplied secret is ignored on the
//     creation path
//   - row present, active, secret present: encrypt and store everything
//   - row present, active, no secret: rewrite the profile, leave the
//     stored secret untouched (a reactivated user keeps the previously
//     captured secret)
//   - row present, inactive, no secret: flip only the active flag
//   - row present, inactive, secret present: rejected — a secret cannot
//     be set through a deactivation
func (s *ProvisioningService) upsert(ctx context.Context, externalID string, u *scim.User) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repos.Users(tx)

		if err := repo.LockIdentity(ctx, externalID); err != nil {
			return err
		}

		exists, err := repo.Exists(ctx, externalID)
		if err != nil {
			return err
		}

		rec := &models.User{
			ExternalID: externalID,
			FirstName:  u.Name.GivenName,
			LastName:   u.Name.FamilyName,
			LoginName:  u.UserName,
			Active:     u.Active,
		}

		switch {
		case !exists:
			return repo.Insert(ctx, rec)

		case u.Active && u.Password != "":
			ciphertext, err := s.cipher.Encrypt([]byte(u.Password))
			if err != nil {
				return err
			}
			return repo.UpdateProfileWithSecret(ctx, rec, ciphertext)

		case u.Active:
			return repo.UpdateProfile(ctx, rec)

		case u.Password == "":
			return repo.UpdateActive(ctx, externalID, false)

		default:
			return fmt.Errorf("%w: secret submitted on a deactivation request", common.ErrValidation)
		}
	})
	if err == nil {
		return nil
	}

	// Begin/commit failures arrive untyped; everything leaving the upsert
	// must carry a sentinel.
	switch {
	case errors.Is(err, common.ErrValidation),
		errors.Is(err, common.ErrEncryption),
		errors.Is(err, common.ErrStorage):
		return err
	default:
		return fmt.Errorf("%w: %w", common.ErrStorage, err)
	}
}

// GetUser returns the stored user, decrypting the captured secret when
// one is present.
func (s *ProvisioningService) GetUser(ctx context.Context, id string) (*scim.User, error) {
	repo := s.repos.Users(s.db)

	rec, err := repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	user := &scim.User{
		ID:       rec.ExternalID,
		UserName: rec.LoginName,
		Name: scim.Name{
			GivenName:  rec.FirstName,
			FamilyName: rec.LastName,
		},
		Active: rec.Active,
	}

	if len(rec.Secret) > 0 {
		plaintext, err := s.cipher.Decrypt(rec.Secret)
		if err != nil {
			s.logger.Error(ctx, "stored secret could not be decrypted", "external_id", id, "error", err.Error())
			return nil, err
		}
		user.Password = string(plaintext)
	}

	return user, nil
}

// ListUsers is not implemented: filter translation and pagination belong
// to subsystems this connector does not ship.
func (s *ProvisioningService) ListUsers(ctx context.Context) ([]*scim.User, error) {
	return nil, fmt.Errorf("%w: filtered user queries", common.ErrUnsupported)
}

func (s *ProvisioningService) CreateGroup(ctx context.Context, group *scim.Group) (*scim.Group, error) {
	return nil, fmt.Errorf("%w: group management", common.ErrUnsupported)
}

func (s *ProvisioningService) GetGroup(ctx context.Context, id string) (*scim.Group, error) {
	return nil, fmt.Errorf("%w: group management", common.ErrUnsupported)
}

func (s *ProvisioningService) ListGroups(ctx context.Context) ([]*scim.Group, error) {
	return nil, fmt.Errorf("%w: group management", common.ErrUnsupported)
}

func (s *ProvisioningService) UpdateGroup(ctx context.Context, id string, group *scim.Group) (*scim.Group, error) {
	return nil, fmt.Errorf("%w: group management", common.ErrUnsupported)
}

func (s *ProvisioningService) DeleteGroup(ctx context.Context, id string) error {
	return fmt.Errorf("%w: group management", common.ErrUnsupported)
}

// Capabilities reports the static capability advertisement.
func (s *ProvisioningService) Capabilities() []scim.Capability {
	return scim.ImplementedCapabilities()
}

func stamped(u *scim.User, externalID string) *scim.User {
	out := *u
	out.ID = externalID
	return &out
}
