package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/passcapture/internal/common"
	"github.com/dmitrijs2005/passcapture/internal/dbx"
	"github.com/dmitrijs2005/passcapture/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) LockIdentity(ctx context.Context, externalID string) error {
	// Transaction-scoped advisory lock; released automatically at
	// commit/rollback. Serializes probe-then-write sequences for one
	// external id across connections.
	query := `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`

	if _, err := r.db.ExecContext(ctx, query, externalID); err != nil {
		return fmt.Errorf("%w: lock identity: %w", common.ErrStorage, err)
	}
	return nil
}

func (r *PostgresRepository) Exists(ctx context.Context, externalID string) (bool, error) {
	query := `SELECT active FROM users WHERE external_id = $1`

	var active bool
	err := r.db.QueryRowContext(ctx, query, externalID).Scan(&active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("%w: existence probe: %w", common.ErrStorage, err)
	}
	return true, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, user *models.User) error {
	query :=
		`INSERT INTO users (external_id, first_name, last_name, login_name, active)
		 VALUES ($1, $2, $3, $4, $5)`

	res, err := r.db.ExecContext(ctx, query,
		user.ExternalID, user.FirstName, user.LastName, user.LoginName, user.Active)
	if err != nil {
		return fmt.Errorf("%w: insert user: %w", common.ErrStorage, err)
	}
	return requireOneRow(res, "insert user")
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET first_name = $1, last_name = $2, login_name = $3, active = $4, updated_at = now()
		 WHERE external_id = $5`

	res, err := r.db.ExecContext(ctx, query,
		user.FirstName, user.LastName, user.LoginName, user.Active, user.ExternalID)
	if err != nil {
		return fmt.Errorf("%w: update profile: %w", common.ErrStorage, err)
	}
	return requireOneRow(res, "update profile")
}

func (r *PostgresRepository) UpdateProfileWithSecret(ctx context.Context, user *models.User, secret []byte) error {
	query :=
		`UPDATE users SET first_name = $1, last_name = $2, login_name = $3, secret = $4, active = $5, updated_at = now()
		 WHERE external_id = $6`

	res, err := r.db.ExecContext(ctx, query,
		user.FirstName, user.LastName, user.LoginName, secret, user.Active, user.ExternalID)
	if err != nil {
		return fmt.Errorf("%w: update profile with secret: %w", common.ErrStorage, err)
	}
	return requireOneRow(res, "update profile with secret")
}

func (r *PostgresRepository) UpdateActive(ctx context.Context, externalID string, active bool) error {
	query := `UPDATE users SET active = $1, updated_at = now() WHERE external_id = $2`

	res, err := r.db.ExecContext(ctx, query, active, externalID)
	if err != nil {
		return fmt.Errorf("%w: update active flag: %w", common.ErrStorage, err)
	}
	return requireOneRow(res, "update active flag")
}

func (r *PostgresRepository) Get(ctx context.Context, externalID string) (*models.User, error) {
	query :=
		`SELECT external_id, first_name, last_name, login_name, secret, active, created_at, updated_at
		 FROM users WHERE external_id = $1`

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, externalID).Scan(
		&user.ExternalID, &user.FirstName, &user.LastName, &user.LoginName,
		&user.Secret, &user.Active, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: get user: %w", common.ErrStorage, err)
	}
	return user, nil
}

// requireOneRow turns any affected-row count other than one into a
// storage failure: either the row vanished between probe and write or a
// key constraint fired.
func requireOneRow(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", common.ErrStorage, op, err)
	}
	if affected != 1 {
		return fmt.Errorf("%w: %w: %s: expected 1 row affected, got %d",
			common.ErrStorage, common.ErrUnexpectedRowCount, op, affected)
	}
	return nil
}
