// Package repomanager wires repositories to a concrete storage backend
// and owns schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/passcapture/internal/dbx"
	"github.com/dmitrijs2005/passcapture/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error

	// Users returns a users repository bound to db, which may be either
	// the pool or an open transaction.
	Users(db dbx.DBTX) users.Repository
}
