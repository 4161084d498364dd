// Package models contains the storage-level records persisted by the
// connector.
package models

import "time"

// User is one row of the users table. ExternalID is the caller-supplied
// stable identifier and the primary key; it never changes once assigned.
// Secret holds ciphertext only — plaintext never reaches storage.
type User struct {
	ExternalID string
	FirstName  string
	LastName   string
	LoginName  string
	Secret     []byte
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
