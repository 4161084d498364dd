package scim

import "context"

// Service is the lifecycle contract the connector implements for the
// identity-provider platform. Implementations return typed failures from
// the common package; unimplemented capabilities return
// common.ErrUnsupported rather than panicking or silently succeeding.
type Service interface {
	// CreateUser provisions the user, resolving the external id from the
	// extension payload. Returns the user stamped with its resolved id.
	CreateUser(ctx context.Context, user *User) (*User, error)

	// UpdateUser reconciles an existing user. A request whose resolved
	// external id differs from id is rejected before any write.
	UpdateUser(ctx context.Context, id string, user *User) (*User, error)

	// GetUser returns the user stored under the external id, with the
	// captured secret decrypted.
	GetUser(ctx context.Context, id string) (*User, error)

	// ListUsers is not implemented (filtered and paginated queries are
	// out of scope).
	ListUsers(ctx context.Context) ([]*User, error)

	// Group management is not implemented.
	CreateGroup(ctx context.Context, group *Group) (*Group, error)
	GetGroup(ctx context.Context, id string) (*Group, error)
	ListGroups(ctx context.Context) ([]*Group, error)
	UpdateGroup(ctx context.Context, id string, group *Group) (*Group, error)
	DeleteGroup(ctx context.Context, id string) error

	// Capabilities reports the static capability advertisement.
	Capabilities() []Capability
}
