// Package scim defines the connector contract: the normalized user
// representation exchanged with the identity-provider platform, the
// service interface the connector implements, and the static capability
// declaration. The wire protocol itself (framing, pagination, filter
// grammar) belongs to the platform side and is not modelled here.
package scim

// Name carries the user's split name as delivered by the platform.
type Name struct {
	GivenName  string `json:"givenName"`
	FamilyName string `json:"familyName"`
}

// User is the normalized user representation. Extensions holds the
// caller-defined schema extensions, keyed by schema URN; the connector
// reads exactly one well-known property out of it (the external unique
// identifier) and treats the rest as opaque.
type User struct {
	ID         string                    `json:"id,omitempty"`
	UserName   string                    `json:"userName"`
	Name       Name                      `json:"name"`
	Password   string                    `json:"password,omitempty"`
	Active     bool                      `json:"active"`
	Extensions map[string]map[string]any `json:"extensions,omitempty"`
}

// Group is accepted on the wire but group management is not implemented;
// every group operation reports NOT_SUPPORTED.
type Group struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"displayName"`
	Members []string `json:"members,omitempty"`
}
