// Package identity extracts the external unique identifier from the
// extension payload attached to incoming users.
package identity

import (
	"fmt"

	"github.com/dmitrijs2005/passcapture/internal/common"
)

// Config names the extension schema and property that carry the external
// identifier. It is constructed once at startup and never mutated.
type Config struct {
	SchemaURN string
	Property  string
}

// Resolver looks up the external identifier in an extension payload.
// Resolve is a pure function over its input: no side effects, same input
// always yields the same output.
type Resolver struct {
	schemaURN string
	property  string
}

func NewResolver(cfg Config) *Resolver {
	return &Resolver{schemaURN: cfg.SchemaURN, property: cfg.Property}
}

// Resolve returns the external identifier found under the configured
// schema URN and property. The identifier is load-bearing (it becomes the
// storage primary key), so absence fails with ErrMissingIdentifier rather
// than falling back to a synthesized value. Beyond non-emptiness the
// format is not validated; storage constraints own that.
func (r *Resolver) Resolve(extensions map[string]map[string]any) (string, error) {
	ext, ok := extensions[r.schemaURN]
	if !ok {
		return "", fmt.Errorf("%w: expected custom extension %q", common.ErrMissingIdentifier, r.schemaURN)
	}

	raw, ok := ext[r.property]
	if !ok {
		return "", fmt.Errorf("%w: extension %q has no property %q", common.ErrMissingIdentifier, r.schemaURN, r.property)
	}

	id, ok := raw.(string)
	if !ok || id == "" {
		return "", fmt.Errorf("%w: property %q is not a non-empty string", common.ErrMissingIdentifier, r.property)
	}

	return id, nil
}
