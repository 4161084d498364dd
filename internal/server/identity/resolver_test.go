package identity

import (
	"errors"
	"testing"

	"github.com/dmitrijs2005/passcapture/internal/common"
)

const (
	testURN      = "urn:passcapture:opp:1.0:user:custom"
	testProperty = "uniqueid"
)

func newTestResolver() *Resolver {
	return NewResolver(Config{SchemaURN: testURN, Property: testProperty})
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		extensions map[string]map[string]any
		want       string
		wantErr    bool
	}{
		{
			name:       "happy path",
			extensions: map[string]map[string]any{testURN: {testProperty: "u-42"}},
			want:       "u-42",
		},
		{
			name:       "other schemas ignored",
			extensions: map[string]map[string]any{"urn:other": {"x": 1}, testURN: {testProperty: "u-7", "extra": true}},
			want:       "u-7",
		},
		{
			name:       "nil payload",
			extensions: nil,
			wantErr:    true,
		},
		{
			name:       "schema absent",
			extensions: map[string]map[string]any{"urn:other": {testProperty: "u-42"}},
			wantErr:    true,
		},
		{
			name:       "property absent",
			extensions: map[string]map[string]any{testURN: {"somethingelse": "u-42"}},
			wantErr:    true,
		},
		{
			name:       "property not a string",
			extensions: map[string]map[string]any{testURN: {testProperty: 42}},
			wantErr:    true,
		},
		{
			name:       "empty string",
			extensions: map[string]map[string]any{testURN: {testProperty: ""}},
			wantErr:    true,
		},
	}

	r := newTestResolver()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.Resolve(tc.extensions)
			if tc.wantErr {
				if !errors.Is(err, common.ErrMissingIdentifier) {
					t.Fatalf("want ErrMissingIdentifier, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	r := newTestResolver()
	payload := map[string]map[string]any{testURN: {testProperty: "u-42"}}

	first, err := r.Resolve(payload)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	second, err := r.Resolve(payload)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if first != second {
		t.Fatalf("resolve not deterministic: %q vs %q", first, second)
	}
}
