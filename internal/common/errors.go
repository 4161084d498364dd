// Package common contains sentinel errors and small shared helpers used
// across the connector. Callers match the sentinels with errors.Is; the
// transport layer translates them into stable machine-readable codes via
// Code.
package common

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrMissingIdentifier is returned when the extension payload does not
	// carry the external unique identifier. The identifier is the storage
	// primary key and is never synthesized.
	ErrMissingIdentifier = errors.New("missing external identifier")

	// ErrValidation is returned for semantically inconsistent requests,
	// e.g. an identifier-change attempt or a secret submitted together
	// with a deactivation.
	ErrValidation = errors.New("validation failed")

	// ErrStorage wraps connection failures and any other storage fault.
	// The enclosing transaction is rolled back before it propagates.
	ErrStorage = errors.New("storage failure")

	// ErrUnexpectedRowCount indicates a write affected zero or more than
	// one row. Always accompanied by ErrStorage.
	ErrUnexpectedRowCount = errors.New("unexpected affected row count")

	// ErrEncryption is returned when key material is missing or the
	// ciphertext does not match the loaded keypair.
	ErrEncryption = errors.New("encryption failure")

	// ErrUnsupported is returned by capabilities the connector does not
	// implement (groups, filtered queries).
	ErrUnsupported = errors.New("not supported")
)

// Code maps an error to its stable machine-readable code. Unrecognized
// errors report as internal failures.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrMissingIdentifier):
		return "MISSING_IDENTIFIER"
	case errors.Is(err, ErrValidation):
		return "VALIDATION_FAILED"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrUnsupported):
		return "NOT_SUPPORTED"
	case errors.Is(err, ErrEncryption):
		return "ENCRYPTION_FAILURE"
	case errors.Is(err, ErrStorage):
		return "STORAGE_FAILURE"
	default:
		return "INTERNAL"
	}
}
