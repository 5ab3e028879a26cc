package assets

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when the referenced asset, employee or user
	// does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden is returned when the acting role is not allowed to
	// perform the operation.
	ErrForbidden = errors.New("operation not allowed for role")

	// ErrExhaustedRetries means no free asset id was found after the retry
	// budget. This should never happen and points at corrupted id data;
	// callers must log it loudly, never swallow it.
	ErrExhaustedRetries = errors.New("asset id generation exhausted retries")

	// ErrDuplicateAssetID is reported by the repository when an insert hits
	// the unique index on asset_id. The orchestrator regenerates and retries.
	ErrDuplicateAssetID = errors.New("asset id already taken")
)

// ValidationError carries per-field messages. Nothing is mutated or
// appended to any history before validation passes.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}
