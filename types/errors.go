package types

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the portal answered but the page held no record.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidRecord means a record was extracted but misses its identity fields.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrFieldMissing marks a required field absent from an otherwise usable page.
	ErrFieldMissing = errors.New("required field missing")
)

// UpstreamError wraps a failure to reach the hospital portal. Results behind
// an UpstreamError are never cached.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
