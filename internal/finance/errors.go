package finance

import (
	"errors"
	"fmt"
)

// NetworkError reports a request that never produced a usable response:
// transport failures, timeouts, and backend-side 5xx responses. Prior view
// state stays displayed; the user retries the triggering action.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ValidationError reports a payload the backend rejected. Detail carries
// the backend-provided human-readable message when present.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return "validation failed"
	}
	return e.Detail
}

// NotFoundError reports a stale ID: the entity was deleted or never
// existed. Callers refresh to reconcile with the backend.
type NotFoundError struct {
	Resource string
	ID       int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Resource, e.ID)
}

func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// UserMessage extracts a message suitable for display: a backend detail
// when one exists, the given fallback otherwise.
func UserMessage(err error, fallback string) string {
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Detail != "" {
		return ve.Detail
	}
	return fallback
}
