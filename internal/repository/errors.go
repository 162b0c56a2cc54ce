// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the booking engine to distinguish between different
// failure scenarios. For example, ErrForbidden indicates that the
// current user is not authorized to perform an operation on a resource
// owned by someone else, while ErrConflict signals that an operation
// cannot proceed due to conflicting state (e.g. deleting a ticket
// class that already has sales).
package repository

import (
    "errors"
    "strings"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot be
// performed because of conflicting state, such as attempting to
// delete a ticket class that has already sold tickets. Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// IsDeadlock reports whether err is a MySQL deadlock or lock wait
// timeout (error codes 1213 and 1205). Callers treat these as
// retryable conflicts: the enclosing transaction has been rolled
// back by the server and the whole operation may be attempted again.
func IsDeadlock(err error) bool {
    if err == nil {
        return false
    }
    msg := err.Error()
    return strings.Contains(msg, "1213") || strings.Contains(msg, "1205")
}

// isDuplicateKey reports whether err is a MySQL duplicate key
// violation (error code 1062).
func isDuplicateKey(err error) bool {
    return err != nil && strings.Contains(err.Error(), "1062")
}
