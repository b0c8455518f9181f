// Package lifecycle implements the semester and subscription state
// machines and the room/assignment consistency rules.  The engines in
// this package hold no state of their own between invocations; every
// decision is made against the ledger store, and every multi-row
// mutation runs inside a single store transaction.
package lifecycle

import (
	"errors"
	"fmt"
)

// ErrValidation is returned for malformed input, such as an end date
// that does not come after the start date.  Handlers should translate
// this into an HTTP 400 response.
var ErrValidation = errors.New("validation failed")

// ErrNotFound is returned when a referenced semester, enrollment,
// room, hostel or subscription does not exist.  Handlers should
// translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an operation would violate an
// occupancy or status invariant, such as forcing a full room to
// available or deleting a room with active assignments.  Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrCapacityExceeded is returned when creating an assignment would
// push a room past its capacity.  It is a kind of conflict and also
// matches errors.Is(err, ErrConflict).
var ErrCapacityExceeded = fmt.Errorf("%w: room capacity exceeded", ErrConflict)

// ErrStore wraps transaction or connectivity failures from the ledger
// store.  State-changing operations never swallow these; the whole
// transaction is rolled back and the error surfaced to the caller.
var ErrStore = errors.New("store failure")

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStore, err)
}
