// Package seating holds the table layout, the per-table seat map and the
// placement engine that seats guest bundles on tables.
package seating

import "errors"

// ErrInsufficientSeats is returned when a table has fewer free seats than
// the guest's bundle needs.  No state is changed when it is returned.
var ErrInsufficientSeats = errors.New("insufficient free seats")

// ErrDirectoryUpdate wraps a failed write to the guest directory.  Local
// seat state is never touched when it is returned.
var ErrDirectoryUpdate = errors.New("guest directory update failed")

// ErrLayoutChanged is returned when the table or the chosen seats changed
// while the directory was being written.  The directory keeps its new
// value; the seats are not written.
var ErrLayoutChanged = errors.New("layout changed during seating")

var (
	ErrTableNotFound    = errors.New("table not found")
	ErrGuestNotFound    = errors.New("guest not found")
	ErrSeatNotFound     = errors.New("seat not found")
	ErrNoTableAtPoint   = errors.New("no table at drop point")
	ErrNotCompanion     = errors.New("seat is not held by a companion")
	ErrInvalidTable     = errors.New("invalid table definition")
	ErrInvalidPatch     = errors.New("invalid table patch")
	ErrTableNumberInUse = errors.New("table number already in use")
)
