// Package repository holds the SQL access to the guest directory.  The
// sentinel errors below let handlers distinguish failure scenarios.
package repository

import "errors"

// ErrGuestNotFound is returned when no guest matches an id or invite
// token.  Handlers translate it into an HTTP 404 response.
var ErrGuestNotFound = errors.New("guest not found")

// ErrAlreadyResponded is returned when a guest answers an invitation a
// second time.  Handlers translate it into an HTTP 409 response.
var ErrAlreadyResponded = errors.New("rsvp already answered")

// ErrInvalidRSVP is returned for an attendee count outside what the
// invitation allows.  Handlers translate it into an HTTP 400 response.
var ErrInvalidRSVP = errors.New("invalid rsvp")

// ErrInvalidGuest is returned for guest fields the directory would reject,
// such as a negative party size.  Handlers translate it into an HTTP 400.
var ErrInvalidGuest = errors.New("invalid guest")
