// Package repository implements data access against the MongoDB
// collections backing the service.  Sentinel errors defined here are
// shared across repositories so that handlers can translate failure
// kinds into HTTP responses without inspecting driver errors.
package repository

import "errors"

// ErrNotFound is returned when a referenced document does not exist or
// a write matched zero documents. Handlers translate this into 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller attempts an operation on a
// record they do not own. Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation cannot proceed because of
// dependent records or a violated structural bound, such as deleting a
// training that still has scheduled dates. Handlers translate this
// into 409.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned by user creation when the email is taken.
var ErrEmailExists = errors.New("email already registered")

// ErrNameExists is returned by training creation when the name is taken.
var ErrNameExists = errors.New("training name already exists")

// ErrNoCapacity is returned when a training date has no available
// slots left for a new booking.
var ErrNoCapacity = errors.New("no available slots")

// ErrDuplicateBooking is returned when the customer already holds a
// booking for the same training date.
var ErrDuplicateBooking = errors.New("duplicate booking")
