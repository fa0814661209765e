package repository

import "errors"

// ErrNotFound is wrapped by every repository when a lookup or an ownership-filtered
// write matches zero rows.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write is refused because of the row's current state.
var ErrConflict = errors.New("conflict")
