package book

import "errors"

// As in internal/arena, these are plain sentinel values — no wrapping, no
// stack traces — so the matching path stays allocation-free (see §7).
var (
	// ErrInvariantViolation is returned when a runtime check catches the
	// book in a state §3's invariants forbid (e.g. an indexed order whose
	// price level is missing from its side map). The engine treats this
	// as fatal and halts.
	ErrInvariantViolation = errors.New("book: invariant violation")
	// ErrTornListLinks is returned when a price level's linked list is
	// found inconsistent (e.g. a level present in a side map whose head
	// handle is null). Fatal.
	ErrTornListLinks = errors.New("book: torn list links")
)
