package pair

import "errors"

var (
	// ErrComponentUnavailable is returned when a component unit is missing
	// or not currently available.
	ErrComponentUnavailable = errors.New("component unit not available")
	// ErrAlreadyPaired is returned when a component already belongs to a pair.
	ErrAlreadyPaired = errors.New("unit already part of a pair")
	// ErrCannotDismantleSold is returned for dismantle attempts on a sold pair.
	ErrCannotDismantleSold = errors.New("cannot dismantle a sold pair")
	// ErrPairNotFound is returned by operations that require an existing pair.
	ErrPairNotFound = errors.New("pair not found")
	// ErrPairNotAvailable is returned when a transition loses the race for
	// the pair row, e.g. someone else reserved or sold it first.
	ErrPairNotAvailable = errors.New("pair not in expected state")
	// ErrDuplicateCombinedCode is returned on combined code collision.
	ErrDuplicateCombinedCode = errors.New("combined code already exists")
)
