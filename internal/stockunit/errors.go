package stockunit

import "errors"

// ErrDuplicateCode is returned when a unit code already exists. It is
// surfaced to the caller and never retried.
var ErrDuplicateCode = errors.New("unit code already exists")

// ErrUnitNotFound is returned by operations that require an existing unit.
var ErrUnitNotFound = errors.New("stock unit not found")
