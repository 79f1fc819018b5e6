package ring

import "errors"

// ErrInvalidCapacity is returned nowhere by this package directly — New
// panics on a bad capacity, matching the teacher's constructor convention —
// but is exported so callers building their own constructors around Ring[T]
// can report the same failure uniformly. Neither sibling package uses it:
// pack.New panics through ring.New, and shared.Open returns its own
// shared.ErrInvalidCapacity.
var ErrInvalidCapacity = errors.New("ring: capacity must be a power of two >= 1")
