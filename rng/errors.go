package rng

import "errors"

// errInvalidSeed is returned by NewStream for an all-zero seed, which would
// otherwise wedge the generator into a degenerate fixed point.
var errInvalidSeed = errors.New("rng: seed must not be all zero")
