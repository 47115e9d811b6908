package topology

import "errors"

// ErrInvalidSource is returned when a neighbor claim names the all-zero
// broadcast PeerId as its source.
var ErrInvalidSource = errors.New("topology: source must not be the broadcast peer id")

// ErrMaxHopsExceeded is returned when a route computation is asked for a
// max_hops beyond the hard ceiling.
var ErrMaxHopsExceeded = errors.New("topology: max_hops exceeds the configured ceiling")
