package lan

import "errors"

// ErrUnknownPeer is returned by SendTo for a handle the adapter has never
// seen traffic from or resolved via discovery.
var ErrUnknownPeer = errors.New("lan: unknown peer handle")
