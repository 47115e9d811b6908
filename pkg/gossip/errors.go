package gossip

import "errors"

var (
	// ErrTooManyPeerIDs is returned when a sync request's peer_has_ids set
	// exceeds 2x the seen-set capacity.
	ErrTooManyPeerIDs = errors.New("gossip: peer_has_ids exceeds the allowed size")
	// ErrRateLimited is returned when the requesting peer has exceeded its
	// per-peer sync request budget.
	ErrRateLimited = errors.New("gossip: per-peer sync request rate limit exceeded")
	// ErrGlobalBudgetExhausted is returned when the global response budget
	// for the current window has been spent.
	ErrGlobalBudgetExhausted = errors.New("gossip: global sync response budget exhausted")
)
