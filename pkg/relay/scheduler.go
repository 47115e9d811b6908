package relay

import (
	"crypto/rand"
	"math/big"
	"sync/atomic"
	"time"
)

// Default jitter bounds, in milliseconds, for a scheduled rebroadcast.
const (
	DefaultBaseDelayMs = 50
	DefaultMaxJitterMs = 100
)

// Scheduler dispatches jittered, cancellable rebroadcasts. The jitter is
// drawn from a CSPRNG, never math/rand, because a deterministic or
// predictable relay delay would let a nearby attacker time collisions or
// fingerprint the relay's scheduling.
type Scheduler struct {
	baseDelay time.Duration
	maxJitter time.Duration
	running   int32
}

// NewScheduler builds a running Scheduler with the given jitter envelope
// [baseDelay, baseDelay+maxJitter].
func NewScheduler(baseDelay, maxJitter time.Duration) *Scheduler {
	s := &Scheduler{baseDelay: baseDelay, maxJitter: maxJitter}
	atomic.StoreInt32(&s.running, 1)
	return s
}

// Stop clears the running flag. Any relay already past its jitter wait and
// mid-fire is unaffected; any relay still waiting exits without
// transmitting once it observes the cleared flag.
func (s *Scheduler) Stop() {
	atomic.StoreInt32(&s.running, 0)
}

// Running reports whether the scheduler will currently fire pending
// relays.
func (s *Scheduler) Running() bool {
	return atomic.LoadInt32(&s.running) == 1
}

// Schedule waits a CSPRNG-drawn jitter delay, then, if the scheduler is
// still running and recheck still reports the packet worth sending,
// invokes fire. recheck is called immediately before fire so a caller can
// re-probe dedup state: if another path delivered an equivalent packet in
// the intervening jitter window, recheck should report false and the
// relay is dropped silently.
func (s *Scheduler) Schedule(recheck func() bool, fire func()) {
	go func() {
		d, err := jitterDelay(s.baseDelay, s.maxJitter)
		if err != nil {
			d = s.baseDelay
		}
		time.Sleep(d)

		if !s.Running() {
			return
		}
		if !recheck() {
			return
		}
		fire()
	}()
}

func jitterDelay(base, maxJitter time.Duration) (time.Duration, error) {
	if maxJitter <= 0 {
		return base, nil
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(maxJitter)+1))
	if err != nil {
		return 0, err
	}
	return base + time.Duration(n.Int64()), nil
}
