package relay

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestScheduler_FiresAfterJitterWhenRecheckPasses(t *testing.T) {
	s := NewScheduler(time.Millisecond, time.Millisecond)
	fired := make(chan struct{})
	s.Schedule(
		func() bool { return true },
		func() { close(fired) },
	)
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("relay did not fire within timeout")
	}
}

func TestScheduler_DoesNotFireWhenRecheckFails(t *testing.T) {
	s := NewScheduler(time.Millisecond, time.Millisecond)
	var fired int32
	done := make(chan struct{})
	s.Schedule(
		func() bool { return false },
		func() { atomic.StoreInt32(&fired, 1) },
	)
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(done)
	}()
	<-done
	if atomic.LoadInt32(&fired) != 0 {
		t.Fatal("relay fired despite recheck reporting the packet already delivered")
	}
}

func TestScheduler_DoesNotFireAfterStop(t *testing.T) {
	s := NewScheduler(20*time.Millisecond, 0)
	var fired int32
	s.Schedule(
		func() bool { return true },
		func() { atomic.StoreInt32(&fired, 1) },
	)
	s.Stop()
	time.Sleep(100 * time.Millisecond)
	if atomic.LoadInt32(&fired) != 0 {
		t.Fatal("relay fired after scheduler was stopped")
	}
}

func TestJitterDelay_StaysWithinConfiguredRange(t *testing.T) {
	base := 50 * time.Millisecond
	maxJitter := 100 * time.Millisecond
	for i := 0; i < 50; i++ {
		d, err := jitterDelay(base, maxJitter)
		if err != nil {
			t.Fatalf("jitterDelay: %v", err)
		}
		if d < base || d > base+maxJitter {
			t.Fatalf("jitterDelay = %v, want within [%v, %v]", d, base, base+maxJitter)
		}
	}
}

func TestJitterDelay_ZeroMaxJitterIsDeterministic(t *testing.T) {
	d, err := jitterDelay(50*time.Millisecond, 0)
	if err != nil {
		t.Fatalf("jitterDelay: %v", err)
	}
	if d != 50*time.Millisecond {
		t.Fatalf("d = %v, want exactly base delay", d)
	}
}
