package ratelimit

import (
	"testing"
	"time"
)

func TestSpacedWindow_EnforcesMinimumSpacing(t *testing.T) {
	w := NewSpacedWindow(100, 1, 50*time.Millisecond)
	if !w.Allow() {
		t.Fatal("first attempt should be allowed")
	}
	if w.Allow() {
		t.Fatal("immediate second attempt should be denied by spacing, despite budget remaining")
	}
	time.Sleep(60 * time.Millisecond)
	if !w.Allow() {
		t.Fatal("attempt after the spacing interval should be allowed")
	}
}

func TestSpacedWindow_StillEnforcesRateBudget(t *testing.T) {
	w := NewSpacedWindow(1, 60, time.Millisecond)
	if !w.Allow() {
		t.Fatal("first attempt should be allowed")
	}
	time.Sleep(5 * time.Millisecond)
	if w.Allow() {
		t.Fatal("second attempt should be denied by the rate budget even though spacing has elapsed")
	}
}

func TestSpacedPerKeyWindow_IsolatesKeys(t *testing.T) {
	p := NewSpacedPerKeyWindow(100, 1, 50*time.Millisecond, 10)
	if !p.Allow("a") {
		t.Fatal("first attempt for key a should be allowed")
	}
	if p.Allow("a") {
		t.Fatal("immediate repeat for key a should be denied")
	}
	if !p.Allow("b") {
		t.Fatal("key b should be unaffected by key a's spacing")
	}
}
