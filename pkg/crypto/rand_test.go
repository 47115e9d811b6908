package crypto

import "testing"

func TestRandomBytes_LengthAndUniqueness(t *testing.T) {
	a, err := RandomBytes(32)
	if err != nil {
		t.Fatalf("RandomBytes: %v", err)
	}
	if len(a) != 32 {
		t.Fatalf("len = %d, want 32", len(a))
	}

	b, err := RandomBytes(32)
	if err != nil {
		t.Fatalf("RandomBytes: %v", err)
	}

	if ConstantTimeEqual(a, b) {
		t.Fatal("two independent draws of 32 random bytes collided")
	}
}

func TestRandomBytes_Zero(t *testing.T) {
	got, err := RandomBytes(0)
	if err != nil {
		t.Fatalf("RandomBytes(0): %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("len = %d, want 0", len(got))
	}
}
