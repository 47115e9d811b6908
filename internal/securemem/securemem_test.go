package securemem

import (
	"bytes"
	"testing"
)

func TestBytes_WipeZeroesInPlace(t *testing.T) {
	original := []byte{0x01, 0x02, 0x03, 0x04}
	k := New(original)

	k.Wipe()

	if !bytes.Equal(k.Bytes(), []byte{0, 0, 0, 0}) {
		t.Fatalf("got %x, want all zero", k.Bytes())
	}
	// Wipe mutates the original backing array since New takes ownership.
	if !bytes.Equal(original, []byte{0, 0, 0, 0}) {
		t.Fatalf("backing array not wiped: %x", original)
	}
}

func TestBytes_WipeOnNilIsNoop(t *testing.T) {
	var k *Bytes
	k.Wipe() // must not panic

	if k.Len() != 0 {
		t.Fatalf("Len() on nil = %d, want 0", k.Len())
	}
	if k.Bytes() != nil {
		t.Fatalf("Bytes() on nil = %v, want nil", k.Bytes())
	}
}

func TestWipeAll(t *testing.T) {
	a := New([]byte{1, 1, 1})
	b := New([]byte{2, 2})
	var c *Bytes // nil entries must be tolerated

	WipeAll(a, b, c)

	if !bytes.Equal(a.Bytes(), []byte{0, 0, 0}) {
		t.Fatalf("a not wiped: %x", a.Bytes())
	}
	if !bytes.Equal(b.Bytes(), []byte{0, 0}) {
		t.Fatalf("b not wiped: %x", b.Bytes())
	}
}

func TestZero(t *testing.T) {
	k := Zero(16)
	if k.Len() != 16 {
		t.Fatalf("Len() = %d, want 16", k.Len())
	}
	for _, b := range k.Bytes() {
		if b != 0 {
			t.Fatalf("Zero(16) produced non-zero byte")
		}
	}
}
