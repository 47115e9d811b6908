package crypto

import (
	"bytes"
	"testing"
)

func TestBLAKE2b256_Deterministic(t *testing.T) {
	data := []byte("static public key bytes")

	d1 := BLAKE2b256(data)
	d2 := BLAKE2b256(data)

	if !bytes.Equal(d1, d2) {
		t.Fatal("BLAKE2b256 not deterministic")
	}
	if len(d1) != BLAKE2b256Len {
		t.Fatalf("len = %d, want %d", len(d1), BLAKE2b256Len)
	}
}

func TestBLAKE2b256_DifferentInputsDiffer(t *testing.T) {
	d1 := BLAKE2b256([]byte("a"))
	d2 := BLAKE2b256([]byte("b"))

	if bytes.Equal(d1, d2) {
		t.Fatal("different inputs produced identical digests")
	}
}

func TestBLAKE2b256Keyed_KeySensitivity(t *testing.T) {
	data := []byte("group-bound content")

	d1, err := BLAKE2b256Keyed(bytes.Repeat([]byte{0x01}, 32), data)
	if err != nil {
		t.Fatalf("BLAKE2b256Keyed: %v", err)
	}
	d2, err := BLAKE2b256Keyed(bytes.Repeat([]byte{0x02}, 32), data)
	if err != nil {
		t.Fatalf("BLAKE2b256Keyed: %v", err)
	}

	if bytes.Equal(d1, d2) {
		t.Fatal("different keys produced identical digests")
	}
}

func TestBLAKE2bSum_RespectsRequestedLength(t *testing.T) {
	data := []byte("fluxon-group-id derivation input")

	d, err := BLAKE2bSum(16, data)
	if err != nil {
		t.Fatalf("BLAKE2bSum: %v", err)
	}
	if len(d) != 16 {
		t.Fatalf("len = %d, want 16", len(d))
	}

	d2, err := BLAKE2bSum(16, data)
	if err != nil {
		t.Fatalf("BLAKE2bSum: %v", err)
	}
	if !bytes.Equal(d, d2) {
		t.Fatal("BLAKE2bSum not deterministic")
	}
}
