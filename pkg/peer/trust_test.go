package peer

import "testing"

func TestTrustStore_PinsOnFirstUse(t *testing.T) {
	ts := NewTrustStore(10)
	peerID := [32]byte{0x01}
	key := make([]byte, 32)
	key[0] = 0xAA

	if err := ts.Verify(peerID, key); err != nil {
		t.Fatalf("first Verify: %v", err)
	}
	pinned, ok := ts.PinnedKey(peerID)
	if !ok {
		t.Fatal("expected a pinned key")
	}
	if pinned[0] != 0xAA {
		t.Fatalf("pinned[0] = %x, want 0xAA", pinned[0])
	}
}

func TestTrustStore_AcceptsMatchingKeyOnSubsequentUse(t *testing.T) {
	ts := NewTrustStore(10)
	peerID := [32]byte{0x02}
	key := make([]byte, 32)
	key[0] = 0xBB

	if err := ts.Verify(peerID, key); err != nil {
		t.Fatalf("first Verify: %v", err)
	}
	if err := ts.Verify(peerID, key); err != nil {
		t.Fatalf("second Verify with same key: %v", err)
	}
}

func TestTrustStore_RejectsChangedKeyWithoutOverwriting(t *testing.T) {
	ts := NewTrustStore(10)
	peerID := [32]byte{0x03}
	key1 := make([]byte, 32)
	key1[0] = 0x01
	key2 := make([]byte, 32)
	key2[0] = 0x02

	if err := ts.Verify(peerID, key1); err != nil {
		t.Fatalf("first Verify: %v", err)
	}
	if err := ts.Verify(peerID, key2); err != ErrSigningKeyChanged {
		t.Fatalf("err = %v, want ErrSigningKeyChanged", err)
	}
	pinned, _ := ts.PinnedKey(peerID)
	if pinned[0] != 0x01 {
		t.Fatal("pinned key must remain the first one presented")
	}
}

func TestTrustStore_EvictsLeastRecentlyUsed(t *testing.T) {
	ts := NewTrustStore(2)
	a, b, c := [32]byte{1}, [32]byte{2}, [32]byte{3}
	key := make([]byte, 32)

	ts.Verify(a, key)
	ts.Verify(b, key)
	ts.Verify(c, key) // evicts a
	if ts.Len() != 2 {
		t.Fatalf("len = %d, want 2", ts.Len())
	}
	if _, ok := ts.PinnedKey(a); ok {
		t.Fatal("a should have been evicted")
	}
}
