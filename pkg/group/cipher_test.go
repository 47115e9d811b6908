package group

import (
	"bytes"
	"context"
	"testing"
)

func newTestGroup(t *testing.T) *Group {
	t.Helper()
	m := NewManager()
	g, err := m.CreateGroup(context.Background(), []byte("test passphrase"), "test")
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	return g
}

func TestSealOpen_RoundTrip(t *testing.T) {
	g := newTestGroup(t)
	sourceID := bytes.Repeat([]byte{0xAB}, 32)
	ad := BuildAD(0x02, sourceID)

	framed, err := Seal(g, ad, []byte("hello group"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	plaintext, err := Open(g, ad, framed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(plaintext, []byte("hello group")) {
		t.Fatalf("plaintext = %q, want %q", plaintext, "hello group")
	}
}

func TestSealOpen_WrongADFails(t *testing.T) {
	g := newTestGroup(t)
	sourceID := bytes.Repeat([]byte{0xAB}, 32)
	ad := BuildAD(0x02, sourceID)

	framed, err := Seal(g, ad, []byte("hello"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	wrongAD := BuildAD(0x03, sourceID) // different packet type
	if _, err := Open(g, wrongAD, framed); err != ErrDecryptFailed {
		t.Fatalf("err = %v, want ErrDecryptFailed", err)
	}
}

func TestSealOpen_WrongKeyFails(t *testing.T) {
	g1 := newTestGroup(t)
	g2 := newTestGroup(t)
	ad := BuildAD(0x02, []byte("source"))

	framed, err := Seal(g1, ad, []byte("hello"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := Open(g2, ad, framed); err != ErrDecryptFailed {
		t.Fatalf("err = %v, want ErrDecryptFailed", err)
	}
}

func TestSealOpen_TamperedCiphertextFails(t *testing.T) {
	g := newTestGroup(t)
	ad := BuildAD(0x02, []byte("source"))

	framed, err := Seal(g, ad, []byte("hello"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	framed[len(framed)-1] ^= 0xFF

	if _, err := Open(g, ad, framed); err != ErrDecryptFailed {
		t.Fatalf("err = %v, want ErrDecryptFailed", err)
	}
}

func TestSealOpen_ProducesDistinctCiphertextsForSamePlaintext(t *testing.T) {
	g := newTestGroup(t)
	ad := BuildAD(0x02, []byte("source"))

	f1, err := Seal(g, ad, []byte("hello"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	f2, err := Seal(g, ad, []byte("hello"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if bytes.Equal(f1, f2) {
		t.Fatal("random nonces should make repeated seals of the same plaintext differ")
	}
}

func TestOpen_RejectsShortFrame(t *testing.T) {
	g := newTestGroup(t)
	if _, err := Open(g, nil, []byte{0x01, 0x02}); err != ErrDecryptFailed {
		t.Fatalf("err = %v, want ErrDecryptFailed", err)
	}
}
