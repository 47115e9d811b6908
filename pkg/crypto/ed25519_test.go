package crypto

import (
	"bytes"
	"testing"
)

func TestEd25519_SignAndVerify(t *testing.T) {
	kp, err := GenerateEd25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateEd25519KeyPair: %v", err)
	}

	message := []byte("packet body to authenticate")
	sig := kp.Sign(message)

	if len(sig) != Ed25519SignatureLen {
		t.Fatalf("signature len = %d, want %d", len(sig), Ed25519SignatureLen)
	}
	if err := Ed25519Verify(kp.Public, message, sig); err != nil {
		t.Fatalf("Ed25519Verify: %v", err)
	}
}

func TestEd25519_VerifyRejectsTamperedMessage(t *testing.T) {
	kp, err := GenerateEd25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateEd25519KeyPair: %v", err)
	}

	sig := kp.Sign([]byte("original"))
	if err := Ed25519Verify(kp.Public, []byte("tampered"), sig); err == nil {
		t.Fatal("expected verification to fail for tampered message")
	}
}

func TestEd25519_VerifyRejectsWrongKey(t *testing.T) {
	kp1, err := GenerateEd25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateEd25519KeyPair: %v", err)
	}
	kp2, err := GenerateEd25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateEd25519KeyPair: %v", err)
	}

	message := []byte("packet body")
	sig := kp1.Sign(message)
	if err := Ed25519Verify(kp2.Public, message, sig); err == nil {
		t.Fatal("expected verification to fail for mismatched key")
	}
}

func TestEd25519_VerifyRejectsMalformedInputs(t *testing.T) {
	kp, err := GenerateEd25519KeyPair()
	if err != nil {
		t.Fatalf("GenerateEd25519KeyPair: %v", err)
	}
	message := []byte("packet body")
	sig := kp.Sign(message)

	if err := Ed25519Verify(kp.Public[:16], message, sig); err == nil {
		t.Fatal("expected error for short public key")
	}
	if err := Ed25519Verify(kp.Public, message, sig[:32]); err == nil {
		t.Fatal("expected error for short signature")
	}
}

func TestEd25519KeyPairFromSeed_Deterministic(t *testing.T) {
	seed := bytes.Repeat([]byte{0x42}, 32)

	kp1, err := Ed25519KeyPairFromSeed(seed)
	if err != nil {
		t.Fatalf("Ed25519KeyPairFromSeed: %v", err)
	}
	kp2, err := Ed25519KeyPairFromSeed(seed)
	if err != nil {
		t.Fatalf("Ed25519KeyPairFromSeed: %v", err)
	}

	if !bytes.Equal(kp1.Public, kp2.Public) {
		t.Fatal("same seed produced different public keys")
	}
}

func TestEd25519KeyPairFromSeed_RejectsBadLength(t *testing.T) {
	if _, err := Ed25519KeyPairFromSeed([]byte{0x01, 0x02}); err == nil {
		t.Fatal("expected error for short seed")
	}
}
