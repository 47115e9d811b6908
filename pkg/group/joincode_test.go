package group

import (
	"bytes"
	"testing"
)

func TestJoinCode_RoundTrip(t *testing.T) {
	salt := []byte("0123456789abcdef")
	code, err := EncodeJoinCode(salt)
	if err != nil {
		t.Fatalf("EncodeJoinCode: %v", err)
	}
	if len(code) != JoinCodeLen {
		t.Fatalf("len(code) = %d, want %d", len(code), JoinCodeLen)
	}

	decoded, err := DecodeJoinCode(code)
	if err != nil {
		t.Fatalf("DecodeJoinCode: %v", err)
	}
	if !bytes.Equal(decoded, salt) {
		t.Fatalf("decoded = %q, want %q", decoded, salt)
	}
}

func TestJoinCode_RejectsWrongLength(t *testing.T) {
	if _, err := DecodeJoinCode("short"); err != ErrInvalidJoinCode {
		t.Fatalf("err = %v, want ErrInvalidJoinCode", err)
	}
}

func TestJoinCode_RejectsNonBase32Characters(t *testing.T) {
	bad := "0123456789!@#$%^&*()ABCDE" // 26 chars, not valid base32
	if _, err := DecodeJoinCode(bad); err != ErrInvalidJoinCode {
		t.Fatalf("err = %v, want ErrInvalidJoinCode", err)
	}
}

func TestEncodeJoinCode_RejectsWrongSaltLength(t *testing.T) {
	if _, err := EncodeJoinCode([]byte("tooshort")); err != ErrInvalidJoinCode {
		t.Fatalf("err = %v, want ErrInvalidJoinCode", err)
	}
}
