package group

import "encoding/base32"

var joinCodeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// SaltLen is the fixed salt size a join code must decode to.
const SaltLen = 16

// JoinCodeLen is the fixed length of an encoded join code.
const JoinCodeLen = 26

// EncodeJoinCode renders a 16-byte salt as the 26-character RFC 4648
// base32 join code shared out of band alongside a group passphrase.
func EncodeJoinCode(salt []byte) (string, error) {
	if len(salt) != SaltLen {
		return "", ErrInvalidJoinCode
	}
	return joinCodeEncoding.EncodeToString(salt), nil
}

// DecodeJoinCode parses a join code back into its 16-byte salt, rejecting
// any string that is not exactly JoinCodeLen valid RFC 4648 base32
// characters or that decodes to a length other than SaltLen.
func DecodeJoinCode(code string) ([]byte, error) {
	if len(code) != JoinCodeLen {
		return nil, ErrInvalidJoinCode
	}
	salt, err := joinCodeEncoding.DecodeString(code)
	if err != nil {
		return nil, ErrInvalidJoinCode
	}
	if len(salt) != SaltLen {
		return nil, ErrInvalidJoinCode
	}
	return salt, nil
}
