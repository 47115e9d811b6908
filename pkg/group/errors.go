package group

import "errors"

var (
	// ErrPassphraseTooLong is returned when a passphrase exceeds 128 bytes.
	ErrPassphraseTooLong = errors.New("group: passphrase too long")

	// ErrInvalidJoinCode is returned by a join code that is not exactly 26
	// RFC 4648 base32 characters, or that decodes to a salt other than 16
	// bytes.
	ErrInvalidJoinCode = errors.New("group: invalid join code")

	// ErrJoinFailed is the single, generic error surfaced to the
	// application for any join failure. It intentionally does not
	// distinguish a wrong join code from a wrong passphrase.
	ErrJoinFailed = errors.New("group: unable to join group")

	// ErrLockedOut is returned while a caller is in the post-failure
	// lockout window.
	ErrLockedOut = errors.New("group: locked out after repeated failures")

	// ErrEncryptFailed and ErrDecryptFailed wrap AEAD failures.
	ErrEncryptFailed = errors.New("group: encrypt failed")
	ErrDecryptFailed = errors.New("group: decrypt failed")
)
