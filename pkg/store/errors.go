package store

import "errors"

var (
	// ErrCorrupt is returned by FileStore when the on-disk file cannot be
	// decrypted or decoded under the supplied device key: truncation,
	// bit-rot, or the wrong key entirely all collapse to this single
	// error, mirroring pkg/group's refusal to distinguish AEAD failure
	// causes.
	ErrCorrupt = errors.New("store: at-rest file is corrupt or unreadable under this key")

	// ErrKeyLen is returned when NewFileStore is given a device key of
	// the wrong length.
	ErrKeyLen = errors.New("store: device key must be crypto.AEADKeyLen bytes")
)
