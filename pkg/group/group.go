// Package group implements the passphrase-derived group cipher: Argon2id
// credential derivation, a derivation cache, join-code encoding, and the
// AEAD used to encrypt broadcast group traffic.
package group

import (
	"context"
	"time"

	"github.com/fluxon-mesh/fluxon/internal/securemem"
	"github.com/fluxon-mesh/fluxon/pkg/crypto"
)

// Group holds one joined group's credentials. Key wraps the group key in
// securemem so it is zeroized wherever the group is disposed.
type Group struct {
	ID   [16]byte
	Key  *securemem.Bytes
	Salt [16]byte
	Name string
}

// Manager derives and caches group credentials and tracks join-attempt
// backoff state. One Manager is shared across create/join/leave calls for
// a node.
type Manager struct {
	cache   *kdfCache
	backoff *joinBackoff
}

// NewManager builds a group manager with an empty derivation cache.
func NewManager() *Manager {
	return &Manager{cache: newKDFCache(), backoff: newJoinBackoff()}
}

func validatePassphrase(passphrase []byte) error {
	if len(passphrase) > MaxPassphraseLen {
		return ErrPassphraseTooLong
	}
	return nil
}

// CreateGroup derives fresh credentials for a brand new group from
// passphrase and a freshly generated random salt. Argon2id runs on a
// separate goroutine so the caller's event loop is never blocked by it;
// ctx cancellation aborts the wait (the derivation itself, once started,
// still runs to completion in the background so its result can populate
// the cache for a later retry).
func (m *Manager) CreateGroup(ctx context.Context, passphrase []byte, name string) (*Group, error) {
	if err := validatePassphrase(passphrase); err != nil {
		return nil, err
	}

	salt, err := crypto.RandomBytes(SaltLen)
	if err != nil {
		return nil, err
	}

	return m.derive(ctx, passphrase, salt, name)
}

// JoinGroup decodes a join code into its salt and derives credentials for
// the corresponding group. It does not itself determine whether the
// passphrase was correct; the caller (the mesh service, which can attempt
// to decrypt known group traffic) must report the outcome via
// RecordJoinSuccess or RecordJoinFailure so backoff/lockout stays accurate.
func (m *Manager) JoinGroup(ctx context.Context, joinCode string, passphrase []byte, name string) (*Group, error) {
	if err := validatePassphrase(passphrase); err != nil {
		return nil, err
	}

	if allowed, wait := m.backoff.allow(time.Now()); !allowed {
		_ = wait
		return nil, ErrLockedOut
	}

	salt, err := DecodeJoinCode(joinCode)
	if err != nil {
		return nil, err
	}

	return m.derive(ctx, passphrase, salt, name)
}

func (m *Manager) derive(ctx context.Context, passphrase, salt []byte, name string) (*Group, error) {
	if cached, ok := m.cache.get(passphrase, salt); ok {
		return groupFromCredentials(cached, salt, name), nil
	}

	type result struct {
		creds *derivedCredentials
		err   error
	}
	resultCh := make(chan result, 1)
	go func() {
		creds, err := deriveCredentials(passphrase, salt)
		resultCh <- result{creds, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-resultCh:
		if r.err != nil {
			return nil, r.err
		}
		m.cache.put(passphrase, salt, r.creds)
		return groupFromCredentials(r.creds, salt, name), nil
	}
}

func groupFromCredentials(creds *derivedCredentials, salt []byte, name string) *Group {
	g := &Group{ID: creds.groupID, Key: securemem.New(append([]byte(nil), creds.groupKey...)), Name: name}
	copy(g.Salt[:], salt)
	return g
}

// RecordJoinSuccess clears the backoff schedule after a caller confirms
// the derived group decrypts known traffic.
func (m *Manager) RecordJoinSuccess() {
	m.backoff.recordSuccess()
}

// RecordJoinFailure advances the exponential backoff (and, after 5
// consecutive failures, imposes a 30-second lockout) after a caller
// confirms the derived group does not decrypt known traffic.
func (m *Manager) RecordJoinFailure() {
	m.backoff.recordFailure(time.Now())
}

// LeaveGroup zeroizes g's key material and removes its derivation cache
// entry so its credential hash can no longer short-circuit a future
// derivation.
func (m *Manager) LeaveGroup(g *Group) {
	m.cache.deleteByGroupID(g.ID)
	g.Key.Wipe()
}
