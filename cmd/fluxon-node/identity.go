package main

import (
	"context"
	"errors"

	"github.com/fluxon-mesh/fluxon/pkg/crypto"
	"github.com/fluxon-mesh/fluxon/pkg/store"
)

// errIncompleteIdentity is returned when a store holds a static private
// key but not the signing seed that should have been persisted alongside
// it: identity.go always writes both in one call, so seeing only one
// means something outside this binary touched the store.
var errIncompleteIdentity = errors.New("fluxon-node: store has a static key but no signing seed")

// Storage keys for this node's durable state. All are opaque to the Store
// itself; FileStore seals every value under the node's device file key
// regardless of what's behind these names.
const (
	storeKeyStaticPriv  = "identity/x25519-private"
	storeKeySigningSeed = "identity/ed25519-seed"
)

// identity is a node's long-term key material: the X25519 static key used
// for Noise handshakes and the Ed25519 key used to sign outgoing packets.
type identity struct {
	static  *crypto.X25519KeyPair
	signing *crypto.Ed25519KeyPair
}

// loadOrCreateIdentity reads a previously persisted identity from s, or
// generates and persists a fresh one if none exists yet. A MemStore
// therefore mints a brand new identity (and PeerId) on every run; a
// FileStore gives a node a stable identity across restarts.
func loadOrCreateIdentity(ctx context.Context, s store.Store) (*identity, error) {
	staticPriv, ok, err := s.Get(ctx, storeKeyStaticPriv)
	if err != nil {
		return nil, err
	}
	if ok {
		return loadIdentity(ctx, s, staticPriv)
	}
	return createIdentity(ctx, s)
}

func loadIdentity(ctx context.Context, s store.Store, staticPriv []byte) (*identity, error) {
	static, err := crypto.X25519KeyPairFromPrivate(staticPriv)
	if err != nil {
		return nil, err
	}

	seed, ok, err := s.Get(ctx, storeKeySigningSeed)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errIncompleteIdentity
	}
	signing, err := crypto.Ed25519KeyPairFromSeed(seed)
	if err != nil {
		return nil, err
	}

	return &identity{static: static, signing: signing}, nil
}

func createIdentity(ctx context.Context, s store.Store) (*identity, error) {
	static, err := crypto.GenerateX25519KeyPair()
	if err != nil {
		return nil, err
	}
	signing, err := crypto.GenerateEd25519KeyPair()
	if err != nil {
		return nil, err
	}

	if err := s.Put(ctx, storeKeyStaticPriv, static.PrivateKey()); err != nil {
		return nil, err
	}
	if err := s.Put(ctx, storeKeySigningSeed, signing.Private.Seed()); err != nil {
		return nil, err
	}

	return &identity{static: static, signing: signing}, nil
}
