package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/fluxon-mesh/fluxon/pkg/crypto"
)

func testKey(t *testing.T, seed byte) []byte {
	t.Helper()
	k := make([]byte, crypto.AEADKeyLen)
	for i := range k {
		k[i] = seed
	}
	return k
}

func TestMemStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()

	if _, ok, err := s.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = (_, %v, %v), want (_, false, nil)", ok, err)
	}

	if err := s.Put(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	v, ok, err := s.Get(ctx, "k")
	if err != nil || !ok || string(v) != "v1" {
		t.Fatalf("Get(k) = (%q, %v, %v), want (v1, true, nil)", v, ok, err)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "k"); ok {
		t.Fatal("key still present after Delete")
	}

	if err := s.Delete(ctx, "never-existed"); err != nil {
		t.Fatalf("Delete of absent key returned error: %v", err)
	}
}

func TestMemStore_GetReturnsIndependentCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemStore()
	orig := []byte("secret")
	if err := s.Put(ctx, "k", orig); err != nil {
		t.Fatalf("Put: %v", err)
	}
	orig[0] = 'X'

	v, _, _ := s.Get(ctx, "k")
	if string(v) != "secret" {
		t.Fatalf("stored value mutated via caller's slice: got %q", v)
	}

	v[0] = 'Y'
	v2, _, _ := s.Get(ctx, "k")
	if string(v2) != "secret" {
		t.Fatalf("stored value mutated via returned slice: got %q", v2)
	}
}

func TestFileStore_PutGetDeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "node.store")
	key := testKey(t, 0x11)

	fs, err := NewFileStore(path, key)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := fs.Put(ctx, "group/alpha", []byte("credential-bytes")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := fs.Put(ctx, "topology/snapshot", []byte("{}")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	reopened, err := NewFileStore(path, key)
	if err != nil {
		t.Fatalf("NewFileStore (reopen): %v", err)
	}
	v, ok, err := reopened.Get(ctx, "group/alpha")
	if err != nil || !ok || string(v) != "credential-bytes" {
		t.Fatalf("Get after reopen = (%q, %v, %v), want (credential-bytes, true, nil)", v, ok, err)
	}

	if err := reopened.Delete(ctx, "group/alpha"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	afterDelete, err := NewFileStore(path, key)
	if err != nil {
		t.Fatalf("NewFileStore (after delete): %v", err)
	}
	if _, ok, _ := afterDelete.Get(ctx, "group/alpha"); ok {
		t.Fatal("deleted key still present after reopen")
	}
	if v, ok, _ := afterDelete.Get(ctx, "topology/snapshot"); !ok || string(v) != "{}" {
		t.Fatalf("unrelated key lost across Delete+reopen: %q, %v", v, ok)
	}
}

func TestFileStore_EmptyStoreHasNoFileUntilFirstMutation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.store")
	key := testKey(t, 0x22)

	fs, err := NewFileStore(path, key)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("store file created before any mutation: %v", err)
	}

	if err := fs.Put(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("store file missing after Put: %v", err)
	}
}

func TestFileStore_OnDiskBytesAreNotPlaintext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.store")
	key := testKey(t, 0x33)

	fs, err := NewFileStore(path, key)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	secret := []byte("this value must never appear on disk in the clear")
	if err := fs.Put(context.Background(), "k", secret); err != nil {
		t.Fatalf("Put: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if bytes.Contains(raw, secret) {
		t.Fatal("plaintext value found verbatim in the sealed on-disk file")
	}
}

func TestFileStore_WrongKeyFailsToOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.store")

	fs, err := NewFileStore(path, testKey(t, 0x44))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := fs.Put(context.Background(), "k", []byte("v")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if _, err := NewFileStore(path, testKey(t, 0x55)); err != ErrCorrupt {
		t.Fatalf("NewFileStore with wrong key = %v, want ErrCorrupt", err)
	}
}

func TestFileStore_RejectsWrongKeyLength(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node.store")
	if _, err := NewFileStore(path, []byte("too-short")); err != ErrKeyLen {
		t.Fatalf("NewFileStore with short key = %v, want ErrKeyLen", err)
	}
}
