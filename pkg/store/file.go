package store

import (
	"bytes"
	"context"
	"encoding/gob"
	"os"
	"path/filepath"
	"sync"

	"github.com/fluxon-mesh/fluxon/internal/securemem"
	"github.com/fluxon-mesh/fluxon/pkg/crypto"
	"github.com/fluxon-mesh/fluxon/pkg/group"
)

// fileStoreAD is the fixed associated data every FileStore snapshot is
// bound to. Unlike the per-packet AD pkg/group.BuildAD assembles for
// broadcast traffic, a snapshot has no packet type or sender to bind: the
// fixed string still ties the ciphertext to this format, so a snapshot
// produced by some future incompatible encoding can't be silently loaded
// as if it were this one.
var fileStoreAD = []byte("fluxon-store-snapshot-v1")

// FileStore is a file-backed Store. The whole key/value snapshot is kept
// in memory and rewritten to disk, gob-encoded and sealed under a
// device-local key, on every mutation: the same whole-file-rewrite shape
// pkg/group's own credential persistence favors over a format that must
// be parsed incrementally, appropriate here since a node's durable state
// (group membership, topology cache, queued messages) is small.
//
// The device key never leaves the process: it is wrapped in securemem so
// it is zeroized when the FileStore is closed.
type FileStore struct {
	mu   sync.Mutex
	path string
	key  *securemem.Bytes
	data map[string][]byte
}

// NewFileStore opens (or initializes) a FileStore at path, encrypting at
// rest under deviceKey, which must be crypto.AEADKeyLen bytes. If path
// does not exist, NewFileStore starts with an empty snapshot; the file is
// created on the first mutating call.
func NewFileStore(path string, deviceKey []byte) (*FileStore, error) {
	if len(deviceKey) != crypto.AEADKeyLen {
		return nil, ErrKeyLen
	}
	fs := &FileStore{
		path: path,
		key:  securemem.New(append([]byte(nil), deviceKey...)),
		data: make(map[string][]byte),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, err
	}
	data, err := fs.decode(raw)
	if err != nil {
		return nil, err
	}
	fs.data = data
	return fs, nil
}

// Close zeroizes the device key. The FileStore must not be used
// afterward.
func (fs *FileStore) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.key.Wipe()
	return nil
}

func (fs *FileStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	v, ok := fs.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (fs *FileStore) Put(_ context.Context, key string, value []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.data[key] = append([]byte(nil), value...)
	return fs.persistLocked()
}

func (fs *FileStore) Delete(_ context.Context, key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.data[key]; !ok {
		return nil
	}
	delete(fs.data, key)
	return fs.persistLocked()
}

func (fs *FileStore) groupForSeal() *group.Group {
	return &group.Group{Key: fs.key}
}

func (fs *FileStore) decode(raw []byte) (map[string][]byte, error) {
	plaintext, err := group.Open(fs.groupForSeal(), fileStoreAD, raw)
	if err != nil {
		return nil, ErrCorrupt
	}
	var data map[string][]byte
	if err := gob.NewDecoder(bytes.NewReader(plaintext)).Decode(&data); err != nil {
		return nil, ErrCorrupt
	}
	return data, nil
}

// persistLocked gob-encodes, seals, and atomically replaces the on-disk
// snapshot. The caller must hold fs.mu. Writing to a temp file in the
// same directory and renaming over the target avoids ever leaving a
// partially-written, unreadable snapshot behind a crash mid-write.
func (fs *FileStore) persistLocked() error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(fs.data); err != nil {
		return err
	}
	sealed, err := group.Seal(fs.groupForSeal(), fileStoreAD, buf.Bytes())
	if err != nil {
		return err
	}

	dir := filepath.Dir(fs.path)
	tmp, err := os.CreateTemp(dir, ".store-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(sealed); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, fs.path)
}
