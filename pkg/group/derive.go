package group

import (
	"sync"

	"github.com/fluxon-mesh/fluxon/pkg/crypto"
)

// MaxPassphraseLen is the API-boundary passphrase length cap.
const MaxPassphraseLen = 128

// derivedGroupIDTag namespaces the group-id hash so it can never collide
// with a BLAKE2b digest computed for an unrelated purpose elsewhere in the
// protocol (peer ids, packet fingerprints).
var derivedGroupIDTag = []byte("fluxon-group-id")

type derivedCredentials struct {
	groupKey []byte
	groupID  [16]byte
}

// kdfCache memoizes Argon2id(passphrase, salt) results keyed by
// BLAKE2b(passphrase || salt), so repeated joins with the same credentials
// in-process skip the ~300-500ms derivation. The cache key is a hash, not
// the passphrase itself.
type kdfCache struct {
	mu      sync.Mutex
	entries map[[32]byte]*derivedCredentials
}

func newKDFCache() *kdfCache {
	return &kdfCache{entries: make(map[[32]byte]*derivedCredentials)}
}

func cacheKey(passphrase, salt []byte) [32]byte {
	var key [32]byte
	copy(key[:], crypto.BLAKE2b256(append(append([]byte(nil), passphrase...), salt...)))
	return key
}

func (c *kdfCache) get(passphrase, salt []byte) (*derivedCredentials, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[cacheKey(passphrase, salt)]
	return entry, ok
}

func (c *kdfCache) put(passphrase, salt []byte, creds *derivedCredentials) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(passphrase, salt)] = creds
}

// delete removes and zeroizes the cache entry for the given group key, if
// present, scanning by value since the cache is indexed by credential hash
// rather than group id.
func (c *kdfCache) deleteByGroupID(groupID [16]byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range c.entries {
		if v.groupID != groupID {
			continue
		}
		for i := range v.groupKey {
			v.groupKey[i] = 0
		}
		delete(c.entries, k)
	}
}

// deriveCredentials runs Argon2id(passphrase, salt, moderate, 48) and
// splits the output into the 32-byte group key and the BLAKE2b-128
// group id derived from (tag || group_key || salt).
func deriveCredentials(passphrase, salt []byte) (*derivedCredentials, error) {
	derived := crypto.Argon2idModerate(passphrase, salt, 48)
	groupKey := append([]byte(nil), derived[:32]...)

	idInput := make([]byte, 0, len(derivedGroupIDTag)+32+len(salt))
	idInput = append(idInput, derivedGroupIDTag...)
	idInput = append(idInput, derived[:32]...)
	idInput = append(idInput, salt...)

	idBytes, err := crypto.BLAKE2bSum(16, idInput)
	if err != nil {
		return nil, err
	}

	for i := range derived {
		derived[i] = 0
	}

	var groupID [16]byte
	copy(groupID[:], idBytes)
	return &derivedCredentials{groupKey: groupKey, groupID: groupID}, nil
}
