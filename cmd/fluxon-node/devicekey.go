package main

import (
	"fmt"
	"os"

	"github.com/fluxon-mesh/fluxon/pkg/crypto"
)

// loadOrCreateDeviceKey reads the raw AEAD key FileStore seals the node's
// storage file under from a path sibling to storagePath, generating and
// persisting one on first run. The key itself is not sealed by anything:
// its file's 0600 permissions are the only protection, the same trust
// boundary any local secrets-on-disk key occupies.
func loadOrCreateDeviceKey(storagePath string) ([]byte, error) {
	keyPath := storagePath + ".key"

	key, err := os.ReadFile(keyPath)
	if err == nil {
		if len(key) != crypto.AEADKeyLen {
			return nil, fmt.Errorf("fluxon-node: device key file %s has wrong length", keyPath)
		}
		return key, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}

	key, err = crypto.RandomBytes(crypto.AEADKeyLen)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(keyPath, key, 0o600); err != nil {
		return nil, err
	}
	return key, nil
}
