package store

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"golang.org/x/crypto/sha3"
)

// Digest returns the hex encoded SHA3-256 digest of the store document.
// A missing file has an empty digest.
func (f *File) Digest() (string, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read store for digest: %w", err)
	}
	return DigestBytes(data), nil
}

// DigestBytes returns the hex encoded SHA3-256 digest of data.
func DigestBytes(data []byte) string {
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
