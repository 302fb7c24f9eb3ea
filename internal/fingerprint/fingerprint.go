// Package fingerprint derives content identifiers for cache keys. The
// fingerprint is always taken over the original uploaded bytes, never an
// extracted audio artifact.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// File returns the lowercase hex SHA-256 of the file contents.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("fingerprint: open %q: %w", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("fingerprint: read %q: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Bytes returns the lowercase hex SHA-256 of data.
func Bytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
