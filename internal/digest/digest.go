// Package digest provides the one-way hash collaborator used for
// commitment verification.
//
// The engine never hashes anything besides commitment buffers, so the
// contract is a single function from an arbitrary byte buffer to a
// fixed-width digest. SHA-256 is the default; BLAKE2b-256 is available for
// deployments that already standardize on it.
package digest

import (
	"crypto/sha256"

	"golang.org/x/crypto/blake2b"
)

// Size is the digest width in bytes.
const Size = 32

// Func computes a fixed-width digest over a byte buffer.
type Func func([]byte) [Size]byte

// SHA256 hashes with crypto/sha256.
func SHA256(data []byte) [Size]byte {
	return sha256.Sum256(data)
}

// BLAKE2b hashes with BLAKE2b-256.
func BLAKE2b(data []byte) [Size]byte {
	return blake2b.Sum256(data)
}
