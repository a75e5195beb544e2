// Package cipher implements the confidentiality transform applied to
// manifest bytes.
//
// The transform XORs every byte with a 32-byte key derived from the
// password by SHA-256, repeating the key across the input. It is an
// involution: applying it twice with the same password returns the input.
//
// This is a repeating-key stream mask, not an authenticated cipher. It
// hides manifest content from casual inspection, and a wrong password is
// caught only because the decoded header no longer matches. Anyone who
// knows the fixed manifest header recovers the leading keystream bytes,
// and nothing stops deliberate tampering. Do not rely on it for
// cryptographic confidentiality or integrity.
package cipher

import (
	"github.com/minio/sha256-simd"
)

// KeySize is the length of the derived key in bytes.
const KeySize = sha256.Size

// DeriveKey hashes the UTF-8 password into the mask key.
func DeriveKey(password string) [KeySize]byte {
	return sha256.Sum256([]byte(password))
}

// Mask holds a derived key and applies it at arbitrary stream offsets.
type Mask struct {
	key [KeySize]byte
}

// NewMask derives the key for password.
func NewMask(password string) *Mask {
	return &Mask{key: DeriveKey(password)}
}

// Apply writes src XOR keystream into dst, where offset is the position of
// src[0] within the whole stream. dst and src may overlap exactly.
// dst must be at least len(src) long.
func (m *Mask) Apply(dst, src []byte, offset int) {
	k := offset % KeySize
	for i, b := range src {
		dst[i] = b ^ m.key[k]
		k++
		if k == KeySize {
			k = 0
		}
	}
}

// Transform returns data masked with the key derived from password.
// The input is not modified.
func Transform(data []byte, password string) []byte {
	out := make([]byte, len(data))
	NewMask(password).Apply(out, data, 0)
	return out
}
