// Package pinhash derives and verifies salted PIN hashes.
//
// Stored hashes use the format hex(salt):hex(key). The key is derived with
// PBKDF2-HMAC-SHA1 so hashes written by earlier releases keep verifying.
package pinhash

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Iterations is high enough to make offline brute force of 4-6 digit
	// PINs expensive without noticeable login latency.
	Iterations = 10000
	// SaltSize is the random salt length in bytes.
	SaltSize = 16
	// KeySize is the derived key length in bytes.
	KeySize = 32
)

// Hash derives a fresh salted hash for the given PIN.
func Hash(pin string) (string, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(pin), salt, Iterations, KeySize, sha1.New)
	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// Verify reports whether pin matches the stored hash. A malformed stored
// hash (wrong segment count, bad hex) verifies as false rather than
// returning an error: corrupt credentials must read as "wrong PIN".
func Verify(pin, stored string) bool {
	parts := strings.Split(stored, ":")
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(pin), salt, Iterations, len(want), sha1.New)
	// Full-length constant-time compare; no early exit on mismatch.
	return hmac.Equal(got, want)
}
