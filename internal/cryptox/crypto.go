// Package cryptox holds the small cryptographic primitives used by the
// verification flow: uniform numeric code generation and one-way code
// hashing.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"io"
	"math/big"
	"strings"
)

// CodeHashSize is the length in bytes of a HashCode result.
const CodeHashSize = sha256.Size

var errInvalidCodeLength = errors.New("code length must be positive")

// randReader is a test seam for crypto/rand.
var randReader io.Reader = rand.Reader

var ten = big.NewInt(10)

// GenerateNumericCode returns a string of length decimal digits drawn
// independently and uniformly from a cryptographically secure source.
// Leading zeros are kept.
func GenerateNumericCode(length int) (string, error) {
	if length <= 0 {
		return "", errInvalidCodeLength
	}

	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		// rand.Int samples uniformly from [0, 10).
		n, err := rand.Int(randReader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// HashCode binds a plaintext code to its owner and returns the SHA-256
// digest. Only this digest is ever persisted.
func HashCode(userID, code string) []byte {
	h := sha256.New()
	h.Write([]byte(userID))
	h.Write([]byte{':'})
	h.Write([]byte(code))
	return h.Sum(nil)
}

// EqualHash compares two digests in constant time.
func EqualHash(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
