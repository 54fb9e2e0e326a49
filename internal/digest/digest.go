// Package digest provides the content-addressing primitive used for green
// values throughout the analyzer: hex-encoded BLAKE3.
package digest

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// size is the digest length in bytes. 16 bytes is plenty for change
// detection within a single session.
const size = 16

// Bytes digests a byte slice.
func Bytes(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:size])
}

// String digests a string without copying it into a new slice.
func String(s string) string {
	return Bytes([]byte(s))
}

// Parts digests a sequence of strings with explicit separators, so that
// ("ab","c") and ("a","bc") produce different digests.
func Parts(parts ...string) string {
	h := blake3.New(32, nil)
	var sep = [1]byte{0}
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write(sep[:])
	}
	sum := h.Sum(nil)
	return hex.EncodeToString(sum[:size])
}
