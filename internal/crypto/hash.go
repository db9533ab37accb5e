package crypto

import (
	"crypto/subtle"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/sha3"
)

// DigestLength is the length of a Digest result: "0x" plus 64 hex characters.
const DigestLength = 66

// Digest hashes the in-order concatenation of parts with Keccak-256 and returns
// the 0x-prefixed lowercase hex encoding. Parts are joined without a delimiter,
// so ("ab", "c") and ("a", "bc") produce the same digest.
func Digest(parts ...string) string {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	return hexutil.Encode(h.Sum(nil))
}

// DigestEqual compares two digests in constant time
func DigestEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
