package hasher

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"slices"
	"strings"
)

// Hash returns the hex-encoded SHA-256 of s.
func Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Verify compares s against a hash produced by Hash in constant time.
func Verify(s, hash string) bool {
	return subtle.ConstantTimeCompare([]byte(Hash(s)), []byte(hash)) == 1
}

// HashSet hashes values independent of their order: the values are sorted and
// joined with commas before hashing. Duplicates are kept.
func HashSet(values []string) string {
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return Hash(strings.Join(sorted, ","))
}
