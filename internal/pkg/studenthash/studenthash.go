// Package studenthash derives stable opaque identifiers for students so URLs
// do not expose sequential database ids.
package studenthash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Length is the number of hex characters in a hash.
const Length = 16

// Hasher signs student ids with a server secret.
type Hasher struct {
	secret []byte
}

// New returns a Hasher keyed by secret.
func New(secret string) *Hasher {
	return &Hasher{secret: []byte(secret)}
}

// Hash returns the opaque identifier of a student id.
func (h *Hasher) Hash(id int64) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(strconv.FormatInt(id, 10)))
	return hex.EncodeToString(mac.Sum(nil))[:Length]
}

// Match reports whether hash identifies id, in constant time.
func (h *Hasher) Match(id int64, hash string) bool {
	return hmac.Equal([]byte(h.Hash(id)), []byte(hash))
}
