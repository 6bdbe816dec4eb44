package util

import (
	"crypto/rand"
	"encoding/hex"
)

// idBytes gives 96 bits of entropy, enough to never collide across
// conversations, messages, and photo keys.
const idBytes = 12

// NewID returns a random lowercase hex identifier.
func NewID() string {
	b := make([]byte, idBytes)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
