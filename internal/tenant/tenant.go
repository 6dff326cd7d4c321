// Package tenant derives the opaque per-tenant identifier every audit
// operation is scoped by.
package tenant

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// DeriveKey maps a raw provider API key to its irreversible tenant key.
// The raw credential must never reach storage; only the hash does.
func DeriveKey(rawAPIKey string) string {
	sum := sha3.Sum256([]byte(rawAPIKey))
	return hex.EncodeToString(sum[:])
}
