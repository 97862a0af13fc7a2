package utils

import (
	"math/rand"
	"strings"
)

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

const idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateID returns a random lowercase alphanumeric id, used as the
// per-connection identifier.
func GenerateID(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = idAlphabet[rand.Intn(len(idAlphabet))]
	}
	return string(b)
}

// NormalizeGuess lowercases and trims a chat line or answer field before
// substring matching. Matching is deliberately lenient: containment of
// the full normalized title/artist, nothing fuzzier.
func NormalizeGuess(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
