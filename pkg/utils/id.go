package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// GenerateID generates a random hex ID
func GenerateID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// base58 alphabet used by Solana account keys
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// IsValidSolanaAddress checks whether a string looks like a base58-encoded
// Solana public key. Length bounds cover the 32-byte key space.
func IsValidSolanaAddress(address string) bool {
	if len(address) < 32 || len(address) > 44 {
		return false
	}
	for _, r := range address {
		if !strings.ContainsRune(base58Alphabet, r) {
			return false
		}
	}
	return true
}

// NormalizeAddress trims surrounding whitespace from an address. Solana
// addresses are case-sensitive, so no case folding is applied.
func NormalizeAddress(address string) string {
	return strings.TrimSpace(address)
}
