// Package shortcode generates collision-resistant short codes for shareable
// deep links. Uniqueness is the caller's concern; this package only supplies
// entropy.
package shortcode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Alphabet deliberately omits visually confusable characters
// (0/O, 1/I/l) so codes survive being retyped from a screenshot.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnpqrstuvwxyz23456789"

// Generate returns a random code of the given length drawn from Alphabet
// using crypto/rand.
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid code length %d", length)
	}

	b := make([]byte, length)
	max := big.NewInt(int64(len(Alphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("rand error: %w", err)
		}
		b[i] = Alphabet[n.Int64()]
	}
	return string(b), nil
}
