// Package publicid generates the short URL-safe handles used to address
// teams (join codes) and files (public ids) from outside the API.
package publicid

import (
	"crypto/rand"
	"fmt"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// DefaultLength yields 64^6 (~68 billion) possible ids, enough for
// collision-negligible random assignment at this system's scale.
const DefaultLength = 6

// New returns a random id of n characters from the URL-safe alphabet.
func New(n int) (string, error) {
	if n <= 0 {
		n = DefaultLength
	}
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range raw {
		raw[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(raw), nil
}
