package util

import (
	"crypto/rand"
	"math/big"
)

const tokenChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// TokenLength is the length of generated scan tokens.
const TokenLength = 32

// GenerateScanToken returns an opaque alphanumeric token for qrcode puzzles.
// Tokens are matched case-sensitively and byte-exact, so they must come from
// a cryptographic source rather than a seeded PRNG.
func GenerateScanToken() string {
	b := make([]byte, TokenLength)
	max := big.NewInt(int64(len(tokenChars)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform entropy source is
			// broken; there is no useful degraded mode for solve tokens.
			panic(err)
		}
		b[i] = tokenChars[n.Int64()]
	}
	return string(b)
}
