package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateScanToken(t *testing.T) {
	token := GenerateScanToken()
	assert.Len(t, token, TokenLength)
	for _, r := range token {
		isAlnum := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		assert.True(t, isAlnum, "unexpected rune %q", r)
	}
}

func TestGenerateScanToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := GenerateScanToken()
		assert.False(t, seen[token], "token collision")
		seen[token] = true
	}
}
