package room

import (
	"math/rand"
	"strings"
)

const (
	codeLength = 4
	maxRetries = 100
)

// Letters that are easy to read aloud; I and O are left out.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ"

// GenerateCode creates a random room code not present in existing.
func GenerateCode(existing map[string]bool) string {
	code := randomCode()
	for i := 0; i < maxRetries && existing[code]; i++ {
		code = randomCode()
	}
	return code
}

func randomCode() string {
	var b strings.Builder
	b.Grow(codeLength)
	for range codeLength {
		b.WriteByte(codeAlphabet[rand.Intn(len(codeAlphabet))])
	}
	return b.String()
}

// NormalizeCode uppercases and trims a user-entered room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
