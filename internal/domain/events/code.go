package events

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// codeAlphabet excludes visually confusable characters (0/O, 1/I/L) so codes
// survive being read off a projector or typed from a printout.
const codeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

// CodeLength is the length of event check-in codes.
const CodeLength = 8

// NewCode generates a random check-in code from the unambiguous alphabet.
func NewCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate event code: %w", err)
	}
	var sb strings.Builder
	sb.Grow(CodeLength)
	for _, b := range buf {
		sb.WriteByte(codeAlphabet[int(b)%len(codeAlphabet)])
	}
	return sb.String(), nil
}

// NormalizeCode uppercases and trims user-entered check-in codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
