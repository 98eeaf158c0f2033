package random

import (
	"math/rand/v2"
	"strings"
)

const charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// String returns length characters from charset. Not for secrets.
func String(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.IntN(len(charset))]
	}
	return string(b)
}

// RequestID builds an id for an outbound call, e.g. "sf-3kT9aQ1xZ0bL".
func RequestID(prefix string) string {
	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteByte('-')
	sb.WriteString(String(12))
	return sb.String()
}
