package auth

import (
	"crypto/rand"
	"time"
)

const (
	resetCodeLength = 6
	resetCodeTTL    = 15 * time.Minute
)

func generateNumericCode(length int) string {
	const digits = "0123456789"
	b := make([]byte, length)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = digits[int(b[i])%len(digits)]
	}
	return string(b)
}
