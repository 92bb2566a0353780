package otp

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

const (
	codeMin = 100000
	codeMax = 999999
)

// generateCode returns a uniform random 6-digit code in [100000, 999999].
// Rejection sampling keeps the distribution unbiased.
func generateCode() (string, error) {
	span := uint64(codeMax - codeMin + 1)
	limit := (^uint64(0) / span) * span
	for {
		var buf [8]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		v := binary.BigEndian.Uint64(buf[:])
		if v >= limit {
			continue
		}
		return fmt.Sprintf("%06d", codeMin+v%span), nil
	}
}
