package utils

import (
	"crypto/rand"
	"errors"
)

// Access codes are 8 characters from an alphabet without 0/O/1/I/L so
// a university clerk can read one over the phone. The format is stable:
// ^[A-Z0-9]{8}$.
const (
	accessCodeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	AccessCodeLength   = 8
)

func GenerateAccessCode() (string, error) {
	buf := make([]byte, AccessCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.New("failed to read random bytes")
	}
	for i, b := range buf {
		buf[i] = accessCodeAlphabet[int(b)%len(accessCodeAlphabet)]
	}
	return string(buf), nil
}
