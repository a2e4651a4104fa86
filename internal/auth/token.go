// ABOUTME: Generation of random shared secrets for the bearer gate
// ABOUTME: Tokens are unpadded base64 of crypto/rand bytes

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// Token length bounds, in random bytes.
const (
	MinTokenBytes     = 16
	MaxTokenBytes     = 256
	DefaultTokenBytes = 32
)

// Token generation errors
var (
	ErrTokenTooShort = fmt.Errorf("length must be at least %d bytes", MinTokenBytes)
	ErrTokenTooLong  = fmt.Errorf("length must not exceed %d bytes", MaxTokenBytes)
	ErrNoEntropy     = errors.New("reading random bytes")
)

// GenerateToken returns a token built from n random bytes, base64 encoded
// without padding.
func GenerateToken(n int) (string, error) {
	if n < MinTokenBytes {
		return "", ErrTokenTooShort
	}
	if n > MaxTokenBytes {
		return "", ErrTokenTooLong
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoEntropy, err)
	}
	return base64.RawStdEncoding.EncodeToString(buf), nil
}
