package message

import (
	"crypto/rand"
	"fmt"
	"io"
)

// RandomSource fills buffers with cryptographically secure bytes.
type RandomSource interface {
	Fill(b []byte) error
}

// CryptoRandom reads from crypto/rand.
type CryptoRandom struct{}

func (CryptoRandom) Fill(b []byte) error {
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return fmt.Errorf("%w: %w", ErrRandom, err)
	}
	return nil
}
