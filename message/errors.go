package message

import "errors"

var (
	// ErrMalformedToken is returned when a token cannot be decoded or its
	// header disagrees with its payload.
	ErrMalformedToken = errors.New("message: malformed token")

	// ErrMessageTooLong is returned when a plaintext does not fit the 16-bit
	// length field.
	ErrMessageTooLong = errors.New("message: message too long")

	// ErrInvalidKeySize is returned when a key is not 32 bytes (AES-256).
	ErrInvalidKeySize = errors.New("message: invalid key size, must be 32 bytes")

	// ErrRandom is returned when the random source fails.
	ErrRandom = errors.New("message: random source failed")
)

// IsMalformedToken returns true if the error is or wraps ErrMalformedToken.
func IsMalformedToken(err error) bool {
	return errors.Is(err, ErrMalformedToken)
}

// IsMessageTooLong returns true if the error is or wraps ErrMessageTooLong.
func IsMessageTooLong(err error) bool {
	return errors.Is(err, ErrMessageTooLong)
}
