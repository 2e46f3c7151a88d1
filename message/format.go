package message

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Wire format constants.
const (
	// BlockSize is the cipher block size (AES, 128 bits).
	BlockSize = 16

	// KeySize is the required key size in bytes (AES-256).
	KeySize = 32

	// lengthSize is the size of the little-endian plaintext length field.
	lengthSize = 2

	// HeaderSize is the unencrypted prefix: length field followed by the IV.
	HeaderSize = lengthSize + BlockSize

	// MaxMessageLen is the largest plaintext the length field can describe.
	MaxMessageLen = math.MaxUint16
)

// header is the unencrypted prefix of a token.
type header struct {
	length uint16
	iv     [BlockSize]byte
}

// paddedLen rounds n up to the next multiple of BlockSize.
func paddedLen(n int) int {
	return (n + BlockSize - 1) / BlockSize * BlockSize
}

// writeHeader writes h into the first HeaderSize bytes of buf.
func writeHeader(buf []byte, h *header) {
	binary.LittleEndian.PutUint16(buf[:lengthSize], h.length)
	copy(buf[lengthSize:HeaderSize], h.iv[:])
}

// readHeader parses the header of raw and returns it with the payload that
// follows.
func readHeader(raw []byte) (*header, []byte, error) {
	if len(raw) < HeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes is shorter than the header", ErrMalformedToken, len(raw))
	}
	h := &header{length: binary.LittleEndian.Uint16(raw[:lengthSize])}
	copy(h.iv[:], raw[lengthSize:HeaderSize])

	payload := raw[HeaderSize:]
	if len(payload)%BlockSize != 0 {
		return nil, nil, fmt.Errorf("%w: payload of %d bytes is not block aligned", ErrMalformedToken, len(payload))
	}
	if int(h.length) > len(payload) {
		return nil, nil, fmt.Errorf("%w: length %d exceeds payload of %d bytes", ErrMalformedToken, h.length, len(payload))
	}
	return h, payload, nil
}
