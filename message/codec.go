package message

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/awnumar/memguard"
	"github.com/dustin/go-humanize"

	"github.com/fahmaliyi/xmsg/logger"
)

// Codec turns plaintext into base64 tokens and back under one key. Tokens
// carry no authentication tag: a modified token decrypts to garbage rather
// than failing.
//
// A Codec is not safe for concurrent use.
type Codec struct {
	key    []byte
	cipher BlockCipher
	rand   RandomSource
	log    logger.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithCipher replaces the AES-256 primitive.
func WithCipher(c BlockCipher) Option {
	return func(codec *Codec) {
		codec.cipher = c
	}
}

// WithRandom replaces the crypto/rand source used for IVs and padding.
func WithRandom(r RandomSource) Option {
	return func(codec *Codec) {
		codec.rand = r
	}
}

// WithLogger sets the Codec logger.
func WithLogger(l logger.Logger) Option {
	return func(codec *Codec) {
		codec.log = l
	}
}

// New creates a Codec bound to a copy of key, which must be KeySize bytes.
// The caller may wipe key once New returns. Close wipes the copy.
func New(key []byte, opts ...Option) (*Codec, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}
	c := &Codec{
		key:    make([]byte, KeySize),
		cipher: NewAESCipher(),
		rand:   CryptoRandom{},
		log:    logger.NewNoopLogger(),
	}
	copy(c.key, key)
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Close wipes the key. The Codec is unusable afterwards.
func (c *Codec) Close() {
	memguard.WipeBytes(c.key)
	c.key = nil
}

// Encode encrypts plaintext and returns the transport token.
func (c *Codec) Encode(plaintext []byte) (string, error) {
	if len(plaintext) > MaxMessageLen {
		return "", fmt.Errorf("%w: %d bytes, limit is %d", ErrMessageTooLong, len(plaintext), MaxMessageLen)
	}
	if c.key == nil {
		return "", fmt.Errorf("message: codec is closed")
	}

	h := &header{length: uint16(len(plaintext))}
	defer memguard.WipeBytes(h.iv[:])
	if err := c.rand.Fill(h.iv[:]); err != nil {
		return "", err
	}

	c.log.Debug("initializing cipher")
	if err := c.cipher.Init(c.key); err != nil {
		return "", err
	}
	defer c.cipher.Destroy()
	c.cipher.SetIV(h.iv[:])

	size := paddedLen(len(plaintext))
	buf := make([]byte, HeaderSize+size)
	defer memguard.WipeBytes(buf)

	payload := buf[HeaderSize:]
	copy(payload, plaintext)
	if err := c.rand.Fill(payload[len(plaintext):]); err != nil {
		return "", err
	}
	writeHeader(buf, h)

	c.log.Debugf("encrypting %s (%s padded)", humanize.Bytes(uint64(len(plaintext))), humanize.Bytes(uint64(size)))
	if err := c.cipher.CBCEncrypt(payload); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// Decode decrypts a token produced by Encode. Surrounding whitespace is
// ignored.
func (c *Codec) Decode(token string) ([]byte, error) {
	if c.key == nil {
		return nil, fmt.Errorf("message: codec is closed")
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	defer memguard.WipeBytes(raw)

	h, payload, err := readHeader(raw)
	if err != nil {
		return nil, err
	}

	c.log.Debug("initializing cipher")
	if err := c.cipher.Init(c.key); err != nil {
		return nil, err
	}
	defer c.cipher.Destroy()
	c.cipher.SetIV(h.iv[:])

	c.log.Debugf("decrypting %s", humanize.Bytes(uint64(len(payload))))
	if err := c.cipher.CBCDecrypt(payload); err != nil {
		return nil, err
	}

	plaintext := make([]byte, h.length)
	copy(plaintext, payload[:h.length])
	return plaintext, nil
}
