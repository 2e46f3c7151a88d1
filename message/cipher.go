package message

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/awnumar/memguard"
)

// BlockCipher is the block primitive the codec drives in CBC mode. Buffers
// passed to CBCEncrypt and CBCDecrypt are transformed in place and must be a
// multiple of BlockSize.
type BlockCipher interface {
	Init(key []byte) error
	SetIV(iv []byte)
	CBCEncrypt(buf []byte) error
	CBCDecrypt(buf []byte) error
	// Destroy clears key schedule references and the IV.
	Destroy()
}

type aesCBC struct {
	block cipher.Block
	iv    [BlockSize]byte
}

// NewAESCipher returns an AES-256 BlockCipher.
func NewAESCipher() BlockCipher {
	return &aesCBC{}
}

func (a *aesCBC) Init(key []byte) error {
	if len(key) != KeySize {
		return fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return err
	}
	a.block = block
	return nil
}

func (a *aesCBC) SetIV(iv []byte) {
	copy(a.iv[:], iv)
}

func (a *aesCBC) CBCEncrypt(buf []byte) error {
	if err := a.check(buf); err != nil {
		return err
	}
	cipher.NewCBCEncrypter(a.block, a.iv[:]).CryptBlocks(buf, buf)
	return nil
}

func (a *aesCBC) CBCDecrypt(buf []byte) error {
	if err := a.check(buf); err != nil {
		return err
	}
	cipher.NewCBCDecrypter(a.block, a.iv[:]).CryptBlocks(buf, buf)
	return nil
}

func (a *aesCBC) check(buf []byte) error {
	if a.block == nil {
		return fmt.Errorf("message: cipher not initialized")
	}
	if len(buf)%BlockSize != 0 {
		return fmt.Errorf("message: buffer of %d bytes is not a multiple of the block size", len(buf))
	}
	return nil
}

func (a *aesCBC) Destroy() {
	a.block = nil
	memguard.WipeBytes(a.iv[:])
}
