package keychain

import (
	"bytes"
	"fmt"
	"io"

	"github.com/awnumar/memguard"
)

// alphabet holds the 94 printable ASCII characters '!' through '~'.
const alphabet = "!\"#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_`abcdefghijklmnopqrstuvwxyz{|}~"

// CheckKeyName reports whether name fits the fixed-width name field.
func CheckKeyName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > NameLen {
		return fmt.Errorf("%w: %q is longer than %d bytes", ErrInvalidName, name, NameLen)
	}
	for _, c := range []byte(name) {
		if c < 0x20 || c == 0x7f {
			return fmt.Errorf("%w: control character %q in %q", ErrInvalidName, c, name)
		}
	}
	return nil
}

// GenerateSecret reads SecretLen random bytes from r and maps each one onto
// the printable alphabet. The mapping is not uniform and leaves roughly
// 6.5 bits of entropy per byte.
func GenerateSecret(r io.Reader) ([]byte, error) {
	raw := make([]byte, SecretLen)
	defer memguard.WipeBytes(raw)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("keychain: failed to read random bytes: %w", err)
	}

	secret := make([]byte, SecretLen)
	for i, b := range raw {
		secret[i] = alphabet[int(b)*len(alphabet)/256]
	}
	return secret, nil
}

// encodeRecord writes the fixed-width frame for r into dst, which must be
// RecordLen bytes long.
func encodeRecord(dst []byte, r *Record) {
	memguard.WipeBytes(dst[:NameLen])
	copy(dst[:NameLen], r.Name)
	copy(dst[NameLen:NameLen+SecretLen], r.Secret[:])
	dst[RecordLen-1] = '\n'
}

// decodeRecord parses one frame. The name ends at the first NUL.
func decodeRecord(frame []byte) (Record, error) {
	var r Record
	if len(frame) != RecordLen || frame[RecordLen-1] != '\n' {
		return r, ErrCorrupt
	}
	name := frame[:NameLen]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	r.Name = string(name)
	copy(r.Secret[:], frame[NameLen:NameLen+SecretLen])
	return r, nil
}

// decodeRecords splits raw file contents into records.
func decodeRecords(raw []byte) ([]Record, error) {
	if len(raw)%RecordLen != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(raw)%RecordLen)
	}
	records := make([]Record, 0, len(raw)/RecordLen)
	for off := 0; off < len(raw); off += RecordLen {
		r, err := decodeRecord(raw[off : off+RecordLen])
		if err != nil {
			return nil, fmt.Errorf("%w: record %d has no delimiter", ErrCorrupt, off/RecordLen)
		}
		records = append(records, r)
	}
	return records, nil
}

// wipeRecords clears the secrets held by records.
func wipeRecords(records []Record) {
	for i := range records {
		memguard.WipeBytes(records[i].Secret[:])
	}
}
