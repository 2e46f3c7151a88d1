package keychain

import (
	"encoding/hex"
	"errors"

	"golang.org/x/crypto/blake2b"
)

const (
	NameLen   = 16
	SecretLen = 32
	// RecordLen is the size of one record on disk, including the
	// trailing newline delimiter.
	RecordLen = NameLen + SecretLen + 1

	// NoIndex marks a selection request that carries no index.
	NoIndex = -1

	FileName   = "xmsgkey.txt"
	backupExt  = ".bak"
	fileMode   = 0o600
	folderMode = 0o700
)

var (
	ErrStoreUnavailable = errors.New("keychain: key store unavailable")
	ErrNoKeySelected    = errors.New("keychain: no key selected")
	ErrInvalidChoice    = errors.New("keychain: invalid choice")
	ErrCorrupt          = errors.New("keychain: corrupt key file")
	ErrInvalidName      = errors.New("keychain: invalid key name")
	ErrInvalidSecret    = errors.New("keychain: invalid key secret")
)

// IsStoreUnavailable returns true if the error is or wraps ErrStoreUnavailable.
func IsStoreUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsNoKeySelected returns true if the error is or wraps ErrNoKeySelected.
func IsNoKeySelected(err error) bool {
	return errors.Is(err, ErrNoKeySelected)
}

// IsInvalidChoice returns true if the error is or wraps ErrInvalidChoice.
func IsInvalidChoice(err error) bool {
	return errors.Is(err, ErrInvalidChoice)
}

// Record is one named key.
type Record struct {
	Name   string
	Secret [SecretLen]byte
}

// Fingerprint returns a short public identifier of the secret. Two parties
// can compare fingerprints to confirm they hold the same key.
func (r Record) Fingerprint() string {
	sum := blake2b.Sum256(r.Secret[:])
	return hex.EncodeToString(sum[:8])
}

// Selection is a resolved position in the store.
type Selection struct {
	Index int
	Name  string
}

// Chooser asks a user to pick one of names. Reject is told why the last
// answer was refused before Choose is asked again.
type Chooser interface {
	Choose(names []string) (int, error)
	Reject(err error)
}
