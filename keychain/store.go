package keychain

import (
	"bytes"
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/awnumar/memguard"
	"github.com/dustin/go-humanize"
	atomic_file "github.com/natefinch/atomic"

	"github.com/fahmaliyi/xmsg/logger"
)

// writeFile atomically replaces a file; replaced in tests.
var writeFile = atomic_file.WriteFile

// Store manages the flat key file. It assumes a single process owns the
// file for the duration of one command; there is no locking.
type Store struct {
	Path string
	rand io.Reader
	log  logger.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithRandom sets the source used to generate secrets.
func WithRandom(r io.Reader) Option {
	return func(s *Store) {
		s.rand = r
	}
}

// WithLogger sets the Store logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

func New(path string, opts ...Option) *Store {
	s := &Store{Path: path, rand: rand.Reader, log: logger.NewNoopLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) backupPath() string {
	return s.Path + backupExt
}

// Exists reports whether the key file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.Path)
	return err == nil
}

// Init creates the parent directory and an empty key file. An existing file
// is left untouched.
func (s *Store) Init() error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	f, err := os.OpenFile(s.Path, os.O_WRONLY|os.O_CREATE, fileMode)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return f.Close()
}

func (s *Store) ensureDir() error {
	if err := os.Mkdir(filepath.Dir(s.Path), folderMode); err != nil && !os.IsExist(err) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// Records reads every record in file order. The caller owns the secrets.
func (s *Store) Records() ([]Record, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer memguard.WipeBytes(raw)

	s.log.Debugf("read key store %s (%s)", s.Path, humanize.Bytes(uint64(len(raw))))
	return decodeRecords(raw)
}

// Names lists key names in file order. An empty store yields an empty
// slice, a missing one ErrStoreUnavailable.
func (s *Store) Names() ([]string, error) {
	records, err := s.Records()
	if err != nil {
		return nil, err
	}
	defer wipeRecords(records)

	names := make([]string, len(records))
	for i, r := range records {
		names[i] = r.Name
	}
	return names, nil
}

// Select resolves index to a record. A negative index means none was given.
// With a nil chooser the call is non-interactive and any unusable index is
// ErrNoKeySelected. Otherwise the chooser is asked until it produces a valid
// answer or fails with something other than ErrInvalidChoice.
func (s *Store) Select(index int, chooser Chooser) (Selection, error) {
	names, err := s.Names()
	if err != nil {
		return Selection{}, err
	}
	if index >= 0 && index < len(names) {
		return Selection{Index: index, Name: names[index]}, nil
	}

	if chooser == nil {
		if index < 0 {
			return Selection{}, fmt.Errorf("%w: no key index given", ErrNoKeySelected)
		}
		return Selection{}, fmt.Errorf("%w: index %d out of range, store has %d keys",
			ErrNoKeySelected, index, len(names))
	}

	switch {
	case len(names) == 0:
		return Selection{}, fmt.Errorf("%w: key store is empty", ErrNoKeySelected)
	case index < 0 && len(names) == 1:
		return Selection{Index: 0, Name: names[0]}, nil
	case index >= 0:
		chooser.Reject(fmt.Errorf("%w: %d is out of range", ErrInvalidChoice, index))
	}

	for {
		choice, err := chooser.Choose(names)
		if err == nil && (choice < 0 || choice >= len(names)) {
			err = fmt.Errorf("%w: %d is out of range", ErrInvalidChoice, choice)
		}
		if err == nil {
			return Selection{Index: choice, Name: names[choice]}, nil
		}
		if !IsInvalidChoice(err) {
			return Selection{}, err
		}
		s.log.Debugf("rejected key choice: %v", err)
		chooser.Reject(err)
	}
}

// RawKey re-reads the store and returns a copy of the selected secret. The
// caller must wipe it.
func (s *Store) RawKey(sel Selection) ([]byte, error) {
	records, err := s.Records()
	if err != nil {
		return nil, err
	}
	defer wipeRecords(records)

	if sel.Index < 0 || sel.Index >= len(records) {
		return nil, fmt.Errorf("%w: index %d out of range, store has %d keys",
			ErrNoKeySelected, sel.Index, len(records))
	}
	key := make([]byte, SecretLen)
	copy(key, records[sel.Index].Secret[:])
	return key, nil
}

// Create appends a record named name. A nil secret is generated from the
// store's random source. Existing records are never rewritten. The returned
// record holds the secret; the caller must wipe it.
func (s *Store) Create(name string, secret []byte) (Record, error) {
	if err := CheckKeyName(name); err != nil {
		return Record{}, err
	}
	if secret == nil {
		generated, err := GenerateSecret(s.rand)
		if err != nil {
			return Record{}, err
		}
		defer memguard.WipeBytes(generated)
		secret = generated
	} else if len(secret) != SecretLen {
		return Record{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidSecret, SecretLen, len(secret))
	}

	if err := s.ensureDir(); err != nil {
		return Record{}, err
	}

	r := Record{Name: name}
	copy(r.Secret[:], secret)

	frame := make([]byte, RecordLen)
	defer memguard.WipeBytes(frame)
	encodeRecord(frame, &r)

	file, err := os.OpenFile(s.Path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, fileMode)
	if err != nil {
		memguard.WipeBytes(r.Secret[:])
		return Record{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer file.Close()
	if _, err := file.Write(frame); err != nil {
		memguard.WipeBytes(r.Secret[:])
		return Record{}, err
	}
	if err := file.Close(); err != nil {
		memguard.WipeBytes(r.Secret[:])
		return Record{}, err
	}

	s.log.Infof("created key %q", name)
	return r, nil
}

// Delete removes the selected record. The store is first renamed to a
// backup, the remaining records are written back to the store path through an
// atomic replace and the backup is removed. If the rewrite fails the backup
// is moved back. The returned record carries only the name.
func (s *Store) Delete(sel Selection) (Record, error) {
	records, err := s.Records()
	if err != nil {
		return Record{}, err
	}
	wipeRecords(records)

	if sel.Index < 0 || sel.Index >= len(records) {
		return Record{}, fmt.Errorf("%w: index %d out of range, store has %d keys",
			ErrNoKeySelected, sel.Index, len(records))
	}
	removed := Record{Name: records[sel.Index].Name}

	backup := s.backupPath()
	if err := os.Rename(s.Path, backup); err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	s.log.Debugf("staged key store at %s", backup)

	if err := s.rewrite(backup, sel.Index); err != nil {
		if rerr := os.Rename(backup, s.Path); rerr != nil {
			s.log.Errorf("failed to restore key store from %s: %v", backup, rerr)
		}
		return Record{}, err
	}

	if err := os.Remove(backup); err != nil {
		s.log.Warnf("failed to remove key store backup %s: %v", backup, err)
	}
	s.log.Infof("deleted key %q", removed.Name)
	return removed, nil
}

// rewrite copies every record of backup except the one at skip to s.Path.
func (s *Store) rewrite(backup string, skip int) error {
	raw, err := os.ReadFile(backup)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	defer memguard.WipeBytes(raw)

	if len(raw)%RecordLen != 0 {
		return fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(raw)%RecordLen)
	}

	out := make([]byte, 0, len(raw))
	defer func() { memguard.WipeBytes(out) }()
	for i, off := 0, 0; off < len(raw); i, off = i+1, off+RecordLen {
		if i == skip {
			continue
		}
		out = append(out, raw[off:off+RecordLen]...)
	}

	return writeFile(s.Path, bytes.NewReader(out))
}
