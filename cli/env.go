package cli

import (
	"bufio"
	"fmt"
	"io"

	"github.com/awnumar/memguard"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fahmaliyi/xmsg/keychain"
	"github.com/fahmaliyi/xmsg/logger"
	"github.com/fahmaliyi/xmsg/message"
)

// Env carries everything a command needs: configuration, logger, the key
// store and the streams it talks to.
type Env struct {
	Config *Config
	Log    logger.Logger
	Store  *keychain.Store
	// Out receives results, Err receives prompts and notices.
	Out io.Writer
	Err io.Writer
	// Interactive is set when a user can answer prompts on the input.
	Interactive bool

	in *bufio.Reader
}

func NewEnv(config *Config, log logger.Logger, in io.Reader, out, errOut io.Writer) *Env {
	return &Env{
		Config: config,
		Log:    log,
		Store:  keychain.New(config.StorePath, keychain.WithLogger(log)),
		Out:    out,
		Err:    errOut,
		in:     bufio.NewReader(in),
	}
}

// Input returns the buffered input shared by every prompt.
func (e *Env) Input() *bufio.Reader {
	return e.in
}

func (e *Env) chooser() keychain.Chooser {
	if !e.Interactive {
		return nil
	}
	return NewPromptChooser(e.in, e.Err)
}

// OpenCodec resolves index through the store and returns a codec bound to
// the selected key. The raw key is wiped before OpenCodec returns.
func (e *Env) OpenCodec(index int, chooser keychain.Chooser) (*message.Codec, keychain.Selection, error) {
	sel, err := e.Store.Select(index, chooser)
	if err != nil {
		return nil, sel, errors.Wrap(err, "failed to select key")
	}
	codec, err := e.codecFor(sel)
	return codec, sel, err
}

func (e *Env) codecFor(sel keychain.Selection) (*message.Codec, error) {
	key, err := e.Store.RawKey(sel)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load key")
	}
	defer memguard.WipeBytes(key)

	e.Log.Debugf("using key %d %q", sel.Index, sel.Name)
	return message.New(key, message.WithLogger(e.Log))
}

// Encrypt encrypts plaintext under the key at index.
func (e *Env) Encrypt(index int, plaintext []byte) (string, error) {
	if len(plaintext) > message.MaxMessageLen {
		return "", errors.Wrap(message.ErrMessageTooLong, humanize.Bytes(uint64(len(plaintext))))
	}
	codec, _, err := e.OpenCodec(index, e.chooser())
	if err != nil {
		return "", err
	}
	defer codec.Close()

	token, err := codec.Encode(plaintext)
	if err != nil {
		return "", errors.Wrap(err, "failed to encrypt message")
	}
	return token, nil
}

// Decrypt decrypts token under the key at index.
func (e *Env) Decrypt(index int, token string) ([]byte, error) {
	codec, _, err := e.OpenCodec(index, e.chooser())
	if err != nil {
		return nil, err
	}
	defer codec.Close()

	plaintext, err := codec.Decode(token)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decrypt message")
	}
	return plaintext, nil
}

// ListKeys prints every key with its index and fingerprint.
func (e *Env) ListKeys() error {
	records, err := e.Store.Records()
	if err != nil {
		return errors.Wrap(err, "failed to list keys")
	}
	for i := range records {
		fmt.Fprintf(e.Out, "[%d]: %-18q %s\n", i, records[i].Name, records[i].Fingerprint())
		memguard.WipeBytes(records[i].Secret[:])
	}
	fmt.Fprintf(e.Out, "%s in %s\n", pluralKeys(len(records)), e.Store.Path)
	return nil
}

func pluralKeys(n int) string {
	if n == 1 {
		return "1 key"
	}
	return humanize.Comma(int64(n)) + " keys"
}

// InitStore creates an empty key store.
func (e *Env) InitStore() error {
	if e.Store.Exists() {
		fmt.Fprintf(e.Err, "Key store already exists at %s\n", e.Store.Path)
		return nil
	}
	if err := e.Store.Init(); err != nil {
		return errors.Wrap(err, "failed to create key store")
	}
	fmt.Fprintf(e.Err, "Key store ready at %s\n", e.Store.Path)
	return nil
}

// DefaultKeyName returns a fresh name of the form key-1a2b3c4d.
func DefaultKeyName() string {
	return "key-" + uuid.NewString()[:8]
}

// CreateKey stores a key named name. An empty name gets DefaultKeyName and
// a nil secret is generated. secret is wiped.
func (e *Env) CreateKey(name string, secret []byte) error {
	defer memguard.WipeBytes(secret)
	if name == "" {
		name = DefaultKeyName()
	}
	fmt.Fprintf(e.Err, "Creating a key named %s...\n", name)

	r, err := e.Store.Create(name, secret)
	if err != nil {
		return errors.Wrap(err, "failed to create key")
	}
	defer memguard.WipeBytes(r.Secret[:])

	fmt.Fprintf(e.Out, "Created key %q (fingerprint %s)\n", r.Name, r.Fingerprint())
	return nil
}

// PromptKeyName asks for a key name. An empty answer means DefaultKeyName.
func (e *Env) PromptKeyName() (string, error) {
	fmt.Fprint(e.Err, "Key name (empty for a generated one): ")
	line, err := e.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return trimLine(line), nil
}

// DeleteKey removes the key at index, asking which one when allowed.
func (e *Env) DeleteKey(index int) error {
	sel, err := e.Store.Select(index, e.chooser())
	if err != nil {
		return errors.Wrap(err, "failed to select key")
	}
	removed, err := e.Store.Delete(sel)
	if err != nil {
		return errors.Wrap(err, "failed to delete key")
	}
	fmt.Fprintf(e.Out, "Deleted key %q\n", removed.Name)
	return nil
}

// Copy puts text on the clipboard.
func (e *Env) Copy(text string) error {
	if err := writeClipboard(text); err != nil {
		return errors.Wrap(err, "failed to copy to clipboard")
	}
	return nil
}
