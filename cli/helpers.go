package cli

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/awnumar/memguard"
	"golang.org/x/term"

	"github.com/fahmaliyi/xmsg/keychain"
)

func DefaultStorePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".xmsg", keychain.FileName), nil
}

// IsTerminal reports whether r is a terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ReadSecret prompts on out and reads a line from the terminal without
// echoing it.
func ReadSecret(prompt string, out io.Writer) ([]byte, error) {
	fmt.Fprint(out, prompt)
	secret, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	return secret, err
}

// ParseSecret accepts either exactly 32 raw bytes or 64 hex characters.
// Raw secrets lose only a trailing line ending, so they may begin or end
// with spaces. Hex input ignores surrounding whitespace. input is wiped.
func ParseSecret(input []byte) ([]byte, error) {
	defer memguard.WipeBytes(input)

	raw := bytes.TrimSuffix(input, []byte("\n"))
	raw = bytes.TrimSuffix(raw, []byte("\r"))
	if len(raw) == keychain.SecretLen {
		secret := make([]byte, keychain.SecretLen)
		copy(secret, raw)
		return secret, nil
	}

	trimmed := bytes.TrimSpace(input)
	if len(trimmed) != 2*keychain.SecretLen {
		return nil, fmt.Errorf("%w: expected %d bytes or %d hex characters, got %d",
			keychain.ErrInvalidSecret, keychain.SecretLen, 2*keychain.SecretLen, len(raw))
	}
	secret := make([]byte, keychain.SecretLen)
	if _, err := hex.Decode(secret, trimmed); err != nil {
		memguard.WipeBytes(secret)
		return nil, fmt.Errorf("%w: %v", keychain.ErrInvalidSecret, err)
	}
	return secret, nil
}

// ReadMessage returns the message given on the command line, or all of in
// when args is empty. Input read from in loses one trailing newline.
func ReadMessage(args []string, in io.Reader) ([]byte, error) {
	if len(args) > 0 {
		return []byte(strings.Join(args, " ")), nil
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}
	s := strings.TrimSuffix(string(data), "\n")
	s = strings.TrimSuffix(s, "\r")
	return []byte(s), nil
}

func trimLine(line string) string {
	return strings.TrimRight(line, "\r\n")
}
