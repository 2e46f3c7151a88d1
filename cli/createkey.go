package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

// CreateKeyInteractive asks for a name and whether to generate the secret
// or type it in, then stores the key.
func (e *Env) CreateKeyInteractive() error {
	name, err := e.PromptKeyName()
	if err != nil {
		return errors.Wrap(err, "failed to read key name")
	}

	fmt.Fprint(e.Err, "Generate a random secret? (Y/n): ")
	answer, err := e.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return errors.Wrap(err, "failed to read answer")
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "", "y", "yes":
		return e.CreateKey(name, nil)
	case "n", "no":
		return e.CreateKeyPrompted(name)
	default:
		return errors.Errorf("unexpected answer %q", strings.TrimSpace(answer))
	}
}

// CreateKeyPrompted reads the secret from the terminal without echo.
func (e *Env) CreateKeyPrompted(name string) error {
	input, err := ReadSecret("Secret (32 characters or 64 hex digits): ", e.Err)
	if err != nil {
		return errors.Wrap(err, "failed to read secret")
	}
	secret, err := ParseSecret(input)
	if err != nil {
		return err
	}
	return e.CreateKey(name, secret)
}

// CreateKeyFromInput reads the secret from the whole of the input.
func (e *Env) CreateKeyFromInput(name string) error {
	input, err := io.ReadAll(e.in)
	if err != nil {
		return errors.Wrap(err, "failed to read secret")
	}
	secret, err := ParseSecret(input)
	if err != nil {
		return err
	}
	return e.CreateKey(name, secret)
}
