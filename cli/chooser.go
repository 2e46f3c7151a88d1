package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fahmaliyi/xmsg/keychain"
)

// PromptChooser asks for a key on a line-oriented terminal.
type PromptChooser struct {
	in  *bufio.Reader
	out io.Writer
}

func NewPromptChooser(in *bufio.Reader, out io.Writer) *PromptChooser {
	return &PromptChooser{in: in, out: out}
}

func (p *PromptChooser) Choose(names []string) (int, error) {
	fmt.Fprintln(p.out, "Which encryption key do you want to use?")
	for i, name := range names {
		fmt.Fprintf(p.out, "[%d]: %q\n", i, name)
	}
	fmt.Fprint(p.out, "xmsg > ")

	line, err := p.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line == "" {
		return 0, err
	}
	choice, perr := strconv.Atoi(line)
	if perr != nil {
		return 0, fmt.Errorf("%w: %q is not a number", keychain.ErrInvalidChoice, line)
	}
	return choice, nil
}

func (p *PromptChooser) Reject(err error) {
	fmt.Fprintln(p.out, "Invalid option.")
}
