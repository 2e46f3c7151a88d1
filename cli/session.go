package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/pkg/errors"

	"github.com/fahmaliyi/xmsg/message"
)

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

// clipboardClearer empties the clipboard some time after the last copy.
type clipboardClearer struct {
	mu    sync.Mutex
	after time.Duration
	timer *time.Timer
}

func (c *clipboardClearer) schedule() {
	if c.after <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.after, func() {
		writeClipboard("")
	})
}

// flush clears the clipboard now if a clear is still pending.
func (c *clipboardClearer) flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil && c.timer.Stop() {
		writeClipboard("")
	}
	c.timer = nil
}

// RunSession runs the interactive loop: read a message, ask whether to
// encrypt or decrypt it, print the result. It ends on "q" or end of input.
// The key is chosen once, before the first message.
func (e *Env) RunSession(index int) error {
	codec, sel, err := e.OpenCodec(index, NewPromptChooser(e.in, e.Out))
	if err != nil {
		return err
	}
	defer codec.Close()

	clearer := &clipboardClearer{after: e.Config.ClipboardClear}
	defer clearer.flush()

	prompt := fmt.Sprintf("(%d) xmsg > ", sel.Index)
	for {
		fmt.Fprintln(e.Out, "Type in a message.")
		fmt.Fprint(e.Out, prompt)
		text, ok := e.readLine()
		if !ok || text == "q" {
			return nil
		}

		fmt.Fprintln(e.Out, "Encrypt or Decrypt? (e/d)")
		fmt.Fprint(e.Out, prompt)
		op, ok := e.readLine()
		if !ok {
			return nil
		}

		switch op = strings.TrimSpace(op); op {
		case "e", "c":
			token, err := codec.Encode([]byte(text))
			if message.IsMessageTooLong(err) {
				fmt.Fprintln(e.Err, err)
				continue
			} else if err != nil {
				return errors.Wrap(err, "failed to encrypt message")
			}
			fmt.Fprintln(e.Out, token)
			if op == "c" {
				if err := e.Copy(token); err != nil {
					fmt.Fprintln(e.Err, err)
					continue
				}
				clearer.schedule()
				fmt.Fprintf(e.Out, "Copied to clipboard (clears in %s)\n", e.Config.ClipboardClear)
			}
		case "d":
			plaintext, err := codec.Decode(text)
			if message.IsMalformedToken(err) {
				fmt.Fprintln(e.Err, err)
				continue
			} else if err != nil {
				return errors.Wrap(err, "failed to decrypt message")
			}
			fmt.Fprintf(e.Out, "\"%s\"\n", plaintext)
		default:
			fmt.Fprintln(e.Out, "Invalid option.")
		}
	}
}

// readLine returns the next input line without its line ending. ok is false
// once the input is exhausted.
func (e *Env) readLine() (string, bool) {
	line, err := e.in.ReadString('\n')
	if err == io.EOF && line == "" {
		return "", false
	} else if err != nil && err != io.EOF {
		e.Log.Debugf("reading input: %v", err)
		return "", false
	}
	return trimLine(line), true
}
