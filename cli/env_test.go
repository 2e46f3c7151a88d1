package cli

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fahmaliyi/xmsg/keychain"
	"github.com/fahmaliyi/xmsg/logger"
	"github.com/fahmaliyi/xmsg/message"
)

func testEnv(t *testing.T, input string) (*Env, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	config := NewDefaultConfig()
	config.StorePath = filepath.Join(t.TempDir(), keychain.FileName)
	config.ClipboardClear = 0

	var out, errOut bytes.Buffer
	return NewEnv(config, logger.NewNoopLogger(), strings.NewReader(input), &out, &errOut), &out, &errOut
}

func addKeys(t *testing.T, e *Env, names ...string) {
	t.Helper()
	for i, name := range names {
		_, err := e.Store.Create(name, bytes.Repeat([]byte{'a' + byte(i)}, keychain.SecretLen))
		require.NoError(t, err)
	}
}

// stubClipboard captures clipboard writes for the duration of a test.
func stubClipboard(t *testing.T) *[]string {
	t.Helper()
	var writes []string
	orig := writeClipboard
	writeClipboard = func(text string) error {
		writes = append(writes, text)
		return nil
	}
	t.Cleanup(func() { writeClipboard = orig })
	return &writes
}

func TestEncryptDecrypt(t *testing.T) {
	e, _, _ := testEnv(t, "")
	addKeys(t, e, "alpha", "beta")

	token, err := e.Encrypt(1, []byte("meet at noon"))
	require.NoError(t, err)

	plaintext, err := e.Decrypt(1, token)
	require.NoError(t, err)
	require.Equal(t, "meet at noon", string(plaintext))

	other, err := e.Decrypt(0, token)
	require.NoError(t, err)
	require.NotEqual(t, "meet at noon", string(other))
}

func TestEncryptErrors(t *testing.T) {
	e, _, _ := testEnv(t, "")

	_, err := e.Encrypt(0, []byte("x"))
	require.True(t, keychain.IsStoreUnavailable(err))

	addKeys(t, e, "alpha", "beta")
	_, err = e.Encrypt(keychain.NoIndex, []byte("x"))
	require.True(t, keychain.IsNoKeySelected(err))

	_, err = e.Encrypt(7, []byte("x"))
	require.True(t, keychain.IsNoKeySelected(err))

	_, err = e.Encrypt(0, make([]byte, message.MaxMessageLen+1))
	require.True(t, message.IsMessageTooLong(err))

	_, err = e.Decrypt(0, "not a token")
	require.True(t, message.IsMalformedToken(err))
}

// Ensure an interactive encrypt asks for the key on the error stream.
func TestEncryptInteractiveChoice(t *testing.T) {
	e, out, errOut := testEnv(t, "9\n1\n")
	e.Interactive = true
	addKeys(t, e, "alpha", "beta")

	token, err := e.Encrypt(keychain.NoIndex, []byte("hi"))
	require.NoError(t, err)
	require.Empty(t, out.String())
	require.Contains(t, errOut.String(), "Invalid option.")

	plaintext, err := e.Decrypt(1, token)
	require.NoError(t, err)
	require.Equal(t, "hi", string(plaintext))
}

func TestListKeys(t *testing.T) {
	e, out, _ := testEnv(t, "")
	addKeys(t, e, "alpha", "beta")

	require.NoError(t, e.ListKeys())
	require.Contains(t, out.String(), `[0]: "alpha"`)
	require.Contains(t, out.String(), `[1]: "beta"`)
	require.Contains(t, out.String(), "2 keys in "+e.Store.Path)

	records, err := e.Store.Records()
	require.NoError(t, err)
	require.Contains(t, out.String(), records[0].Fingerprint())
}

func TestListKeysUnavailable(t *testing.T) {
	e, _, errOut := testEnv(t, "")
	require.True(t, keychain.IsStoreUnavailable(e.ListKeys()))

	require.NoError(t, e.InitStore())
	require.Contains(t, errOut.String(), "Key store ready at")
	require.NoError(t, e.ListKeys())

	require.NoError(t, e.InitStore())
	require.Contains(t, errOut.String(), "Key store already exists at")
}

func TestCreateKeyDefaultName(t *testing.T) {
	e, out, _ := testEnv(t, "")
	require.NoError(t, e.CreateKey("", nil))

	names, err := e.Store.Names()
	require.NoError(t, err)
	require.Len(t, names, 1)
	require.True(t, strings.HasPrefix(names[0], "key-"))
	require.Len(t, names[0], len("key-")+8)
	require.Contains(t, out.String(), "Created key")
}

func TestCreateKeyInteractive(t *testing.T) {
	e, _, _ := testEnv(t, "mykey\n\n")
	require.NoError(t, e.CreateKeyInteractive())

	names, err := e.Store.Names()
	require.NoError(t, err)
	require.Equal(t, []string{"mykey"}, names)

	e, _, _ = testEnv(t, "mykey\nmaybe\n")
	require.Error(t, e.CreateKeyInteractive())
}

func TestCreateKeyFromInput(t *testing.T) {
	secret := bytes.Repeat([]byte{0x42}, keychain.SecretLen)
	e, _, _ := testEnv(t, hex.EncodeToString(secret)+"\n")
	require.NoError(t, e.CreateKeyFromInput("shared"))

	key, err := e.Store.RawKey(keychain.Selection{Index: 0, Name: "shared"})
	require.NoError(t, err)
	require.Equal(t, secret, key)

	e, _, _ = testEnv(t, "too short")
	require.ErrorIs(t, e.CreateKeyFromInput("shared"), keychain.ErrInvalidSecret)
}

func TestDeleteKey(t *testing.T) {
	e, out, _ := testEnv(t, "")
	addKeys(t, e, "alpha", "beta", "gamma")

	require.NoError(t, e.DeleteKey(1))
	require.Contains(t, out.String(), `Deleted key "beta"`)

	names, err := e.Store.Names()
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "gamma"}, names)

	require.True(t, keychain.IsNoKeySelected(e.DeleteKey(5)))
}

// withInput points e at new input and fresh output buffers.
func withInput(e *Env, input string) (*bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	e.in = bufio.NewReader(strings.NewReader(input))
	e.Out, e.Err = &out, &errOut
	return &out, &errOut
}

// sessionResults returns what the session printed after its prompts.
func sessionResults(printed string) []string {
	var results []string
	for _, line := range strings.Split(printed, "\n") {
		_, rest, found := strings.Cut(line, "xmsg > ")
		if !found {
			rest = line
		}
		if rest == "" || strings.HasPrefix(rest, "Type in a message.") ||
			strings.HasPrefix(rest, "Encrypt or Decrypt?") {
			continue
		}
		results = append(results, rest)
	}
	return results
}

func TestSessionEncrypt(t *testing.T) {
	e, out, _ := testEnv(t, "hello\ne\nq\n")
	addKeys(t, e, "alpha")

	require.NoError(t, e.RunSession(keychain.NoIndex))
	printed := out.String()
	require.Contains(t, printed, "Type in a message.\n(0) xmsg > ")
	require.Contains(t, printed, "Encrypt or Decrypt? (e/d)\n(0) xmsg > ")

	results := sessionResults(printed)
	require.Len(t, results, 1)

	plaintext, err := e.Decrypt(0, results[0])
	require.NoError(t, err)
	require.Equal(t, "hello", string(plaintext))
}

func TestSessionDecrypt(t *testing.T) {
	e, _, _ := testEnv(t, "")
	addKeys(t, e, "alpha", "beta")
	token, err := e.Encrypt(1, []byte("hello there"))
	require.NoError(t, err)

	out, _ := withInput(e, token+"\nd\n")
	require.NoError(t, e.RunSession(1))
	require.Equal(t, []string{`"hello there"`}, sessionResults(out.String()))
}

// Ensure decrypted text is printed as is between quotes.
func TestSessionDecryptRaw(t *testing.T) {
	e, _, _ := testEnv(t, "")
	addKeys(t, e, "alpha")
	token, err := e.Encrypt(0, []byte("tab\there \\ \"quoted\""))
	require.NoError(t, err)

	out, _ := withInput(e, token+"\nd\n")
	require.NoError(t, e.RunSession(0))
	require.Contains(t, out.String(), "xmsg > \"tab\there \\ \"quoted\"\"\n")
}

// Ensure the session asks for a key, re-prompting on bad answers.
func TestSessionChoosesKey(t *testing.T) {
	e, _, _ := testEnv(t, "")
	addKeys(t, e, "alpha", "beta")
	out, _ := withInput(e, "5\nabc\n1\nq\n")

	require.NoError(t, e.RunSession(keychain.NoIndex))
	printed := out.String()
	require.Equal(t, 2, strings.Count(printed, "Invalid option."))
	require.Equal(t, 3, strings.Count(printed, "Which encryption key do you want to use?"))
	require.Contains(t, printed, "(1) xmsg > ")
}

// Ensure bad operations and bad tokens do not end the session.
func TestSessionRecovers(t *testing.T) {
	e, _, _ := testEnv(t, "")
	addKeys(t, e, "alpha")
	out, errOut := withInput(e, "hi\nx\n%%%\nd\nbye\ne\n")

	require.NoError(t, e.RunSession(0))
	require.Contains(t, out.String(), "Invalid option.")
	require.Contains(t, errOut.String(), message.ErrMalformedToken.Error())
	require.Equal(t, 3, strings.Count(out.String(), "Encrypt or Decrypt? (e/d)"))
}

func TestSessionCopy(t *testing.T) {
	writes := stubClipboard(t)
	e, _, _ := testEnv(t, "")
	addKeys(t, e, "alpha")
	out, _ := withInput(e, "copy me\nc\n")

	require.NoError(t, e.RunSession(0))
	require.Len(t, *writes, 1)

	plaintext, err := e.Decrypt(0, (*writes)[0])
	require.NoError(t, err)
	require.Equal(t, "copy me", string(plaintext))
	require.Contains(t, out.String(), "Copied to clipboard")
}

func TestSessionEmptyStore(t *testing.T) {
	e, _, _ := testEnv(t, "")
	require.NoError(t, e.InitStore())
	require.True(t, keychain.IsNoKeySelected(e.RunSession(keychain.NoIndex)))
}

func TestClipboardClearer(t *testing.T) {
	writes := stubClipboard(t)
	c := &clipboardClearer{after: time.Hour}
	c.schedule()
	c.flush()
	require.Equal(t, []string{""}, *writes)

	c.flush()
	require.Len(t, *writes, 1)
}
