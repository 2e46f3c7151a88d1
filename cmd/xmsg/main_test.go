package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fahmaliyi/xmsg/keychain"
)

func runApp(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp(strings.NewReader(input), &out, &errOut)
	err := app.Run(append([]string{"xmsg"}, args...))
	return out.String(), err
}

func TestEncryptDecryptFlags(t *testing.T) {
	store := filepath.Join(t.TempDir(), keychain.FileName)

	_, err := runApp(t, "", "-s", store, "keys", "create", "--name", "alpha")
	require.NoError(t, err)
	_, err = runApp(t, "", "-s", store, "keys", "create", "--name", "beta")
	require.NoError(t, err)

	out, err := runApp(t, "", "-s", store, "-k", "1", "-e", "hello", "world")
	require.NoError(t, err)
	token := strings.TrimSpace(out)
	require.NotEmpty(t, token)

	out, err = runApp(t, "", "-s", store, "-k", "1", "-d", token)
	require.NoError(t, err)
	require.Equal(t, "hello world\n", out)

	out, err = runApp(t, token+"\n", "-s", store, "-k", "1", "-d")
	require.NoError(t, err)
	require.Equal(t, "hello world\n", out)
}

func TestKeysCommands(t *testing.T) {
	store := filepath.Join(t.TempDir(), keychain.FileName)

	_, err := runApp(t, "", "-s", store, "keys", "init")
	require.NoError(t, err)

	secret := strings.Repeat("ab", keychain.SecretLen)
	_, err = runApp(t, secret, "-s", store, "keys", "create", "--name", "shared", "--secret-stdin")
	require.NoError(t, err)
	_, err = runApp(t, "", "-s", store, "keys", "create", "--name", "other")
	require.NoError(t, err)

	out, err := runApp(t, "", "-s", store, "-K")
	require.NoError(t, err)
	require.Contains(t, out, `[0]: "shared"`)
	require.Contains(t, out, `[1]: "other"`)

	_, err = runApp(t, "", "-s", store, "keys", "delete", "0")
	require.NoError(t, err)

	out, err = runApp(t, "", "-s", store, "keys", "list")
	require.NoError(t, err)
	require.NotContains(t, out, "shared")
	require.Contains(t, out, `[0]: "other"`)
}

func TestSessionDefault(t *testing.T) {
	store := filepath.Join(t.TempDir(), keychain.FileName)
	_, err := runApp(t, "", "-s", store, "keys", "create", "--name", "alpha")
	require.NoError(t, err)

	out, err := runApp(t, "hi\ne\nq\n", "-s", store)
	require.NoError(t, err)
	require.Contains(t, out, "(0) xmsg > ")
}

func TestErrors(t *testing.T) {
	store := filepath.Join(t.TempDir(), keychain.FileName)

	_, err := runApp(t, "", "-s", store, "-k", "0", "-e", "hello")
	require.True(t, keychain.IsStoreUnavailable(err))

	_, err = runApp(t, "", "-s", store, "keys", "create", "--name", "alpha")
	require.NoError(t, err)

	_, err = runApp(t, "", "-s", store, "-e", "-d", "x")
	require.Error(t, err)

	// Non-interactive input never prompts for a key.
	_, err = runApp(t, "hello", "-s", store, "-e")
	require.True(t, keychain.IsNoKeySelected(err))

	_, err = runApp(t, "", "-s", store, "keys", "delete", "zero")
	require.Error(t, err)
}
