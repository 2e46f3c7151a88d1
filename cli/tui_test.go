package cli

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func press(t *testing.T, m model, msgs ...tea.Msg) model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(model)
		require.True(t, ok)
	}
	return m
}

func TestTUIEncryptDecrypt(t *testing.T) {
	writes := stubClipboard(t)
	e, _, _ := testEnv(t, "")
	addKeys(t, e, "alpha", "beta")
	names, err := e.Store.Names()
	require.NoError(t, err)

	m := newModel(e, names)
	require.Contains(t, m.View(), `[1]: "beta"`)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, stateCompose, m.state)
	require.Equal(t, 1, m.sel.Index)
	t.Cleanup(m.closeCodec)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hi there")}, tea.KeyMsg{Type: tea.KeyEnter})
	require.NoError(t, m.err)
	token := m.output
	require.NotEmpty(t, token)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlY})
	require.Equal(t, []string{token}, *writes)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	require.True(t, m.decrypt)
	m.input.SetValue(token)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NoError(t, m.err)
	require.Equal(t, `"hi there"`, m.output)
	require.Contains(t, m.View(), "Decrypt")

	raw, err := e.Encrypt(1, []byte("a\tb"))
	require.NoError(t, err)
	m.input.SetValue(raw)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, "\"a\tb\"", m.output)

	m.input.SetValue("%%%")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Error(t, m.err)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, stateKeys, m.state)
	require.Nil(t, m.codec)
}

func TestTUIQuit(t *testing.T) {
	e, _, _ := testEnv(t, "")
	addKeys(t, e, "alpha")

	m := newModel(e, []string{"alpha"})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	require.IsType(t, tea.QuitMsg{}, cmd())
}

// Ensure a valid index skips the key list.
func TestTUIPreselected(t *testing.T) {
	e, _, _ := testEnv(t, "")
	addKeys(t, e, "alpha", "beta")

	m := newModel(e, []string{"alpha", "beta"})
	m.cursor = 1
	m = m.selectKey()
	t.Cleanup(m.closeCodec)
	require.Equal(t, stateCompose, m.state)
	require.Contains(t, m.View(), "(1) beta")
}
