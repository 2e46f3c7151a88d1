package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fahmaliyi/xmsg/keychain"
	"github.com/fahmaliyi/xmsg/message"
)

const (
	stateKeys    = "keys"
	stateCompose = "compose"
)

type model struct {
	env     *Env
	names   []string
	cursor  int
	state   string
	input   textinput.Model
	decrypt bool
	codec   *message.Codec
	sel     keychain.Selection
	output  string
	msg     string
	err     error
	clearer *clipboardClearer
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	msgStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("57")).Foreground(lipgloss.Color("0"))
	outputStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

func newModel(e *Env, names []string) model {
	ti := textinput.New()
	ti.Placeholder = "message or token"
	ti.CharLimit = 0
	ti.Width = 60

	return model{
		env:     e,
		names:   names,
		state:   stateKeys,
		input:   ti,
		clearer: &clipboardClearer{after: e.Config.ClipboardClear},
	}
}

// RunTUI starts the full-screen front end. A valid index skips the key list.
func (e *Env) RunTUI(index int) error {
	names, err := e.Store.Names()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("%w: key store is empty", keychain.ErrNoKeySelected)
	}

	m := newModel(e, names)
	if index >= 0 && index < len(names) {
		m.cursor = index
		m = m.selectKey()
	}

	final, err := tea.NewProgram(m).Run()
	if fm, ok := final.(model); ok {
		fm.closeCodec()
		fm.clearer.flush()
	}
	return err
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case stateKeys:
		return updateKeys(m, msg)
	case stateCompose:
		return updateCompose(m, msg)
	default:
		return m, nil
	}
}

func (m model) View() string {
	switch m.state {
	case stateKeys:
		return viewKeys(m)
	case stateCompose:
		return viewCompose(m)
	default:
		return "Unknown state"
	}
}

func (m *model) closeCodec() {
	if m.codec != nil {
		m.codec.Close()
		m.codec = nil
	}
}

func (m model) selectKey() model {
	sel := keychain.Selection{Index: m.cursor, Name: m.names[m.cursor]}
	codec, err := m.env.codecFor(sel)
	if err != nil {
		m.err = err
		return m
	}
	m.codec = codec
	m.sel = sel
	m.state = stateCompose
	m.output, m.msg, m.err = "", "", nil
	m.input.SetValue("")
	m.input.Focus()
	return m
}

// --- Keys ---
func updateKeys(m model, msg tea.Msg) (model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "j", "down":
			if m.cursor < len(m.names)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "enter":
			m = m.selectKey()
		}
	}
	return m, nil
}

func viewKeys(m model) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Which encryption key do you want to use?") + "\n\n")
	for i, name := range m.names {
		line := fmt.Sprintf("[%d]: %q", i, name)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + errStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\nCommands: j/k=move, enter=select, q=quit")
	return b.String()
}

// --- Compose ---
func updateCompose(m model, msg tea.Msg) (model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.closeCodec()
			m.input.Blur()
			m.state = stateKeys
			return m, nil
		case "tab":
			m.decrypt = !m.decrypt
			return m, nil
		case "enter":
			return m.run(), nil
		case "ctrl+y":
			return m.copyOutput(), nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) run() model {
	m.msg, m.err = "", nil
	if m.decrypt {
		plaintext, err := m.codec.Decode(m.input.Value())
		if err != nil {
			m.err = err
			return m
		}
		m.output = fmt.Sprintf("\"%s\"", plaintext)
		return m
	}
	token, err := m.codec.Encode([]byte(m.input.Value()))
	if err != nil {
		m.err = err
		return m
	}
	m.output = token
	return m
}

func (m model) copyOutput() model {
	if m.output == "" || m.decrypt {
		return m
	}
	if err := m.env.Copy(m.output); err != nil {
		m.err = err
		return m
	}
	m.clearer.schedule()
	m.msg = fmt.Sprintf("Token copied! (clears in %s)", m.env.Config.ClipboardClear)
	return m
}

func viewCompose(m model) string {
	mode := "Encrypt"
	if m.decrypt {
		mode = "Decrypt"
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("(%d) %s", m.sel.Index, m.sel.Name)) + "\n\n")
	b.WriteString(fmt.Sprintf("%s: %s\n", mode, m.input.View()))
	if m.output != "" {
		b.WriteString("\n" + outputStyle.Render(m.output) + "\n")
	}
	if m.msg != "" {
		b.WriteString("\n" + msgStyle.Render(m.msg) + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + errStyle.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\nCommands: enter=run, tab=encrypt/decrypt, ctrl+y=copy token, esc=keys, ctrl+c=quit")
	return b.String()
}
