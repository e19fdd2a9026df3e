// Package application is the terminal mapping wizard. It walks the user
// through assigning columns to lexicon fields and converts from the same
// screen.
package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/lexconv/internal/core"
	"github.com/JonMunkholm/lexconv/internal/lexicon"
)

// ConvertTimeout bounds a single conversion started from the wizard.
var ConvertTimeout = 5 * time.Minute

// maxLanguages bounds the language count prompt.
const maxLanguages = 20

// DoneMsg reports a finished action.
type DoneMsg string

// ErrMsg reports a failed action.
type ErrMsg struct{ Err error }

func (e ErrMsg) Error() string { return e.Err.Error() }

// Options wires the wizard to the rest of the program.
type Options struct {
	Session lexicon.Session
	Formats []core.FormatInfo

	// Convert writes the session in format and returns the written path.
	Convert func(ctx context.Context, sess lexicon.Session, format, name string) (string, error)

	// Save persists the mapping and returns where it went. Optional.
	Save func(sess lexicon.Session) (string, error)
}

type inputKind int

const (
	inputNone inputKind = iota
	inputLanguages
	inputName
)

// Model is the bubbletea model of the wizard.
type Model struct {
	opts    Options
	session lexicon.Session
	name    string

	menu   *Menu
	cursor int

	input    textinput.Model
	inputFor inputKind

	status string
	err    error
	busy   bool
}

// New creates a wizard for opts.Session.
func New(opts Options) *Model {
	ti := textinput.New()
	ti.CharLimit = 120

	m := &Model{
		opts:    opts,
		session: opts.Session,
		input:   ti,
	}
	m.menu = buildMenuTree(m)
	return m
}

// Session returns the session with the user's selections.
func (m *Model) Session() lexicon.Session { return m.session }

// Name returns the custom output name, if one was entered.
func (m *Model) Name() string { return m.name }

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DoneMsg:
		m.busy = false
		m.status, m.err = string(msg), nil
		return m, nil
	case ErrMsg:
		m.busy = false
		m.status, m.err = "", msg.Err
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.inputFor != inputNone {
			return m.updateInput(msg)
		}
		return m.updateMenu(msg)
	}
	return m, nil
}

func (m *Model) updateMenu(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.menu.Items)-1 {
			m.cursor++
		}
	case "esc", "backspace":
		if m.menu.Parent != nil {
			m.back()
		}
	case "q":
		return m, tea.Quit
	case "enter":
		if m.busy {
			return m, nil
		}
		item := m.menu.Items[m.cursor]
		switch {
		case item.Label == "Back" && item.Submenu != nil:
			m.back()
		case item.Submenu != nil:
			m.menu, m.cursor = item.Submenu, 0
		case item.Action != nil:
			return m, item.Action()
		}
	}
	return m, nil
}

// back returns to the parent menu with the cursor on the entry that led here.
func (m *Model) back() {
	child := m.menu
	m.menu, m.cursor = child.Parent, 0
	for i, item := range m.menu.Items {
		if item.Submenu == child {
			m.cursor = i
			break
		}
	}
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.inputFor = inputNone
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		m.applyInput(strings.TrimSpace(m.input.Value()))
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) applyInput(value string) {
	kind := m.inputFor
	m.inputFor = inputNone
	m.input.Blur()

	switch kind {
	case inputLanguages:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > maxLanguages {
			m.err = fmt.Errorf("number of languages must be 1-%d", maxLanguages)
			return
		}
		if n != m.session.Languages() {
			m.session = m.session.WithLanguages(n)
			m.status = "Gloss selections cleared"
		}
	case inputName:
		m.name = value
	}
	m.err = nil
	m.rebuild()
}

// prompt opens the text input for kind.
func (m *Model) prompt(kind inputKind, value string) tea.Cmd {
	m.inputFor = kind
	m.input.SetValue(value)
	m.input.CursorEnd()
	switch kind {
	case inputLanguages:
		m.input.Prompt = "Number of languages: "
	case inputName:
		m.input.Prompt = "Output name: "
	}
	return m.input.Focus()
}

// pick returns a picker action that stores col and returns to the root.
func (m *Model) pick(set func(col string), col string) func() tea.Cmd {
	return func() tea.Cmd {
		set(col)
		return nil
	}
}

func (m *Model) setMapping(mapping lexicon.FieldMapping) {
	m.session = m.session.WithMapping(mapping)
	m.rebuild()
}

// rebuild recreates the menu tree and returns to the root, keeping the
// cursor on the entry that was being edited.
func (m *Model) rebuild() {
	at := m.cursor
	for menu := m.menu; menu.Parent != nil; menu = menu.Parent {
		for i, item := range menu.Parent.Items {
			if item.Submenu == menu {
				at = i
			}
		}
	}
	m.menu = buildMenuTree(m)
	m.cursor = min(at, len(m.menu.Items)-1)
}

func (m *Model) convertCmd(key string) func() tea.Cmd {
	return func() tea.Cmd {
		if warn := m.unknownColumns(); warn != "" {
			m.status = warn
		}
		m.busy = true
		sess, name, convert := m.session, m.name, m.opts.Convert
		return func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), ConvertTimeout)
			defer cancel()

			path, err := convert(ctx, sess, key, name)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return ErrMsg{Err: fmt.Errorf("conversion timed out after %v", ConvertTimeout)}
				}
				return ErrMsg{Err: err}
			}
			return DoneMsg("Wrote " + path)
		}
	}
}

func (m *Model) saveCmd() tea.Cmd {
	sess, save := m.session, m.opts.Save
	return func() tea.Msg {
		path, err := save(sess)
		if err != nil {
			return ErrMsg{Err: err}
		}
		return DoneMsg("Saved mapping to " + path)
	}
}

func (m *Model) unknownColumns() string {
	missing := m.session.Mapping.Unknown(m.session.Dataset.Columns)
	if len(missing) == 0 {
		return ""
	}
	return "Columns not in this file: " + strings.Join(missing, ", ")
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.menu.Title))
	b.WriteString("\n")

	if m.inputFor != inputNone {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter confirm • esc cancel"))
		return b.String()
	}

	for i, item := range m.menu.Items {
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + item.Label))
		} else {
			b.WriteString(itemStyle.Render(item.Label))
		}
		b.WriteString("\n")
	}

	if m.busy {
		b.WriteString(statusStyle.Render("Working..."))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ move • enter select • esc back • q quit"))
	return b.String()
}

// Run starts the wizard on the terminal and returns the final model.
func Run(ctx context.Context, opts Options) (*Model, error) {
	p := tea.NewProgram(New(opts), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("mapping wizard: %w", err)
	}
	return final.(*Model), nil
}
