package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/lexconv/internal/core"
	"github.com/JonMunkholm/lexconv/internal/lexicon"
)

func testSession() lexicon.Session {
	ds := lexicon.Dataset{
		Columns: []string{"Word", "English", "POS"},
		Rows: []lexicon.Row{
			{"Word": "kucing", "English": "cat", "POS": "n"},
		},
	}
	return lexicon.NewSession("words.csv", ds, time.Time{})
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send feeds keys to m and runs any command that comes back, the way the
// program loop would.
func send(m *Model, keys ...string) {
	for _, k := range keys {
		_, cmd := m.Update(key(k))
		if cmd == nil {
			continue
		}
		if msg := cmd(); msg != nil {
			switch msg.(type) {
			case DoneMsg, ErrMsg:
				m.Update(msg)
			}
		}
	}
}

func itemIndex(m *Model, prefix string) int {
	for i, item := range m.menu.Items {
		if strings.HasPrefix(item.Label, prefix) {
			return i
		}
	}
	return -1
}

func moveTo(m *Model, prefix string) {
	i := itemIndex(m, prefix)
	if i < 0 {
		panic("no menu item " + prefix)
	}
	m.cursor = i
}

func TestLinkParents(t *testing.T) {
	child := &Menu{Title: "child", Items: []MenuItem{{Label: "x"}, {Label: "Back"}}}
	root := &Menu{Title: "root", Items: []MenuItem{{Label: "child ->", Submenu: child}}}
	linkParents(root, nil)

	if child.Parent != root {
		t.Error("child.Parent should be root")
	}
	if child.Items[1].Submenu != root {
		t.Error("Back item should point to the parent")
	}
}

func TestPickColumns(t *testing.T) {
	m := New(Options{Session: testSession()})

	moveTo(m, "Language 1")
	send(m, "enter")
	if m.menu.Title != lexicon.FieldHeadword.Label() {
		t.Fatalf("expected picker, got menu %q", m.menu.Title)
	}
	if m.menu.Items[0].Label != noneLabel {
		t.Errorf("first picker entry = %q, want %q", m.menu.Items[0].Label, noneLabel)
	}

	send(m, "down", "enter") // Word
	if got := m.Session().Mapping.Headword; got != "Word" {
		t.Errorf("Headword = %q, want Word", got)
	}
	if m.menu.Parent != nil {
		t.Error("picking should return to the root menu")
	}
	if !strings.Contains(m.menu.Items[m.cursor].Label, "Word") {
		t.Errorf("cursor should stay on the edited field, got %q", m.menu.Items[m.cursor].Label)
	}

	// Picking "-- none --" clears the field.
	send(m, "enter", "enter")
	if got := m.Session().Mapping.Headword; got != "" {
		t.Errorf("Headword = %q, want empty", got)
	}
}

func TestLanguagesResize(t *testing.T) {
	m := New(Options{Session: testSession()})

	moveTo(m, "Languages")
	send(m, "enter")
	if m.inputFor != inputLanguages {
		t.Fatal("expected languages prompt")
	}
	m.input.SetValue("3")
	send(m, "enter")

	if got := m.Session().Languages(); got != 3 {
		t.Fatalf("Languages() = %d, want 3", got)
	}
	if itemIndex(m, "Language 3 (gloss)") < 0 {
		t.Error("menu should list a picker for language 3")
	}

	moveTo(m, "Language 2")
	send(m, "enter", "down", "down", "enter") // English
	if got := m.Session().Mapping.Gloss(1); got != "English" {
		t.Errorf("Gloss(1) = %q, want English", got)
	}

	// Shrinking clears gloss selections.
	moveTo(m, "Languages")
	send(m, "enter")
	m.input.SetValue("2")
	send(m, "enter")
	if got := m.Session().Mapping.Gloss(1); got != "" {
		t.Errorf("Gloss(1) after resize = %q, want empty", got)
	}

	moveTo(m, "Languages")
	send(m, "enter")
	m.input.SetValue("0")
	send(m, "enter")
	if m.err == nil {
		t.Error("expected an error for 0 languages")
	}
	if m.Session().Languages() != 2 {
		t.Error("invalid input should not change the session")
	}
}

func TestConvertAndSave(t *testing.T) {
	var gotFormat, gotName string
	m := New(Options{
		Session: testSession(),
		Formats: []core.FormatInfo{{Key: "sfm", Label: "SFM"}, {Key: "csv", Label: "CSV"}},
		Convert: func(_ context.Context, sess lexicon.Session, format, name string) (string, error) {
			gotFormat, gotName = format, name
			if format == "csv" {
				return "", errors.New("disk full")
			}
			return "out/" + sess.BaseName(name) + ".sfm", nil
		},
		Save: func(sess lexicon.Session) (string, error) {
			return "words.mapping.yaml", nil
		},
	})

	moveTo(m, "Output name")
	send(m, "enter")
	m.input.SetValue("kamus")
	send(m, "enter")

	moveTo(m, "Convert")
	send(m, "enter", "enter")
	if gotFormat != "sfm" || gotName != "kamus" {
		t.Errorf("Convert called with %q/%q, want sfm/kamus", gotFormat, gotName)
	}
	if m.status != "Wrote out/kamus.sfm" {
		t.Errorf("status = %q", m.status)
	}

	send(m, "down", "enter")
	if m.err == nil || !strings.Contains(m.err.Error(), "disk full") {
		t.Errorf("err = %v, want disk full", m.err)
	}

	send(m, "esc")
	moveTo(m, "Save mapping")
	send(m, "enter")
	if m.status != "Saved mapping to words.mapping.yaml" || m.err != nil {
		t.Errorf("status = %q, err = %v", m.status, m.err)
	}
}

func TestConvertWithoutFormats(t *testing.T) {
	m := New(Options{Session: testSession()})
	if itemIndex(m, "Save mapping") >= 0 {
		t.Error("Save mapping should be hidden without a Save func")
	}
	moveTo(m, "Convert")
	send(m, "enter")
	if !strings.HasPrefix(m.menu.Items[0].Label, "Error:") {
		t.Errorf("expected error entry, got %q", m.menu.Items[0].Label)
	}
}

func TestViewAndQuit(t *testing.T) {
	m := New(Options{Session: testSession()})
	view := m.View()
	if !strings.Contains(view, "words.csv") || !strings.Contains(view, "> Languages: 1") {
		t.Errorf("unexpected view:\n%s", view)
	}

	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should return tea.Quit")
	}
}
