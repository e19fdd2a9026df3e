package application

import (
	"strconv"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/lexconv/internal/lexicon"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func() tea.Cmd
}

type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

// noneLabel is the picker entry that clears a field.
const noneLabel = "-- none --"

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == "Back" {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

// buildMenuTree lays out the wizard for the model's current session. It is
// rebuilt after every change so labels show the current selections.
func buildMenuTree(m *Model) *Menu {
	sess := m.session
	title := "Map columns"
	if sess.Source != "" {
		title += ": " + sess.Source
	}

	items := []MenuItem{
		{Label: "Languages: " + strconv.Itoa(sess.Languages()), Action: func() tea.Cmd {
			return m.prompt(inputLanguages, strconv.Itoa(m.session.Languages()))
		}},
		fieldItem(m, lexicon.FieldHeadword.Label(), sess.Mapping.Headword, func(col string) {
			m.setMapping(m.session.Mapping.WithHeadword(col))
		}),
	}

	for i := 1; i < sess.Languages(); i++ {
		label := "Language " + strconv.Itoa(i+1) + " (gloss)"
		items = append(items, fieldItem(m, label, sess.Mapping.Gloss(i), func(col string) {
			m.setMapping(m.session.Mapping.SetGloss(i, col))
		}))
	}

	for _, f := range lexicon.SingleFields {
		items = append(items, fieldItem(m, f.Label(), sess.Mapping.Column(f), func(col string) {
			mapping, _ := m.session.Mapping.WithColumn(f, col)
			m.setMapping(mapping)
		}))
	}

	items = append(items,
		MenuItem{Label: "Output name: " + display(m.session.BaseName(m.name)), Action: func() tea.Cmd {
			return m.prompt(inputName, m.name)
		}},
		MenuItem{Label: "Convert ->", Submenu: loadConvert(m)},
	)
	if m.opts.Save != nil {
		items = append(items, MenuItem{Label: "Save mapping", Action: m.saveCmd})
	}
	items = append(items, MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }})

	root := &Menu{Title: title, Items: items}
	linkParents(root, nil)
	return root
}

/* ----------------------------------------
	LOAD MENUS
---------------------------------------- */

// fieldItem is a root entry that opens a column picker for one field.
func fieldItem(m *Model, label, current string, set func(col string)) MenuItem {
	return MenuItem{
		Label:   label + ": " + display(current) + " ->",
		Submenu: loadPicker(m, label, set),
	}
}

func loadPicker(m *Model, title string, set func(col string)) *Menu {
	items := []MenuItem{{Label: noneLabel, Action: m.pick(set, "")}}
	for _, col := range m.session.Dataset.Columns {
		items = append(items, MenuItem{Label: col, Action: m.pick(set, col)})
	}
	items = append(items, MenuItem{Label: "Back"})
	return &Menu{Title: title, Items: items}
}

func loadConvert(m *Model) *Menu {
	if len(m.opts.Formats) == 0 || m.opts.Convert == nil {
		return &Menu{
			Title: "Convert",
			Items: []MenuItem{
				{Label: "Error: no output formats available"},
				{Label: "Back"},
			},
		}
	}

	items := make([]MenuItem, 0, len(m.opts.Formats)+1)
	for _, f := range m.opts.Formats {
		items = append(items, MenuItem{Label: f.Label, Action: m.convertCmd(f.Key)})
	}
	items = append(items, MenuItem{Label: "Back"})
	return &Menu{Title: "Convert", Items: items}
}

func display(v string) string {
	if v == "" {
		return "(none)"
	}
	return v
}
