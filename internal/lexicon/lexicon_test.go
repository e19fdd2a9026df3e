package lexicon

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldMapping_Resize(t *testing.T) {
	tests := []struct {
		name string
		from int
		to   int
		want int
	}{
		{name: "grow", from: 2, to: 4, want: 3},
		{name: "shrink", from: 4, to: 2, want: 1},
		{name: "same size still clears", from: 3, to: 3, want: 2},
		{name: "zero clamps to one language", from: 3, to: 0, want: 0},
		{name: "negative clamps to one language", from: 2, to: -5, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewFieldMapping(tt.from)
			for i := 1; i < tt.from; i++ {
				m = m.SetGloss(i, "col")
			}

			got := m.Resize(tt.to)

			require.Len(t, got.Glosses, tt.want)
			for _, g := range got.Glosses {
				assert.Empty(t, g)
			}
		})
	}
}

func TestFieldMapping_ResizeDoesNotTouchOriginal(t *testing.T) {
	m := NewFieldMapping(2).SetGloss(1, "Gloss")
	_ = m.Resize(3)
	assert.Equal(t, "Gloss", m.Gloss(1))
}

func TestFieldMapping_SetGloss(t *testing.T) {
	m := NewFieldMapping(3)

	m2 := m.SetGloss(2, "French")
	assert.Equal(t, "French", m2.Gloss(2))
	assert.Empty(t, m.Gloss(2), "original mapping must not change")

	m3 := m2.SetGloss(5, "ignored")
	assert.Equal(t, m2.Glosses, m3.Glosses)
	assert.Empty(t, m3.Gloss(0))
}

func TestFieldMapping_WithColumn(t *testing.T) {
	m, err := NewFieldMapping(1).WithColumn(FieldPartOfSpeech, "POS")
	require.NoError(t, err)
	assert.Equal(t, "POS", m.PartOfSpeech)
	assert.Equal(t, "POS", m.Column(FieldPartOfSpeech))

	_, err = m.WithColumn(FieldGloss, "x")
	assert.Error(t, err)
}

func TestFieldMapping_ColumnsAndUnknown(t *testing.T) {
	m := NewFieldMapping(3).WithHeadword("Word").SetGloss(1, "English").SetGloss(2, "English")
	m.Definition = "Def"

	assert.Equal(t, []string{"Word", "English", "Def"}, m.Columns())
	assert.Equal(t, []string{"Def"}, m.Unknown([]string{"Word", "English"}))
	assert.Empty(t, m.Unknown([]string{"Word", "English", "Def"}))
}

func TestExportLabels(t *testing.T) {
	l := DefaultExportLabels(3)
	assert.Equal(t, "lx", l.Headword)
	assert.Equal(t, []string{"ge1", "ge2"}, l.Glosses)

	custom := ExportLabels{Headword: "Word", Glosses: []string{"Gloss"}}
	assert.Equal(t, "Word", custom.Rename("lx"))
	assert.Equal(t, "Gloss", custom.Rename("ge1"))
	assert.Equal(t, "ge2", custom.Rename("ge2"), "no label configured falls back to key")
	assert.Equal(t, "ps", custom.Rename("ps"))

	resized := custom.Resize(2)
	assert.Equal(t, "Word", resized.Headword)
	assert.Equal(t, []string{"ge1"}, resized.Glosses)
}

func TestGlossIndex(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOk bool
	}{
		{"ge1", 1, true},
		{"ge12", 12, true},
		{"ge", 0, false},
		{"ge0", 0, false},
		{"gex", 0, false},
		{"lx", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := GlossIndex(tt.in)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSession(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	ds := Dataset{
		Rows:    []Row{{"lx": "kucing", "ge1": "cat", "ge2": "chat"}},
		Columns: []string{"lx", "ge1", "ge2"},
	}
	s := NewSession("words.sfm", ds, now)

	assert.True(t, s.Ready())
	assert.Equal(t, 1, s.Languages())
	assert.Equal(t, 2, s.Dataset.GlossCount())

	s2 := s.WithLanguages(3).WithMapping(s.Mapping.Resize(3).WithHeadword("lx").SetGloss(1, "ge1"))
	assert.Equal(t, 3, s2.Languages())
	assert.Len(t, s2.Labels.Glosses, 2)
	assert.Equal(t, 1, s.Languages(), "sessions are values")

	assert.Equal(t, "words", s.BaseName(""))
	assert.Equal(t, "custom", s.BaseName("  custom "))
	assert.Equal(t, DefaultBaseName, Session{}.BaseName(""))
	assert.False(t, Session{}.Ready())
}

func TestSession_BaseNameStaysInDirectory(t *testing.T) {
	s := NewSession(`C:\Users\me\words.xlsx`, Dataset{}, time.Time{})

	tests := []struct {
		custom string
		want   string
	}{
		{"../../evil", "evil"},
		{`..\..\evil`, "evil"},
		{"/etc/passwd", "passwd"},
		{"dir/", "words"},
		{"..", "words"},
		{" . ", "words"},
		{"a\x00b", "ab"},
		{"", "words"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.BaseName(tt.custom), "custom %q", tt.custom)
	}

	assert.Equal(t, DefaultBaseName, NewSession("../", Dataset{}, time.Time{}).BaseName("../"))
}
