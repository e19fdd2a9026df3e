package sfm

import (
	"io"
	"strings"

	"github.com/JonMunkholm/lexconv/internal/lexicon"
)

// optional fields follow the glosses in this order and are written only
// when mapped.
var optionalFields = []lexicon.Field{
	lexicon.FieldExample,
	lexicon.FieldPartOfSpeech,
	lexicon.FieldDefinition,
	lexicon.FieldPicture,
	lexicon.FieldSound,
}

// Render writes rows as SFM using the mapping. Every gloss slot produces a
// \ge line even when unmapped, so entries keep a uniform shape. Entries are
// separated by one blank line.
func Render(rows []lexicon.Row, m lexicon.FieldMapping) string {
	var b strings.Builder
	for i, row := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeEntry(&b, row, m)
	}
	return b.String()
}

// WriteTo renders rows straight to w.
func WriteTo(w io.Writer, rows []lexicon.Row, m lexicon.FieldMapping) error {
	_, err := io.WriteString(w, Render(rows, m))
	return err
}

func writeEntry(b *strings.Builder, row lexicon.Row, m lexicon.FieldMapping) {
	writeLine(b, lexicon.FieldHeadword.Marker(), row.Get(m.Headword))
	for _, col := range m.Glosses {
		writeLine(b, lexicon.FieldGloss.Marker(), row.Get(col))
	}
	for _, f := range optionalFields {
		col := m.Column(f)
		if col == "" {
			continue
		}
		writeLine(b, f.Marker(), row.Get(col))
	}
}

func writeLine(b *strings.Builder, marker, value string) {
	b.WriteByte('\\')
	b.WriteString(marker)
	b.WriteByte(' ')
	b.WriteString(value)
	b.WriteByte('\n')
}
