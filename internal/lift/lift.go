// Package lift writes the minimal subset of LIFT (Lexicon Interchange
// FormaT) 0.13 that dictionary tools need to import a word list: one entry
// per headword with a lexical unit, a stem morph-type trait and one sense per
// gloss.
//
// A row whose headword is empty has no lexical unit to import and produces no
// entry, so an unmapped headword yields a document with no entries. SFM
// output keeps such rows with an empty \lx line.
package lift

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/lexconv/internal/lexicon"
)

// Version is the LIFT schema version written to the root element.
const Version = "0.13"

// Writer renders LIFT documents. The zero value is not usable; use NewWriter.
type Writer struct {
	Now          func() time.Time
	NewID        func() uuid.UUID
	HeadwordLang string
	GlossLang    string
	Producer     string
}

// NewWriter returns a Writer with the default language tags.
func NewWriter() *Writer {
	return &Writer{
		Now:          time.Now,
		NewID:        uuid.New,
		HeadwordLang: "th",
		GlossLang:    "en",
		Producer:     "lexconv",
	}
}

type document struct {
	XMLName  xml.Name `xml:"lift"`
	Version  string   `xml:"version,attr"`
	Producer string   `xml:"producer,attr,omitempty"`
	Entries  []entry  `xml:"entry"`
}

type entry struct {
	DateCreated  string  `xml:"dateCreated,attr"`
	DateModified string  `xml:"dateModified,attr"`
	ID           string  `xml:"id,attr"`
	GUID         string  `xml:"guid,attr"`
	LexicalUnit  multi   `xml:"lexical-unit"`
	Trait        trait   `xml:"trait"`
	Senses       []sense `xml:"sense"`
}

type multi struct {
	Forms []form `xml:"form"`
}

type form struct {
	Lang string `xml:"lang,attr"`
	Text string `xml:"text"`
}

type trait struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

type sense struct {
	ID      string `xml:"id,attr"`
	Order   string `xml:"order,attr"`
	Glosses []form `xml:"gloss"`
}

// Render writes rows as a LIFT document. Rows without a headword are skipped.
// Every emitted entry shares one timestamp.
func (w *Writer) Render(rows []lexicon.Row, m lexicon.FieldMapping) (string, error) {
	stamp := w.Now().UTC().Format(time.RFC3339)

	doc := document{Version: Version, Producer: w.Producer}
	for _, row := range rows {
		headword := row.Get(m.Headword)
		if headword == "" {
			continue
		}
		doc.Entries = append(doc.Entries, w.entry(row, m, headword, stamp))
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("encode lift: %w", err)
	}
	buf.WriteByte('\n')
	return buf.String(), nil
}

func (w *Writer) entry(row lexicon.Row, m lexicon.FieldMapping, headword, stamp string) entry {
	id := w.NewID().String()
	e := entry{
		DateCreated:  stamp,
		DateModified: stamp,
		ID:           headword + "_" + id,
		GUID:         id,
		LexicalUnit:  multi{Forms: []form{{Lang: w.HeadwordLang, Text: headword}}},
		Trait:        trait{Name: "morph-type", Value: "stem"},
	}
	for _, col := range m.Glosses {
		gloss := row.Get(col)
		if gloss == "" {
			continue
		}
		e.Senses = append(e.Senses, sense{
			ID:      w.NewID().String(),
			Order:   strconv.Itoa(len(e.Senses)),
			Glosses: []form{{Lang: w.GlossLang, Text: gloss}},
		})
	}
	return e
}

// Render uses a default Writer.
func Render(rows []lexicon.Row, m lexicon.FieldMapping) (string, error) {
	return NewWriter().Render(rows, m)
}
