// Package sfm reads and writes Standard Format Marker text, the backslash
// marker format used by dictionary tools:
//
//	\lx kucing
//	\ge cat
//	\ps n
//
// Render turns mapped rows into SFM. Parse turns SFM back into rows: one row
// per \lx entry, repeated \ge markers flattened to ge1, ge2, ... and every
// other repeated marker resolved by last-one-wins.
package sfm

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/JonMunkholm/lexconv/internal/lexicon"
	"github.com/JonMunkholm/lexconv/internal/textio"
)

var (
	entryBoundary = regexp.MustCompile(`(?m)^\\lx `)
	markerLine    = regexp.MustCompile(`^\\(\S+) (.*)$`)
)

// ParseOptions controls SFM parsing.
type ParseOptions struct {
	textio.Options

	// AllColumns reports the union of markers across all entries instead of
	// the markers of the first entry only.
	AllColumns bool
}

// Parse reads an SFM document.
func Parse(r io.Reader, opts ParseOptions) (lexicon.Dataset, error) {
	text, err := textio.ReadAll(r, opts.Options)
	if err != nil {
		return lexicon.Dataset{}, fmt.Errorf("read sfm: %w", err)
	}
	return ParseString(text, opts), nil
}

// ParseString parses SFM text that is already decoded.
func ParseString(text string, opts ParseOptions) lexicon.Dataset {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var ds lexicon.Dataset
	var union []string
	seen := map[string]bool{}

	for _, chunk := range splitEntries(text) {
		e := parseEntry(chunk)
		if len(e.order) == 0 {
			continue
		}
		row, cols := e.flatten()
		if len(ds.Rows) == 0 {
			ds.Columns = cols
		}
		for _, c := range cols {
			if !seen[c] {
				seen[c] = true
				union = append(union, c)
			}
		}
		ds.Rows = append(ds.Rows, row)
	}

	if opts.AllColumns {
		ds.Columns = union
	}
	return ds
}

// splitEntries cuts text before every line that starts with "\lx ". Text
// before the first boundary is kept as its own chunk.
func splitEntries(text string) []string {
	locs := entryBoundary.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}
	chunks := make([]string, 0, len(locs)+1)
	if locs[0][0] > 0 {
		chunks = append(chunks, text[:locs[0][0]])
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		chunks = append(chunks, text[loc[0]:end])
	}
	return chunks
}

// entry accumulates the markers of one \lx record.
type entry struct {
	fields  map[string]string
	glosses []string
	order   []string
}

func parseEntry(chunk string) entry {
	e := entry{fields: map[string]string{}}
	for _, line := range strings.Split(chunk, "\n") {
		m := markerLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		marker, value := m[1], m[2]
		if marker == lexicon.GlossKey {
			if len(e.glosses) == 0 {
				e.order = append(e.order, marker)
			}
			e.glosses = append(e.glosses, value)
			continue
		}
		if _, ok := e.fields[marker]; !ok {
			e.order = append(e.order, marker)
		}
		e.fields[marker] = value
	}
	return e
}

// flatten turns the accumulated glosses into ge1..geN. The numbered columns
// come after every other marker.
func (e entry) flatten() (lexicon.Row, []string) {
	row := make(lexicon.Row, len(e.fields)+len(e.glosses))
	cols := make([]string, 0, len(e.fields)+len(e.glosses))
	for _, marker := range e.order {
		if marker == lexicon.GlossKey {
			continue
		}
		row[marker] = e.fields[marker]
		cols = append(cols, marker)
	}
	for i, g := range e.glosses {
		key := lexicon.GlossColumn(i + 1)
		row[key] = g
		cols = append(cols, key)
	}
	return row, cols
}
