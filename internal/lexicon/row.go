package lexicon

import (
	"strconv"
	"strings"
)

// Marker keys used by the SFM side of the model.
const (
	HeadwordKey = "lx"
	GlossKey    = "ge"
)

// Row maps a column name to its cell value.
type Row map[string]string

// Get returns the value for column, or "" when the column is unset or absent.
func (r Row) Get(column string) string {
	if column == "" {
		return ""
	}
	return r[column]
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is the result of reading a file: rows plus the ordered column set.
type Dataset struct {
	Rows    []Row
	Columns []string
}

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.Rows) }

// Empty reports whether no data rows were parsed.
func (d Dataset) Empty() bool { return len(d.Rows) == 0 }

// HasColumn reports whether name is part of the column set.
func (d Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// GlossCount returns the highest n for which a ge<n> column exists.
// Used to size export labels after an SFM load.
func (d Dataset) GlossCount() int {
	highest := 0
	for _, c := range d.Columns {
		if n, ok := GlossIndex(c); ok && n > highest {
			highest = n
		}
	}
	return highest
}

// GlossColumn returns the flattened column name for the i-th gloss (1-based).
func GlossColumn(i int) string {
	return GlossKey + strconv.Itoa(i)
}

// GlossIndex parses a flattened gloss column name such as "ge2".
func GlossIndex(column string) (int, bool) {
	if !strings.HasPrefix(column, GlossKey) || len(column) == len(GlossKey) {
		return 0, false
	}
	n, err := strconv.Atoi(column[len(GlossKey):])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
