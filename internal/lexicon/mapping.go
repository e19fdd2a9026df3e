package lexicon

import "fmt"

// Field identifies one slot of the lexical entry schema.
type Field string

const (
	FieldHeadword     Field = "headword"
	FieldGloss        Field = "gloss"
	FieldPartOfSpeech Field = "part_of_speech"
	FieldDefinition   Field = "definition"
	FieldExample      Field = "example"
	FieldPicture      Field = "picture"
	FieldSound        Field = "sound"
)

// SingleFields lists the fields that take exactly one column, in the order
// the mapping form presents them.
var SingleFields = []Field{
	FieldExample,
	FieldPartOfSpeech,
	FieldDefinition,
	FieldPicture,
	FieldSound,
}

// Marker returns the SFM marker a field is written as.
func (f Field) Marker() string {
	switch f {
	case FieldHeadword:
		return "lx"
	case FieldGloss:
		return "ge"
	case FieldPartOfSpeech:
		return "ps"
	case FieldDefinition:
		return "de"
	case FieldExample:
		return "ex"
	case FieldPicture:
		return "pc"
	case FieldSound:
		return "sf"
	}
	return ""
}

// Label returns the human-readable name of a field.
func (f Field) Label() string {
	switch f {
	case FieldHeadword:
		return "Language 1 (vernacular)"
	case FieldGloss:
		return "Gloss"
	case FieldPartOfSpeech:
		return "Part of speech"
	case FieldDefinition:
		return "Definition / description"
	case FieldExample:
		return "Example sentence"
	case FieldPicture:
		return "Picture filename"
	case FieldSound:
		return "Sound filename"
	}
	return string(f)
}

// FieldMapping assigns tabular columns to schema fields. An empty string means
// the field is unset.
//
// Invariant: len(Glosses) == Languages()-1.
type FieldMapping struct {
	Headword     string   `json:"headword" yaml:"headword"`
	Glosses      []string `json:"glosses" yaml:"glosses"`
	PartOfSpeech string   `json:"part_of_speech,omitempty" yaml:"part_of_speech,omitempty"`
	Definition   string   `json:"definition,omitempty" yaml:"definition,omitempty"`
	Example      string   `json:"example,omitempty" yaml:"example,omitempty"`
	Picture      string   `json:"picture,omitempty" yaml:"picture,omitempty"`
	Sound        string   `json:"sound,omitempty" yaml:"sound,omitempty"`
}

// NewFieldMapping returns an empty mapping for n languages (n < 1 becomes 1).
func NewFieldMapping(n int) FieldMapping {
	if n < 1 {
		n = 1
	}
	return FieldMapping{Glosses: make([]string, n-1)}
}

// Languages returns N, the headword language plus one per gloss slot.
func (m FieldMapping) Languages() int {
	return len(m.Glosses) + 1
}

// Resize reallocates the gloss slots for n languages. Existing gloss
// selections are cleared, not carried over.
func (m FieldMapping) Resize(n int) FieldMapping {
	if n < 1 {
		n = 1
	}
	m.Glosses = make([]string, n-1)
	return m
}

// WithHeadword returns a copy with the headword column set.
func (m FieldMapping) WithHeadword(column string) FieldMapping {
	m.Headword = column
	m.Glosses = append([]string(nil), m.Glosses...)
	return m
}

// SetGloss returns a copy with gloss slot i (1-based) set to column.
// Out-of-range slots leave the mapping unchanged.
func (m FieldMapping) SetGloss(i int, column string) FieldMapping {
	glosses := append([]string(nil), m.Glosses...)
	if i >= 1 && i <= len(glosses) {
		glosses[i-1] = column
	}
	m.Glosses = glosses
	return m
}

// Gloss returns the column of gloss slot i (1-based), or "".
func (m FieldMapping) Gloss(i int) string {
	if i < 1 || i > len(m.Glosses) {
		return ""
	}
	return m.Glosses[i-1]
}

// Column returns the column mapped to a single-valued field.
func (m FieldMapping) Column(f Field) string {
	switch f {
	case FieldHeadword:
		return m.Headword
	case FieldPartOfSpeech:
		return m.PartOfSpeech
	case FieldDefinition:
		return m.Definition
	case FieldExample:
		return m.Example
	case FieldPicture:
		return m.Picture
	case FieldSound:
		return m.Sound
	}
	return ""
}

// WithColumn returns a copy with a single-valued field set to column.
func (m FieldMapping) WithColumn(f Field, column string) (FieldMapping, error) {
	m.Glosses = append([]string(nil), m.Glosses...)
	switch f {
	case FieldHeadword:
		m.Headword = column
	case FieldPartOfSpeech:
		m.PartOfSpeech = column
	case FieldDefinition:
		m.Definition = column
	case FieldExample:
		m.Example = column
	case FieldPicture:
		m.Picture = column
	case FieldSound:
		m.Sound = column
	default:
		return m, fmt.Errorf("field %q is not single-valued", f)
	}
	return m, nil
}

// Columns returns every selected column in schema order, skipping unset
// fields and duplicates.
func (m FieldMapping) Columns() []string {
	all := append([]string{m.Headword}, m.Glosses...)
	for _, f := range SingleFields {
		all = append(all, m.Column(f))
	}
	seen := make(map[string]bool, len(all))
	out := make([]string, 0, len(all))
	for _, c := range all {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

// Unknown returns selected columns that are not part of columns.
func (m FieldMapping) Unknown(columns []string) []string {
	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}
	var missing []string
	for _, c := range m.Columns() {
		if !known[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// Normalize repairs a mapping decoded from outside (presets, files) whose
// gloss slice may be nil.
func (m FieldMapping) Normalize() FieldMapping {
	if m.Glosses == nil {
		m.Glosses = []string{}
	}
	return m
}
