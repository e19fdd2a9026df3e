package lexicon

// ExportLabels names the header columns written when SFM data is exported back
// to a spreadsheet. They are independent of FieldMapping.
type ExportLabels struct {
	Headword string   `json:"headword" yaml:"headword"`
	Glosses  []string `json:"glosses" yaml:"glosses"`
}

// DefaultExportLabels returns "lx" and "ge1".."ge<n-1>" for n languages.
func DefaultExportLabels(n int) ExportLabels {
	if n < 1 {
		n = 1
	}
	l := ExportLabels{Headword: HeadwordKey, Glosses: make([]string, n-1)}
	for i := range l.Glosses {
		l.Glosses[i] = GlossColumn(i + 1)
	}
	return l
}

// Resize resets the labels to defaults for n languages.
func (l ExportLabels) Resize(n int) ExportLabels {
	d := DefaultExportLabels(n)
	d.Headword = l.Headword
	if d.Headword == "" {
		d.Headword = HeadwordKey
	}
	return d
}

// Rename returns the output header for a row key: lx becomes the headword
// label and ge<i> becomes the i-th gloss label. Keys without a configured
// label pass through unchanged.
func (l ExportLabels) Rename(key string) string {
	if key == HeadwordKey {
		if l.Headword != "" {
			return l.Headword
		}
		return key
	}
	if i, ok := GlossIndex(key); ok && i <= len(l.Glosses) && l.Glosses[i-1] != "" {
		return l.Glosses[i-1]
	}
	return key
}
