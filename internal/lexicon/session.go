package lexicon

import (
	"path/filepath"
	"strings"
	"time"
)

// DefaultBaseName is used for output files when neither a custom name nor a
// source file name is available.
const DefaultBaseName = "converted"

// Session is the complete state behind one conversion: the loaded data, the
// mapping the user configured and the export labels. Sessions are values;
// every change returns a new Session and an upload replaces it entirely.
type Session struct {
	Source   string
	Dataset  Dataset
	Mapping  FieldMapping
	Labels   ExportLabels
	LoadedAt time.Time
}

// NewSession builds a fresh session for a newly loaded dataset with one
// language and no selections.
func NewSession(source string, ds Dataset, now time.Time) Session {
	return Session{
		Source:   source,
		Dataset:  ds,
		Mapping:  NewFieldMapping(1),
		Labels:   DefaultExportLabels(1),
		LoadedAt: now,
	}
}

// Languages returns the configured language count.
func (s Session) Languages() int { return s.Mapping.Languages() }

// WithLanguages resizes the mapping and the export labels to n languages.
// Gloss selections are cleared.
func (s Session) WithLanguages(n int) Session {
	s.Mapping = s.Mapping.Resize(n)
	s.Labels = s.Labels.Resize(n)
	return s
}

// WithMapping replaces the mapping.
func (s Session) WithMapping(m FieldMapping) Session {
	s.Mapping = m.Normalize()
	return s
}

// WithLabels replaces the export labels.
func (s Session) WithLabels(l ExportLabels) Session {
	if l.Glosses == nil {
		l.Glosses = []string{}
	}
	s.Labels = l
	return s
}

// Ready reports whether there is data to map.
func (s Session) Ready() bool { return !s.Dataset.Empty() && len(s.Dataset.Columns) > 0 }

// BaseName picks the output base name: the custom name, else the source
// file name without its extension, else DefaultBaseName. Both are reduced to
// their last path element so the result is safe as a file or zip entry name.
func (s Session) BaseName(custom string) string {
	if name := fileBase(custom); name != "" {
		return name
	}
	base := fileBase(s.Source)
	base = strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if base == "" {
		return DefaultBaseName
	}
	return base
}

// fileBase returns the last element of a slash or backslash separated path,
// trimmed, or "" when nothing usable remains.
func fileBase(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "." || name == ".." {
		return ""
	}
	return name
}
