package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/lexconv/internal/lexicon"
)

// MappingFile is the YAML form of a column mapping, as written by
// "lexconv map" and read by "lexconv convert --mapping".
//
//	headword: Word
//	glosses: [English, French]
//	part_of_speech: POS
//	labels:
//	  headword: Thai
//	  glosses: [English, French]
type MappingFile struct {
	lexicon.FieldMapping `yaml:",inline"`
	Labels               *lexicon.ExportLabels `yaml:"labels,omitempty"`
}

// ReadMappingFile decodes a mapping file.
func ReadMappingFile(path string) (MappingFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return MappingFile{}, fmt.Errorf("read mapping: %w", err)
	}
	var mf MappingFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return MappingFile{}, fmt.Errorf("parse mapping %s: %w", path, err)
	}
	mf.FieldMapping = mf.FieldMapping.Normalize()
	return mf, nil
}

// WriteMappingFile stores the session's mapping and labels at path.
func WriteMappingFile(path string, sess lexicon.Session) error {
	labels := sess.Labels
	data, err := yaml.Marshal(MappingFile{FieldMapping: sess.Mapping, Labels: &labels})
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write mapping: %w", err)
	}
	return nil
}

// Apply resizes sess to the file's language count and installs its mapping
// and, when present, its labels. Labels beyond the gloss count are ignored
// on export.
func (mf MappingFile) Apply(sess lexicon.Session) lexicon.Session {
	sess = sess.WithLanguages(mf.Languages()).WithMapping(mf.FieldMapping)
	if mf.Labels != nil {
		sess = sess.WithLabels(*mf.Labels)
	}
	return sess
}
