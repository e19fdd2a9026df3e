// Package presets stores named column mappings so a spreadsheet layout that
// was mapped once can be mapped again with one click.
//
// A preset remembers the column headers it was created from. Match scores
// stored presets against the headers of a newly loaded file; presets whose
// header overlap reaches MatchThreshold are offered to the user.
package presets

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/JonMunkholm/lexconv/internal/lexicon"
)

// MatchThreshold is the minimum score for a preset to be considered a match.
const MatchThreshold = 0.7

var (
	ErrNotFound     = errors.New("preset not found")
	ErrExists       = errors.New("preset already exists")
	ErrNameRequired = errors.New("preset name is required")
)

// Preset is a saved mapping.
type Preset struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Mapping   lexicon.FieldMapping `json:"mapping"`
	Labels    lexicon.ExportLabels `json:"labels"`
	Columns   []string             `json:"columns"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// Store persists presets. Names are unique.
type Store interface {
	Create(ctx context.Context, p Preset) (Preset, error)
	Get(ctx context.Context, id string) (Preset, error)
	List(ctx context.Context) ([]Preset, error)
	Update(ctx context.Context, p Preset) (Preset, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Match is a preset together with its header overlap score.
type Match struct {
	Preset Preset  `json:"preset"`
	Score  float64 `json:"score"`
}

// MatchColumns returns the presets that fit columns, best first.
func MatchColumns(all []Preset, columns []string) []Match {
	var matches []Match
	for _, p := range all {
		score := matchHeaders(columns, p.Columns)
		if score >= MatchThreshold {
			matches = append(matches, Match{Preset: p, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}

// matchHeaders returns the share of preset headers present in columns.
func matchHeaders(columns, presetHeaders []string) float64 {
	if len(presetHeaders) == 0 {
		return 0
	}

	have := make(map[string]bool, len(columns))
	for _, h := range columns {
		have[normalizeHeader(h)] = true
	}

	matched := 0
	for _, h := range presetHeaders {
		if have[normalizeHeader(h)] {
			matched++
		}
	}
	return float64(matched) / float64(len(presetHeaders))
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}

func validate(p Preset) (Preset, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return p, ErrNameRequired
	}
	p.Mapping = p.Mapping.Normalize()
	if p.Labels.Glosses == nil {
		p.Labels.Glosses = []string{}
	}
	if p.Columns == nil {
		p.Columns = []string{}
	}
	return p, nil
}
