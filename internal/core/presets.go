package core

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/lexconv/internal/lexicon"
	"github.com/JonMunkholm/lexconv/internal/logging"
	"github.com/JonMunkholm/lexconv/internal/presets"
)

// SavePreset stores the session's mapping and labels under name, together
// with the column headers they were made for.
func (s *Service) SavePreset(ctx context.Context, name string, sess lexicon.Session) (presets.Preset, error) {
	p, err := s.presets.Create(ctx, presets.Preset{
		Name:    name,
		Mapping: sess.Mapping,
		Labels:  sess.Labels,
		Columns: append([]string(nil), sess.Dataset.Columns...),
	})
	if err != nil {
		return presets.Preset{}, fmt.Errorf("save preset: %w", err)
	}
	logging.WithFields(ctx, "preset", p.Name).Info("preset saved", "id", p.ID)
	return p, nil
}

// ListPresets returns all presets sorted by name.
func (s *Service) ListPresets(ctx context.Context) ([]presets.Preset, error) {
	all, err := s.presets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	return all, nil
}

// GetPreset returns one preset.
func (s *Service) GetPreset(ctx context.Context, id string) (presets.Preset, error) {
	p, err := s.presets.Get(ctx, id)
	if err != nil {
		return presets.Preset{}, fmt.Errorf("get preset: %w", err)
	}
	return p, nil
}

// DeletePreset removes a preset.
func (s *Service) DeletePreset(ctx context.Context, id string) error {
	if err := s.presets.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete preset: %w", err)
	}
	logging.FromContext(ctx).Info("preset deleted", "id", id)
	return nil
}

// MatchPresets returns the presets whose headers fit columns, best first.
func (s *Service) MatchPresets(ctx context.Context, columns []string) ([]presets.Match, error) {
	all, err := s.ListPresets(ctx)
	if err != nil {
		return nil, err
	}
	return presets.MatchColumns(all, columns), nil
}

// ApplyPreset copies a preset's mapping and labels into sess. It also returns
// the preset columns the session lacks; the session is updated either way.
func (s *Service) ApplyPreset(ctx context.Context, sess lexicon.Session, id string) (lexicon.Session, []string, error) {
	p, err := s.GetPreset(ctx, id)
	if err != nil {
		return sess, nil, err
	}
	sess = sess.WithMapping(p.Mapping).WithLabels(p.Labels)
	return sess, sess.Mapping.Unknown(sess.Dataset.Columns), nil
}

// UpdatePreset overwrites a preset's mapping, labels and columns with the
// session's. A non-empty name also renames it.
func (s *Service) UpdatePreset(ctx context.Context, id, name string, sess lexicon.Session) (presets.Preset, error) {
	p, err := s.GetPreset(ctx, id)
	if err != nil {
		return presets.Preset{}, err
	}
	if name != "" {
		p.Name = name
	}
	p.Mapping = sess.Mapping
	p.Labels = sess.Labels
	p.Columns = append([]string(nil), sess.Dataset.Columns...)

	p, err = s.presets.Update(ctx, p)
	if err != nil {
		return presets.Preset{}, fmt.Errorf("update preset: %w", err)
	}
	logging.WithFields(ctx, "preset", p.Name).Info("preset updated", "id", p.ID)
	return p, nil
}
