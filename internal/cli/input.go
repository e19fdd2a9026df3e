package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/lexconv/internal/config"
	"github.com/JonMunkholm/lexconv/internal/core"
	"github.com/JonMunkholm/lexconv/internal/lexicon"
	"github.com/JonMunkholm/lexconv/internal/presets"
)

// newService builds a conversion service. The configured preset store is
// only opened when withPresets is set, so plain conversions never create a
// database file.
func newService(ctx context.Context, cfg *config.Config, withPresets bool) (*core.Service, error) {
	var store presets.Store
	if withPresets {
		var err error
		if store, err = presets.Open(ctx, cfg.Presets); err != nil {
			return nil, fmt.Errorf("open preset store: %w", err)
		}
	}
	return core.NewService(cfg, store), nil
}

// loadInput reads the file at path into a session.
func loadInput(ctx context.Context, svc *core.Service, path string) (lexicon.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return lexicon.Session{}, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return lexicon.Session{}, err
	}
	if info.IsDir() {
		return lexicon.Session{}, fmt.Errorf("%s is a directory", path)
	}
	return svc.Load(ctx, filepath.Base(path), f, info.Size())
}

// writeArtifact stores art in dir, or on stdout when dir is "-", and
// returns where it went.
func writeArtifact(dir string, art core.Artifact, stdout io.Writer) (string, error) {
	if dir == "-" {
		if _, err := stdout.Write(art.Body); err != nil {
			return "", err
		}
		return "stdout", nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, art.FileName)
	if err := os.WriteFile(path, art.Body, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
