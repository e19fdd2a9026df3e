package presets

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/lexconv/internal/config"
)

// Open returns the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.PresetsConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "memory":
		return NewMemoryStore(), nil
	case DialectSQLite:
		return OpenSQLite(ctx, cfg.Path)
	case DialectPostgres:
		return OpenPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown presets driver %q", cfg.Driver)
	}
}
