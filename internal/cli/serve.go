package cli

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/lexconv/internal/core"
	"github.com/JonMunkholm/lexconv/internal/presets"
	"github.com/JonMunkholm/lexconv/internal/web"
)

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface",
		Long: `Start the browser interface for uploading, mapping and downloading.

The server shuts down gracefully on SIGINT or SIGTERM, waiting for files that
are still being parsed.`,
		Example: `  # Listen on the default address (127.0.0.1:8080)
  lexconv serve

  # Listen on all interfaces, keeping presets in PostgreSQL
  lexconv serve --host 0.0.0.0 --presets-driver postgres --database-url postgres://...`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().String("host", "127.0.0.1", "Interface to bind to")
	cmd.Flags().Int("port", 8080, "Port to listen on")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := GetConfig(cmd.Context())
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
		"presets_driver", cfg.Presets.Driver,
	)
	slog.Debug("effective configuration", "config", cfg.String())

	store, err := presets.Open(ctx, cfg.Presets)
	if err != nil {
		return fmt.Errorf("open preset store: %w", err)
	}
	service := core.NewService(cfg, store)
	defer func() {
		if err := service.Close(); err != nil {
			slog.Warn("close preset store", "error", err)
		}
	}()

	slog.Info("formats registered", "count", core.FormatCount(), "keys", core.Keys())

	server, err := web.NewServer(service, cfg)
	if err != nil {
		return err
	}
	if err := server.Serve(ctx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
