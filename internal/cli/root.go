// Package cli provides the lexconv command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/lexconv/internal/config"
	"github.com/JonMunkholm/lexconv/internal/logging"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "lexconv",
		Short: "Convert word lists between spreadsheets, SFM and LIFT",
		Long: `lexconv converts lexical data kept in spreadsheets (.xlsx, .xls, .csv)
into Standard Format Marker (SFM) text and LIFT packages for dictionary
software, and converts SFM files back into spreadsheets.

Run "lexconv serve" for the web interface or use the convert, inspect and
map commands directly.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(config.LoadOptions{File: cfgFile, Flags: cmd.Flags()})
			if err != nil {
				return err
			}
			logging.Setup(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./"+config.DefaultFile+")")
	flags.String("log-level", "info", "Log level (debug|info|warn|error)")
	flags.String("log-format", "text", "Log format (text|json)")
	flags.String("encoding", "", "Encoding of CSV and SFM input (default: UTF-8)")
	flags.Bool("nfc", false, "Normalize input text to NFC")
	flags.Bool("all-columns", false, "List SFM markers from every entry, not only the first")
	flags.String("headword-lang", "th", "LIFT language tag for headwords")
	flags.String("gloss-lang", "en", "LIFT language tag for glosses")
	flags.String("presets-driver", "sqlite", "Preset storage (memory|sqlite|postgres)")
	flags.String("presets-path", "lexconv.db", "SQLite preset database")
	flags.String("database-url", "", "PostgreSQL URL for presets")

	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("presets-driver", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"memory", "sqlite", "postgres"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(NewServeCommand())
	rootCmd.AddCommand(NewConvertCommand())
	rootCmd.AddCommand(NewInspectCommand())
	rootCmd.AddCommand(NewMapCommand())
	rootCmd.AddCommand(NewVersionCommand(Version))

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return nil
}
