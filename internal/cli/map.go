package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/lexconv/internal/application"
	"github.com/JonMunkholm/lexconv/internal/lexicon"
)

// NewMapCommand creates the map command.
func NewMapCommand() *cobra.Command {
	var (
		mappingFile string
		save        string
		out         string
	)

	cmd := &cobra.Command{
		Use:   "map <input>",
		Short: "Map columns interactively in the terminal",
		Long: `Open a terminal wizard to choose which column holds each field, then
convert from the wizard or save the mapping for "lexconv convert --mapping".`,
		Example: `  lexconv map words.xlsx
  lexconv map words.xlsx --mapping words.mapping.yaml --out build`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := newService(ctx, GetConfig(ctx), false)
			if err != nil {
				return err
			}
			defer svc.Close()

			sess, err := loadInput(ctx, svc, args[0])
			if err != nil {
				return err
			}
			if mappingFile != "" {
				mf, err := ReadMappingFile(mappingFile)
				if err != nil {
					return err
				}
				sess = mf.Apply(sess)
			}
			if save == "" {
				save = defaultMappingPath(sess)
			}

			model, err := application.Run(ctx, application.Options{
				Session: sess,
				Formats: svc.Formats(),
				Convert: func(ctx context.Context, sess lexicon.Session, format, name string) (string, error) {
					art, err := svc.Convert(ctx, sess, format, name)
					if err != nil {
						return "", err
					}
					return writeArtifact(out, art, io.Discard)
				},
				Save: func(sess lexicon.Session) (string, error) {
					return save, WriteMappingFile(save, sess)
				},
			})
			if err != nil {
				return err
			}

			final := model.Session().Mapping
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "headword=%s glosses=%s\n",
				display(final.Headword), strings.Join(final.Glosses, ","))
			return nil
		},
	}

	cmd.Flags().StringVar(&mappingFile, "mapping", "", "Start from this YAML mapping file")
	cmd.Flags().StringVar(&save, "save", "", "Where \"Save mapping\" writes (default: <input>.mapping.yaml)")
	cmd.Flags().StringVarP(&out, "out", "o", ".", "Output directory for conversions")
	return cmd
}

func defaultMappingPath(sess lexicon.Session) string {
	return sess.BaseName("") + ".mapping.yaml"
}

func display(v string) string {
	if v == "" {
		return "(none)"
	}
	return v
}
