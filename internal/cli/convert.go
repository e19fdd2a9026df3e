package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/lexconv/internal/core"
	"github.com/JonMunkholm/lexconv/internal/lexicon"
	"github.com/JonMunkholm/lexconv/internal/presets"
)

type convertOptions struct {
	to            []string
	mappingFile   string
	preset        string
	headword      string
	glosses       []string
	fields        map[lexicon.Field]*string
	headwordLabel string
	glossLabels   []string
	name          string
	out           string
}

// NewConvertCommand creates the convert command.
func NewConvertCommand() *cobra.Command {
	opts := &convertOptions{fields: make(map[lexicon.Field]*string)}

	cmd := &cobra.Command{
		Use:   "convert <input>",
		Short: "Convert a word list to SFM, LIFT, Excel or CSV",
		Long: `Convert a spreadsheet or SFM file in one step.

Columns are assigned from a saved preset, a mapping file and the field flags,
applied in that order. SFM input maps its own markers automatically, so
converting it back to a spreadsheet needs no flags.`,
		Example: `  # Two-language word list to SFM
  lexconv convert words.xlsx --headword Thai --gloss English --ps POS

  # Same mapping from a file, to a LIFT package and SFM
  lexconv convert words.csv --mapping words.mapping.yaml --to lift --to sfm

  # SFM back to Excel with custom headers
  lexconv convert dict.sfm --to xlsx --headword-label Thai --gloss-label English`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringArrayVar(&opts.to, "to", []string{core.FormatSFM}, "Output format: "+strings.Join(core.Keys(), ", ")+" (repeatable)")
	f.StringVar(&opts.mappingFile, "mapping", "", "YAML mapping file")
	f.StringVar(&opts.preset, "preset", "", "Apply the saved preset with this name")
	f.StringVar(&opts.headword, "headword", "", "Column for the headword (language 1)")
	f.StringArrayVar(&opts.glosses, "gloss", nil, "Column for the next gloss language (repeatable, in order)")
	for _, field := range lexicon.SingleFields {
		opts.fields[field] = f.String(field.Marker(), "", "Column for "+strings.ToLower(field.Label()))
	}
	f.StringVar(&opts.headwordLabel, "headword-label", "", "Spreadsheet header for lx when exporting SFM")
	f.StringArrayVar(&opts.glossLabels, "gloss-label", nil, "Spreadsheet header for the next ge column (repeatable)")
	f.StringVar(&opts.name, "name", "", "Output file base name (default: input name)")
	f.StringVarP(&opts.out, "out", "o", ".", `Output directory, or "-" for stdout`)

	_ = cmd.RegisterFlagCompletionFunc("to", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return core.Keys(), cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func runConvert(cmd *cobra.Command, input string, opts *convertOptions) error {
	ctx := cmd.Context()
	if opts.out == "-" && len(opts.to) > 1 {
		return errors.New(`--out - writes a single format; pass one --to`)
	}

	svc, err := newService(ctx, GetConfig(ctx), opts.preset != "")
	if err != nil {
		return err
	}
	defer svc.Close()

	sess, err := loadInput(ctx, svc, input)
	if err != nil {
		return err
	}
	if sess, err = applyOptions(ctx, cmd, svc, sess, opts); err != nil {
		return err
	}
	if err := svc.CheckMapping(sess); err != nil {
		slog.Warn("mapping selects columns the file does not have; they are written empty", "error", err)
	}

	for _, key := range opts.to {
		art, err := svc.Convert(ctx, sess, key, opts.name)
		if err != nil {
			return err
		}
		path, err := writeArtifact(opts.out, art, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if opts.out != "-" {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", path, len(art.Body))
		}
	}
	return nil
}

// applyOptions layers the preset, the mapping file and the field flags onto
// the freshly loaded session.
func applyOptions(ctx context.Context, cmd *cobra.Command, svc *core.Service, sess lexicon.Session, opts *convertOptions) (lexicon.Session, error) {
	if opts.preset != "" {
		p, err := findPreset(ctx, svc, opts.preset)
		if err != nil {
			return sess, err
		}
		sess, _, err = svc.ApplyPreset(ctx, sess, p.ID)
		if err != nil {
			return sess, err
		}
	}

	if opts.mappingFile != "" {
		mf, err := ReadMappingFile(opts.mappingFile)
		if err != nil {
			return sess, err
		}
		sess = mf.Apply(sess)
	}

	flags := cmd.Flags()
	if flags.Changed("gloss") {
		sess = sess.WithLanguages(len(opts.glosses) + 1)
	}
	m := sess.Mapping
	if flags.Changed("headword") {
		m = m.WithHeadword(opts.headword)
	}
	for i, col := range opts.glosses {
		m = m.SetGloss(i+1, col)
	}
	for _, field := range lexicon.SingleFields {
		if flags.Changed(field.Marker()) {
			m, _ = m.WithColumn(field, *opts.fields[field])
		}
	}
	sess = sess.WithMapping(m)

	if flags.Changed("headword-label") || flags.Changed("gloss-label") {
		labels := sess.Labels.Resize(sess.Languages())
		labels.Headword = sess.Labels.Headword
		copy(labels.Glosses, sess.Labels.Glosses)
		if flags.Changed("headword-label") {
			labels.Headword = opts.headwordLabel
		}
		for i, l := range opts.glossLabels {
			if i < len(labels.Glosses) {
				labels.Glosses[i] = l
			}
		}
		sess = sess.WithLabels(labels)
	}
	return sess, nil
}

func findPreset(ctx context.Context, svc *core.Service, name string) (presets.Preset, error) {
	all, err := svc.ListPresets(ctx)
	if err != nil {
		return presets.Preset{}, err
	}
	for _, p := range all {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return presets.Preset{}, fmt.Errorf("%w: %q", presets.ErrNotFound, name)
}
