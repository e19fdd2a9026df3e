package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/lexconv/internal/core"
	"github.com/JonMunkholm/lexconv/internal/lexicon"
)

// cellWidth caps table cells so long definitions do not wrap the terminal.
const cellWidth = 40

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	var (
		rows        int
		preview     bool
		mappingFile string
	)

	cmd := &cobra.Command{
		Use:   "inspect <input>",
		Short: "Show the columns and first rows of a file",
		Long: `Read a spreadsheet or SFM file the same way convert does and print what
was found: the column headers, the row count and a sample of the data.

With --preview the SFM rendering is printed as well, using --mapping or the
automatic mapping of SFM input.`,
		Example: `  lexconv inspect words.xlsx
  lexconv inspect words.csv --rows 3 --preview --mapping words.mapping.yaml`,
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

			w := cmd.OutOrStdout()
			renderSummary(w, sess)
			renderRows(w, sess.Dataset, rows)
			if preview {
				_, _ = fmt.Fprintln(w)
				_, _ = fmt.Fprint(w, svc.Preview(sess))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", 10, "Number of rows to show (0 for none)")
	cmd.Flags().BoolVar(&preview, "preview", false, "Print the SFM rendering")
	cmd.Flags().StringVar(&mappingFile, "mapping", "", "YAML mapping file for --preview")
	return cmd
}

func renderSummary(w io.Writer, sess lexicon.Session) {
	_, _ = fmt.Fprintf(w, "File:      %s\n", sess.Source)
	_, _ = fmt.Fprintf(w, "Rows:      %d\n", sess.Dataset.Len())
	_, _ = fmt.Fprintf(w, "Columns:   %d\n", len(sess.Dataset.Columns))
	if core.IsSFM(sess.Source) {
		_, _ = fmt.Fprintf(w, "Languages: %d\n", sess.Languages())
	}
	if missing := sess.Mapping.Unknown(sess.Dataset.Columns); len(missing) > 0 {
		_, _ = fmt.Fprintf(w, "Missing:   %v\n", missing)
	}
}

func renderRows(w io.Writer, ds lexicon.Dataset, limit int) {
	if len(ds.Columns) == 0 {
		_, _ = fmt.Fprintln(w, "(no columns)")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(ds.Columns))
	configs := make([]table.ColumnConfig, len(ds.Columns))
	for i, col := range ds.Columns {
		header[i] = col
		configs[i] = table.ColumnConfig{Number: i + 1, WidthMax: cellWidth}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for i, r := range ds.Rows {
		if i >= limit {
			break
		}
		row := make(table.Row, len(ds.Columns))
		for j, col := range ds.Columns {
			row[j] = r.Get(col)
		}
		t.AppendRow(row)
	}

	t.Render()
	if shown := min(limit, ds.Len()); shown < ds.Len() {
		_, _ = fmt.Fprintf(w, "(%d of %d rows)\n", shown, ds.Len())
	} else {
		_, _ = fmt.Fprintf(w, "(%d rows)\n", ds.Len())
	}
}
