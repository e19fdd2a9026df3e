package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/lexconv/internal/lexicon"
)

// SheetName is the name of the single worksheet written by WriteWorkbook.
const SheetName = "Sheet1"

// Relabel renames headword and gloss keys using labels. Other keys keep
// their name. The returned columns follow the order of columns, followed by
// any row keys columns does not list, so markers that only appear in later
// SFM entries are still exported. A label that collides with another column
// gets a numeric suffix, as duplicate headers do on read.
func Relabel(rows []lexicon.Row, columns []string, labels lexicon.ExportLabels) ([]lexicon.Row, []string) {
	columns = exportColumns(rows, columns)
	names := renames(columns, labels)

	outCols := make([]string, len(columns))
	for i, c := range columns {
		outCols[i] = names[c]
	}

	out := make([]lexicon.Row, len(rows))
	for i, row := range rows {
		renamed := make(lexicon.Row, len(row))
		for k, v := range row {
			renamed[names[k]] = v
		}
		out[i] = renamed
	}
	return out, outCols
}

// exportColumns appends the keys of rows missing from columns, in the order
// rows first use them. Keys new to the same row are ordered like a flattened
// SFM entry: plain markers by name, then glosses by number.
func exportColumns(rows []lexicon.Row, columns []string) []string {
	out := append([]string(nil), columns...)
	seen := make(map[string]bool, len(columns))
	for _, c := range columns {
		seen[c] = true
	}

	for _, row := range rows {
		var extra []string
		for k := range row {
			if !seen[k] {
				extra = append(extra, k)
			}
		}
		sort.Slice(extra, func(i, j int) bool {
			gi, iGloss := lexicon.GlossIndex(extra[i])
			gj, jGloss := lexicon.GlossIndex(extra[j])
			switch {
			case iGloss && jGloss:
				return gi < gj
			case iGloss != jGloss:
				return jGloss
			}
			return extra[i] < extra[j]
		})
		for _, k := range extra {
			seen[k] = true
			out = append(out, k)
		}
	}
	return out
}

// renames maps every column to its output name. Columns without a label keep
// their name and win over labels that would reuse it.
func renames(columns []string, labels lexicon.ExportLabels) map[string]string {
	names := make(map[string]string, len(columns))
	taken := make(map[string]bool, len(columns))
	for _, c := range columns {
		if labels.Rename(c) == c {
			names[c] = c
			taken[c] = true
		}
	}

	for _, c := range columns {
		if _, ok := names[c]; ok {
			continue
		}
		target := labels.Rename(c)
		name := target
		for n := 1; taken[name]; n++ {
			name = target + "_" + strconv.Itoa(n)
		}
		names[c] = name
		taken[name] = true
	}
	return names
}

// table returns the header plus one record per row, relabeled.
func table(rows []lexicon.Row, columns []string, labels lexicon.ExportLabels) [][]string {
	relabeled, header := Relabel(rows, columns, labels)
	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	for _, row := range relabeled {
		rec := make([]string, len(header))
		for i, h := range header {
			rec[i] = row[h]
		}
		records = append(records, rec)
	}
	return records
}

// WriteWorkbook writes rows to a single-sheet xlsx workbook.
func WriteWorkbook(w io.Writer, rows []lexicon.Row, columns []string, labels lexicon.ExportLabels) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, rec := range table(rows, columns, labels) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		values := make([]any, len(rec))
		for j, v := range rec {
			values[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteCSV writes the same table as WriteWorkbook in CSV form.
func WriteCSV(w io.Writer, rows []lexicon.Row, columns []string, labels lexicon.ExportLabels) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(table(rows, columns, labels)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
