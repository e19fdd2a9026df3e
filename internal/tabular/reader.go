// Package tabular reads spreadsheets and CSV files into lexicon datasets and
// writes datasets back out as workbooks or CSV.
//
// The first row of a sheet is its header. Header names are made unique so
// every cell of a data row has a distinct key: a blank header becomes
// "__EMPTY", "__EMPTY_1", ... and a repeated name gets "_1", "_2", ...
// appended.
package tabular

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/lexconv/internal/lexicon"
	"github.com/JonMunkholm/lexconv/internal/textio"
)

// ErrUnsupported is returned by Read for extensions it cannot handle.
var ErrUnsupported = errors.New("unsupported file type")

// ReadOptions controls decoding of tabular input.
type ReadOptions struct {
	textio.Options
}

// Kind classifies a file by extension.
type Kind int

const (
	KindUnknown Kind = iota
	KindCSV
	KindWorkbook
)

// KindOf returns the kind of file name.
func KindOf(name string) Kind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return KindCSV
	case ".xlsx", ".xlsm", ".xls":
		return KindWorkbook
	}
	return KindUnknown
}

// Read dispatches on the extension of name.
func Read(name string, r io.Reader, opts ReadOptions) (lexicon.Dataset, error) {
	switch KindOf(name) {
	case KindCSV:
		return ReadCSV(r, opts)
	case KindWorkbook:
		return ReadWorkbook(r, opts)
	}
	return lexicon.Dataset{}, fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(name))
}

// ReadCSV reads comma separated records. Rows may have differing lengths.
func ReadCSV(r io.Reader, opts ReadOptions) (lexicon.Dataset, error) {
	dec, err := textio.NewReader(r, opts.Options)
	if err != nil {
		return lexicon.Dataset{}, err
	}

	cr := csv.NewReader(dec)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return lexicon.Dataset{}, fmt.Errorf("invalid csv: %w", err)
		}
		return lexicon.Dataset{}, fmt.Errorf("read csv: %w", err)
	}
	return buildDataset(records), nil
}

// ReadWorkbook reads the first worksheet of an Excel workbook.
func ReadWorkbook(r io.Reader, opts ReadOptions) (lexicon.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return lexicon.Dataset{}, fmt.Errorf("invalid workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return lexicon.Dataset{}, nil
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return lexicon.Dataset{}, fmt.Errorf("invalid workbook: sheet %q: %w", sheets[0], err)
	}
	if opts.NormalizeNFC {
		for _, rec := range records {
			for i, cell := range rec {
				rec[i] = opts.NormalizeString(cell)
			}
		}
	}
	return buildDataset(records), nil
}

// buildDataset turns raw records into rows keyed by the unique header.
// A sheet with a header but no data rows yields an empty dataset.
func buildDataset(records [][]string) lexicon.Dataset {
	if len(records) == 0 {
		return lexicon.Dataset{}
	}

	header := uniqueHeader(records[0])
	var rows []lexicon.Row
	for _, rec := range records[1:] {
		if isEmptyRow(rec) {
			continue
		}
		row := make(lexicon.Row, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = rec[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return lexicon.Dataset{}
	}
	return lexicon.Dataset{Rows: rows, Columns: header}
}

const emptyHeader = "__EMPTY"

func uniqueHeader(cells []string) []string {
	out := make([]string, len(cells))
	seen := make(map[string]bool, len(cells))
	for i, cell := range cells {
		base := strings.TrimSpace(cell)
		if base == "" {
			base = emptyHeader
		}
		name := base
		for n := 1; seen[name]; n++ {
			name = base + "_" + strconv.Itoa(n)
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

func isEmptyRow(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
