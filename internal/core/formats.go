package core

import (
	"io"

	"github.com/JonMunkholm/lexconv/internal/lift"
	"github.com/JonMunkholm/lexconv/internal/sfm"
	"github.com/JonMunkholm/lexconv/internal/tabular"
)

// Format keys.
const (
	FormatSFM  = "sfm"
	FormatLIFT = "lift"
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

func init() {
	Register(FormatDefinition{
		Info: FormatInfo{
			Key:         FormatSFM,
			Label:       "SFM (Toolbox / FieldWorks)",
			Extension:   ".sfm",
			ContentType: "text/plain; charset=utf-8",
			Order:       1,
		},
		Render: func(w io.Writer, job Job) error {
			return sfm.WriteTo(w, job.Session.Dataset.Rows, job.Session.Mapping)
		},
	})

	Register(FormatDefinition{
		Info: FormatInfo{
			Key:         FormatLIFT,
			Label:       "LIFT package (zip)",
			Extension:   ".zip",
			ContentType: "application/zip",
			Order:       2,
		},
		Render:   renderLIFT,
		FileName: lift.PackageName,
	})

	Register(FormatDefinition{
		Info: FormatInfo{
			Key:         FormatXLSX,
			Label:       "Excel workbook",
			Extension:   ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Order:       3,
		},
		Render: func(w io.Writer, job Job) error {
			ds := job.Session.Dataset
			return tabular.WriteWorkbook(w, ds.Rows, ds.Columns, job.Session.Labels)
		},
	})

	Register(FormatDefinition{
		Info: FormatInfo{
			Key:         FormatCSV,
			Label:       "CSV",
			Extension:   ".csv",
			ContentType: "text/csv; charset=utf-8",
			Order:       4,
		},
		Render: func(w io.Writer, job Job) error {
			ds := job.Session.Dataset
			return tabular.WriteCSV(w, ds.Rows, ds.Columns, job.Session.Labels)
		},
	})
}

func renderLIFT(w io.Writer, job Job) error {
	writer := job.LIFT
	if writer == nil {
		writer = lift.NewWriter()
	}
	doc, err := writer.Render(job.Session.Dataset.Rows, job.Session.Mapping)
	if err != nil {
		return err
	}
	return lift.WritePackage(w, job.BaseName, doc, lift.RenderRanges())
}
