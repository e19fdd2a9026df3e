package lift

import (
	"fmt"
	"io"
	"time"

	"github.com/klauspost/compress/zip"
)

// Media folders are created empty. Picture and sound columns are captured in
// the mapping but files are not collected yet.
var mediaDirs = []string{"pictures/", "audio/"}

// PackageName returns the archive file name for a base name.
func PackageName(name string) string {
	return name + "_LIFT_Package.zip"
}

// WritePackage writes a zip holding <name>.lift, <name>.lift-ranges and the
// empty media folders.
func WritePackage(w io.Writer, name, doc, rangesDoc string) error {
	return writePackage(w, name, doc, rangesDoc, time.Now())
}

func writePackage(w io.Writer, name, doc, rangesDoc string, modified time.Time) error {
	zw := zip.NewWriter(w)

	files := []struct {
		name string
		body string
	}{
		{name + ".lift", doc},
		{name + ".lift-ranges", rangesDoc},
	}
	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("create %s: %w", f.name, err)
		}
		if _, err := io.WriteString(fw, f.body); err != nil {
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}

	for _, dir := range mediaDirs {
		if _, err := zw.CreateHeader(&zip.FileHeader{Name: dir, Method: zip.Store, Modified: modified}); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("close zip: %w", err)
	}
	return nil
}
