// Package textio turns raw uploaded bytes into clean UTF-8 text for the CSV
// and SFM readers.
//
// Field data arrives from many editors: Windows tools prepend a BOM, older SFM
// files are often Latin-1 or Windows-1252, and decomposed diacritics are
// common. NewReader applies, in order:
//
//  1. BOM removal (UTF-8 input only)
//  2. decoding from a named legacy encoding, or replacement of invalid UTF-8
//     bytes with '?'
//  3. optional NFC normalization
package textio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrTooLarge is returned by LimitReader once the limit is exceeded.
var ErrTooLarge = errors.New("file too large")

// Options controls decoding of input text.
type Options struct {
	// Encoding is a WHATWG encoding label such as "windows-1252" or
	// "iso-8859-1". Empty means UTF-8.
	Encoding string

	// NormalizeNFC composes decomposed characters.
	NormalizeNFC bool
}

// IsUTF8 reports whether the options leave the input as UTF-8.
func (o Options) IsUTF8() bool {
	switch strings.ToLower(strings.TrimSpace(o.Encoding)) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}

// NewReader wraps r according to opts.
func NewReader(r io.Reader, opts Options) (io.Reader, error) {
	var out io.Reader
	if opts.IsUTF8() {
		out = NewUTF8Sanitizer(SkipBOM(r))
	} else {
		enc, err := htmlindex.Get(opts.Encoding)
		if err != nil {
			return nil, fmt.Errorf("encoding error: unknown encoding %q: %w", opts.Encoding, err)
		}
		out = transform.NewReader(r, enc.NewDecoder())
	}
	if opts.NormalizeNFC {
		out = transform.NewReader(out, norm.NFC)
	}
	return out, nil
}

// ReadAll decodes all of r into a string.
func ReadAll(r io.Reader, opts Options) (string, error) {
	dec, err := NewReader(r, opts)
	if err != nil {
		return "", err
	}
	b, err := io.ReadAll(dec)
	if err != nil {
		return "", fmt.Errorf("encoding error: %w", err)
	}
	return string(b), nil
}

// NormalizeString applies NFC when enabled.
func (o Options) NormalizeString(s string) string {
	if !o.NormalizeNFC {
		return s
	}
	return norm.NFC.String(s)
}

// SkipBOM drops a leading UTF-8 byte order mark.
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = br.Discard(3)
	}
	return br
}

// LimitReader returns a reader that fails with ErrTooLarge after limit bytes.
// A limit <= 0 disables the check.
func LimitReader(r io.Reader, limit int64) io.Reader {
	if limit <= 0 {
		return r
	}
	return &limitedReader{r: r, remaining: limit}
}

type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrTooLarge
	}
	// Read one byte past the limit so an exact-size file is not rejected.
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrTooLarge
	}
	return n, err
}
