package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/lexconv/internal/config"
	"github.com/JonMunkholm/lexconv/internal/lexicon"
	"github.com/JonMunkholm/lexconv/internal/lift"
	"github.com/JonMunkholm/lexconv/internal/logging"
	"github.com/JonMunkholm/lexconv/internal/presets"
	"github.com/JonMunkholm/lexconv/internal/sfm"
	"github.com/JonMunkholm/lexconv/internal/tabular"
	"github.com/JonMunkholm/lexconv/internal/textio"
)

var (
	ErrNoFile            = errors.New("no file provided")
	ErrEmptyFile         = errors.New("empty file")
	ErrUnsupportedFormat = errors.New("unknown format")
	ErrNoSession         = errors.New("session not found")
)

// UnknownColumnsError lists mapped columns missing from the loaded data.
// It is a warning: conversion still runs and writes those fields as empty.
type UnknownColumnsError struct {
	Columns []string
}

func (e *UnknownColumnsError) Error() string {
	return "unknown columns: " + strings.Join(e.Columns, ", ")
}

// Artifact is a rendered download.
type Artifact struct {
	FileName    string
	ContentType string
	Body        []byte
}

// Service loads files into sessions and renders sessions into artifacts.
// It holds no per-user state; callers keep the sessions.
type Service struct {
	limiter     *Limiter
	presets     presets.Store
	lift        *lift.Writer
	maxFileSize int64
	parse       sfm.ParseOptions
	now         func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLIFTWriter replaces the configured LIFT writer.
func WithLIFTWriter(w *lift.Writer) Option {
	return func(s *Service) { s.lift = w }
}

// NewService builds a service from configuration. A nil store keeps presets
// in memory.
func NewService(cfg *config.Config, store presets.Store, opts ...Option) *Service {
	if store == nil {
		store = presets.NewMemoryStore()
	}

	lw := lift.NewWriter()
	if cfg.LIFT.HeadwordLang != "" {
		lw.HeadwordLang = cfg.LIFT.HeadwordLang
	}
	if cfg.LIFT.GlossLang != "" {
		lw.GlossLang = cfg.LIFT.GlossLang
	}
	if cfg.LIFT.Producer != "" {
		lw.Producer = cfg.LIFT.Producer
	}

	s := &Service{
		limiter:     NewLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		presets:     store,
		lift:        lw,
		maxFileSize: cfg.Upload.MaxFileSize,
		parse: sfm.ParseOptions{
			Options: textio.Options{
				Encoding:     cfg.Convert.Encoding,
				NormalizeNFC: cfg.Convert.NormalizeNFC,
			},
			AllColumns: cfg.Convert.AllColumns,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Formats lists the available output formats.
func (s *Service) Formats() []FormatInfo {
	defs := All()
	infos := make([]FormatInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// IsSFM reports whether a file name is read as SFM rather than as a table.
func IsSFM(fileName string) bool {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".sfm", ".txt":
		return true
	}
	return false
}

// Load parses an uploaded file into a fresh session. size is the declared
// length, or -1 when unknown. On error no session is returned, so the
// caller's previous session stays in place.
func (s *Service) Load(ctx context.Context, fileName string, r io.Reader, size int64) (lexicon.Session, error) {
	if fileName == "" || r == nil {
		return lexicon.Session{}, ErrNoFile
	}
	// A zero-byte CSV or SFM file is an empty dataset. A workbook cannot be.
	if size == 0 && tabular.KindOf(fileName) == tabular.KindWorkbook {
		return lexicon.Session{}, fmt.Errorf("load %s: %w", fileName, ErrEmptyFile)
	}
	if s.maxFileSize > 0 {
		if size > s.maxFileSize {
			return lexicon.Session{}, fmt.Errorf("load %s: %w: %d bytes exceeds %d",
				fileName, textio.ErrTooLarge, size, s.maxFileSize)
		}
		r = textio.LimitReader(r, s.maxFileSize)
	}

	log := logging.WithFields(ctx, "file", fileName)
	start := s.now()

	var ds lexicon.Dataset
	err := s.limiter.Do(ctx, func() error {
		var err error
		switch {
		case IsSFM(fileName):
			ds, err = sfm.Parse(r, s.parse)
		case tabular.KindOf(fileName) != tabular.KindUnknown:
			ds, err = tabular.Read(fileName, r, tabular.ReadOptions{Options: s.parse.Options})
		default:
			err = tabular.ErrUnsupported
		}
		return err
	})
	if err != nil {
		log.Warn("load failed", "error", err)
		return lexicon.Session{}, fmt.Errorf("load %s: %w", fileName, err)
	}

	sess := lexicon.NewSession(fileName, ds, s.now())
	if IsSFM(fileName) {
		sess = mapMarkers(sess)
	}

	log.Info("file loaded",
		"rows", ds.Len(),
		"columns", len(ds.Columns),
		"duration", s.now().Sub(start),
	)
	return sess, nil
}

// mapMarkers sizes an SFM session to its gloss count and maps every marker
// present to its own field, so SFM input converts without manual mapping.
func mapMarkers(sess lexicon.Session) lexicon.Session {
	ds := sess.Dataset
	sess = sess.WithLanguages(ds.GlossCount() + 1)

	m := sess.Mapping
	if ds.HasColumn(lexicon.HeadwordKey) {
		m = m.WithHeadword(lexicon.HeadwordKey)
	}
	for i := 1; i < m.Languages(); i++ {
		m = m.SetGloss(i, lexicon.GlossColumn(i))
	}
	for _, f := range lexicon.SingleFields {
		if ds.HasColumn(f.Marker()) {
			m, _ = m.WithColumn(f, f.Marker())
		}
	}
	return sess.WithMapping(m)
}

// CheckMapping returns an *UnknownColumnsError when the mapping selects
// columns the session's data does not have.
func (s *Service) CheckMapping(sess lexicon.Session) error {
	if missing := sess.Mapping.Unknown(sess.Dataset.Columns); len(missing) > 0 {
		return &UnknownColumnsError{Columns: missing}
	}
	return nil
}

// Preview returns the SFM rendering of the session.
func (s *Service) Preview(sess lexicon.Session) string {
	return sfm.Render(sess.Dataset.Rows, sess.Mapping)
}

// Convert renders the session in the format named by key. baseName is the
// user's custom output name and may be empty.
func (s *Service) Convert(ctx context.Context, sess lexicon.Session, key, baseName string) (Artifact, error) {
	def, ok := Get(key)
	if !ok {
		return Artifact{}, fmt.Errorf("convert: %w: %q", ErrUnsupportedFormat, key)
	}
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}

	base := sess.BaseName(baseName)
	var buf bytes.Buffer
	if err := def.Render(&buf, Job{Session: sess, BaseName: base, LIFT: s.lift}); err != nil {
		return Artifact{}, fmt.Errorf("convert %s: %w", key, err)
	}

	logging.WithFields(ctx, "format", key, "source", sess.Source).
		Info("converted", "rows", sess.Dataset.Len(), "bytes", buf.Len())

	return Artifact{
		FileName:    def.OutputName(base),
		ContentType: def.Info.ContentType,
		Body:        buf.Bytes(),
	}, nil
}

// LimiterStatus reports parse slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForParses blocks until in-flight parses finish or ctx ends.
func (s *Service) WaitForParses(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Close releases the preset store.
func (s *Service) Close() error {
	return s.presets.Close()
}
