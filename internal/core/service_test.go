package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/lexconv/internal/config"
	"github.com/JonMunkholm/lexconv/internal/lexicon"
	"github.com/JonMunkholm/lexconv/internal/lift"
	"github.com/JonMunkholm/lexconv/internal/presets"
	"github.com/JonMunkholm/lexconv/internal/tabular"
	"github.com/JonMunkholm/lexconv/internal/textio"
)

var testNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{MaxFileSize: 1 << 20, MaxConcurrent: 2, MaxWaitTime: time.Second},
		LIFT:   config.LIFTConfig{HeadwordLang: "ms", GlossLang: "en", Producer: "test"},
	}
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	lw := lift.NewWriter()
	lw.Now = func() time.Time { return testNow }
	lw.HeadwordLang = "ms"
	lw.NewID = func() uuid.UUID { return uuid.NewSHA1(uuid.NameSpaceURL, []byte("fixed")) }
	return NewService(testConfig(), nil, WithClock(func() time.Time { return testNow }), WithLIFTWriter(lw))
}

const wordList = "Word,English,French,POS\nkucing,cat,chat,n\nmakan,eat,manger,v\n"

func loadCSV(t *testing.T, s *Service) lexicon.Session {
	t.Helper()
	sess, err := s.Load(context.Background(), "words.csv", strings.NewReader(wordList), int64(len(wordList)))
	require.NoError(t, err)
	return sess
}

func mapped(sess lexicon.Session) lexicon.Session {
	sess = sess.WithLanguages(3)
	m := sess.Mapping.WithHeadword("Word").SetGloss(1, "English").SetGloss(2, "French")
	m, _ = m.WithColumn(lexicon.FieldPartOfSpeech, "POS")
	return sess.WithMapping(m)
}

func TestLoad_CSV(t *testing.T) {
	s := newTestService(t)
	sess := loadCSV(t, s)

	assert.Equal(t, "words.csv", sess.Source)
	assert.Equal(t, []string{"Word", "English", "French", "POS"}, sess.Dataset.Columns)
	assert.Equal(t, 2, sess.Dataset.Len())
	assert.Equal(t, 1, sess.Languages(), "fresh sessions start with one language")
	assert.Equal(t, testNow, sess.LoadedAt)
}

func TestLoad_SFMMapsMarkers(t *testing.T) {
	s := newTestService(t)
	text := "\\lx kucing\n\\ge cat\n\\ge chat\n\\ps n\n\n\\lx makan\n\\ge eat\n\\ge manger\n\\ps v\n"

	sess, err := s.Load(context.Background(), "dict.sfm", strings.NewReader(text), -1)
	require.NoError(t, err)

	assert.Equal(t, 3, sess.Languages())
	assert.Equal(t, lexicon.DefaultExportLabels(3), sess.Labels)
	assert.Equal(t, "lx", sess.Mapping.Headword)
	assert.Equal(t, []string{"ge1", "ge2"}, sess.Mapping.Glosses)
	assert.Equal(t, "ps", sess.Mapping.PartOfSpeech)
	assert.Empty(t, sess.Mapping.Definition)

	assert.Equal(t, text, s.Preview(sess), "SFM survives a load and re-render")
}

func TestLoad_Errors(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		file string
		body string
		size int64
		want error
	}{
		{"no name", "", "x", 1, ErrNoFile},
		{"empty workbook", "words.xlsx", "", 0, ErrEmptyFile},
		{"declared too large", "words.csv", "x", 2 << 20, textio.ErrTooLarge},
		{"streamed too large", "words.csv", "A\n" + strings.Repeat("x", 2<<20), -1, textio.ErrTooLarge},
		{"unsupported", "notes.pdf", "%PDF", 4, tabular.ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Load(ctx, tt.file, strings.NewReader(tt.body), tt.size)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	_, err := s.Load(ctx, "bad.xlsx", strings.NewReader("not a zip"), 9)
	require.Error(t, err)
	assert.Equal(t, "FILE007", MapError(err).Code)
}

func TestLoad_Busy(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxConcurrent = 1
	cfg.Upload.MaxWaitTime = 20 * time.Millisecond
	s := NewService(cfg, nil)

	require.True(t, s.limiter.TryAcquire())
	defer s.limiter.Release()

	_, err := s.Load(context.Background(), "words.csv", strings.NewReader(wordList), -1)
	require.ErrorIs(t, err, ErrTooManyUploads)
}

func TestLoad_EmptyDatasetIsValid(t *testing.T) {
	s := newTestService(t)
	sess, err := s.Load(context.Background(), "blank.csv", strings.NewReader("Word,Gloss\n"), -1)
	require.NoError(t, err)
	assert.False(t, sess.Ready())
	assert.Empty(t, sess.Dataset.Columns)
}

func TestLoad_ZeroByteTextFiles(t *testing.T) {
	s := newTestService(t)
	for _, name := range []string{"w.csv", "w.sfm"} {
		for _, size := range []int64{0, -1} {
			sess, err := s.Load(context.Background(), name, strings.NewReader(""), size)
			require.NoError(t, err, "%s size %d", name, size)
			assert.True(t, sess.Dataset.Empty())
			assert.Empty(t, sess.Dataset.Columns)
			assert.Equal(t, name, sess.Source)
		}
	}
}

func TestConvert_SFM(t *testing.T) {
	s := newTestService(t)
	sess := mapped(loadCSV(t, s))

	art, err := s.Convert(context.Background(), sess, FormatSFM, "")
	require.NoError(t, err)

	assert.Equal(t, "words.sfm", art.FileName)
	assert.Equal(t, "text/plain; charset=utf-8", art.ContentType)
	want := "\\lx kucing\n\\ge cat\n\\ge chat\n\\ps n\n\n\\lx makan\n\\ge eat\n\\ge manger\n\\ps v\n"
	assert.Equal(t, want, string(art.Body))
	assert.Equal(t, want, s.Preview(sess))
}

func TestConvert_CustomName(t *testing.T) {
	s := newTestService(t)
	sess := mapped(loadCSV(t, s))

	art, err := s.Convert(context.Background(), sess, FormatSFM, "  my dictionary ")
	require.NoError(t, err)
	assert.Equal(t, "my dictionary.sfm", art.FileName)
}

func TestConvert_LIFTPackage(t *testing.T) {
	s := newTestService(t)
	sess := mapped(loadCSV(t, s))

	art, err := s.Convert(context.Background(), sess, FormatLIFT, "kamus")
	require.NoError(t, err)
	assert.Equal(t, "kamus_LIFT_Package.zip", art.FileName)
	assert.Equal(t, "application/zip", art.ContentType)

	zr, err := zip.NewReader(bytes.NewReader(art.Body), int64(len(art.Body)))
	require.NoError(t, err)

	var names []string
	var doc string
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Name == "kamus.lift" {
			rc, err := f.Open()
			require.NoError(t, err)
			b, err := io.ReadAll(rc)
			require.NoError(t, err)
			rc.Close()
			doc = string(b)
		}
	}
	assert.ElementsMatch(t, []string{"kamus.lift", "kamus.lift-ranges", "pictures/", "audio/"}, names)
	assert.Contains(t, doc, `producer="lexconv"`)
	assert.Contains(t, doc, `<form lang="ms">`)
	assert.Contains(t, doc, "2024-05-01T09:00:00Z")
	assert.Equal(t, 2, strings.Count(doc, "<entry "))
}

func TestConvert_LIFTPackageNameStaysInArchive(t *testing.T) {
	s := newTestService(t)
	sess := mapped(loadCSV(t, s))

	art, err := s.Convert(context.Background(), sess, FormatLIFT, "../../evil")
	require.NoError(t, err)
	assert.Equal(t, "evil_LIFT_Package.zip", art.FileName)

	zr, err := zip.NewReader(bytes.NewReader(art.Body), int64(len(art.Body)))
	require.NoError(t, err)
	for _, f := range zr.File {
		assert.NotContains(t, f.Name, "..", "entry %q", f.Name)
	}
	assert.Equal(t, "evil.lift", zr.File[0].Name)
}

func TestConvert_Workbook(t *testing.T) {
	s := newTestService(t)
	text := "\\lx kucing\n\\ge cat\n"
	sess, err := s.Load(context.Background(), "dict.sfm", strings.NewReader(text), -1)
	require.NoError(t, err)
	sess = sess.WithLabels(lexicon.ExportLabels{Headword: "Malay", Glosses: []string{"English"}})

	art, err := s.Convert(context.Background(), sess, FormatXLSX, "")
	require.NoError(t, err)
	assert.Equal(t, "dict.xlsx", art.FileName)

	f, err := excelize.OpenReader(bytes.NewReader(art.Body))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(tabular.SheetName)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Malay", "English"}, {"kucing", "cat"}}, rows)
}

func TestConvert_CSV(t *testing.T) {
	s := newTestService(t)
	sess, err := s.Load(context.Background(), "dict.sfm", strings.NewReader("\\lx a\n\\ge b\n"), -1)
	require.NoError(t, err)

	art, err := s.Convert(context.Background(), sess, FormatCSV, "")
	require.NoError(t, err)
	assert.Equal(t, "lx,ge1\na,b\n", string(art.Body))
}

func TestConvert_CSVKeepsLaterEntryMarkers(t *testing.T) {
	s := newTestService(t)
	text := "\\lx a\n\\ge x\n\n\\lx b\n\\ge y\n\\ge z\n\\ps n\n"
	sess, err := s.Load(context.Background(), "w.sfm", strings.NewReader(text), -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"lx", "ge1"}, sess.Dataset.Columns)

	art, err := s.Convert(context.Background(), sess, FormatCSV, "")
	require.NoError(t, err)
	assert.Equal(t, "lx,ge1,ps,ge2\na,x,,\nb,y,n,z\n", string(art.Body))
}

func TestConvert_UnknownFormat(t *testing.T) {
	s := newTestService(t)
	_, err := s.Convert(context.Background(), lexicon.Session{}, "pdf", "")
	require.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, "FMT001", MapError(err).Code)
}

func TestCheckMapping(t *testing.T) {
	s := newTestService(t)
	sess := mapped(loadCSV(t, s))
	require.NoError(t, s.CheckMapping(sess))

	m, _ := sess.Mapping.WithColumn(lexicon.FieldDefinition, "Meaning")
	err := s.CheckMapping(sess.WithMapping(m))

	var unknown *UnknownColumnsError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []string{"Meaning"}, unknown.Columns)
}

func TestPresets(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	sess := mapped(loadCSV(t, s))

	p, err := s.SavePreset(ctx, "Malay wordlist", sess)
	require.NoError(t, err)
	assert.Equal(t, sess.Dataset.Columns, p.Columns)

	_, err = s.SavePreset(ctx, "Malay wordlist", sess)
	require.ErrorIs(t, err, presets.ErrExists)

	matches, err := s.MatchPresets(ctx, []string{"Word", "English", "French", "POS", "Notes"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, p.ID, matches[0].Preset.ID)

	fresh := loadCSV(t, s)
	applied, missing, err := s.ApplyPreset(ctx, fresh, p.ID)
	require.NoError(t, err)
	assert.Empty(t, missing)
	assert.Equal(t, sess.Mapping, applied.Mapping)
	assert.Equal(t, 3, applied.Languages())

	narrowed := applied.WithLanguages(2)
	narrowed = narrowed.WithMapping(narrowed.Mapping.SetGloss(1, "French"))
	updated, err := s.UpdatePreset(ctx, p.ID, "", narrowed)
	require.NoError(t, err)
	assert.Equal(t, "Malay wordlist", updated.Name)
	assert.Equal(t, []string{"French"}, updated.Mapping.Glosses)

	_, err = s.UpdatePreset(ctx, "missing", "x", narrowed)
	require.ErrorIs(t, err, presets.ErrNotFound)

	require.NoError(t, s.DeletePreset(ctx, p.ID))
	_, err = s.GetPreset(ctx, p.ID)
	require.ErrorIs(t, err, presets.ErrNotFound)
}

func TestFormats(t *testing.T) {
	s := newTestService(t)
	var keys []string
	for _, f := range s.Formats() {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{FormatSFM, FormatLIFT, FormatXLSX, FormatCSV}, keys)
}
