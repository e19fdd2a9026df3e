package web

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/lexconv/internal/core"
	"github.com/JonMunkholm/lexconv/internal/lexicon"
	"github.com/JonMunkholm/lexconv/internal/logging"
	"github.com/JonMunkholm/lexconv/internal/web/views"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to a temp file.
const multipartMemory = 32 << 20

// maxLanguages bounds the language count accepted from forms.
const maxLanguages = 20

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render page", "error", err)
	}
}

func (s *Server) uploadData(r *http.Request) views.UploadData {
	d := views.UploadData{MaxSize: s.cfg.Upload.MaxFileSize}
	if sess, err := s.current(r); err == nil {
		d.Source = sess.Source
		d.Rows = sess.Dataset.Len()
		d.Columns = sess.Dataset.Columns
	}
	return d
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, views.Upload(s.uploadData(r)))
}

// readUpload loads the multipart "file" field into a new session.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (lexicon.Session, error) {
	if s.cfg.Upload.MaxFileSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Upload.MaxFileSize+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return lexicon.Session{}, err
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return lexicon.Session{}, core.ErrNoFile
		}
		return lexicon.Session{}, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return lexicon.Session{}, core.ErrNoFile
		}
		return lexicon.Session{}, err
	}
	defer file.Close()

	return s.service.Load(r.Context(), header.Filename, file, header.Size)
}

// handleUpload replaces the session with the uploaded file. A failed upload
// leaves the previous session untouched.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess, err := s.readUpload(w, r)
	if err != nil {
		msg := userMessage(err)
		logging.FromContext(r.Context()).Warn("upload rejected", "code", msg.Code, "error", err)
		d := s.uploadData(r)
		d.Error = &msg
		s.render(w, r, statusFor(err), views.Upload(d))
		return
	}

	if err := s.store(w, r, sess); err != nil {
		s.respondError(w, r, err)
		return
	}
	http.Redirect(w, r, "/mapping", http.StatusSeeOther)
}

func (s *Server) mappingData(r *http.Request, sess lexicon.Session) views.MappingData {
	d := views.MappingData{
		Session: sess,
		SFM:     core.IsSFM(sess.Source),
		Formats: s.service.Formats(),
	}
	var unknown *core.UnknownColumnsError
	if errors.As(s.service.CheckMapping(sess), &unknown) {
		d.Warnings = append(d.Warnings, core.FormatUserError(unknown)+" Missing: "+strings.Join(unknown.Columns, ", "))
	}

	log := logging.FromContext(r.Context())
	if all, err := s.service.ListPresets(r.Context()); err != nil {
		log.Warn("list presets", "error", err)
	} else {
		d.Presets = all
	}
	if matches, err := s.service.MatchPresets(r.Context(), sess.Dataset.Columns); err != nil {
		log.Warn("match presets", "error", err)
	} else {
		d.Matches = matches
	}
	return d
}

func (s *Server) handleMapping(w http.ResponseWriter, r *http.Request) {
	sess, err := s.current(r)
	if err != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, views.Mapping(s.mappingData(r, sess)))
}

func (s *Server) handleMappingUpdate(w http.ResponseWriter, r *http.Request) {
	sess, err := s.current(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.respondError(w, r, err)
		return
	}

	sess = applyMappingForm(sess, r)
	if err := s.store(w, r, sess); err != nil {
		s.respondError(w, r, err)
		return
	}
	http.Redirect(w, r, "/mapping", http.StatusSeeOther)
}

// applyMappingForm updates sess from the mapping form. A changed language
// count resizes the mapping and ignores the submitted gloss selections,
// which belonged to the old size.
func applyMappingForm(sess lexicon.Session, r *http.Request) lexicon.Session {
	n, err := strconv.Atoi(r.PostFormValue("languages"))
	if err != nil || n < 1 {
		n = sess.Languages()
	}
	if n > maxLanguages {
		n = maxLanguages
	}

	resized := n != sess.Languages()
	if resized {
		sess = sess.WithLanguages(n)
	}

	m := sess.Mapping.WithHeadword(r.PostFormValue("headword"))
	if !resized {
		for i := 1; i < n; i++ {
			m = m.SetGloss(i, r.PostFormValue("gloss"+strconv.Itoa(i+1)))
		}
	}
	for _, f := range lexicon.SingleFields {
		m, _ = m.WithColumn(f, r.PostFormValue(string(f)))
	}
	sess = sess.WithMapping(m)

	if _, ok := r.PostForm["label_headword"]; ok && !resized {
		labels := lexicon.ExportLabels{
			Headword: strings.TrimSpace(r.PostFormValue("label_headword")),
			Glosses:  make([]string, len(sess.Labels.Glosses)),
		}
		for i := range labels.Glosses {
			labels.Glosses[i] = strings.TrimSpace(r.PostFormValue("label_gloss" + strconv.Itoa(i+1)))
		}
		sess = sess.WithLabels(labels)
	}
	return sess
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, err := s.current(r)
	if err != nil {
		s.render(w, r, http.StatusOK, views.Preview("", ""))
		return
	}
	s.render(w, r, http.StatusOK, views.Preview(sess.Source, s.service.Preview(sess)))
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	sess, err := s.current(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.sendArtifact(w, r, sess, chi.URLParam(r, "format"), r.URL.Query().Get("name"))
}

func (s *Server) sendArtifact(w http.ResponseWriter, r *http.Request, sess lexicon.Session, format, name string) {
	art, err := s.service.Convert(r.Context(), sess, format, name)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", art.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": art.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(art.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(art.Body); err != nil {
		logging.FromContext(r.Context()).Warn("write download", "error", err)
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.discard(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.current(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := s.service.SavePreset(r.Context(), r.PostFormValue("preset_name"), sess); err != nil {
		msg := userMessage(err)
		d := s.mappingData(r, sess)
		d.Error = &msg
		s.render(w, r, statusFor(err), views.Mapping(d))
		return
	}
	http.Redirect(w, r, "/mapping", http.StatusSeeOther)
}

func (s *Server) handleApplyPreset(w http.ResponseWriter, r *http.Request) {
	sess, err := s.current(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	sess, _, err = s.service.ApplyPreset(r.Context(), sess, chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.store(w, r, sess); err != nil {
		s.respondError(w, r, err)
		return
	}
	http.Redirect(w, r, "/mapping", http.StatusSeeOther)
}

func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, views.Help(s.help))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
		"parses":   s.service.LimiterStatus(),
	})
}
