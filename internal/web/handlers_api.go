package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/lexconv/internal/core"
	"github.com/JonMunkholm/lexconv/internal/lexicon"
	"github.com/JonMunkholm/lexconv/internal/presets"
)

// SessionResponse describes the caller's loaded file.
type SessionResponse struct {
	Source    string               `json:"source"`
	Rows      int                  `json:"rows"`
	Columns   []string             `json:"columns"`
	Languages int                  `json:"languages"`
	SFM       bool                 `json:"sfm"`
	Mapping   lexicon.FieldMapping `json:"mapping"`
	Labels    lexicon.ExportLabels `json:"labels"`
	Unknown   []string             `json:"unknown_columns,omitempty"`
	LoadedAt  time.Time            `json:"loaded_at"`
}

func sessionResponse(sess lexicon.Session) SessionResponse {
	return SessionResponse{
		Source:    sess.Source,
		Rows:      sess.Dataset.Len(),
		Columns:   sess.Dataset.Columns,
		Languages: sess.Languages(),
		SFM:       core.IsSFM(sess.Source),
		Mapping:   sess.Mapping,
		Labels:    sess.Labels,
		Unknown:   sess.Mapping.Unknown(sess.Dataset.Columns),
		LoadedAt:  sess.LoadedAt,
	}
}

func (s *Server) handleAPISession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.current(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse(sess))
}

func (s *Server) handleAPIFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Formats())
}

// handleAPIConvert converts in one request. A multipart "file" is loaded
// into a throwaway session; without one the cookie session is used.
// Optional "mapping" and "labels" fields carry JSON that replaces the
// session's own. The output name comes from "name".
func (s *Server) handleAPIConvert(w http.ResponseWriter, r *http.Request) {
	var sess lexicon.Session
	var err error

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		sess, err = s.readUpload(w, r)
		if errors.Is(err, core.ErrNoFile) {
			sess, err = s.current(r)
		}
	} else {
		sess, err = s.current(r)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if raw := r.FormValue("mapping"); raw != "" {
		var m lexicon.FieldMapping
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			s.badRequest(w, r, "mapping", err)
			return
		}
		m = m.Normalize()
		sess = sess.WithLanguages(m.Languages()).WithMapping(m)
	}
	if raw := r.FormValue("labels"); raw != "" {
		var l lexicon.ExportLabels
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			s.badRequest(w, r, "labels", err)
			return
		}
		sess = sess.WithLabels(l)
	}

	s.sendArtifact(w, r, sess, chi.URLParam(r, "format"), r.FormValue("name"))
}

// badRequest reports a malformed request field.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, field string, err error) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error:   fmt.Sprintf("invalid %s: %v", field, err),
		Message: "The request is malformed",
		Action:  fmt.Sprintf("Send %q as valid JSON", field),
		Code:    "REQ001",
	})
}

func (s *Server) handleAPIListPresets(w http.ResponseWriter, r *http.Request) {
	all, err := s.service.ListPresets(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if all == nil {
		all = []presets.Preset{}
	}
	writeJSON(w, http.StatusOK, all)
}

// savePresetRequest is the body of POST /api/presets.
type savePresetRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAPISavePreset(w http.ResponseWriter, r *http.Request) {
	var req savePresetRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		s.badRequest(w, r, "body", err)
		return
	}
	sess, err := s.current(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	p, err := s.service.SavePreset(r.Context(), req.Name, sess)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleAPIMatchPresets(w http.ResponseWriter, r *http.Request) {
	var columns []string
	if q := r.URL.Query()["column"]; len(q) > 0 {
		columns = q
	} else {
		sess, err := s.current(r)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		columns = sess.Dataset.Columns
	}

	matches, err := s.service.MatchPresets(r.Context(), columns)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if matches == nil {
		matches = []presets.Match{}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) handleAPIGetPreset(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.GetPreset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleAPIUpdatePreset stores the current session's mapping in an existing
// preset. The body may carry a new name.
func (s *Server) handleAPIUpdatePreset(w http.ResponseWriter, r *http.Request) {
	var req savePresetRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			s.badRequest(w, r, "body", err)
			return
		}
	}
	sess, err := s.current(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	p, err := s.service.UpdatePreset(r.Context(), chi.URLParam(r, "id"), req.Name, sess)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAPIDeletePreset(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeletePreset(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPIApplyPreset(w http.ResponseWriter, r *http.Request) {
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
	writeJSON(w, http.StatusOK, sessionResponse(sess))
}
