// Package web provides the HTTP server and handlers for the lexconv UI.
package web

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/lexconv/internal/config"
	"github.com/JonMunkholm/lexconv/internal/core"
	"github.com/JonMunkholm/lexconv/internal/lexicon"
	"github.com/JonMunkholm/lexconv/internal/logging"
	"github.com/JonMunkholm/lexconv/internal/web/middleware"
)

// sessionKey is the cookie value holding the server-side session id.
const sessionKey = "sid"

// Server is the HTTP server for the conversion UI.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	sessions *SessionStore
	cookies  *sessions.CookieStore
	limiter  *middleware.RateLimiter
	uploads  *middleware.RateLimiter
	help     string
	router   *chi.Mux
}

// NewServer creates a Server. An empty session secret is replaced with a
// random key, which invalidates cookies on restart.
func NewServer(service *core.Service, cfg *config.Config) (*Server, error) {
	secret := []byte(cfg.Session.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		slog.Warn("SESSION_SECRET not set, using a random key")
	}

	cookies := sessions.NewCookieStore(secret)
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	help, err := renderHelp()
	if err != nil {
		return nil, err
	}

	s := &Server{
		service:  service,
		cfg:      cfg,
		sessions: NewSessionStore(cfg.Session.TTL),
		cookies:  cookies,
		limiter:  middleware.NewRateLimiter(cfg.Rate.RequestsPerMinute, time.Minute),
		uploads:  middleware.NewRateLimiter(cfg.Rate.UploadLimit, time.Minute),
		help:     help,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(s.sessionContext)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Compress(5))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(middleware.SecurityHeaders(s.cfg.Security.EnableCSP))
	if s.cfg.Rate.Enabled {
		s.router.Use(s.limiter.Handler)
	}
}

func (s *Server) setupRoutes() {
	uploadLimit := func(next http.Handler) http.Handler { return next }
	if s.cfg.Rate.Enabled && s.cfg.Rate.UploadLimit > 0 {
		uploadLimit = s.uploads.Handler
	}

	// Pages
	s.router.Get("/", s.handleIndex)
	s.router.With(uploadLimit).Post("/upload", s.handleUpload)
	s.router.Get("/mapping", s.handleMapping)
	s.router.Post("/mapping", s.handleMappingUpdate)
	s.router.Get("/preview", s.handlePreview)
	s.router.Get("/download/{format}", s.handleDownload)
	s.router.Post("/reset", s.handleReset)
	s.router.Post("/presets", s.handleSavePreset)
	s.router.Post("/presets/{id}/apply", s.handleApplyPreset)
	s.router.Get("/help", s.handleHelp)
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security.RequireAPIKey, s.cfg.Security.APIKeys))

		r.Get("/session", s.handleAPISession)
		r.With(uploadLimit).Post("/convert/{format}", s.handleAPIConvert)
		r.Get("/formats", s.handleAPIFormats)

		r.Get("/presets", s.handleAPIListPresets)
		r.Post("/presets", s.handleAPISavePreset)
		r.Get("/presets/match", s.handleAPIMatchPresets)
		r.Get("/presets/{id}", s.handleAPIGetPreset)
		r.Put("/presets/{id}", s.handleAPIUpdatePreset)
		r.Delete("/presets/{id}", s.handleAPIDeletePreset)
		r.Post("/presets/{id}/apply", s.handleAPIApplyPreset)
	})
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Serve listens on the configured address until ctx ends, then shuts down
// gracefully after in-flight parses drain.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return egctx },
	}

	eg.Go(func() error {
		s.sessions.Run(egctx)
		return nil
	})
	if s.cfg.Rate.Enabled {
		eg.Go(func() error {
			s.limiter.Run(egctx)
			return nil
		})
		eg.Go(func() error {
			s.uploads.Run(egctx)
			return nil
		})
	}

	eg.Go(func() error {
		slog.Info("server starting", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
		defer cancel()

		slog.Info("shutting down", "active_parses", s.service.LimiterStatus().Active)
		if err := s.service.WaitForParses(shutdownCtx); err != nil {
			slog.Warn("parses did not finish in time", "error", err)
		}
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// sessionContext tags the request context with the session id for logging.
func (s *Server) sessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := s.sessionID(r); id != "" {
			r = r.WithContext(logging.ContextWithSession(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// sessionID returns the id from the cookie, or "".
func (s *Server) sessionID(r *http.Request) string {
	cs, err := s.cookies.Get(r, s.cfg.Session.CookieName)
	if err != nil {
		return ""
	}
	id, _ := cs.Values[sessionKey].(string)
	return id
}

// current returns the caller's conversion session.
func (s *Server) current(r *http.Request) (lexicon.Session, error) {
	id := s.sessionID(r)
	if id == "" {
		return lexicon.Session{}, core.ErrNoSession
	}
	sess, ok := s.sessions.Get(id)
	if !ok {
		return lexicon.Session{}, core.ErrNoSession
	}
	return sess, nil
}

// store saves sess for the caller, issuing a cookie on first use.
func (s *Server) store(w http.ResponseWriter, r *http.Request, sess lexicon.Session) error {
	// A cookie that fails to decode yields a fresh session; that is fine here.
	cs, _ := s.cookies.Get(r, s.cfg.Session.CookieName)
	id, _ := cs.Values[sessionKey].(string)
	if id == "" {
		id = uuid.NewString()
		cs.Values[sessionKey] = id
		if err := cs.Save(r, w); err != nil {
			return fmt.Errorf("save session cookie: %w", err)
		}
	}
	s.sessions.Put(id, sess)
	return nil
}

// discard drops the caller's session and expires the cookie.
func (s *Server) discard(w http.ResponseWriter, r *http.Request) {
	cs, _ := s.cookies.Get(r, s.cfg.Session.CookieName)
	if id, _ := cs.Values[sessionKey].(string); id != "" {
		s.sessions.Delete(id)
	}
	cs.Options.MaxAge = -1
	if err := cs.Save(r, w); err != nil {
		logging.FromContext(r.Context()).Warn("expire session cookie", "error", err)
	}
}
