// Package dashboard serves the distributor report pages, their CSV/PDF
// exports and a JSON API over HTTP.
package dashboard

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	nethttp "net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/distrohub/mediadesk/internal/logging"
	"github.com/distrohub/mediadesk/internal/metrics"
	"github.com/distrohub/mediadesk/internal/reports"
	"github.com/distrohub/mediadesk/internal/session"
	"github.com/distrohub/mediadesk/internal/version"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	readHeaderTimeout = 10 * time.Second
	writeTimeout      = 2 * time.Minute
	shutdownTimeout   = 10 * time.Second
)

// Options configure a Server.
type Options struct {
	Addr        string
	CORSOrigins []string
	Logger      *logging.Logger

	// Now is used for export file names; defaults to time.Now.
	Now func() time.Time
}

// Server is the report dashboard.
type Server struct {
	svc    *reports.Service
	sess   *session.Session
	opts   Options
	logger *logging.Logger
	tmpl   *template.Template
	router *mux.Router
}

// New builds the router. Reports are loaded as sess.
func New(svc *reports.Service, sess *session.Session, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		svc:    svc,
		sess:   sess,
		opts:   opts,
		logger: opts.Logger.Component("dashboard"),
		tmpl:   tmpl,
		router: mux.NewRouter(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router
	r.Use(metrics.Middleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods(nethttp.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(nethttp.MethodGet)
	r.Handle("/", nethttp.RedirectHandler("/reports/commitments", nethttp.StatusFound)).Methods(nethttp.MethodGet)

	pages := r.PathPrefix("/reports").Subrouter()
	pages.HandleFunc("/commitments", s.handleCommitmentsPage).Methods(nethttp.MethodGet)
	pages.HandleFunc("/commitments/export.{format}", s.handleCommitmentsExport).Methods(nethttp.MethodGet)
	pages.HandleFunc("/members/{id}", s.handleMemberPage).Methods(nethttp.MethodGet)
	pages.HandleFunc("/members/{id}/export.{format}", s.handleMemberExport).Methods(nethttp.MethodGet)

	api := r.PathPrefix("/api/reports").Subrouter()
	api.HandleFunc("/commitments", s.handleCommitmentsJSON).Methods(nethttp.MethodGet)
	api.HandleFunc("/members/{id}", s.handleMemberJSON).Methods(nethttp.MethodGet)

	r.NotFoundHandler = nethttp.HandlerFunc(func(w nethttp.ResponseWriter, req *nethttp.Request) {
		s.renderError(w, nethttp.StatusNotFound, errors.New("page not found"))
	})
}

// Handler returns the router wrapped in CORS, access logging and panic
// recovery.
func (s *Server) Handler() nethttp.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.opts.CORSOrigins,
		AllowedMethods: []string{nethttp.MethodGet, nethttp.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
	})
	var h nethttp.Handler = c.Handler(s.router)
	h = handlers.CombinedLoggingHandler(s.logger.Zerolog(), h)
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{s.logger}),
		handlers.PrintRecoveryStack(false),
	)(h)
	return h
}

type recoveryLogger struct{ l *logging.Logger }

func (r recoveryLogger) Println(v ...interface{}) {
	r.l.Error().Msg(fmt.Sprint(v...))
}

// ListenAndServe serves until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &nethttp.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.opts.Addr).Str("version", version.Version).Msg("dashboard listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, nethttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info().Msg("dashboard shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("dashboard shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleHealth(w nethttp.ResponseWriter, r *nethttp.Request) {
	writeJSON(w, nethttp.StatusOK, map[string]string{"status": "ok", "version": version.Version})
}

func writeJSON(w nethttp.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
