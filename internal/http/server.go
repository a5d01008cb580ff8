package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"gofinances/internal/dashboard"
	"gofinances/internal/format"
	applog "gofinances/internal/log"
	"gofinances/internal/middleware/ratelimit"
	"gofinances/internal/middleware/security"
	"gofinances/internal/middleware/trace"
	appweb "gofinances/web"
)

// Config holds what the dashboard server needs besides its fetcher.
type Config struct {
	Addr               string
	ImportURL          string
	RateLimitPerMinute int
	Formatter          *format.Formatter
	Logger             *applog.Logger
	// Templates overrides the embedded templates; used by tests.
	Templates fs.FS
}

// Server serves the dashboard page, its partial and the JSON view model.
type Server struct {
	http.Server
	templates *template.Template
	fetcher   dashboard.Fetcher
	formatter *format.Formatter
	importURL string
	logger    *applog.Logger
	views     *viewRegistry

	securityDetector *security.Detector
	rateLimiter      *ratelimit.Limiter
	traceMiddleware  *trace.Middleware

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime        time.Time
	fetchLoaded   int64
	fetchEmpty    int64
	fetchFailed   int64
	fetchAbandons int64
}

func (m *appMetrics) record(status dashboard.Status) {
	switch status {
	case dashboard.StatusLoaded:
		atomic.AddInt64(&m.fetchLoaded, 1)
	case dashboard.StatusEmpty:
		atomic.AddInt64(&m.fetchEmpty, 1)
	case dashboard.StatusError:
		atomic.AddInt64(&m.fetchFailed, 1)
	}
}

// NewServer configures routes, middleware and templates. A template parse
// failure is logged and reported by /readyz rather than returned.
func NewServer(cfg Config, fetcher dashboard.Fetcher) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = applog.Default(applog.ComponentHTTP)
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	formatter := cfg.Formatter
	if formatter == nil {
		formatter = format.New(format.BRL())
	}
	importURL := cfg.ImportURL
	if importURL == "" {
		importURL = dashboard.DefaultImportURL
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              cfg.Addr,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		fetcher:          fetcher,
		formatter:        formatter,
		importURL:        importURL,
		logger:           logger,
		views:            newViewRegistry(defaultViewTTL),
		securityDetector: security.NewDetector(),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger.WithComponent(applog.ComponentTrace))

	templatesFS := cfg.Templates
	if templatesFS == nil {
		templatesFS = appweb.TemplatesFS
	}
	t, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		logger.Error("Failed parsing templates",
			applog.FieldError, err,
			applog.FieldComponent, applog.ComponentTemplate)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	limited := func(h http.HandlerFunc) http.Handler {
		return s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited)(security.NoStore(h))
	}
	mux.Handle("/", limited(s.handleIndex))
	mux.Handle("/ui/dashboard", limited(s.handleDashboardPartial))
	mux.Handle("/api/dashboard", limited(s.handleDashboardJSON))

	var handler http.Handler = mux
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = applog.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = applog.Middleware(logger)(handler)
	handler = s.traceMiddleware.Middleware(handler)
	s.Handler = handler

	return s
}

// Ready reports whether templates were parsed.
func (s *Server) Ready() bool {
	return s.templates != nil
}

// Shutdown stops the rate limiter, drops retained views and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		s.views.closeAll()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
