package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"gofinances/internal/dashboard"
	applog "gofinances/internal/log"
)

const (
	rateLimitedMessage   = "Muitas requisições. Tente novamente em instantes."
	errorKindRateLimited = "rate_limited"
)

var errTemplatesNotLoaded = errors.New("templates not loaded")

const fallbackFragment = `<section id="dashboard" class="dashboard"><div class="placeholder">Não foi possível exibir o painel.</div></section>`

// pageData is the root template context.
type pageData struct {
	Model dashboard.ViewModel
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady reports 503 until the server can render the dashboard.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	if s.fetcher == nil {
		checks["fetcher"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["fetcher"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.GetMetrics().ClientCount,
		"status":         "ok",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "# HELP http_requests_total Total number of HTTP requests\n")
	fmt.Fprintf(w, "# TYPE http_requests_total counter\n")
	fmt.Fprintf(w, "http_requests_total %d\n\n", traceMetrics.TotalRequests)

	fmt.Fprintf(w, "# HELP dashboard_fetch_total Dashboard activations by outcome\n")
	fmt.Fprintf(w, "# TYPE dashboard_fetch_total counter\n")
	fmt.Fprintf(w, "dashboard_fetch_total{status=\"loaded\"} %d\n", atomic.LoadInt64(&s.appMetrics.fetchLoaded))
	fmt.Fprintf(w, "dashboard_fetch_total{status=\"empty\"} %d\n", atomic.LoadInt64(&s.appMetrics.fetchEmpty))
	fmt.Fprintf(w, "dashboard_fetch_total{status=\"error\"} %d\n", atomic.LoadInt64(&s.appMetrics.fetchFailed))
	fmt.Fprintf(w, "dashboard_fetch_total{status=\"abandoned\"} %d\n\n", atomic.LoadInt64(&s.appMetrics.fetchAbandons))

	fmt.Fprintf(w, "# HELP dashboard_retained_views Failed views kept for retry\n")
	fmt.Fprintf(w, "# TYPE dashboard_retained_views gauge\n")
	fmt.Fprintf(w, "dashboard_retained_views %d\n\n", s.views.len())

	fmt.Fprintf(w, "# HELP rate_limit_hits_total Total rate limit hits\n")
	fmt.Fprintf(w, "# TYPE rate_limit_hits_total counter\n")
	fmt.Fprintf(w, "rate_limit_hits_total %d\n\n", rateLimitMetrics.TotalHits)

	fmt.Fprintf(w, "# HELP active_rate_limit_clients Currently tracked rate limit clients\n")
	fmt.Fprintf(w, "# TYPE active_rate_limit_clients gauge\n")
	fmt.Fprintf(w, "active_rate_limit_clients %d\n\n", rateLimitMetrics.ClientCount)

	fmt.Fprintf(w, "# HELP suspicious_requests_total Total suspicious requests detected\n")
	fmt.Fprintf(w, "# TYPE suspicious_requests_total counter\n")
	fmt.Fprintf(w, "suspicious_requests_total %d\n\n", securityMetrics.SuspiciousRequests)

	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n")
	fmt.Fprintf(w, "# TYPE uptime_seconds gauge\n")
	fmt.Fprintf(w, "uptime_seconds %.0f\n", time.Since(s.appMetrics.uptime).Seconds())
}

// handleIndex renders the page shell with the cards in the loading state.
// The dashboard region then requests /ui/dashboard.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		MethodNotAllowedError("GET, HEAD").Write(w)
		return
	}

	logger := applog.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded",
			applog.FieldPath, r.URL.Path,
			applog.FieldComponent, applog.ComponentTemplate)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	model := dashboard.Build(dashboard.State{Status: dashboard.StatusLoading}, s.formatter, s.importURL)
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard_page", pageData{Model: model}); err != nil {
		s.logRenderError(r, "Page template execution failed", err, "dashboard_page")
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// handleDashboardPartial runs one view activation and renders its outcome.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	vm, ok := s.activate(r)
	if !ok {
		return
	}

	resp := NewHTMXResponse()
	if vm.Status == dashboard.StatusError {
		resp.TriggerDashboardFailed(vm.ErrorKind)
	} else {
		resp.TriggerDashboardLoaded(string(vm.Status), len(vm.Rows))
	}
	s.renderDashboard(w, r, resp, vm)
}

// renderDashboard writes the dashboard_content partial, or the static fallback
// when templates are missing or fail.
func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder, vm dashboard.ViewModel) {
	if s.templates == nil {
		s.logRenderError(r, "Templates not loaded", errTemplatesNotLoaded, "dashboard_content")
		resp.BodyHTML(fallbackFragment).Write(w)
		return
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "dashboard_content", vm); err != nil {
		s.logRenderError(r, "Dashboard template execution failed", err, "dashboard_content")
		resp.BodyHTML(fallbackFragment).Write(w)
		return
	}
	resp.BodyHTML(buf.String()).Write(w)
}

func (s *Server) logRenderError(r *http.Request, msg string, err error, name string) {
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogError(r.Context(), msg, err, applog.OpRender, applog.NewFields().WithTemplate(name))
}

// handleDashboardJSON runs one view activation and returns the view model.
func (s *Server) handleDashboardJSON(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	vm, ok := s.activate(r)
	if !ok {
		return
	}

	status := http.StatusOK
	if vm.Status == dashboard.StatusError {
		status = http.StatusBadGateway
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(vm); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Encode view model failed", applog.FieldError, err)
	}
}

// activate binds a dashboard view to the request and waits for its fetch. A
// failed view stays registered under ViewID, and a request carrying retry and
// that id re-runs the fetch on it. It returns false when the client went away
// first; the view is deactivated and nothing is written.
func (s *Server) activate(r *http.Request) (dashboard.ViewModel, bool) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	query := r.URL.Query()

	var (
		view *dashboard.View
		id   string
		done <-chan struct{}
	)
	if query.Get("retry") != "" {
		if v, ok := s.views.get(query.Get("view")); ok {
			view, id = v, query.Get("view")
			logger.InfoContext(ctx, "Dashboard retry requested",
				applog.FieldOperation, applog.OpRetry,
				"view_id", id)
			done = view.Retry(ctx)
		}
	}
	if view == nil {
		view = dashboard.NewView(s.fetcher,
			dashboard.WithFormatter(s.formatter),
			dashboard.WithImportURL(s.importURL),
			dashboard.WithLogger(logger))
		id = s.views.add(view)
		done = view.Activate(ctx)
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
	if ctx.Err() != nil {
		s.views.remove(id)
		atomic.AddInt64(&s.appMetrics.fetchAbandons, 1)
		logger.DebugContext(ctx, "Client left before dashboard fetch finished",
			applog.FieldOperation, applog.OpDeactivate,
			applog.FieldError, ctx.Err())
		return dashboard.ViewModel{}, false
	}

	vm := view.Model()
	s.appMetrics.record(vm.Status)
	if vm.Status == dashboard.StatusError {
		vm.ViewID = id
	} else {
		s.views.remove(id)
	}
	return vm, true
}

// handleRateLimited answers htmx requests with a swappable fragment.
func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.securityDetector.ExtractClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)

	if r.Header.Get("HX-Request") != "true" {
		http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
		return
	}
	if s.templates == nil {
		ErrorResponse(http.StatusTooManyRequests, rateLimitedMessage).Write(w)
		return
	}

	// htmx drops 4xx bodies, so the limited state goes out as a 200 that
	// replaces the dashboard region and offers the retry button.
	vm := dashboard.Build(dashboard.State{Status: dashboard.StatusError}, s.formatter, s.importURL)
	if id := r.URL.Query().Get("view"); id != "" {
		if view, ok := s.views.get(id); ok {
			vm = view.Model()
			vm.Status = dashboard.StatusError
			vm.ViewID = id
		}
	}
	vm.Error = rateLimitedMessage
	vm.ErrorKind = errorKindRateLimited
	vm.Retryable = true

	resp := NewHTMXResponse().
		Header("HX-Retarget", "#dashboard").
		Header("HX-Reswap", "outerHTML").
		TriggerDashboardFailed(errorKindRateLimited)
	s.renderDashboard(w, r, resp, vm)
}
