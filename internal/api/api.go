// Package api serves the read endpoint the dashboard consumes.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"gofinances/internal/core"
	applog "gofinances/internal/log"
	"gofinances/internal/middleware/security"
	"gofinances/internal/middleware/trace"
)

// Source supplies transactions and their balance.
type Source interface {
	FetchTransactions(ctx context.Context) (core.Result, error)
}

// Handler exposes GET /transactions.
type Handler struct {
	source Source
	logger *applog.Logger
}

func NewHandler(src Source, logger *applog.Logger) *Handler {
	if logger == nil {
		logger = applog.Default(applog.ComponentAPI)
	}
	return &Handler{source: src, logger: logger.WithComponent(applog.ComponentAPI)}
}

// Routes returns the API mux wrapped in request tracing.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/transactions", h.handleTransactions)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	detector := security.NewDetector()
	var handler http.Handler = mux
	handler = applog.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = applog.Middleware(h.logger)(handler)
	handler = trace.NewMiddleware(detector.ExtractClientIP, h.logger.WithComponent(applog.ComponentTrace)).Middleware(handler)
	return handler
}

// NewServer returns an http.Server for the API on addr.
func NewServer(addr string, src Source, logger *applog.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewHandler(src, logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func (h *Handler) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	ctx := r.Context()
	res, err := h.source.FetchTransactions(ctx)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "List transactions failed",
			applog.FieldError, err,
			applog.FieldOperation, applog.OpList)
		writeError(w, http.StatusInternalServerError, "could not load transactions")
		return
	}
	if res.Transactions == nil {
		res.Transactions = []core.Transaction{}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if err := json.NewEncoder(w).Encode(res); err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Encode transactions failed", applog.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
