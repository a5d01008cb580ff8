// Package dashboard holds the per-activation state of the finances dashboard
// and derives the display model the templates render.
package dashboard

import (
	"context"
	"fmt"
	"sync"

	"gofinances/internal/client"
	"gofinances/internal/core"
	"gofinances/internal/format"
	applog "gofinances/internal/log"
)

// Status is the lifecycle state of a View.
type Status string

const (
	StatusLoading Status = "loading"
	StatusEmpty   Status = "empty"
	StatusLoaded  Status = "loaded"
	StatusError   Status = "error"
)

// Fetcher reads the transactions and balance from the backend.
type Fetcher interface {
	FetchTransactions(ctx context.Context) (core.Result, error)
}

// State is a snapshot of a View. Result is nil until a fetch succeeds and is
// kept as-is when a later fetch fails.
type State struct {
	Status Status
	Result *core.Result
	Err    error
}

// View owns the data of one dashboard activation. At most one fetch is in
// flight; results from a superseded fetch or arriving after Deactivate are
// dropped.
type View struct {
	fetcher   Fetcher
	formatter *format.Formatter
	importURL string
	logger    *applog.Logger

	mu     sync.Mutex
	state  State
	live   bool
	gen    uint64
	cancel context.CancelFunc
}

// Option customizes a View.
type Option func(*View)

// WithFormatter sets the formatter used by Model.
func WithFormatter(f *format.Formatter) Option {
	return func(v *View) {
		if f != nil {
			v.formatter = f
		}
	}
}

// WithImportURL sets the target of the "Importar" link.
func WithImportURL(u string) Option {
	return func(v *View) {
		if u != "" {
			v.importURL = u
		}
	}
}

// WithLogger sets the logger used for fetch outcomes.
func WithLogger(l *applog.Logger) Option {
	return func(v *View) {
		if l != nil {
			v.logger = l.WithComponent(applog.ComponentDashboard)
		}
	}
}

// NewView returns an inactive view in the loading state.
func NewView(f Fetcher, opts ...Option) *View {
	v := &View{
		fetcher:   f,
		formatter: format.New(format.BRL()),
		importURL: DefaultImportURL,
		logger:    applog.Default(applog.ComponentDashboard),
		state:     State{Status: StatusLoading},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Activate marks the view live and starts its fetch. The returned channel is
// closed once the fetch has finished and its outcome was applied or dropped.
func (v *View) Activate(ctx context.Context) <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.live = true
	v.logger.DebugContext(ctx, "View activated", applog.FieldOperation, applog.OpActivate)
	return v.startLocked(ctx)
}

// Retry starts a new fetch, cancelling any fetch still in flight. It is a
// no-op on a view that is not live.
func (v *View) Retry(ctx context.Context) <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.live {
		done := make(chan struct{})
		close(done)
		return done
	}
	v.logger.DebugContext(ctx, "View retry", applog.FieldOperation, applog.OpRetry, applog.FieldViewStatus, string(v.state.Status))
	return v.startLocked(ctx)
}

// Deactivate marks the view dead and cancels the in-flight fetch. State is
// frozen from here on.
func (v *View) Deactivate() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.live {
		return
	}
	v.live = false
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.logger.Debug("View deactivated", applog.FieldOperation, applog.OpDeactivate, applog.FieldGeneration, v.gen)
}

// Live reports whether the view is active.
func (v *View) Live() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.live
}

// State returns a snapshot of the view.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Model derives the display model from the current state.
func (v *View) Model() ViewModel {
	return Build(v.State(), v.formatter, v.importURL)
}

func (v *View) startLocked(ctx context.Context) <-chan struct{} {
	if v.cancel != nil {
		v.cancel()
	}
	v.gen++
	gen := v.gen

	fctx, cancel := context.WithCancel(ctx)
	v.cancel = cancel
	v.state.Status = StatusLoading
	v.state.Err = nil

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		res, err := v.fetch(fctx)
		v.apply(fctx, gen, res, err)
	}()
	return done
}

// fetch calls the fetcher, turning a panic into an error.
func (v *View) fetch(ctx context.Context) (res core.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch panicked: %v", r)
		}
	}()
	if v.fetcher == nil {
		return core.Result{}, fmt.Errorf("no fetcher configured")
	}
	return v.fetcher.FetchTransactions(ctx)
}

// apply replaces transactions and balance together, only if gen is still the
// current fetch of a live view.
func (v *View) apply(ctx context.Context, gen uint64, res core.Result, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !v.live || gen != v.gen {
		v.logger.DebugContext(ctx, "Discarding stale fetch result",
			applog.FieldGeneration, gen,
			"current_generation", v.gen,
			"live", v.live)
		return
	}

	if err != nil {
		v.state.Status = StatusError
		v.state.Err = err
		fields := applog.NewFields().
			WithOperation(applog.OpFetch).
			WithError(err).
			WithErrorType(client.Kind(err)).
			WithFetch(string(StatusError), 0, gen)
		v.logger.WarnContext(ctx, "Transactions fetch failed", fields.ToSlice()...)
		return
	}

	result := res
	v.state.Result = &result
	v.state.Err = nil
	if result.IsEmpty() {
		v.state.Status = StatusEmpty
	} else {
		v.state.Status = StatusLoaded
	}

	if result.Balance.Mismatch() {
		v.logger.DebugContext(ctx, "Balance total differs from income minus outcome",
			"income_cents", result.Balance.Income.Cents,
			"outcome_cents", result.Balance.Outcome.Cents,
			"total_cents", result.Balance.Total.Cents)
	}
	fields := applog.NewFields().
		WithOperation(applog.OpFetch).
		WithFetch(string(v.state.Status), len(result.Transactions), gen)
	v.logger.DebugContext(ctx, "Transactions fetched", fields.ToSlice()...)
}
