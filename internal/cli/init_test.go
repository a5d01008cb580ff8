package cli

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	applog "gofinances/internal/log"
)

type fakeServer struct {
	listenErr error
	closed    chan struct{}
	once      sync.Once
	shutdowns int
	mu        sync.Mutex
}

func newFakeServer(listenErr error) *fakeServer {
	return &fakeServer{listenErr: listenErr, closed: make(chan struct{})}
}

func (s *fakeServer) ListenAndServe() error {
	if s.listenErr != nil {
		return s.listenErr
	}
	<-s.closed
	return http.ErrServerClosed
}

func (s *fakeServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shutdowns++
	s.mu.Unlock()
	s.once.Do(func() { close(s.closed) })
	return nil
}

func quiet() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

func TestRunShutsDownOnCancel(t *testing.T) {
	srv := newFakeServer(nil)
	ctx, cancel := context.WithCancel(context.Background())

	errc := make(chan error, 1)
	go func() { errc <- Run(ctx, quiet(), srv, time.Second) }()

	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run() = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if srv.shutdowns != 1 {
		t.Fatalf("shutdowns = %d, want 1", srv.shutdowns)
	}
}

func TestRunReturnsListenError(t *testing.T) {
	boom := errors.New("address in use")
	srv := newFakeServer(boom)

	err := Run(context.Background(), quiet(), srv, time.Second)
	if !errors.Is(err, boom) {
		t.Fatalf("Run() = %v, want %v", err, boom)
	}
}

func TestSetupLogger(t *testing.T) {
	logger := SetupLogger("debug")
	if logger.Component() != applog.ComponentApp {
		t.Fatalf("component = %q", logger.Component())
	}
	if !logger.Enabled(context.Background(), -4) {
		t.Fatal("debug level not enabled")
	}
}
