package http

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"gofinances/internal/dashboard"
)

const defaultViewTTL = 5 * time.Minute

// viewRegistry keeps failed views alive so the page's retry button can
// re-run the fetch on the same view instead of starting from scratch.
type viewRegistry struct {
	mu    sync.Mutex
	views map[string]*viewEntry
	ttl   time.Duration
	now   func() time.Time
}

type viewEntry struct {
	view     *dashboard.View
	lastSeen time.Time
}

func newViewRegistry(ttl time.Duration) *viewRegistry {
	if ttl <= 0 {
		ttl = defaultViewTTL
	}
	return &viewRegistry{
		views: make(map[string]*viewEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

// add registers v and returns its id.
func (vr *viewRegistry) add(v *dashboard.View) string {
	id := uuid.NewString()

	vr.mu.Lock()
	defer vr.mu.Unlock()
	vr.sweepLocked()
	vr.views[id] = &viewEntry{view: v, lastSeen: vr.now()}
	return id
}

// get returns the live view registered under id. Dead or expired views are
// dropped.
func (vr *viewRegistry) get(id string) (*dashboard.View, bool) {
	vr.mu.Lock()
	defer vr.mu.Unlock()
	vr.sweepLocked()

	e, ok := vr.views[id]
	if !ok {
		return nil, false
	}
	if !e.view.Live() {
		delete(vr.views, id)
		return nil, false
	}
	e.lastSeen = vr.now()
	return e.view, true
}

// remove deactivates and forgets the view under id.
func (vr *viewRegistry) remove(id string) {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	if e, ok := vr.views[id]; ok {
		delete(vr.views, id)
		e.view.Deactivate()
	}
}

// closeAll deactivates every registered view.
func (vr *viewRegistry) closeAll() {
	vr.mu.Lock()
	defer vr.mu.Unlock()

	for id, e := range vr.views {
		delete(vr.views, id)
		e.view.Deactivate()
	}
}

func (vr *viewRegistry) len() int {
	vr.mu.Lock()
	defer vr.mu.Unlock()
	return len(vr.views)
}

func (vr *viewRegistry) sweepLocked() {
	cutoff := vr.now().Add(-vr.ttl)
	for id, e := range vr.views {
		if e.lastSeen.Before(cutoff) {
			delete(vr.views, id)
			e.view.Deactivate()
		}
	}
}
