package http

import (
	"context"
	"testing"
	"time"

	"gofinances/internal/core"
	"gofinances/internal/dashboard"
)

func liveView(t *testing.T) *dashboard.View {
	t.Helper()
	v := dashboard.NewView(staticFetcher(core.Result{}, nil))
	<-v.Activate(context.Background())
	return v
}

func TestViewRegistryGetAndRemove(t *testing.T) {
	vr := newViewRegistry(time.Minute)
	v := liveView(t)
	id := vr.add(v)

	if got, ok := vr.get(id); !ok || got != v {
		t.Fatalf("get(%s) = %v, %v", id, got, ok)
	}
	if _, ok := vr.get("missing"); ok {
		t.Fatal("unknown id resolved")
	}

	vr.remove(id)
	if v.Live() {
		t.Fatal("removed view still live")
	}
	if _, ok := vr.get(id); ok || vr.len() != 0 {
		t.Fatal("removed view still registered")
	}
}

func TestViewRegistryDropsDeadViews(t *testing.T) {
	vr := newViewRegistry(time.Minute)
	v := liveView(t)
	id := vr.add(v)

	v.Deactivate()
	if _, ok := vr.get(id); ok {
		t.Fatal("dead view returned")
	}
	if vr.len() != 0 {
		t.Fatalf("len = %d, want 0", vr.len())
	}
}

func TestViewRegistryExpiry(t *testing.T) {
	now := time.Date(2021, 2, 10, 12, 0, 0, 0, time.UTC)
	vr := newViewRegistry(time.Minute)
	vr.now = func() time.Time { return now }

	v := liveView(t)
	id := vr.add(v)

	now = now.Add(30 * time.Second)
	if _, ok := vr.get(id); !ok {
		t.Fatal("view expired too early")
	}

	now = now.Add(2 * time.Minute)
	if _, ok := vr.get(id); ok {
		t.Fatal("expired view returned")
	}
	if v.Live() {
		t.Fatal("expired view not deactivated")
	}
}

func TestViewRegistryCloseAll(t *testing.T) {
	vr := newViewRegistry(0)
	a, b := liveView(t), liveView(t)
	vr.add(a)
	vr.add(b)

	vr.closeAll()
	if a.Live() || b.Live() || vr.len() != 0 {
		t.Fatal("closeAll left views behind")
	}
}
