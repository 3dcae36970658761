package api

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
)

func TestGuardRejectsCollision(t *testing.T) {
	d := NewDeduplicator()
	g := newGate()

	firstDone := make(chan error, 1)
	go func() {
		_, err := Guard(context.Background(), d, "fetchDashboard", "fetch dashboard", func(context.Context) (int, error) {
			g.wait()
			return 1, nil
		})
		firstDone <- err
	}()
	<-g.entered

	_, err := Guard(context.Background(), d, "fetchDashboard", "fetch dashboard", func(context.Context) (int, error) {
		t.Error("second call must not run")
		return 0, nil
	})
	e := assertCategory(t, err, CategoryCancelled)
	if e.Message != "Another fetch dashboard request is already in progress" {
		t.Errorf("message = %q", e.Message)
	}
	select {
	case <-firstDone:
		t.Fatal("first call settled before the collision was rejected")
	default:
	}

	g.open()
	if err := <-firstDone; err != nil {
		t.Fatalf("first call: %v", err)
	}
	if d.InFlight("fetchDashboard") {
		t.Error("key should be released after settling")
	}

	got, err := Guard(context.Background(), d, "fetchDashboard", "fetch dashboard", func(context.Context) (int, error) {
		return 3, nil
	})
	if err != nil || got != 3 {
		t.Fatalf("third call = %d, %v", got, err)
	}
}

func TestGuardReleasesOnFailure(t *testing.T) {
	d := NewDeduplicator()
	boom := errors.New("boom")

	_, err := Guard(context.Background(), d, "k", "thing", func(context.Context) (struct{}, error) {
		return struct{}{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if d.Len() != 0 {
		t.Errorf("registry should be empty, has %d", d.Len())
	}
}

func TestGuardDistinctKeys(t *testing.T) {
	d := NewDeduplicator()
	g := newGate()
	defer g.open()

	go func() {
		_, _ = Guard(context.Background(), d, operationKey("updatePayment", "p1"), "update payment", func(context.Context) (int, error) {
			g.wait()
			return 0, nil
		})
	}()
	<-g.entered

	_, err := Guard(context.Background(), d, operationKey("updatePayment", "p2"), "update payment", func(context.Context) (int, error) {
		return 0, nil
	})
	if err != nil {
		t.Fatalf("different ids must not collide: %v", err)
	}
}

func TestEndpointDedupIsPerClient(t *testing.T) {
	g := newGate()
	defer g.open()
	var calls atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		g.wait()
		_, _ = w.Write([]byte(`{}`))
	})

	tok := validToken(t)
	a := newTestClient(t, handler, nil)
	b := newTestClient(t, handler, nil)

	done := make(chan error, 1)
	go func() {
		_, err := a.Dashboard().Fetch(context.Background(), tok)
		done <- err
	}()
	<-g.entered

	_, err := a.Dashboard().Fetch(context.Background(), tok)
	assertCategory(t, err, CategoryCancelled)

	go func() {
		_, _ = b.Dashboard().Fetch(context.Background(), tok)
	}()
	<-g.entered

	g.open()
	if err := <-done; err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected 2 backend calls, got %d", n)
	}
}
