package telemetry

import (
	"bytes"
	"context"
	"testing"
)

func newTestSpine(t *testing.T) *Spine {
	t.Helper()
	s, err := New("test-service", WithTraceWriter(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("unexpected error creating spine: %v", err)
	}
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func TestNewCorrelation_Unique(t *testing.T) {
	s := newTestSpine(t)
	a := s.NewCorrelation()
	b := s.NewCorrelation()
	if a == b {
		t.Fatal("expected distinct correlation ids")
	}
}

func TestOpenCloseSpan(t *testing.T) {
	s := newTestSpine(t)
	corr := s.NewCorrelation()
	h := s.OpenSpan(context.Background(), "claim_work", nil, corr, map[string]string{"work.id": "w1"})

	if h.Correlation != corr {
		t.Errorf("expected span correlation %q, got %q", corr, h.Correlation)
	}
	if err := s.CloseSpan(h); err != nil {
		t.Errorf("unexpected error closing leaf span: %v", err)
	}
}

func TestCloseSpan_Idempotent(t *testing.T) {
	s := newTestSpine(t)
	corr := s.NewCorrelation()
	h := s.OpenSpan(context.Background(), "coordinate", nil, corr, nil)

	if err := s.CloseSpan(h); err != nil {
		t.Fatalf("unexpected error on first close: %v", err)
	}
	if err := s.CloseSpan(h); err != nil {
		t.Errorf("expected second close to be a no-op, got error: %v", err)
	}
}

func TestCloseSpan_ForceClosesChildren(t *testing.T) {
	s := newTestSpine(t)
	corr := s.NewCorrelation()
	parent := s.OpenSpan(context.Background(), "coordinate", nil, corr, nil)
	child := s.OpenSpan(parent.Context(), "pattern.atomic", parent, corr, nil)
	grandchild := s.OpenSpan(child.Context(), "lock.acquire", child, corr, nil)

	err := s.CloseSpan(parent)
	if err == nil {
		t.Fatal("expected non-fatal error reporting force-closed children")
	}

	child.mu.Lock()
	childClosed := child.closed
	child.mu.Unlock()
	if !childClosed {
		t.Error("expected child to be force-closed")
	}

	grandchild.mu.Lock()
	grandchildClosed := grandchild.closed
	grandchild.mu.Unlock()
	if !grandchildClosed {
		t.Error("expected grandchild to be force-closed transitively")
	}
}

func TestCloseSpan_Nil(t *testing.T) {
	s := newTestSpine(t)
	if err := s.CloseSpan(nil); err != nil {
		t.Errorf("expected closing a nil span to be a no-op, got: %v", err)
	}
}

func TestEvent_RecordedUntilBufferFull(t *testing.T) {
	s := newTestSpine(t)
	corr := s.NewCorrelation()
	h := s.OpenSpan(context.Background(), "create_work", nil, corr, nil)
	defer s.CloseSpan(h)

	s.Event(context.Background(), h, "queued", map[string]string{"work.id": "w1"})
	s.Event(context.Background(), h, "queued", map[string]string{"work.id": "w2"})

	events := s.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 recorded events, got %d", len(events))
	}
}

func TestEvent_OverflowDropsSilentlyAndCounts(t *testing.T) {
	s := newTestSpine(t)
	corr := s.NewCorrelation()
	h := s.OpenSpan(context.Background(), "create_work", nil, corr, nil)
	defer s.CloseSpan(h)

	for i := 0; i < eventBufferCap+5; i++ {
		s.Event(context.Background(), h, "tick", nil)
	}

	if len(s.Events()) != eventBufferCap {
		t.Errorf("expected buffer capped at %d, got %d", eventBufferCap, len(s.Events()))
	}
	if s.DroppedEvents() != 5 {
		t.Errorf("expected 5 dropped events, got %d", s.DroppedEvents())
	}
}

func TestRecordDuration_NoPanic(t *testing.T) {
	s := newTestSpine(t)
	s.RecordDuration(context.Background(), "claim_work", 0)
}
