package coordination

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dlorenc/swarmsh-core/internal/swarmerr"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	if r == nil {
		t.Fatal("expected registry")
	}
	if r.agents == nil {
		t.Error("expected agents map to be initialized")
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry(DefaultConfig())

	state, err := r.Register(AgentSpec{ID: "a1", Role: "worker", Specializations: []string{"test"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Status != AgentStatusActive {
		t.Errorf("expected status Active, got %s", state.Status)
	}
	if state.LastHeartbeat.IsZero() {
		t.Error("expected last heartbeat to be set")
	}
}

func TestRegistry_RegisterAlreadyExists(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	_, err := r.Register(AgentSpec{ID: "a1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = r.Register(AgentSpec{ID: "a1"})
	if swarmerr.KindOf(err) != swarmerr.AlreadyExists {
		t.Errorf("expected AlreadyExists, got %v", err)
	}
}

func TestRegistry_RegisterConcurrentUniqueness(t *testing.T) {
	r := NewRegistry(DefaultConfig())

	const attempts = 20
	successes := 0
	var mu sync.Mutex
	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			if _, err := r.Register(AgentSpec{ID: "dup"}); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected exactly 1 successful registration, got %d", successes)
	}
}

func TestRegistry_Deregister(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	_, _ = r.Register(AgentSpec{ID: "a1"})

	r.Deregister("a1")

	_, err := r.Get("a1")
	if swarmerr.KindOf(err) != swarmerr.NotFound {
		t.Errorf("expected NotFound after deregister, got %v", err)
	}
}

func TestRegistry_DeregisterIdempotent(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	r.Deregister("never-registered")
}

func TestRegistry_Heartbeat(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	_, _ = r.Register(AgentSpec{ID: "a1"})

	if err := r.Heartbeat("a1", AgentStatusIdle); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state, _ := r.Get("a1")
	if state.Status != AgentStatusIdle {
		t.Errorf("expected status Idle, got %s", state.Status)
	}
}

func TestRegistry_HeartbeatNotFound(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	err := r.Heartbeat("missing", "")
	if swarmerr.KindOf(err) != swarmerr.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestRegistry_HeartbeatDoesNotReviveFailed(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	_, _ = r.Register(AgentSpec{ID: "a1"})
	_ = r.UpdateStatus("a1", AgentStatusFailed, "")

	_ = r.Heartbeat("a1", AgentStatusActive)

	state, _ := r.Get("a1")
	if state.Status != AgentStatusFailed {
		t.Errorf("expected status to remain Failed, got %s", state.Status)
	}
}

func TestRegistry_Get(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	_, _ = r.Register(AgentSpec{ID: "a1", Role: "worker"})

	state, err := r.Get("a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Spec.Role != "worker" {
		t.Errorf("expected role 'worker', got %q", state.Spec.Role)
	}
}

func TestRegistry_GetNotFound(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	_, err := r.Get("missing")
	if swarmerr.KindOf(err) != swarmerr.NotFound {
		t.Errorf("expected NotFound, got %v", err)
	}
}

func TestRegistry_Snapshot(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	_, _ = r.Register(AgentSpec{ID: "a1"})
	_, _ = r.Register(AgentSpec{ID: "a2"})

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Errorf("expected 2 agents in snapshot, got %d", len(snap))
	}

	// Mutating the snapshot must not affect the registry.
	snap["a1"].Status = AgentStatusFailed
	state, _ := r.Get("a1")
	if state.Status == AgentStatusFailed {
		t.Error("expected snapshot mutation not to leak into registry")
	}
}

func TestRegistry_ValidStateTransitionTable(t *testing.T) {
	tests := []struct {
		from  AgentStatus
		to    AgentStatus
		valid bool
	}{
		{AgentStatusActive, AgentStatusActive, true},
		{AgentStatusActive, AgentStatusIdle, true},
		{AgentStatusActive, AgentStatusWorking, true},
		{AgentStatusActive, AgentStatusBlocked, true},
		{AgentStatusActive, AgentStatusFailed, true},
		{AgentStatusIdle, AgentStatusWorking, true},
		{AgentStatusWorking, AgentStatusActive, false},
		{AgentStatusWorking, AgentStatusIdle, true},
		{AgentStatusWorking, AgentStatusFailed, true},
		{AgentStatusBlocked, AgentStatusActive, true},
		{AgentStatusFailed, AgentStatusActive, true},
		{AgentStatusFailed, AgentStatusIdle, false},
		{AgentStatusFailed, AgentStatusFailed, true},
	}

	for _, tt := range tests {
		if got := validAgentTransition(tt.from, tt.to); got != tt.valid {
			t.Errorf("validAgentTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestRegistry_UpdateStatusInvalidTransition(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	_, _ = r.Register(AgentSpec{ID: "a1"})
	_ = r.UpdateStatus("a1", AgentStatusWorking, "w1")

	err := r.UpdateStatus("a1", AgentStatusActive, "")
	if swarmerr.KindOf(err) != swarmerr.InvalidTransition {
		t.Errorf("expected InvalidTransition, got %v", err)
	}
}

func TestRegistry_UpdateStatusSetsCurrentWork(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	_, _ = r.Register(AgentSpec{ID: "a1"})

	if err := r.UpdateStatus("a1", AgentStatusWorking, "w1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state, _ := r.Get("a1")
	if state.CurrentWork != "w1" {
		t.Errorf("expected current work 'w1', got %q", state.CurrentWork)
	}
}

func TestRegistry_MarkStaleFailed(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	_, _ = r.Register(AgentSpec{ID: "a1"})

	r.agents["a1"].LastHeartbeat = time.Now().Add(-time.Hour)
	r.markStaleFailed(time.Minute)

	state, _ := r.Get("a1")
	if state.Status != AgentStatusFailed {
		t.Errorf("expected stale agent to be marked Failed, got %s", state.Status)
	}
}

func TestRegistry_StartCleanupStopsOnContextDone(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		r.StartCleanup(ctx, 30*time.Millisecond)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected StartCleanup to return after context cancellation")
	}
}

func TestRegistry_GetStats(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	_, _ = r.Register(AgentSpec{ID: "a1"})
	_, _ = r.Register(AgentSpec{ID: "a2"})
	_ = r.UpdateStatus("a2", AgentStatusWorking, "w1")

	stats := r.GetStats()
	if stats["total_agents"] != 2 {
		t.Errorf("expected 2 total agents, got %v", stats["total_agents"])
	}
	if stats["working"] != 1 {
		t.Errorf("expected 1 working agent, got %v", stats["working"])
	}
}
