package coordination

import (
	"context"
	"sync"
	"time"

	"github.com/dlorenc/swarmsh-core/internal/swarmerr"
)

// Registry is the Agent Registry (C3): it tracks agent specs, status, and
// heartbeats, and enforces registration uniqueness. The engine is the
// registry's sole owner; pattern state machines only ever see a Snapshot.
type Registry struct {
	config *Config

	agents map[string]*AgentState

	mu sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry(config *Config) *Registry {
	return &Registry{
		config: config,
		agents: make(map[string]*AgentState),
	}
}

// Register inserts a new AgentState with status Active. It fails with
// AlreadyExists if spec.ID is already registered; the write lock is held
// only for the insertion.
func (r *Registry) Register(spec AgentSpec) (*AgentState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[spec.ID]; exists {
		return nil, swarmerr.Newf(swarmerr.AlreadyExists, "agent %q is already registered", spec.ID)
	}

	state := &AgentState{
		Spec:          spec,
		Status:        AgentStatusActive,
		LastHeartbeat: time.Now(),
	}
	r.agents[spec.ID] = state

	out := *state
	return &out, nil
}

// Deregister removes an agent's state. Idempotent: removing an
// already-absent agent is not an error.
func (r *Registry) Deregister(agentID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.agents, agentID)
}

// Heartbeat updates an agent's last-seen timestamp and, if status is
// non-empty, its reported status (subject to the same transition table as
// UpdateStatus). Fails with NotFound if the agent is absent. A heartbeat
// that observes a Failed state does not revive it.
func (r *Registry) Heartbeat(agentID string, status AgentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, exists := r.agents[agentID]
	if !exists {
		return swarmerr.Newf(swarmerr.NotFound, "agent %q not found", agentID)
	}

	state.LastHeartbeat = time.Now()

	if status == "" || state.Status == AgentStatusFailed {
		return nil
	}
	if !validAgentTransition(state.Status, status) {
		return nil
	}
	state.Status = status
	return nil
}

// UpdateStatus performs a validated status transition, optionally setting
// currentWork (pass "" to clear it). Fails with NotFound if the agent is
// absent, or InvalidTransition if the transition is not permitted by the
// status transition table.
func (r *Registry) UpdateStatus(agentID string, status AgentStatus, currentWork string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, exists := r.agents[agentID]
	if !exists {
		return swarmerr.Newf(swarmerr.NotFound, "agent %q not found", agentID)
	}

	if !validAgentTransition(state.Status, status) {
		return swarmerr.Newf(swarmerr.InvalidTransition, "agent %q cannot transition from %s to %s", agentID, state.Status, status)
	}

	state.Status = status
	state.CurrentWork = currentWork
	return nil
}

// validAgentTransition implements the status transition table from spec
// §4.3. Failed may be explicitly reactivated to Active; it does not
// otherwise resume to Idle/Working/Blocked. Heartbeats never drive this
// path back to Active on their own — see Heartbeat above.
func validAgentTransition(from, to AgentStatus) bool {
	switch from {
	case AgentStatusActive, AgentStatusIdle, AgentStatusBlocked:
		return true
	case AgentStatusWorking:
		return to != AgentStatusActive
	case AgentStatusFailed:
		return to == AgentStatusFailed || to == AgentStatusActive
	default:
		return false
	}
}

// Get retrieves a copy of an agent's state. Fails with NotFound if absent.
func (r *Registry) Get(agentID string) (*AgentState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, exists := r.agents[agentID]
	if !exists {
		return nil, swarmerr.Newf(swarmerr.NotFound, "agent %q not found", agentID)
	}
	out := *state
	return &out, nil
}

// Snapshot returns a copy of every agent's state, for read-only pattern
// use (spec §3, Ownership).
func (r *Registry) Snapshot() map[string]*AgentState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*AgentState, len(r.agents))
	for id, state := range r.agents {
		s := *state
		out[id] = &s
	}
	return out
}

// StartCleanup runs a background loop marking agents Failed once their
// last heartbeat exceeds offlineThreshold, until ctx is done.
func (r *Registry) StartCleanup(ctx context.Context, offlineThreshold time.Duration) {
	ticker := time.NewTicker(offlineThreshold / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.markStaleFailed(offlineThreshold)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Registry) markStaleFailed(threshold time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-threshold)
	for _, state := range r.agents {
		if state.Status != AgentStatusFailed && state.LastHeartbeat.Before(cutoff) {
			state.Status = AgentStatusFailed
		}
	}
}

// GetStats returns aggregate registry statistics for the status
// subcommand and shell-export parity checks.
func (r *Registry) GetStats() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := map[AgentStatus]int{}
	for _, state := range r.agents {
		counts[state.Status]++
	}

	return map[string]interface{}{
		"total_agents": len(r.agents),
		"active":       counts[AgentStatusActive],
		"idle":         counts[AgentStatusIdle],
		"working":      counts[AgentStatusWorking],
		"blocked":      counts[AgentStatusBlocked],
		"failed":       counts[AgentStatusFailed],
	}
}
