// Package coordination implements the SwarmSH coordination engine: the
// agent registry, the work queue, the atomic claim protocol, the pattern
// dispatcher, and the HTTP server/client pair that exposes them. It is the
// engine referred to by internal/shellexport when lowering operations to
// POSIX shell.
package coordination

import (
	"time"
)

// AgentStatus is the lifecycle state of a registered agent.
type AgentStatus string

const (
	AgentStatusActive  AgentStatus = "active"
	AgentStatusIdle    AgentStatus = "idle"
	AgentStatusWorking AgentStatus = "working"
	AgentStatusBlocked AgentStatus = "blocked"
	AgentStatusFailed  AgentStatus = "failed"
)

// WorkClaimStatus is the lifecycle state of a WorkClaim.
type WorkClaimStatus string

const (
	WorkClaimStatusAvailable  WorkClaimStatus = "available"
	WorkClaimStatusClaimed    WorkClaimStatus = "claimed"
	WorkClaimStatusInProgress WorkClaimStatus = "in_progress"
	WorkClaimStatusCompleted  WorkClaimStatus = "completed"
	WorkClaimStatusCancelled  WorkClaimStatus = "cancelled"
)

// WorkResult is the terminal outcome reported by complete-work.
type WorkResult string

const (
	WorkResultSuccess   WorkResult = "success"
	WorkResultFailed    WorkResult = "failed"
	WorkResultTimeout   WorkResult = "timeout"
	WorkResultCancelled WorkResult = "cancelled"
)

// Pattern is one of the four coordination pattern state machines (C6-C9).
type Pattern string

const (
	PatternAtomic        Pattern = "atomic"
	PatternRealtime      Pattern = "realtime"
	PatternScrumAtScale  Pattern = "scrum-at-scale"
	PatternRobertsRules  Pattern = "roberts-rules"
)

// Description returns a one-line human description of the pattern.
func (p Pattern) Description() string {
	switch p {
	case PatternAtomic:
		return "file-lock fenced zero-conflict ordering with nanosecond epochs"
	case PatternRealtime:
		return "sub-millisecond synchronization pulses across participants"
	case PatternScrumAtScale:
		return "sprint/standup/review/retro ceremony sequencing"
	case PatternRobertsRules:
		return "motion-second-debate-vote-ratify parliamentary procedure"
	default:
		return "unknown pattern"
	}
}

// EventType identifies the kind of coordination event published on the
// event bus.
type EventType string

const (
	EventTypeAgentRegistered EventType = "agent.registered"
	EventTypeAgentStatus     EventType = "agent.status_changed"
	EventTypeWorkCreated     EventType = "work.created"
	EventTypeWorkClaimed     EventType = "work.claimed"
	EventTypeWorkCompleted   EventType = "work.completed"
	EventTypeWorkFailed      EventType = "work.failed"
	EventTypeCoordinateStart EventType = "coordination.start"
	EventTypeCoordinateEnd   EventType = "coordination.end"
)

// AgentMetrics accumulates per-agent performance stats (spec §3, AgentState
// metrics field).
type AgentMetrics struct {
	WorkCompleted          int     `json:"work_completed"`
	AverageCompletionMsNs  int64   `json:"average_completion_time_ms"`
	SuccessRate            float64 `json:"success_rate"`
	CoordinationLatencyMs  int64   `json:"coordination_latency_ms"`
}

// AgentSpec is the immutable identity an agent registers with.
type AgentSpec struct {
	ID              string   `json:"id"`
	Role            string   `json:"role"`
	Capacity        float64  `json:"capacity"`
	Specializations []string `json:"specializations"`
	WorkCapacity    *int     `json:"work_capacity,omitempty"`
}

// AgentState is the mutable record tracked by the registry.
type AgentState struct {
	Spec          AgentSpec    `json:"spec"`
	Status        AgentStatus  `json:"status"`
	CurrentWork   string       `json:"current_work,omitempty"`
	LastHeartbeat time.Time    `json:"last_heartbeat"`
	Metrics       AgentMetrics `json:"metrics"`
}

// WorkItem is the immutable description of a unit of work once enqueued.
type WorkItem struct {
	ID                 string    `json:"id"`
	Priority           float64   `json:"priority"`
	Requirements       []string  `json:"requirements"`
	EstimatedDurationMs int64    `json:"estimated_duration_ms"`
	Description        string    `json:"description,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// WorkClaim ties an agent to a work item for the duration of its
// processing. Invariant I3: at most one non-Available claim exists per
// work id at any instant.
type WorkClaim struct {
	WorkID     string          `json:"work_id"`
	AgentID    string          `json:"agent_id,omitempty"`
	ClaimEpoch int64           `json:"claim_epoch_ns,omitempty"`
	Status     WorkClaimStatus `json:"status"`
	Progress   int             `json:"progress"`
	Result     *WorkOutcome    `json:"result,omitempty"`
	ClaimedAt  time.Time       `json:"claimed_at,omitempty"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// WorkOutcome records the terminal result of a completed or failed claim.
type WorkOutcome struct {
	Result      WorkResult `json:"result"`
	Error       string     `json:"error,omitempty"`
	CompletedAt time.Time  `json:"completed_at"`
}

// Event is a coordination event published on the event bus for SSE
// streaming, carrying the correlation id it was raised under.
type Event struct {
	ID            string                 `json:"id"`
	Type          EventType              `json:"type"`
	Timestamp     time.Time              `json:"timestamp"`
	CorrelationID string                 `json:"correlation_id,omitempty"`
	AgentID       string                 `json:"agent_id,omitempty"`
	WorkID        string                 `json:"work_id,omitempty"`
	Data          map[string]interface{} `json:"data,omitempty"`
}

// RegisterRequest registers a new agent.
type RegisterRequest struct {
	Spec AgentSpec `json:"spec"`
}

// RegisterResponse confirms registration.
type RegisterResponse struct {
	AgentID string `json:"agent_id"`
}

// HeartbeatRequest renews an agent's liveness.
type HeartbeatRequest struct {
	AgentID string      `json:"agent_id"`
	Status  AgentStatus `json:"status,omitempty"`
}

// HeartbeatResponse acknowledges a heartbeat.
type HeartbeatResponse struct {
	Acknowledged bool   `json:"acknowledged"`
	Message      string `json:"message,omitempty"`
}

// WorkClaimRequest asks the queue for the next eligible item.
type WorkClaimRequest struct {
	AgentID string `json:"agent_id"`
}

// WorkClaimResponse confirms or denies a claim attempt.
type WorkClaimResponse struct {
	Claimed bool      `json:"claimed"`
	Item    *WorkItem `json:"item,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// WorkUpdateRequest reports progress or completion of a claimed item.
type WorkUpdateRequest struct {
	AgentID  string       `json:"agent_id"`
	Progress *int         `json:"progress,omitempty"`
	Outcome  *WorkOutcome `json:"outcome,omitempty"`
}

// CreateWorkRequest enqueues a new work item.
type CreateWorkRequest struct {
	WorkType            string   `json:"work_type"`
	Priority             float64 `json:"priority"`
	Description          string   `json:"description"`
	Requirements         []string `json:"requirements,omitempty"`
	EstimatedDurationMs  int64    `json:"estimated_duration_ms,omitempty"`
}

// StateResponse is the aggregate snapshot returned by `status`.
type StateResponse struct {
	Agents       map[string]*AgentState `json:"agents"`
	PendingWork  int                    `json:"pending_work"`
	ActiveClaims int                    `json:"active_claims"`
}

// APIResponse is the standard envelope for all HTTP responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
}

// Config holds the HTTP server's coordination configuration.
type Config struct {
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`

	TLS  *TLSConfig  `yaml:"tls" json:"tls,omitempty"`
	Auth *AuthConfig `yaml:"auth" json:"auth,omitempty"`

	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" json:"heartbeat_interval"`
	OfflineThreshold  time.Duration `yaml:"offline_threshold" json:"offline_threshold"`

	LockTimeout    time.Duration `yaml:"lock_timeout" json:"lock_timeout"`
	OracleDeadline time.Duration `yaml:"oracle_deadline" json:"oracle_deadline"`
}

// TLSConfig holds TLS settings.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	CertFile string `yaml:"cert_file" json:"cert_file"`
	KeyFile  string `yaml:"key_file" json:"key_file"`
}

// AuthConfig holds bearer-token authentication settings.
type AuthConfig struct {
	Tokens      []string `yaml:"tokens" json:"tokens"`
	RequireAuth bool     `yaml:"require_auth" json:"require_auth"`
}

// ClientConfig holds client-side coordination settings.
type ClientConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	ServerURL string `yaml:"server_url" json:"server_url"`
	Token     string `yaml:"token" json:"token"`
	AgentID   string `yaml:"agent_id" json:"agent_id"`
}

// DefaultConfig returns the engine's default configuration.
func DefaultConfig() *Config {
	return &Config{
		Enabled:           false,
		ListenAddr:        ":7331",
		HeartbeatInterval: 30 * time.Second,
		OfflineThreshold:  90 * time.Second,
		LockTimeout:       5 * time.Second,
		OracleDeadline:    2 * time.Second,
	}
}

// DefaultClientConfig returns the default client-side configuration.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{Enabled: false}
}
