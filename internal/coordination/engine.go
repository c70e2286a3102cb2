package coordination

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dlorenc/swarmsh-core/internal/ids"
	"github.com/dlorenc/swarmsh-core/internal/names"
	"github.com/dlorenc/swarmsh-core/internal/oracle"
	"github.com/dlorenc/swarmsh-core/internal/swarmerr"
	"github.com/dlorenc/swarmsh-core/internal/telemetry"
)

// Engine ties the identifier service, telemetry spine, agent registry,
// work queue, pattern dispatcher, and event bus together and implements
// the subcommand surface: register-agent, claim-work, update-progress,
// complete-work, create-work, coordinate, status, analyze-priorities.
type Engine struct {
	config     *Config
	minter     *ids.Minter
	spine      *telemetry.Spine
	registry   *Registry
	queue      *Queue
	dispatcher *Dispatcher
	events     *EventBus
	oracle     oracle.Oracle
}

// New constructs an Engine. spine may be nil to disable telemetry; orc may
// be nil to fall back to oracle.NewNull().
func New(config *Config, spine *telemetry.Spine, orc oracle.Oracle) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if orc == nil {
		orc = oracle.NewNull()
	}
	minter := ids.New()
	registry := NewRegistry(config)
	queue := NewQueue(config, minter, orc)

	return &Engine{
		config:     config,
		minter:     minter,
		spine:      spine,
		registry:   registry,
		queue:      queue,
		dispatcher: NewDispatcher(registry, queue, orc, spine, minter),
		events:     NewEventBus(),
		oracle:     orc,
	}
}

// Events returns the engine's event bus for SSE subscribers.
func (e *Engine) Events() *EventBus { return e.events }

// Registry exposes the underlying agent registry for cleanup goroutines
// and read-only inspection.
func (e *Engine) Registry() *Registry { return e.registry }

func (e *Engine) correlationOrNew(correlationID string) string {
	if correlationID != "" {
		return correlationID
	}
	if e.spine != nil {
		return string(e.spine.NewCorrelation())
	}
	return ""
}

// RegisterAgent implements `register-agent`.
func (e *Engine) RegisterAgent(ctx context.Context, spec AgentSpec, correlationID string) (*AgentState, error) {
	corr := e.correlationOrNew(correlationID)
	if spec.ID == "" {
		if len(spec.Specializations) > 0 {
			spec.ID = names.FromWorkType(strings.Join(spec.Specializations, " "))
		} else {
			spec.ID = names.Generate()
		}
	}
	state, err := e.registry.Register(spec)
	if err != nil {
		return nil, err
	}
	e.events.Publish(Event{
		Type:          EventTypeAgentRegistered,
		CorrelationID: corr,
		AgentID:       spec.ID,
	})
	return state, nil
}

// ClaimWork implements `claim-work`: hands the highest-priority eligible
// item to agentID, or (nil, nil) if none is eligible.
func (e *Engine) ClaimWork(ctx context.Context, agentID string, correlationID string) (*WorkItem, error) {
	corr := e.correlationOrNew(correlationID)
	state, err := e.registry.Get(agentID)
	if err != nil {
		return nil, err
	}

	item, err := e.queue.GetWorkForAgent(ctx, state.Spec)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	if err := e.registry.UpdateStatus(agentID, AgentStatusWorking, item.ID); err != nil {
		if relErr := e.queue.Release(ctx, item.ID); relErr != nil {
			return nil, fmt.Errorf("claim work: agent status transition failed (%w) and rollback failed: %v", err, relErr)
		}
		return nil, err
	}

	e.events.Publish(Event{
		Type:          EventTypeWorkClaimed,
		CorrelationID: corr,
		AgentID:       agentID,
		WorkID:        item.ID,
	})
	return item, nil
}

// UpdateProgress implements `update-progress`.
func (e *Engine) UpdateProgress(ctx context.Context, workID, agentID string, progress int) error {
	return e.queue.UpdateProgress(ctx, workID, agentID, progress)
}

// CompleteWork implements `complete-work`.
func (e *Engine) CompleteWork(ctx context.Context, workID, agentID string, outcome WorkOutcome, correlationID string) error {
	corr := e.correlationOrNew(correlationID)
	if outcome.CompletedAt.IsZero() {
		outcome.CompletedAt = time.Now()
	}
	if err := e.queue.Complete(ctx, workID, agentID, outcome); err != nil {
		return err
	}

	nextStatus := AgentStatusIdle
	eventType := EventTypeWorkCompleted
	if outcome.Result != WorkResultSuccess {
		eventType = EventTypeWorkFailed
	}
	_ = e.registry.UpdateStatus(agentID, nextStatus, "")

	e.events.Publish(Event{
		Type:          eventType,
		CorrelationID: corr,
		AgentID:       agentID,
		WorkID:        workID,
	})
	return nil
}

// CreateWork implements `create-work`.
func (e *Engine) CreateWork(ctx context.Context, req CreateWorkRequest, correlationID string) (*WorkItem, error) {
	corr := e.correlationOrNew(correlationID)
	id, err := e.minter.Mint(req.WorkType)
	if err != nil {
		return nil, err
	}

	item := WorkItem{
		ID:                  id,
		Priority:            req.Priority,
		Requirements:        req.Requirements,
		EstimatedDurationMs: req.EstimatedDurationMs,
		Description:         req.Description,
		CreatedAt:           time.Now(),
	}
	if err := e.queue.AddWork(ctx, item); err != nil {
		return nil, err
	}

	e.events.Publish(Event{
		Type:          EventTypeWorkCreated,
		CorrelationID: corr,
		WorkID:        id,
	})
	return &item, nil
}

// Coordinate implements `coordinate` for the single-shot patterns (atomic,
// realtime); scrum-at-scale and roberts-rules are driven through their
// dedicated session accessors since they span many calls.
func (e *Engine) Coordinate(ctx context.Context, req CoordinateRequest) (*CoordinateResult, error) {
	if req.Correlation == "" && e.spine != nil {
		req.Correlation = e.spine.NewCorrelation()
	}
	return e.dispatcher.Coordinate(ctx, req)
}

// Status implements `status`: a snapshot of all agents and queue depth.
func (e *Engine) Status(ctx context.Context) (*StateResponse, error) {
	agents := e.registry.Snapshot()
	pending, err := e.queue.Len(ctx)
	if err != nil {
		return nil, err
	}
	active := 0
	for _, a := range agents {
		if a.Status == AgentStatusWorking {
			active++
		}
	}
	return &StateResponse{
		Agents:       agents,
		PendingWork:  pending,
		ActiveClaims: active,
	}, nil
}

// AnalyzePriorities implements `analyze-priorities`: a best-effort oracle
// consult over the current registry/queue snapshot. Oracle unavailability
// is not an error; callers receive a nil Analysis instead.
func (e *Engine) AnalyzePriorities(ctx context.Context) (*oracle.Analysis, error) {
	octx, cancel := oracle.WithDeadline(ctx)
	defer cancel()

	agents := e.registry.Snapshot()
	working := 0
	for _, a := range agents {
		if a.Status == AgentStatusWorking {
			working++
		}
	}
	pending, _ := e.queue.Len(ctx)

	snapshot := map[string]string{
		"total_agents":   fmt.Sprintf("%d", len(agents)),
		"working_agents": fmt.Sprintf("%d", working),
		"pending_work":   fmt.Sprintf("%d", pending),
	}

	analysis, err := e.oracle.Analyze(octx, snapshot)
	if err != nil {
		if swarmerr.KindOf(err) == swarmerr.OracleUnavailable {
			return nil, nil
		}
		return nil, err
	}
	return analysis, nil
}
