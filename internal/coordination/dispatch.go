package coordination

import (
	"context"
	"sync"
	"time"

	"github.com/dlorenc/swarmsh-core/internal/ids"
	"github.com/dlorenc/swarmsh-core/internal/oracle"
	"github.com/dlorenc/swarmsh-core/internal/swarmerr"
	"github.com/dlorenc/swarmsh-core/internal/telemetry"
)

// Dispatcher (C5) routes a coordinate() call to the selected pattern's
// state machine. Two concurrent coordinate calls serialize on mu so their
// observable epochs respect invariant I4; Atomic additionally fences on
// its own internal mutex for I6.
type Dispatcher struct {
	mu       sync.Mutex
	registry *Registry
	queue    *Queue
	oracle   oracle.Oracle
	spine    *telemetry.Spine
	minter   *ids.Minter

	atomic   *AtomicPattern
	realtime *RealtimePattern

	scrumMu sync.Mutex
	scrum   map[string]*ScrumAtScalePattern

	robertsMu sync.Mutex
	roberts   map[string]*RobertsRulesPattern
}

// NewDispatcher wires a Dispatcher over the given registry, queue, oracle
// (oracle.NewNull() if absent), telemetry spine and id minter.
func NewDispatcher(registry *Registry, queue *Queue, orc oracle.Oracle, spine *telemetry.Spine, minter *ids.Minter) *Dispatcher {
	if orc == nil {
		orc = oracle.NewNull()
	}
	return &Dispatcher{
		registry: registry,
		queue:    queue,
		oracle:   orc,
		spine:    spine,
		minter:   minter,
		atomic:   NewAtomicPattern(minter),
		realtime: NewRealtimePattern(),
		scrum:    make(map[string]*ScrumAtScalePattern),
		roberts:  make(map[string]*RobertsRulesPattern),
	}
}

// CoordinateRequest is the input to Coordinate.
type CoordinateRequest struct {
	Pattern       Pattern
	Correlation   telemetry.CorrelationID
	Participants  []string
	RealtimeCfg   RealtimeContext
	OracleContext map[string]string
}

// CoordinateResult reports what the dispatched pattern produced plus the
// oracle's (best-effort) advisory analysis.
type CoordinateResult struct {
	Epoch    int64
	Pulses   *RealtimeResult
	Duration time.Duration
	Analysis *oracle.Analysis
}

// Coordinate implements spec step sequence: open span, snapshot registry,
// best-effort oracle analyze, dispatch to the pattern, record
// duration/outcome. Atomic and Realtime are single-shot "run" patterns
// dispatched directly here; ScrumAtScale and RobertsRules are long-lived
// ceremony/motion state machines spanning many calls and are reached via
// Dispatcher.ScrumSession / Dispatcher.RobertsSession instead.
func (d *Dispatcher) Coordinate(ctx context.Context, req CoordinateRequest) (*CoordinateResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	start := time.Now()

	var span *telemetry.SpanHandle
	if d.spine != nil {
		span = d.spine.OpenSpan(ctx, "coordination."+string(req.Pattern), nil, req.Correlation, map[string]string{
			"pattern.name": string(req.Pattern),
		})
		ctx = span.Context()
		defer func() {
			_ = d.spine.CloseSpan(span)
		}()
	}

	_ = d.registry.Snapshot() // pattern state machines consult this via future extension points

	result := &CoordinateResult{}

	if d.oracle != nil {
		octx, cancel := oracle.WithDeadline(ctx)
		analysis, err := d.oracle.Analyze(octx, req.OracleContext)
		cancel()
		if err == nil {
			result.Analysis = analysis
		}
		// Any oracle failure: proceed with pattern-default behavior.
	}

	switch req.Pattern {
	case PatternAtomic:
		res, err := d.atomic.Run(ctx, d.spine, span, AtomicContext{Participants: req.Participants})
		if err != nil {
			return nil, err
		}
		result.Epoch = res.Epoch

	case PatternRealtime:
		rctx := req.RealtimeCfg
		rctx.Participants = req.Participants
		res, err := d.realtime.Run(ctx, d.spine, span, rctx)
		if err != nil {
			return nil, err
		}
		result.Pulses = res

	default:
		return nil, swarmerr.Newf(swarmerr.InvalidTransition, "pattern %q is not a single-shot coordinate pattern; use its dedicated session accessor", req.Pattern)
	}

	result.Duration = time.Since(start)
	if d.spine != nil {
		d.spine.RecordDuration(ctx, string(req.Pattern), result.Duration)
	}
	return result, nil
}

// ScrumSession returns the ScrumAtScalePattern for sessionID, creating one
// bound to sprintLength on first use.
func (d *Dispatcher) ScrumSession(sessionID string, sprintLength int) *ScrumAtScalePattern {
	d.scrumMu.Lock()
	defer d.scrumMu.Unlock()
	if p, ok := d.scrum[sessionID]; ok {
		return p
	}
	p := NewScrumAtScalePattern(sprintLength)
	d.scrum[sessionID] = p
	return p
}

// RobertsSession returns the RobertsRulesPattern for sessionID, creating
// one bound to participants/willSecond on first use.
func (d *Dispatcher) RobertsSession(sessionID string, participants []string, willSecond WillSecond) *RobertsRulesPattern {
	d.robertsMu.Lock()
	defer d.robertsMu.Unlock()
	if p, ok := d.roberts[sessionID]; ok {
		return p
	}
	p := NewRobertsRulesPattern(participants, willSecond)
	d.roberts[sessionID] = p
	return p
}
