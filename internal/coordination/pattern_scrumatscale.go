package coordination

import (
	"context"
	"fmt"

	"github.com/dlorenc/swarmsh-core/internal/swarmerr"
	"github.com/dlorenc/swarmsh-core/internal/telemetry"
)

// ScrumPhase is a step in the ScrumAtScale ceremony sequence.
type ScrumPhase string

const (
	ScrumPhaseSprintPlanning ScrumPhase = "SprintPlanning"
	ScrumPhaseDailyScrum     ScrumPhase = "DailyScrum"
	ScrumPhaseSprintReview   ScrumPhase = "SprintReview"
	ScrumPhaseRetrospective  ScrumPhase = "Retrospective"
	ScrumPhaseTerminal       ScrumPhase = "Terminal"
)

// ScrumAtScalePattern (C8) sequences the SprintPlanning -> DailyScrum* ->
// SprintReview -> Retrospective ceremony. It owns no backlog or story-point
// state itself; it only sequences phases and emits the corresponding
// telemetry events, leaving rich payloads to external collaborators.
type ScrumAtScalePattern struct {
	sprintLength int // bounds how many DailyScrum repeats are permitted
	phase        ScrumPhase
	dailyCount   int
}

// NewScrumAtScalePattern constructs a pattern bounded to sprintLength daily
// scrums per sprint.
func NewScrumAtScalePattern(sprintLength int) *ScrumAtScalePattern {
	if sprintLength <= 0 {
		sprintLength = 10
	}
	return &ScrumAtScalePattern{sprintLength: sprintLength, phase: ScrumPhaseSprintPlanning}
}

// Phase returns the pattern's current ceremony phase.
func (p *ScrumAtScalePattern) Phase() ScrumPhase {
	return p.phase
}

// PlanSprint emits plan_created and transitions SprintPlanning -> DailyScrum.
func (p *ScrumAtScalePattern) PlanSprint(ctx context.Context, spine *telemetry.Spine, span *telemetry.SpanHandle, sprintID string, backlog []string) error {
	if p.phase != ScrumPhaseSprintPlanning {
		return swarmerr.Newf(swarmerr.InvalidTransition, "cannot plan sprint from phase %s", p.phase)
	}
	if spine != nil {
		spine.Event(ctx, span, "plan_created", map[string]string{
			"sprint.id":            sprintID,
			"sprint.backlog_count": fmt.Sprintf("%d", len(backlog)),
		})
	}
	p.phase = ScrumPhaseDailyScrum
	return nil
}

// DailyUpdate emits daily_update; it may be called repeatedly but is
// bounded by the configured sprint length.
func (p *ScrumAtScalePattern) DailyUpdate(ctx context.Context, spine *telemetry.Spine, span *telemetry.SpanHandle, day int, impediments []string) error {
	if p.phase != ScrumPhaseDailyScrum {
		return swarmerr.Newf(swarmerr.InvalidTransition, "cannot record daily update from phase %s", p.phase)
	}
	if p.dailyCount >= p.sprintLength {
		return swarmerr.Newf(swarmerr.InvalidTransition, "daily scrum count %d exceeds configured sprint length %d", p.dailyCount, p.sprintLength)
	}
	p.dailyCount++
	if spine != nil {
		spine.Event(ctx, span, "daily_update", map[string]string{
			"sprint.day":              fmt.Sprintf("%d", day),
			"sprint.impediment_count": fmt.Sprintf("%d", len(impediments)),
		})
	}
	return nil
}

// Review emits review and transitions DailyScrum -> SprintReview.
func (p *ScrumAtScalePattern) Review(ctx context.Context, spine *telemetry.Spine, span *telemetry.SpanHandle, storyPointsDelivered int, valueScore float64) error {
	if p.phase != ScrumPhaseDailyScrum {
		return swarmerr.Newf(swarmerr.InvalidTransition, "cannot review from phase %s", p.phase)
	}
	if spine != nil {
		spine.Event(ctx, span, "review", map[string]string{
			"sprint.story_points_delivered": fmt.Sprintf("%d", storyPointsDelivered),
			"sprint.value_score":            fmt.Sprintf("%f", valueScore),
		})
	}
	p.phase = ScrumPhaseSprintReview
	return nil
}

// Retrospective emits retro and transitions SprintReview -> Retrospective.
// Calling NextSprint afterward resets the pattern to SprintPlanning for the
// following sprint.
func (p *ScrumAtScalePattern) Retrospective(ctx context.Context, spine *telemetry.Spine, span *telemetry.SpanHandle, actionItems []string) error {
	if p.phase != ScrumPhaseSprintReview {
		return swarmerr.Newf(swarmerr.InvalidTransition, "cannot retro from phase %s", p.phase)
	}
	if spine != nil {
		spine.Event(ctx, span, "retro", map[string]string{
			"sprint.action_item_count": fmt.Sprintf("%d", len(actionItems)),
		})
	}
	p.phase = ScrumPhaseRetrospective
	return nil
}

// NextSprint resets the pattern for a new sprint cycle after a completed
// Retrospective, or moves to Terminal if the caller declines to continue.
func (p *ScrumAtScalePattern) NextSprint(continue_ bool) error {
	if p.phase != ScrumPhaseRetrospective {
		return swarmerr.Newf(swarmerr.InvalidTransition, "cannot start next sprint from phase %s", p.phase)
	}
	if continue_ {
		p.phase = ScrumPhaseSprintPlanning
		p.dailyCount = 0
	} else {
		p.phase = ScrumPhaseTerminal
	}
	return nil
}
