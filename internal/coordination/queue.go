package coordination

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/dlorenc/swarmsh-core/internal/ids"
	"github.com/dlorenc/swarmsh-core/internal/oracle"
	"github.com/dlorenc/swarmsh-core/internal/swarmerr"
)

// Queue is the Work Queue (C4): a priority-ordered set of available work
// items plus the claim table tracking every work id's lifecycle. Claiming
// is atomic end to end (invariant I3): a single lock serializes the scan,
// optional oracle consult, removal from Available, and claim record.
type Queue struct {
	config *Config
	minter *ids.Minter
	oracle oracle.Oracle

	sem chan struct{}

	available []*WorkItem
	claims    map[string]*WorkClaim
}

// NewQueue creates an empty Queue. orc may be nil, in which case the
// capability scan is used unconditionally.
func NewQueue(config *Config, minter *ids.Minter, orc oracle.Oracle) *Queue {
	if orc == nil {
		orc = oracle.NewNull()
	}
	return &Queue{
		config:    config,
		minter:    minter,
		oracle:    orc,
		sem:       make(chan struct{}, 1),
		claims:    make(map[string]*WorkClaim),
	}
}

// acquire takes the queue's single write lock, failing with LockTimeout if
// it cannot be acquired within the configured wait (default 5s), or
// Cancelled if ctx is done first. Retrying on LockTimeout is the caller's
// responsibility (spec §4.4).
func (q *Queue) acquire(ctx context.Context) error {
	timeout := q.config.LockTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if err := ctx.Err(); err != nil {
		return swarmerr.Wrap(swarmerr.Cancelled, "cancelled acquiring queue lock", err)
	}
	select {
	case q.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return swarmerr.Wrap(swarmerr.Cancelled, "cancelled acquiring queue lock", ctx.Err())
	case <-time.After(timeout):
		return swarmerr.New(swarmerr.LockTimeout, "timed out acquiring queue lock")
	}
}

func (q *Queue) release() {
	<-q.sem
}

// AddWork inserts item into the Available set, maintaining descending
// priority order with ties broken by ascending created_at.
func (q *Queue) AddWork(ctx context.Context, item WorkItem) error {
	if err := q.acquire(ctx); err != nil {
		return err
	}
	defer q.release()

	stored := item
	q.available = append(q.available, &stored)
	sort.SliceStable(q.available, func(i, j int) bool {
		if q.available[i].Priority != q.available[j].Priority {
			return q.available[i].Priority > q.available[j].Priority
		}
		return q.available[i].CreatedAt.Before(q.available[j].CreatedAt)
	})

	q.claims[item.ID] = &WorkClaim{
		WorkID:    item.ID,
		Status:    WorkClaimStatusAvailable,
		UpdatedAt: time.Now(),
	}
	return nil
}

func matchesCapability(item *WorkItem, spec AgentSpec) bool {
	have := make(map[string]bool, len(spec.Specializations))
	for _, s := range spec.Specializations {
		have[s] = true
	}
	for _, req := range item.Requirements {
		if !have[req] {
			return false
		}
	}
	return true
}

// GetWorkForAgent implements the claim protocol of spec §4.4: it scans the
// Available set in priority order for the first item whose requirements
// are satisfied by spec's specializations, optionally preferring an oracle
// suggestion, then atomically removes the chosen item and records a claim.
// Returns (nil, nil) if no eligible item exists.
func (q *Queue) GetWorkForAgent(ctx context.Context, spec AgentSpec) (*WorkItem, error) {
	if err := q.acquire(ctx); err != nil {
		return nil, err
	}
	defer q.release()

	if len(q.available) == 0 {
		return nil, nil
	}

	chosen := -1

	if decision, err := q.consultOracle(ctx, spec); err == nil && decision != nil {
		if wid, ok := decision.Parameters["work_id"]; ok {
			for i, item := range q.available {
				if item.ID == wid && matchesCapability(item, spec) {
					chosen = i
					break
				}
			}
		}
	}

	if chosen == -1 {
		for i, item := range q.available {
			if matchesCapability(item, spec) {
				chosen = i
				break
			}
		}
	}

	if chosen == -1 {
		return nil, nil
	}

	item := q.available[chosen]
	q.available = append(q.available[:chosen], q.available[chosen+1:]...)

	epoch, err := q.minter.MintEpoch()
	if err != nil {
		// Roll back: the item is not removed from Available on failure.
		q.available = append(q.available, item)
		sort.SliceStable(q.available, func(i, j int) bool {
			if q.available[i].Priority != q.available[j].Priority {
				return q.available[i].Priority > q.available[j].Priority
			}
			return q.available[i].CreatedAt.Before(q.available[j].CreatedAt)
		})
		return nil, err
	}

	now := time.Now()
	q.claims[item.ID] = &WorkClaim{
		WorkID:     item.ID,
		AgentID:    spec.ID,
		ClaimEpoch: epoch,
		Status:     WorkClaimStatusClaimed,
		ClaimedAt:  now,
		UpdatedAt:  now,
	}

	return item, nil
}

// consultOracle asks the oracle (if any) to recommend a work item for
// spec. Any failure, low confidence, or absence of an oracle is treated as
// "no advice": the caller falls through to the capability scan.
func (q *Queue) consultOracle(ctx context.Context, spec AgentSpec) (*oracle.Decision, error) {
	octx, cancel := oracle.WithDeadline(ctx)
	defer cancel()

	snapshot := map[string]string{
		"agent.id":              spec.ID,
		"agent.specializations": strings.Join(spec.Specializations, ","),
		"work.available_count":  strconv.Itoa(len(q.available)),
	}
	decision, err := q.oracle.Decide(octx, snapshot, "work_assignment")
	if err != nil {
		return nil, err
	}
	if !oracle.MeetsThreshold(decision.Confidence) {
		return nil, nil
	}
	return decision, nil
}

// UpdateProgress records progress∈[0,100] against a claimed work item.
func (q *Queue) UpdateProgress(ctx context.Context, workID, agentID string, progress int) error {
	if err := q.acquire(ctx); err != nil {
		return err
	}
	defer q.release()

	claim, exists := q.claims[workID]
	if !exists {
		return swarmerr.Newf(swarmerr.NotFound, "work item %q not found", workID)
	}
	if claim.Status != WorkClaimStatusClaimed && claim.Status != WorkClaimStatusInProgress {
		return swarmerr.Newf(swarmerr.InvalidTransition, "work item %q is not claimed (status: %s)", workID, claim.Status)
	}
	if claim.AgentID != agentID {
		return swarmerr.Newf(swarmerr.InvalidTransition, "work item %q is claimed by a different agent", workID)
	}

	claim.Status = WorkClaimStatusInProgress
	claim.Progress = progress
	claim.UpdatedAt = time.Now()
	return nil
}

// Complete finalizes a claim with outcome, transitioning it to Completed
// (regardless of whether the outcome itself was a success).
func (q *Queue) Complete(ctx context.Context, workID, agentID string, outcome WorkOutcome) error {
	if err := q.acquire(ctx); err != nil {
		return err
	}
	defer q.release()

	claim, exists := q.claims[workID]
	if !exists {
		return swarmerr.Newf(swarmerr.NotFound, "work item %q not found", workID)
	}
	if claim.Status != WorkClaimStatusClaimed && claim.Status != WorkClaimStatusInProgress {
		return swarmerr.Newf(swarmerr.InvalidTransition, "work item %q is not claimed (status: %s)", workID, claim.Status)
	}
	if claim.AgentID != agentID {
		return swarmerr.Newf(swarmerr.InvalidTransition, "work item %q is claimed by a different agent", workID)
	}

	claim.Status = WorkClaimStatusCompleted
	claim.Result = &outcome
	claim.UpdatedAt = time.Now()
	return nil
}

// Release rolls a claim back to Available, e.g. on cancellation before the
// caller observed a completed claim (spec §5, suspension points).
func (q *Queue) Release(ctx context.Context, workID string) error {
	if err := q.acquire(ctx); err != nil {
		return err
	}
	defer q.release()

	claim, exists := q.claims[workID]
	if !exists {
		return swarmerr.Newf(swarmerr.NotFound, "work item %q not found", workID)
	}
	if claim.Status != WorkClaimStatusClaimed && claim.Status != WorkClaimStatusInProgress {
		return swarmerr.Newf(swarmerr.InvalidTransition, "work item %q is not claimed (status: %s)", workID, claim.Status)
	}

	claim.Status = WorkClaimStatusAvailable
	claim.AgentID = ""
	claim.ClaimEpoch = 0
	claim.Progress = 0
	claim.UpdatedAt = time.Now()
	return nil
}

// GetClaim returns a copy of the claim record for workID.
func (q *Queue) GetClaim(workID string) (*WorkClaim, error) {
	// Claim-table reads are protected by the same lock as writes; this
	// keeps the lock discipline uniform even though reads could in
	// principle be lock-free.
	if err := q.acquire(context.Background()); err != nil {
		return nil, err
	}
	defer q.release()

	claim, exists := q.claims[workID]
	if !exists {
		return nil, swarmerr.Newf(swarmerr.NotFound, "work item %q not found", workID)
	}
	out := *claim
	return &out, nil
}

// Peek returns a copy of the Available set in priority order.
func (q *Queue) Peek(ctx context.Context) ([]WorkItem, error) {
	if err := q.acquire(ctx); err != nil {
		return nil, err
	}
	defer q.release()

	out := make([]WorkItem, len(q.available))
	for i, item := range q.available {
		out[i] = *item
	}
	return out, nil
}

// Len returns the number of items currently Available.
func (q *Queue) Len(ctx context.Context) (int, error) {
	if err := q.acquire(ctx); err != nil {
		return 0, err
	}
	defer q.release()
	return len(q.available), nil
}

// Clear empties the Available set and the claim table.
func (q *Queue) Clear(ctx context.Context) error {
	if err := q.acquire(ctx); err != nil {
		return err
	}
	defer q.release()

	q.available = nil
	q.claims = make(map[string]*WorkClaim)
	return nil
}

// GetStats returns aggregate queue statistics for status/analytics output.
func (q *Queue) GetStats() map[string]interface{} {
	// Best-effort snapshot; used by read-mostly status reporting, so a
	// short blocking acquire with a background context is acceptable.
	if err := q.acquire(context.Background()); err != nil {
		return map[string]interface{}{"error": err.Error()}
	}
	defer q.release()

	counts := map[WorkClaimStatus]int{}
	for _, claim := range q.claims {
		counts[claim.Status]++
	}

	return map[string]interface{}{
		"available":   len(q.available),
		"claimed":     counts[WorkClaimStatusClaimed],
		"in_progress": counts[WorkClaimStatusInProgress],
		"completed":   counts[WorkClaimStatusCompleted],
		"cancelled":   counts[WorkClaimStatusCancelled],
	}
}

// GetWorkForAgentWithRetry wraps GetWorkForAgent with caller-side
// exponential backoff, per spec §4.4's failure semantics: LockTimeout "is
// retried with exponential backoff by callers, not internally". maxElapsed
// bounds the total retry window; a zero value uses backoff's own default
// (15 minutes).
func (q *Queue) GetWorkForAgentWithRetry(ctx context.Context, spec AgentSpec, maxElapsed time.Duration) (*WorkItem, error) {
	b := backoff.NewExponentialBackOff()
	if maxElapsed > 0 {
		b.MaxElapsedTime = maxElapsed
	}
	bctx := backoff.WithContext(b, ctx)

	var item *WorkItem
	operation := func() error {
		var err error
		item, err = q.GetWorkForAgent(ctx, spec)
		if err != nil && swarmerr.KindOf(err) != swarmerr.LockTimeout {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := backoff.Retry(operation, bctx); err != nil {
		return nil, err
	}
	return item, nil
}

