package coordination

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dlorenc/swarmsh-core/internal/ids"
	"github.com/dlorenc/swarmsh-core/internal/telemetry"
)

// DefaultPulseCount is N, the number of synchronization pulses emitted per
// coordination call when the caller does not specify one.
const DefaultPulseCount = 10

// skewFactor is the multiple of the requested interval beyond which an
// observed gap between pulses is recorded as clock_skew.
const skewFactor = 10

// Pulse records one (participant_id, pulse_index, timestamp_ns) observation.
type Pulse struct {
	ParticipantID string
	Index         int
	TimestampNs   int64
}

// RealtimePattern (C7) establishes a shared timing reference across
// participants by emitting a fixed number of nanosecond-precision pulses.
// It requires no participant-to-participant messaging.
type RealtimePattern struct {
	now    func() time.Time
	minter *ids.Minter
}

// NewRealtimePattern constructs a RealtimePattern using the wall clock.
func NewRealtimePattern() *RealtimePattern {
	return &RealtimePattern{now: time.Now, minter: ids.New()}
}

// RealtimeContext configures one coordination call.
type RealtimeContext struct {
	Participants []string
	PulseCount   int           // defaults to DefaultPulseCount if zero
	Interval     time.Duration // requested spacing between pulses
}

// RealtimeResult reports every emitted pulse and any clock_skew occurrences.
type RealtimeResult struct {
	Pulses   []Pulse
	SkewedAt []int // pulse indices where an excessive gap was observed
}

// Run emits PulseCount pulses per participant, sleeping Interval between
// each round. Pulse timestamps are minted through a floor-advancing
// ids.Minter, so result.Pulses is strictly increasing end-to-end (spec
// §4.7) rather than merely non-decreasing: two pulses landing on the same
// observed nanosecond, or a minor clock regression, still receive distinct
// values. A round whose observed gap since the previous round exceeds
// skewFactor*Interval emits a clock_skew event and is recorded in SkewedAt.
func (p *RealtimePattern) Run(ctx context.Context, spine *telemetry.Spine, span *telemetry.SpanHandle, rctx RealtimeContext) (*RealtimeResult, error) {
	count := rctx.PulseCount
	if count <= 0 {
		count = DefaultPulseCount
	}
	interval := rctx.Interval
	if interval <= 0 {
		interval = time.Millisecond
	}

	result := &RealtimeResult{}
	lastRound := p.now()

	for i := 0; i < count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(interval):
			}
		}

		roundTime := p.now()
		gap := roundTime.Sub(lastRound)
		if i > 0 && gap > interval*skewFactor {
			result.SkewedAt = append(result.SkewedAt, i)
			if spine != nil {
				spine.Event(ctx, span, "clock_skew", map[string]string{
					"pulse.index":        fmt.Sprintf("%d", i),
					"pulse.gap_ns":       fmt.Sprintf("%d", gap.Nanoseconds()),
					"pulse.requested_ns": fmt.Sprintf("%d", interval.Nanoseconds()),
				})
			}
		}
		lastRound = roundTime

		// Each participant's pulse is recorded by its own goroutine so
		// that a shared timing reference is established as close to
		// simultaneously as the runtime allows, rather than serializing
		// participants one after another within the round. Pulses are
		// appended in acquisition order rather than participant order;
		// each timestamp is minted through p.mintPulseTimestamp (rather
		// than a bare clock read) under the same lock as its append, which
		// is what keeps the returned sequence strictly increasing despite
		// concurrent goroutines racing to append.
		var roundPulses []Pulse
		g, gctx := errgroup.WithContext(ctx)
		var mu sync.Mutex
		for _, participant := range rctx.Participants {
			participant := participant
			g.Go(func() error {
				select {
				case <-gctx.Done():
					return gctx.Err()
				default:
				}
				mu.Lock()
				defer mu.Unlock()
				ts, err := p.mintPulseTimestamp()
				if err != nil {
					return err
				}
				roundPulses = append(roundPulses, Pulse{
					ParticipantID: participant,
					Index:         i,
					TimestampNs:   ts,
				})
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return result, err
		}
		result.Pulses = append(result.Pulses, roundPulses...)
	}

	return result, nil
}

// mintPulseTimestamp returns a strictly-increasing nanosecond value via
// p.minter. Falls back to a bare clock read when no minter is configured
// (a zero-value RealtimePattern used directly in tests), matching the
// previous behavior for those callers.
func (p *RealtimePattern) mintPulseTimestamp() (int64, error) {
	if p.minter == nil {
		return p.now().UnixNano(), nil
	}
	return p.minter.MintEpoch()
}
