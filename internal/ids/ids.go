// Package ids mints process-unique identifiers of the form
// "<kind>_<nanos>", where nanos is a monotonically non-decreasing
// wall-clock-nanosecond value. It implements invariant I1: two identifiers
// minted by the same Minter are never equal, even when the clock reads the
// same nanosecond twice in a row or regresses slightly.
package ids

import (
	"fmt"
	"sync"
	"time"

	"github.com/dlorenc/swarmsh-core/internal/swarmerr"
)

// Minter mints Identifiers, holding a floor nanosecond value that only ever
// advances.
type Minter struct {
	mu        sync.Mutex
	floor     int64
	tolerance int64
	now       func() time.Time
}

// Option configures a Minter.
type Option func(*Minter)

// WithTolerance overrides the default 1-second clock-regression tolerance.
func WithTolerance(d time.Duration) Option {
	return func(m *Minter) {
		m.tolerance = d.Nanoseconds()
	}
}

// withClock overrides the time source; used by tests to simulate clock
// regression deterministically.
func withClock(now func() time.Time) Option {
	return func(m *Minter) {
		m.now = now
	}
}

// New creates a Minter with a 1-second default clock-regression tolerance.
func New(opts ...Option) *Minter {
	m := &Minter{
		tolerance: int64(time.Second),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mint returns an Identifier of the form "<kind>_<nanos>". It fails with a
// swarmerr ClockRegression error only if the underlying clock has moved
// backward by more than the configured tolerance; on a lesser regression,
// or on a repeated nanosecond, the floor is advanced by one and the call
// succeeds.
func (m *Minter) Mint(kind string) (string, error) {
	floor, err := m.mintFloor()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%d", kind, floor), nil
}

// MintEpoch returns a raw strictly-increasing nanosecond value, used for
// CoordinationEpoch (invariant I4) where no kind prefix is wanted.
func (m *Minter) MintEpoch() (int64, error) {
	return m.mintFloor()
}

func (m *Minter) mintFloor() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	observed := m.now().UnixNano()

	switch {
	case observed > m.floor:
		m.floor = observed
	case observed == m.floor:
		m.floor++
	default:
		regression := m.floor - observed
		if regression > m.tolerance {
			return 0, swarmerr.Newf(swarmerr.ClockRegression,
				"clock regressed by %dns, exceeding tolerance %dns", regression, m.tolerance)
		}
		m.floor++
	}

	return m.floor, nil
}
