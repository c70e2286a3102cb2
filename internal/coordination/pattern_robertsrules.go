package coordination

import (
	"context"
	"sync"
	"time"

	"github.com/dlorenc/swarmsh-core/internal/swarmerr"
	"github.com/dlorenc/swarmsh-core/internal/telemetry"
)

// MotionStatus is a state in the RobertsRules motion lifecycle.
type MotionStatus string

const (
	MotionSubmitted   MotionStatus = "Submitted"
	MotionSeconded    MotionStatus = "Seconded"
	MotionUnderDebate MotionStatus = "UnderDebate"
	MotionReadyToVote MotionStatus = "ReadyForVote"
	MotionAdopted     MotionStatus = "Adopted"
	MotionRejected    MotionStatus = "Rejected"
	MotionWithdrawn   MotionStatus = "Withdrawn"
)

// Vote is one participant's ballot choice.
type Vote string

const (
	VoteAye     Vote = "Aye"
	VoteNay     Vote = "Nay"
	VoteAbstain Vote = "Abstain"
	VotePresent Vote = "Present"
)

// Ballot is one recorded vote.
type Ballot struct {
	VoterID   string
	Vote      Vote
	Timestamp time.Time
}

// Motion is one item moving through the RobertsRules lifecycle. Amendments
// nest via ParentID and are resolved before their parent (stack discipline).
type Motion struct {
	ID         string
	Text       string
	MoverID    string
	SeconderID string
	ParentID   string
	Status     MotionStatus
	Ballots    []Ballot
	spoken     map[string]bool
}

// WillSecond predicates whether participantID would second motion. Callers
// supply this externally; a common default seconds anything but the
// mover's own motion.
type WillSecond func(participantID string, motion *Motion) bool

// RobertsRulesPattern (C9) drives the parliamentary motion lifecycle:
// Submitted -> Seconded -> UnderDebate -> ReadyForVote ->
// (Adopted | Rejected | Withdrawn). A session is long-lived and driven by
// many participants calling concurrently over the lifetime of a motion, so
// mu guards every field below.
type RobertsRulesPattern struct {
	mu           sync.Mutex
	participants []string
	willSecond   WillSecond
	motions      map[string]*Motion
	stack        []string // motion ids; top of stack resolves first
	now          func() time.Time
}

// NewRobertsRulesPattern constructs a pattern over participants, using
// willSecond to decide whether a given member seconds a motion.
func NewRobertsRulesPattern(participants []string, willSecond WillSecond) *RobertsRulesPattern {
	return &RobertsRulesPattern{
		participants: participants,
		willSecond:   willSecond,
		motions:      make(map[string]*Motion),
		now:          time.Now,
	}
}

// Quorum returns ceil((N+1)/2) for the configured participant set.
func (p *RobertsRulesPattern) Quorum() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.participants)
	return (n + 2) / 2
}

// top and the other unexported helpers below assume the caller already
// holds p.mu; they are never called without it.
func (p *RobertsRulesPattern) top() (*Motion, error) {
	if len(p.stack) == 0 {
		return nil, swarmerr.New(swarmerr.NotFound, "no motion is pending")
	}
	return p.motions[p.stack[len(p.stack)-1]], nil
}

// Submit introduces a new motion, or a germane amendment to parentID if
// non-empty. Amendments are pushed above their parent on the stack and must
// be resolved (Adopted, Rejected, or Withdrawn) before the parent can
// proceed, enforcing stack discipline.
func (p *RobertsRulesPattern) Submit(id, text, moverID, parentID string) (*Motion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.motions[id]; exists {
		return nil, swarmerr.Newf(swarmerr.AlreadyExists, "motion %q already submitted", id)
	}
	if parentID != "" {
		parent, ok := p.motions[parentID]
		if !ok {
			return nil, swarmerr.Newf(swarmerr.NotFound, "parent motion %q not found", parentID)
		}
		if parent.Status == MotionAdopted || parent.Status == MotionRejected || parent.Status == MotionWithdrawn {
			return nil, swarmerr.Newf(swarmerr.InvalidTransition, "parent motion %q already resolved", parentID)
		}
	}

	m := &Motion{
		ID:       id,
		Text:     text,
		MoverID:  moverID,
		ParentID: parentID,
		Status:   MotionSubmitted,
		spoken:   make(map[string]bool),
	}
	p.motions[id] = m
	p.stack = append(p.stack, id)
	return m, nil
}

func (p *RobertsRulesPattern) requireTop(id string) (*Motion, error) {
	m, err := p.top()
	if err != nil {
		return nil, err
	}
	if m.ID != id {
		return nil, swarmerr.Newf(swarmerr.InvalidTransition, "motion %q must resolve before %q per stack discipline", id, m.ID)
	}
	return m, nil
}

// Second attempts a single pass over participants (excluding the mover),
// honoring willSecond. The first participant for whom it returns true
// becomes the seconder and the motion transitions to Seconded; otherwise
// the motion is Withdrawn and popped from the stack.
func (p *RobertsRulesPattern) Second(ctx context.Context, spine *telemetry.Spine, span *telemetry.SpanHandle, motionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, err := p.requireTop(motionID)
	if err != nil {
		return err
	}
	if m.Status != MotionSubmitted {
		return swarmerr.Newf(swarmerr.InvalidTransition, "motion %q is not awaiting a seconder (status %s)", motionID, m.Status)
	}

	for _, participant := range p.participants {
		if participant == m.MoverID {
			continue
		}
		if p.willSecond(participant, m) {
			m.SeconderID = participant
			m.Status = MotionSeconded
			if spine != nil {
				spine.Event(ctx, span, "motion_seconded", map[string]string{
					"motion.id":       motionID,
					"motion.seconder": participant,
				})
			}
			return nil
		}
	}

	m.Status = MotionWithdrawn
	p.pop()
	if spine != nil {
		spine.Event(ctx, span, "motion_withdrawn", map[string]string{
			"motion.id":     motionID,
			"motion.reason": "no_seconder",
		})
	}
	return nil
}

// OpenDebate transitions Seconded -> UnderDebate.
func (p *RobertsRulesPattern) OpenDebate(motionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, err := p.requireTop(motionID)
	if err != nil {
		return err
	}
	if m.Status != MotionSeconded {
		return swarmerr.Newf(swarmerr.InvalidTransition, "motion %q cannot open debate from status %s", motionID, m.Status)
	}
	m.Status = MotionUnderDebate
	return nil
}

// Contribute records participantID's one contribution to the debate.
// Duplicate contributions from the same participant are rejected.
func (p *RobertsRulesPattern) Contribute(motionID, participantID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, err := p.requireTop(motionID)
	if err != nil {
		return err
	}
	if m.Status != MotionUnderDebate {
		return swarmerr.Newf(swarmerr.InvalidTransition, "motion %q is not under debate (status %s)", motionID, m.Status)
	}
	if m.spoken[participantID] {
		return swarmerr.Newf(swarmerr.InvalidTransition, "participant %q has already contributed to motion %q", participantID, motionID)
	}
	m.spoken[participantID] = true
	return nil
}

// CloseDebate transitions UnderDebate -> ReadyForVote.
func (p *RobertsRulesPattern) CloseDebate(motionID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, err := p.requireTop(motionID)
	if err != nil {
		return err
	}
	if m.Status != MotionUnderDebate {
		return swarmerr.Newf(swarmerr.InvalidTransition, "motion %q cannot close debate from status %s", motionID, m.Status)
	}
	m.Status = MotionReadyToVote
	return nil
}

// Vote records voterID's ballot. Only one ballot per voter is accepted, and
// only while the motion is ReadyForVote; the ballot set is immutable once
// Tally resolves the motion.
func (p *RobertsRulesPattern) Vote(motionID, voterID string, vote Vote) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, err := p.requireTop(motionID)
	if err != nil {
		return err
	}
	if m.Status != MotionReadyToVote {
		return swarmerr.Newf(swarmerr.InvalidTransition, "motion %q is not open for voting (status %s)", motionID, m.Status)
	}
	for _, b := range m.Ballots {
		if b.VoterID == voterID {
			return swarmerr.Newf(swarmerr.InvalidTransition, "voter %q has already voted on motion %q", voterID, motionID)
		}
	}
	m.Ballots = append(m.Ballots, Ballot{VoterID: voterID, Vote: vote, Timestamp: p.now()})
	return nil
}

// Tally resolves a ReadyForVote motion to Adopted or Rejected per quorum and
// majority rules, then pops it from the stack so its parent (if any) can
// proceed. Adopted requires |Aye| > |Nay| and |Aye|+|Nay| >= quorum; a tie
// or an unmet quorum resolves to Rejected.
func (p *RobertsRulesPattern) Tally(ctx context.Context, spine *telemetry.Spine, span *telemetry.SpanHandle, motionID string) (MotionStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, err := p.requireTop(motionID)
	if err != nil {
		return "", err
	}
	if m.Status != MotionReadyToVote {
		return "", swarmerr.Newf(swarmerr.InvalidTransition, "motion %q cannot be tallied from status %s", motionID, m.Status)
	}

	var aye, nay int
	for _, b := range m.Ballots {
		switch b.Vote {
		case VoteAye:
			aye++
		case VoteNay:
			nay++
		}
	}

	// p.mu is already held, so compute ceil((N+1)/2) inline rather than via
	// Quorum, which would lock it again.
	quorum := (len(p.participants) + 2) / 2
	if aye > nay && aye+nay >= quorum {
		m.Status = MotionAdopted
	} else {
		m.Status = MotionRejected
	}
	p.pop()

	if spine != nil {
		spine.Event(ctx, span, "motion_resolved", map[string]string{
			"motion.id":     motionID,
			"motion.status": string(m.Status),
		})
	}
	return m.Status, nil
}

func (p *RobertsRulesPattern) pop() {
	if len(p.stack) == 0 {
		return
	}
	p.stack = p.stack[:len(p.stack)-1]
}

// Get returns a copy of the motion for inspection.
func (p *RobertsRulesPattern) Get(motionID string) (*Motion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, ok := p.motions[motionID]
	if !ok {
		return nil, swarmerr.Newf(swarmerr.NotFound, "motion %q not found", motionID)
	}
	out := *m
	return &out, nil
}
