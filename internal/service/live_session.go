package service

import (
	"sync"
	"sync/atomic"
	"time"

	"livepoll/internal/model"
)

type selectionPhase int

const (
	phaseIdle selectionPhase = iota
	phaseTransitioning
	phaseLive
)

func (p selectionPhase) String() string {
	switch p {
	case phaseTransitioning:
		return "transitioning"
	case phaseLive:
		return "live"
	default:
		return "idle"
	}
}

// closingEntry is the pending close of one question.
type closingEntry struct {
	epoch     uint64
	timer     Timer
	startedAt time.Time
	deadline  time.Time

	// committing is set once the timer fired and MarkClosed is running.
	// done is closed when that call returns.
	committing bool
	done       chan struct{}
}

// liveSession is the in-memory realtime state of one session.
// All fields except epochs are guarded by mu.
type liveSession struct {
	mu      sync.Mutex
	id      int64
	dropped bool

	phase    selectionPhase
	current  *int64
	previous *int64
	target   *model.AudienceQuestion
	deadline time.Time
	timer    Timer
	epoch    uint64

	closing map[int64]*closingEntry

	// epochs is shared by every record of the service, so a record created
	// after the previous one was dropped never reuses a stale epoch.
	epochs *atomic.Uint64
}

func newLiveSession(id int64, epochs *atomic.Uint64) *liveSession {
	return &liveSession{
		id:      id,
		closing: make(map[int64]*closingEntry),
		epochs:  epochs,
	}
}

func (ls *liveSession) nextEpoch() uint64 {
	return ls.epochs.Add(1)
}

// stopTransition cancels the pending transition timer and invalidates any
// callback already in flight.
func (ls *liveSession) stopTransition() {
	if ls.timer != nil {
		ls.timer.Stop()
		ls.timer = nil
	}
	ls.epoch = ls.nextEpoch()
}

func (ls *liveSession) reset() {
	ls.stopTransition()
	ls.phase = phaseIdle
	ls.current = nil
	ls.previous = nil
	ls.target = nil
	ls.deadline = time.Time{}
}

func (ls *liveSession) idle() bool {
	return ls.phase == phaseIdle && ls.timer == nil && len(ls.closing) == 0
}

// SelectionState is a point-in-time view of a session's selection.
type SelectionState struct {
	Phase              string
	QuestionID         *int64
	PreviousQuestionID *int64
	Deadline           time.Time
}

// ClosingState is a point-in-time view of a pending question close.
type ClosingState struct {
	SessionID  int64
	StartedAt  time.Time
	Deadline   time.Time
	Committing bool
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
