package service

import (
	"sync"
	"sync/atomic"
	"time"

	"livepoll/internal/model"
)

// LiveService owns the realtime selection and closing state of every
// session and emits the matching events through the broadcaster.
type LiveService struct {
	clock     Clock
	questions QuestionStore
	tokens    TokenInvalidator
	countdown time.Duration
	commitTTL time.Duration

	bmu         sync.RWMutex
	broadcaster Broadcaster

	mu       sync.Mutex
	sessions map[int64]*liveSession
	epochs   atomic.Uint64

	idxMu        sync.Mutex
	closingIndex map[int64]int64
}

// NewLiveService creates the realtime engine.
func NewLiveService(clock Clock, questions QuestionStore, tokens TokenInvalidator) *LiveService {
	if clock == nil {
		clock = RealClock()
	}
	return &LiveService{
		clock:        clock,
		questions:    questions,
		tokens:       tokens,
		countdown:    model.CountdownSeconds * time.Second,
		commitTTL:    10 * time.Second,
		broadcaster:  nopBroadcaster{},
		sessions:     make(map[int64]*liveSession),
		closingIndex: make(map[int64]int64),
	}
}

// SetBroadcaster wires the hub after construction.
func (s *LiveService) SetBroadcaster(b Broadcaster) {
	s.bmu.Lock()
	s.broadcaster = b
	s.bmu.Unlock()
}

// SetTimings overrides the countdown window and the timeout of store
// calls made when a countdown commits. Zero values keep the defaults.
// The fields are not synchronized: call it before the service is shared,
// as the server does during wiring.
func (s *LiveService) SetTimings(countdown, storeTimeout time.Duration) {
	if countdown > 0 {
		s.countdown = countdown
	}
	if storeTimeout > 0 {
		s.commitTTL = storeTimeout
	}
}

func (s *LiveService) countdownSeconds() int {
	return int((s.countdown + time.Second - 1) / time.Second)
}

func (s *LiveService) b() Broadcaster {
	s.bmu.RLock()
	defer s.bmu.RUnlock()
	return s.broadcaster
}

// lock returns the live record of the session, created on demand, with its
// mutex held.
func (s *LiveService) lock(id int64) *liveSession {
	for {
		s.mu.Lock()
		ls, ok := s.sessions[id]
		if !ok {
			ls = newLiveSession(id, &s.epochs)
			s.sessions[id] = ls
		}
		s.mu.Unlock()

		ls.mu.Lock()
		if !ls.dropped {
			return ls
		}
		ls.mu.Unlock()
	}
}

// unlock releases ls and drops it from the arena when nothing is pending.
func (s *LiveService) unlock(ls *liveSession) {
	idle := ls.idle()
	ls.mu.Unlock()
	if !idle {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if !ls.dropped && ls.idle() && s.sessions[ls.id] == ls {
		ls.dropped = true
		delete(s.sessions, ls.id)
	}
}

// Tracked reports how many sessions currently hold live state.
func (s *LiveService) Tracked() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// CloseSession tells both rooms the session closed, drops cached anonymous
// credentials and cancels a pending transition. Closing countdowns run on.
func (s *LiveService) CloseSession(sessionID int64) {
	ls := s.lock(sessionID)
	defer s.unlock(ls)

	toBoth(s.b(), sessionID, model.EventSessionClosed, model.SessionRef{SessionID: sessionID})
	if s.tokens != nil {
		s.tokens.InvalidateForSession(sessionID)
	}
	ls.reset()
}

// ReopenSession tells both rooms the session accepts participants again.
func (s *LiveService) ReopenSession(sessionID int64) {
	ls := s.lock(sessionID)
	defer s.unlock(ls)

	toBoth(s.b(), sessionID, model.EventSessionReopened, model.SessionRef{SessionID: sessionID})
}

// NewResponse forwards a raw answer to presenters and admins of the session.
func (s *LiveService) NewResponse(sessionID int64, payload model.AnonymousResponsePayload) {
	ls := s.lock(sessionID)
	defer s.unlock(ls)

	s.b().ToStaffFiltered(sessionID, model.EventNewAnonymousResponse, payload, elevatedStaff)
}

// ConnectedAudience is the number of live audience sockets of the session.
func (s *LiveService) ConnectedAudience(sessionID int64) int {
	return s.b().CountAudience(sessionID)
}

func (s *LiveService) indexClosing(questionID, sessionID int64) {
	s.idxMu.Lock()
	s.closingIndex[questionID] = sessionID
	s.idxMu.Unlock()
}

func (s *LiveService) unindexClosing(questionID, sessionID int64) {
	s.idxMu.Lock()
	if s.closingIndex[questionID] == sessionID {
		delete(s.closingIndex, questionID)
	}
	s.idxMu.Unlock()
}

func (s *LiveService) closingSession(questionID int64) (int64, bool) {
	s.idxMu.Lock()
	defer s.idxMu.Unlock()
	id, ok := s.closingIndex[questionID]
	return id, ok
}
