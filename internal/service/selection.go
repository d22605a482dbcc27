package service

import (
	"time"

	"livepoll/internal/model"
)

// Select makes q the session's selected question.
//
// Re-selecting the question a transition is moving away from cancels the
// transition and keeps that question live. Any other selection opens a new
// countdown window: the audience is told immediately, staff are told the
// final selection, and the audience switches once the countdown fires.
// fallbackPrevious is used as the previous selection when no live state is
// held for the session.
func (s *LiveService) Select(sessionID int64, q *model.Question, fallbackPrevious *int64) {
	ls := s.lock(sessionID)
	defer s.unlock(ls)

	b := s.b()
	if ls.phase == phaseTransitioning && ls.previous != nil && *ls.previous == q.ID {
		ls.stopTransition()
		ls.phase = phaseLive
		ls.current = copyID(&q.ID)
		ls.previous = nil
		ls.target = nil
		ls.deadline = time.Time{}
		b.ToAudience(sessionID, model.EventTransitionCancelled, model.QuestionRef{QuestionID: q.ID})
		return
	}

	previous := copyID(ls.current)
	if previous == nil && ls.phase == phaseIdle {
		previous = copyID(fallbackPrevious)
	}

	ls.stopTransition()
	audience := q.Audience()
	ls.phase = phaseTransitioning
	ls.previous = previous
	ls.current = copyID(&q.ID)
	ls.target = audience
	ls.deadline = s.clock.Now().Add(s.countdown)

	b.ToAudience(sessionID, model.EventQuestionTransitionStart, model.TransitionStartPayload{
		QuestionID: q.ID,
		Question:   audience,
		Countdown:  s.countdownSeconds(),
	})
	b.ToStaff(sessionID, model.EventQuestionSelected, model.QuestionSelectedPayload{
		SessionID:  sessionID,
		QuestionID: copyID(&q.ID),
		Question:   q,
	})

	epoch := ls.epoch
	ls.timer = s.clock.AfterFunc(s.countdown, func() {
		s.finishTransition(sessionID, epoch)
	})
}

func (s *LiveService) finishTransition(sessionID int64, epoch uint64) {
	ls := s.lock(sessionID)
	defer s.unlock(ls)

	if ls.epoch != epoch || ls.phase != phaseTransitioning || ls.current == nil {
		return
	}
	ls.timer = nil
	ls.phase = phaseLive
	ls.previous = nil
	ls.deadline = time.Time{}

	s.b().ToAudience(sessionID, model.EventQuestionChanged, model.QuestionChangedPayload{
		QuestionID: *ls.current,
		Question:   ls.target,
	})
	ls.target = nil
}

// Deselect clears the selection and cancels a pending transition.
func (s *LiveService) Deselect(sessionID int64) {
	ls := s.lock(sessionID)
	defer s.unlock(ls)

	ls.reset()
	b := s.b()
	b.ToAudience(sessionID, model.EventQuestionDeselected, model.Empty{})
	b.ToStaff(sessionID, model.EventQuestionSelected, model.QuestionSelectedPayload{
		SessionID: sessionID,
	})
}

// Selection returns the session's live selection, if any.
func (s *LiveService) Selection(sessionID int64) (SelectionState, bool) {
	s.mu.Lock()
	ls, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return SelectionState{Phase: phaseIdle.String()}, false
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.dropped {
		return SelectionState{Phase: phaseIdle.String()}, false
	}
	return SelectionState{
		Phase:              ls.phase.String(),
		QuestionID:         copyID(ls.current),
		PreviousQuestionID: copyID(ls.previous),
		Deadline:           ls.deadline,
	}, true
}
