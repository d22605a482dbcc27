package service

import (
	"context"
	"log/slog"

	"livepoll/internal/model"
)

// StartClosing opens a countdown after which the question is closed.
// A countdown already running for the question is replaced.
func (s *LiveService) StartClosing(sessionID, questionID int64) error {
	ls := s.lock(sessionID)
	defer s.unlock(ls)

	if e, ok := ls.closing[questionID]; ok {
		if e.committing {
			return ErrQuestionAlreadyClosed
		}
		e.timer.Stop()
	}

	epoch := ls.nextEpoch()
	now := s.clock.Now()
	e := &closingEntry{
		epoch:     epoch,
		startedAt: now,
		deadline:  now.Add(s.countdown),
	}
	e.timer = s.clock.AfterFunc(s.countdown, func() {
		s.commitClose(sessionID, questionID, epoch)
	})
	ls.closing[questionID] = e
	s.indexClosing(questionID, sessionID)

	toBoth(s.b(), sessionID, model.EventQuestionClosing, model.QuestionClosingPayload{
		QuestionID: questionID,
		Countdown:  s.countdownSeconds(),
	})
	return nil
}

// commitClose runs when a closing countdown fires. The store call happens
// without the session lock; the entry is re-validated afterwards so a
// reopen that raced the commit suppresses the closed event.
func (s *LiveService) commitClose(sessionID, questionID int64, epoch uint64) {
	ls := s.lock(sessionID)
	e, ok := ls.closing[questionID]
	if !ok || e.epoch != epoch || e.committing {
		s.unlock(ls)
		return
	}
	e.committing = true
	e.done = make(chan struct{})
	ls.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.commitTTL)
	err := s.questions.MarkClosed(ctx, questionID)
	cancel()
	if err != nil {
		slog.Error("failed to mark question closed",
			"session_id", sessionID, "question_id", questionID, "err", err)
	}

	ls.mu.Lock()
	defer s.unlock(ls)
	close(e.done)

	if ls.closing[questionID] != e {
		return
	}
	delete(ls.closing, questionID)
	s.unindexClosing(questionID, sessionID)

	toBoth(s.b(), sessionID, model.EventQuestionClosed, model.QuestionRef{QuestionID: questionID})
}

// CancelClosing stops a running countdown. It fails with ErrNotClosing when
// the question has no countdown or its close is already being committed.
func (s *LiveService) CancelClosing(questionID int64) error {
	sessionID, ok := s.closingSession(questionID)
	if !ok {
		return ErrNotClosing
	}

	ls := s.lock(sessionID)
	defer s.unlock(ls)

	e, ok := ls.closing[questionID]
	if !ok || e.committing {
		return ErrNotClosing
	}
	e.timer.Stop()
	delete(ls.closing, questionID)
	s.unindexClosing(questionID, sessionID)

	toBoth(s.b(), sessionID, model.EventQuestionCloseCancelled, model.QuestionRef{QuestionID: questionID})
	return nil
}

// Reopen discards any pending close of the question, waits for a close
// that is already being committed, then reopens it in the store. The
// reopened event is sent only once the store accepted the change.
func (s *LiveService) Reopen(ctx context.Context, sessionID, questionID int64) error {
	ls := s.lock(sessionID)
	var inflight chan struct{}
	if e, ok := ls.closing[questionID]; ok {
		if e.committing {
			inflight = e.done
		} else {
			e.timer.Stop()
		}
		delete(ls.closing, questionID)
		s.unindexClosing(questionID, sessionID)
	}
	s.unlock(ls)

	if inflight != nil {
		select {
		case <-inflight:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if err := s.questions.MarkReopened(ctx, questionID); err != nil {
		return err
	}

	ls = s.lock(sessionID)
	defer s.unlock(ls)
	toBoth(s.b(), sessionID, model.EventQuestionReopened, model.QuestionRef{QuestionID: questionID})
	return nil
}

// IsClosing reports whether the question has a pending close.
func (s *LiveService) IsClosing(questionID int64) bool {
	_, ok := s.closingSession(questionID)
	return ok
}

// Closing returns the pending close of a question, if any.
func (s *LiveService) Closing(questionID int64) (ClosingState, bool) {
	sessionID, ok := s.closingSession(questionID)
	if !ok {
		return ClosingState{}, false
	}
	s.mu.Lock()
	ls, ok := s.sessions[sessionID]
	s.mu.Unlock()
	if !ok {
		return ClosingState{}, false
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	e, ok := ls.closing[questionID]
	if !ok {
		return ClosingState{}, false
	}
	return ClosingState{
		SessionID:  sessionID,
		StartedAt:  e.startedAt,
		Deadline:   e.deadline,
		Committing: e.committing,
	}, true
}
