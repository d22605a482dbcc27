package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"strings"

	"livepoll/internal/cache"
	"livepoll/internal/model"
	"livepoll/internal/repository"
)

const maxTitleLen = 255

// SessionService handles session lifecycle operations
type SessionService struct {
	sessions     repository.SessionRepo
	questions    repository.QuestionRepo
	responses    repository.ResponseRepo
	participants repository.ParticipantRepo
	users        repository.UserRepo
	sessionCache cache.SessionCache
	live         *LiveService
}

// NewSessionService creates a new session service
func NewSessionService(
	sessions repository.SessionRepo,
	questions repository.QuestionRepo,
	responses repository.ResponseRepo,
	participants repository.ParticipantRepo,
	users repository.UserRepo,
	sessionCache cache.SessionCache,
	live *LiveService,
) *SessionService {
	return &SessionService{
		sessions:     sessions,
		questions:    questions,
		responses:    responses,
		participants: participants,
		users:        users,
		sessionCache: sessionCache,
		live:         live,
	}
}

// CreateSession creates an active session with a fresh join code
func (s *SessionService) CreateSession(ctx context.Context, presenterID int64, title, description string) (*model.Session, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > maxTitleLen {
		return nil, fmt.Errorf("%w: session title is required", ErrInvalidInput)
	}

	code, err := s.generateJoinCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to generate join code: %w", err)
	}

	session := &model.Session{
		PresenterID: presenterID,
		Title:       title,
		Description: strings.TrimSpace(description),
		JoinCode:    code,
		IsActive:    true,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if _, err := s.meta(ctx, session); err != nil {
		slog.Warn("failed to cache session", "session_id", session.ID, "err", err)
	}
	return session, nil
}

// ListSessions returns the sessions presented by the caller
func (s *SessionService) ListSessions(ctx context.Context, id model.StaffIdentity) ([]*model.Session, error) {
	return s.sessions.ListByPresenter(ctx, id.UserID)
}

// GetSession returns a session with its questions and audience figures
func (s *SessionService) GetSession(ctx context.Context, id model.StaffIdentity, sessionID int64) (*model.SessionDetail, error) {
	session, err := s.authorize(ctx, id, sessionID)
	if err != nil {
		return nil, err
	}

	questions, err := s.questions.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, q := range questions {
		n, err := s.responses.CountByQuestion(ctx, q.ID)
		if err != nil {
			return nil, err
		}
		q.ResponseCount = n
	}

	count, err := s.participants.CountBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &model.SessionDetail{
		Session:                   session,
		Questions:                 questions,
		AnonymousParticipantCount: count,
		ConnectedAudience:         s.live.ConnectedAudience(sessionID),
	}, nil
}

// UpdateSession applies an update; toggling isActive closes or reopens the
// session for the audience.
func (s *SessionService) UpdateSession(ctx context.Context, id model.StaffIdentity, sessionID int64, upd model.SessionUpdate) (*model.Session, error) {
	before, err := s.authorize(ctx, id, sessionID)
	if err != nil {
		return nil, err
	}
	if upd.Title == nil && upd.Description == nil && upd.IsActive == nil {
		return nil, fmt.Errorf("%w: no updates provided", ErrInvalidInput)
	}
	if upd.Title != nil {
		t := strings.TrimSpace(*upd.Title)
		if t == "" || len(t) > maxTitleLen {
			return nil, fmt.Errorf("%w: session title is required", ErrInvalidInput)
		}
		upd.Title = &t
	}

	after, err := s.sessions.Update(ctx, sessionID, upd)
	if err != nil {
		return nil, err
	}
	if after == nil {
		return nil, ErrNotFound
	}
	s.forget(ctx, after.JoinCode)

	switch {
	case before.IsActive && !after.IsActive:
		s.live.CloseSession(sessionID)
	case !before.IsActive && after.IsActive:
		s.live.ReopenSession(sessionID)
	}
	return after, nil
}

// SelectQuestion presents a question to the audience, or clears the
// selection when questionID is nil. Presenting a closed question reopens it.
func (s *SessionService) SelectQuestion(ctx context.Context, id model.StaffIdentity, sessionID int64, questionID *int64) error {
	session, err := s.authorize(ctx, id, sessionID)
	if err != nil {
		return err
	}
	previous := session.SelectedQuestionID

	if questionID == nil {
		if err := s.sessions.SetSelectedQuestion(ctx, sessionID, nil); err != nil {
			return err
		}
		s.forget(ctx, session.JoinCode)
		s.live.Deselect(sessionID)
		return nil
	}

	q, err := s.questions.GetByID(ctx, *questionID)
	if err != nil {
		return err
	}
	if q == nil || q.SessionID != sessionID {
		return ErrQuestionNotInSession
	}

	if !q.IsActive {
		if err := s.live.Reopen(ctx, sessionID, q.ID); err != nil {
			return fmt.Errorf("failed to reopen question: %w", err)
		}
		q.IsActive = true
		q.ClosedAt = nil
	}

	if err := s.sessions.SetSelectedQuestion(ctx, sessionID, questionID); err != nil {
		return err
	}
	s.forget(ctx, session.JoinCode)
	s.live.Select(sessionID, q, previous)
	return nil
}

// PublicSession is the pull resync view for anonymous clients
func (s *SessionService) PublicSession(ctx context.Context, code string) (*model.PublicSession, error) {
	code = normalizeJoinCode(code)
	meta, err := s.sessionCache.GetMeta(ctx, code)
	if err != nil {
		slog.Warn("session cache read failed", "join_code", code, "err", err)
		meta = nil
	}
	if meta == nil {
		session, err := s.sessions.GetByJoinCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, ErrNotFound
		}
		m, err := s.meta(ctx, session)
		if m == nil {
			return nil, err
		}
		if err != nil {
			slog.Warn("failed to cache session", "session_id", session.ID, "err", err)
		}
		meta = m
	}
	if !meta.IsActive {
		return nil, ErrSessionInactive
	}

	out := &model.PublicSession{Session: meta}
	if meta.SelectedQuestionID != nil {
		q, err := s.questions.GetByID(ctx, *meta.SelectedQuestionID)
		if err != nil {
			return nil, err
		}
		if q != nil && q.IsActive {
			out.SelectedQuestion = q.Audience()
		}
	}

	count, err := s.participants.CountBySession(ctx, meta.SessionID)
	if err != nil {
		return nil, err
	}
	out.AnonymousParticipantCount = count
	return out, nil
}

// authorize loads the session and checks the caller owns it or is admin
func (s *SessionService) authorize(ctx context.Context, id model.StaffIdentity, sessionID int64) (*model.Session, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotFound
	}
	if session.PresenterID != id.UserID && id.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	return session, nil
}

// meta builds the cached public view of a session and stores it. The view
// is returned even when caching fails.
func (s *SessionService) meta(ctx context.Context, session *model.Session) (*model.SessionMeta, error) {
	presenter, err := s.users.GetByID(ctx, session.PresenterID)
	if err != nil {
		return nil, err
	}
	meta := &model.SessionMeta{
		SessionID:          session.ID,
		Title:              session.Title,
		Description:        session.Description,
		PresenterName:      presenter.DisplayName(),
		IsActive:           session.IsActive,
		SelectedQuestionID: session.SelectedQuestionID,
	}
	return meta, s.sessionCache.SetMeta(ctx, session.JoinCode, meta)
}

func (s *SessionService) forget(ctx context.Context, code string) {
	if err := s.sessionCache.Delete(ctx, code); err != nil {
		slog.Warn("failed to evict session cache", "join_code", code, "err", err)
	}
}

// generateJoinCode creates a letter-digit-letter-digit code
func (s *SessionService) generateJoinCode(ctx context.Context) (string, error) {
	const letters = "abcdefghjkmnpqrstuvwxyz"
	const digits = "23456789"

	for attempts := 0; attempts < 10; attempts++ {
		b := make([]byte, 4)
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		code := string([]byte{
			letters[int(b[0])%len(letters)],
			digits[int(b[1])%len(digits)],
			letters[int(b[2])%len(letters)],
			digits[int(b[3])%len(digits)],
		})

		cached, err := s.sessionCache.Exists(ctx, code)
		if err != nil {
			return "", err
		}
		if cached {
			continue
		}
		exists, err := s.sessions.JoinCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}

	return "", fmt.Errorf("failed to generate unique join code")
}

func normalizeJoinCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
