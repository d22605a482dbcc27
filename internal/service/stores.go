package service

import (
	"context"

	"livepoll/internal/model"
)

// SessionStore is what the realtime layer needs to know about sessions.
type SessionStore interface {
	IsOwnedBy(ctx context.Context, sessionID, userID int64) (bool, error)
	IsActive(ctx context.Context, sessionID int64) (bool, error)
	Exists(ctx context.Context, sessionID int64) (bool, error)
}

// ParticipantStore resolves anonymous tokens.
type ParticipantStore interface {
	ResolveByToken(ctx context.Context, token string) (*model.Participant, error)
}

// QuestionStore commits closing and reopening of questions.
type QuestionStore interface {
	MarkClosed(ctx context.Context, questionID int64) error
	MarkReopened(ctx context.Context, questionID int64) error
}

// TokenInvalidator drops cached anonymous credentials of a session.
type TokenInvalidator interface {
	InvalidateForSession(sessionID int64)
}
