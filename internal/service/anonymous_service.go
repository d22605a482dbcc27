package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"livepoll/internal/model"
	"livepoll/internal/repository"
)

const (
	maxDisplayNameLen = 50
	maxAnswerLen      = 1000
)

// AnonymousService handles audience joins and responses
type AnonymousService struct {
	sessions     repository.SessionRepo
	questions    repository.QuestionRepo
	participants repository.ParticipantRepo
	responses    repository.ResponseRepo
	live         *LiveService
}

// NewAnonymousService creates a new anonymous service
func NewAnonymousService(
	sessions repository.SessionRepo,
	questions repository.QuestionRepo,
	participants repository.ParticipantRepo,
	responses repository.ResponseRepo,
	live *LiveService,
) *AnonymousService {
	return &AnonymousService{
		sessions:     sessions,
		questions:    questions,
		participants: participants,
		responses:    responses,
		live:         live,
	}
}

// Join registers an anonymous participant and returns its opaque token
func (s *AnonymousService) Join(ctx context.Context, req model.JoinRequest) (*model.JoinResponse, error) {
	code := normalizeJoinCode(req.JoinCode)
	name := strings.TrimSpace(req.DisplayName)
	if code == "" || name == "" {
		return nil, fmt.Errorf("%w: join code and display name are required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > maxDisplayNameLen {
		return nil, fmt.Errorf("%w: display name must be %d characters or less", ErrInvalidInput, maxDisplayNameLen)
	}

	session, err := s.sessions.GetByJoinCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotFound
	}
	if !session.IsActive {
		return nil, ErrSessionInactive
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	p := &model.Participant{
		SessionID:   session.ID,
		Token:       token,
		DisplayName: name,
	}
	if err := s.participants.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}

	return &model.JoinResponse{
		Token:         token,
		ParticipantID: p.ID,
		SessionID:     session.ID,
	}, nil
}

// SubmitResponse records the participant's answer to the selected question
// and forwards it to presenters and admins.
func (s *AnonymousService) SubmitResponse(ctx context.Context, p *model.Participant, req model.SubmitResponseRequest) (*model.Response, error) {
	if req.QuestionID == 0 || strings.TrimSpace(req.AnswerText) == "" {
		return nil, fmt.Errorf("%w: question id and answer are required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(req.AnswerText) > maxAnswerLen {
		return nil, fmt.Errorf("%w: answer must be %d characters or less", ErrInvalidInput, maxAnswerLen)
	}

	q, err := s.questions.GetByID(ctx, req.QuestionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, ErrNotFound
	}
	if !q.IsActive {
		return nil, ErrQuestionInactive
	}
	if q.SessionID != p.SessionID {
		return nil, ErrForbidden
	}

	session, err := s.sessions.GetByID(ctx, q.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil || session.SelectedQuestionID == nil || *session.SelectedQuestionID != q.ID {
		return nil, ErrQuestionNotSelected
	}

	resp := &model.Response{
		QuestionID:    q.ID,
		SessionID:     q.SessionID,
		ParticipantID: p.ID,
		DisplayName:   p.DisplayName,
		AnswerText:    req.AnswerText,
		ResponseTime:  req.ResponseTime,
	}
	if err := s.responses.Create(ctx, resp); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyResponded
		}
		return nil, fmt.Errorf("failed to store response: %w", err)
	}

	if err := s.participants.TouchLastActive(ctx, p.ID); err != nil {
		slog.Warn("failed to touch participant", "participant_id", p.ID, "err", err)
	}

	s.live.NewResponse(q.SessionID, model.AnonymousResponsePayload{
		ID:           resp.ID,
		QuestionID:   q.ID,
		DisplayName:  p.DisplayName,
		AnswerText:   resp.AnswerText,
		ResponseTime: resp.ResponseTime,
		CreatedAt:    resp.CreatedAt.UTC().Format(time.RFC3339),
		IsAnonymous:  true,
	})
	return resp, nil
}

// MyResponse reports whether the participant already answered a question
func (s *AnonymousService) MyResponse(ctx context.Context, p *model.Participant, questionID int64) (*model.MyResponse, error) {
	resp, err := s.responses.GetByParticipant(ctx, questionID, p.ID)
	if err != nil {
		return nil, err
	}
	return &model.MyResponse{HasResponded: resp != nil, Response: resp}, nil
}

// newToken returns 32 random bytes hex encoded.
func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
