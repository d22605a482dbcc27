package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"livepoll/internal/model"
	"livepoll/internal/repository"
)

// CreateQuestionRequest is the body of POST /v1/questions
type CreateQuestionRequest struct {
	SessionID     int64              `json:"sessionId"`
	Text          string             `json:"questionText"`
	Type          model.QuestionType `json:"questionType"`
	Options       []string           `json:"options,omitempty"`
	CorrectAnswer string             `json:"correctAnswer,omitempty"`
	TimeLimit     *int               `json:"timeLimit,omitempty"`
}

// QuestionService handles question authoring and the close/reopen lifecycle
type QuestionService struct {
	sessions  repository.SessionRepo
	questions repository.QuestionRepo
	responses repository.ResponseRepo
	live      *LiveService
}

// NewQuestionService creates a new question service
func NewQuestionService(
	sessions repository.SessionRepo,
	questions repository.QuestionRepo,
	responses repository.ResponseRepo,
	live *LiveService,
) *QuestionService {
	return &QuestionService{
		sessions:  sessions,
		questions: questions,
		responses: responses,
		live:      live,
	}
}

// CreateQuestion adds a question to an active session owned by the caller
func (s *QuestionService) CreateQuestion(ctx context.Context, id model.StaffIdentity, req CreateQuestionRequest) (*model.Question, error) {
	text := strings.TrimSpace(req.Text)
	if req.SessionID == 0 || text == "" || req.Type == "" {
		return nil, fmt.Errorf("%w: session id, question text and type are required", ErrInvalidInput)
	}
	if err := validateShape(req.Type, req.Options, req.TimeLimit); err != nil {
		return nil, err
	}

	session, err := s.sessions.GetByID(ctx, req.SessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNotFound
	}
	if session.PresenterID != id.UserID && id.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	if !session.IsActive {
		return nil, ErrSessionInactive
	}

	q := &model.Question{
		SessionID:     req.SessionID,
		PresenterID:   session.PresenterID,
		Text:          text,
		Type:          req.Type,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		TimeLimit:     req.TimeLimit,
		IsActive:      true,
	}
	if err := s.questions.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return q, nil
}

// ListQuestions returns the questions of a session with response counts
func (s *QuestionService) ListQuestions(ctx context.Context, id model.StaffIdentity, sessionID int64) ([]*model.Question, error) {
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

	questions, err := s.questions.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, q := range questions {
		if q.ResponseCount, err = s.responses.CountByQuestion(ctx, q.ID); err != nil {
			return nil, err
		}
	}
	return questions, nil
}

// GetQuestion returns a single question
func (s *QuestionService) GetQuestion(ctx context.Context, id model.StaffIdentity, questionID int64) (*model.Question, error) {
	q, err := s.authorize(ctx, id, questionID)
	if err != nil {
		return nil, err
	}
	if q.ResponseCount, err = s.responses.CountByQuestion(ctx, q.ID); err != nil {
		return nil, err
	}
	return q, nil
}

// UpdateQuestion edits the text, type, options or limits of a question
func (s *QuestionService) UpdateQuestion(ctx context.Context, id model.StaffIdentity, questionID int64, upd model.QuestionUpdate) (*model.Question, error) {
	q, err := s.authorize(ctx, id, questionID)
	if err != nil {
		return nil, err
	}
	if upd.Empty() {
		return nil, fmt.Errorf("%w: no updates provided", ErrInvalidInput)
	}
	if upd.Text != nil {
		t := strings.TrimSpace(*upd.Text)
		if t == "" {
			return nil, fmt.Errorf("%w: question text is required", ErrInvalidInput)
		}
		upd.Text = &t
	}

	qType, options, limit := q.Type, q.Options, q.TimeLimit
	if upd.Type != nil {
		qType = *upd.Type
	}
	if upd.Options != nil {
		options = upd.Options
	}
	if upd.TimeLimit != nil {
		limit = upd.TimeLimit
	}
	if err := validateShape(qType, options, limit); err != nil {
		return nil, err
	}

	updated, err := s.questions.Update(ctx, questionID, upd)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, ErrNotFound
	}
	return updated, nil
}

// DeleteQuestion removes a question and its responses
func (s *QuestionService) DeleteQuestion(ctx context.Context, id model.StaffIdentity, questionID int64) error {
	if _, err := s.authorize(ctx, id, questionID); err != nil {
		return err
	}
	if err := s.responses.DeleteByQuestion(ctx, questionID); err != nil {
		return fmt.Errorf("failed to delete responses: %w", err)
	}
	if err := s.questions.Delete(ctx, questionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// CloseQuestion starts the closing countdown of an open question
func (s *QuestionService) CloseQuestion(ctx context.Context, id model.StaffIdentity, questionID int64) error {
	q, err := s.authorize(ctx, id, questionID)
	if err != nil {
		return err
	}
	if !q.IsActive {
		return ErrQuestionAlreadyClosed
	}
	return s.live.StartClosing(q.SessionID, q.ID)
}

// CancelClose stops a running closing countdown
func (s *QuestionService) CancelClose(ctx context.Context, id model.StaffIdentity, questionID int64) error {
	if _, err := s.authorize(ctx, id, questionID); err != nil {
		return err
	}
	return s.live.CancelClosing(questionID)
}

// ReopenQuestion reopens a closed or closing question
func (s *QuestionService) ReopenQuestion(ctx context.Context, id model.StaffIdentity, questionID int64) error {
	q, err := s.authorize(ctx, id, questionID)
	if err != nil {
		return err
	}
	if q.IsActive && !s.live.IsClosing(q.ID) {
		return ErrQuestionAlreadyOpen
	}
	return s.live.Reopen(ctx, q.SessionID, q.ID)
}

// ListResponses returns the raw responses to a question
func (s *QuestionService) ListResponses(ctx context.Context, id model.StaffIdentity, questionID int64) ([]*model.Response, error) {
	if _, err := s.authorize(ctx, id, questionID); err != nil {
		return nil, err
	}
	return s.responses.ListByQuestion(ctx, questionID)
}

func (s *QuestionService) authorize(ctx context.Context, id model.StaffIdentity, questionID int64) (*model.Question, error) {
	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, ErrNotFound
	}
	if q.PresenterID != id.UserID && id.Role != model.RoleAdmin {
		return nil, ErrForbidden
	}
	return q, nil
}

func validateShape(t model.QuestionType, options []string, timeLimit *int) error {
	if !t.Valid() {
		return fmt.Errorf("%w: unknown question type %q", ErrInvalidInput, t)
	}
	if t == model.QuestionTypeMultipleChoice && len(options) < 2 {
		return fmt.Errorf("%w: multiple choice questions need at least two options", ErrInvalidInput)
	}
	if timeLimit != nil && *timeLimit <= 0 {
		return fmt.Errorf("%w: time limit must be positive", ErrInvalidInput)
	}
	return nil
}
