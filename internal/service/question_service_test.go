package service

import (
	"context"
	"testing"

	"livepoll/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionService_Create(t *testing.T) {
	f := newAppFixture(t)
	ctx := context.Background()
	s := f.session(t)

	_, err := f.questSvc.CreateQuestion(ctx, f.presenter, CreateQuestionRequest{
		SessionID: s.ID, Text: "pick", Type: model.QuestionTypeMultipleChoice, Options: []string{"only"},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.questSvc.CreateQuestion(ctx, f.presenter, CreateQuestionRequest{
		SessionID: s.ID, Text: "pick", Type: "essay",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.questSvc.CreateQuestion(ctx, f.stranger, CreateQuestionRequest{
		SessionID: s.ID, Text: "words", Type: model.QuestionTypeWordCloud,
	})
	assert.ErrorIs(t, err, ErrForbidden)

	q, err := f.questSvc.CreateQuestion(ctx, f.admin, CreateQuestionRequest{
		SessionID: s.ID, Text: "words", Type: model.QuestionTypeWordCloud,
	})
	require.NoError(t, err)
	assert.Equal(t, f.presenter.UserID, q.PresenterID, "questions belong to the session presenter")

	off := false
	_, err = f.sessSvc.UpdateSession(ctx, f.presenter, s.ID, model.SessionUpdate{IsActive: &off})
	require.NoError(t, err)
	_, err = f.questSvc.CreateQuestion(ctx, f.presenter, CreateQuestionRequest{
		SessionID: s.ID, Text: "late", Type: model.QuestionTypeShortAnswer,
	})
	assert.ErrorIs(t, err, ErrSessionInactive)
}

func TestQuestionService_UpdateAndDelete(t *testing.T) {
	f := newAppFixture(t)
	ctx := context.Background()
	s := f.session(t)
	q := f.mcQuestion(t, s.ID, "Old")

	_, err := f.questSvc.UpdateQuestion(ctx, f.presenter, q.ID, model.QuestionUpdate{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	text := "New"
	updated, err := f.questSvc.UpdateQuestion(ctx, f.presenter, q.ID, model.QuestionUpdate{Text: &text})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Text)

	_, err = f.questSvc.UpdateQuestion(ctx, f.presenter, q.ID, model.QuestionUpdate{Options: []string{"one"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, f.questSvc.DeleteQuestion(ctx, f.presenter, q.ID))
	_, err = f.questSvc.GetQuestion(ctx, f.presenter, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuestionService_CloseLifecycle(t *testing.T) {
	f := newAppFixture(t)
	ctx := context.Background()
	s := f.session(t)
	q := f.mcQuestion(t, s.ID, "Vote")

	assert.ErrorIs(t, f.questSvc.ReopenQuestion(ctx, f.presenter, q.ID), ErrQuestionAlreadyOpen)
	assert.ErrorIs(t, f.questSvc.CancelClose(ctx, f.presenter, q.ID), ErrNotClosing)
	assert.ErrorIs(t, f.questSvc.CloseQuestion(ctx, f.stranger, q.ID), ErrForbidden)

	require.NoError(t, f.questSvc.CloseQuestion(ctx, f.presenter, q.ID))
	require.NoError(t, f.questSvc.CancelClose(ctx, f.presenter, q.ID))

	require.NoError(t, f.questSvc.CloseQuestion(ctx, f.presenter, q.ID))
	require.NoError(t, f.questSvc.ReopenQuestion(ctx, f.presenter, q.ID), "a closing question can be reopened")
	f.clock.Advance(countdown)
	assert.True(t, f.questions.active(q.ID))

	require.NoError(t, f.questSvc.CloseQuestion(ctx, f.presenter, q.ID))
	f.clock.Advance(countdown)
	assert.False(t, f.questions.active(q.ID))
	assert.ErrorIs(t, f.questSvc.CloseQuestion(ctx, f.presenter, q.ID), ErrQuestionAlreadyClosed)

	require.NoError(t, f.questSvc.ReopenQuestion(ctx, f.presenter, q.ID))
	assert.True(t, f.questions.active(q.ID))
}
