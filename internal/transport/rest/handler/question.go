package handler

import (
	"net/http"

	"livepoll/internal/model"
	"livepoll/internal/service"
	"livepoll/internal/transport/rest/middleware"
)

// QuestionHandler handles question authoring and lifecycle endpoints
type QuestionHandler struct {
	questionSvc *service.QuestionService
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(questionSvc *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionSvc: questionSvc}
}

// Create handles POST /v1/questions
//
// @Summary      Create a question
// @Tags         Questions
// @Accept       json
// @Produce      json
// @Param        body  body      service.CreateQuestionRequest  true  "Question"
// @Success      201   {object}  model.Question
// @Failure      400   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /questions [post]
func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetStaff(r.Context())
	var req service.CreateQuestionRequest
	if !decode(w, r, &req) {
		return
	}

	q, err := h.questionSvc.CreateQuestion(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

// ListBySession handles GET /v1/questions/session/{sessionId}
//
// @Summary      List a session's questions
// @Tags         Questions
// @Produce      json
// @Param        sessionId  path   int  true  "Session ID"
// @Success      200        {array}  model.Question
// @Security     BearerAuth
// @Router       /questions/session/{sessionId} [get]
func (h *QuestionHandler) ListBySession(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetStaff(r.Context())
	sessionID, ok := pathID(w, r, "sessionId")
	if !ok {
		return
	}

	questions, err := h.questionSvc.ListQuestions(r.Context(), id, sessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if questions == nil {
		questions = []*model.Question{}
	}
	writeJSON(w, http.StatusOK, questions)
}

// Get handles GET /v1/questions/{id}
//
// @Summary      Get a question
// @Tags         Questions
// @Produce      json
// @Param        id   path      int  true  "Question ID"
// @Success      200  {object}  model.Question
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /questions/{id} [get]
func (h *QuestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetStaff(r.Context())
	questionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	q, err := h.questionSvc.GetQuestion(r.Context(), id, questionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Update handles PUT /v1/questions/{id}
//
// @Summary      Update a question
// @Tags         Questions
// @Accept       json
// @Produce      json
// @Param        id    path      int                   true  "Question ID"
// @Param        body  body      model.QuestionUpdate  true  "Fields to change"
// @Success      200   {object}  model.Question
// @Security     BearerAuth
// @Router       /questions/{id} [put]
func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetStaff(r.Context())
	questionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var upd model.QuestionUpdate
	if !decode(w, r, &upd) {
		return
	}

	q, err := h.questionSvc.UpdateQuestion(r.Context(), id, questionID, upd)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// Delete handles DELETE /v1/questions/{id}
//
// @Summary      Delete a question and its responses
// @Tags         Questions
// @Param        id   path  int  true  "Question ID"
// @Success      200  {object}  MessageResponse
// @Security     BearerAuth
// @Router       /questions/{id} [delete]
func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetStaff(r.Context())
	questionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.questionSvc.DeleteQuestion(r.Context(), id, questionID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "question deleted"})
}

// Close handles PUT /v1/questions/{id}/close
//
// @Summary      Start closing a question
// @Description  Starts the commit window. The close can be cancelled until it commits.
// @Tags         Questions
// @Param        id   path  int  true  "Question ID"
// @Success      202  {object}  MessageResponse
// @Security     BearerAuth
// @Router       /questions/{id}/close [put]
func (h *QuestionHandler) Close(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetStaff(r.Context())
	questionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.questionSvc.CloseQuestion(r.Context(), id, questionID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, MessageResponse{Message: "question closing"})
}

// CancelClose handles PUT /v1/questions/{id}/cancel-close
//
// @Summary      Cancel a pending close
// @Tags         Questions
// @Param        id   path  int  true  "Question ID"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /questions/{id}/cancel-close [put]
func (h *QuestionHandler) CancelClose(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetStaff(r.Context())
	questionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.questionSvc.CancelClose(r.Context(), id, questionID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "close cancelled"})
}

// Reopen handles PUT /v1/questions/{id}/reopen
//
// @Summary      Reopen a closed question
// @Tags         Questions
// @Param        id   path  int  true  "Question ID"
// @Success      200  {object}  MessageResponse
// @Security     BearerAuth
// @Router       /questions/{id}/reopen [put]
func (h *QuestionHandler) Reopen(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetStaff(r.Context())
	questionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.questionSvc.ReopenQuestion(r.Context(), id, questionID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "question reopened"})
}

// ListResponses handles GET /v1/responses/question/{questionId}
//
// @Summary      List responses to a question
// @Tags         Responses
// @Produce      json
// @Param        questionId  path   int  true  "Question ID"
// @Success      200         {array}  model.Response
// @Security     BearerAuth
// @Router       /responses/question/{questionId} [get]
func (h *QuestionHandler) ListResponses(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetStaff(r.Context())
	questionID, ok := pathID(w, r, "questionId")
	if !ok {
		return
	}

	responses, err := h.questionSvc.ListResponses(r.Context(), id, questionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if responses == nil {
		responses = []*model.Response{}
	}
	writeJSON(w, http.StatusOK, responses)
}
