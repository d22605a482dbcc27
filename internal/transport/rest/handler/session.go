package handler

import (
	"net/http"

	"livepoll/internal/model"
	"livepoll/internal/service"
	"livepoll/internal/transport/rest/middleware"
)

// CreateSessionRequest is the body of POST /v1/sessions
type CreateSessionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// SelectQuestionRequest is the body of PUT /v1/sessions/{id}/select-question.
// A null questionId clears the selection.
type SelectQuestionRequest struct {
	QuestionID *int64 `json:"questionId"`
}

// SessionHandler handles presenter session endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// Create handles POST /v1/sessions
//
// @Summary      Create a session
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        body  body      CreateSessionRequest  true  "Session"
// @Success      201   {object}  model.Session
// @Failure      400   {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /sessions [post]
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetStaff(r.Context())
	var req CreateSessionRequest
	if !decode(w, r, &req) {
		return
	}

	session, err := h.sessionSvc.CreateSession(r.Context(), id.UserID, req.Title, req.Description)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// List handles GET /v1/sessions
//
// @Summary      List sessions
// @Description  Presenters see their own sessions, admins see all of them.
// @Tags         Sessions
// @Produce      json
// @Success      200  {array}  model.Session
// @Security     BearerAuth
// @Router       /sessions [get]
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetStaff(r.Context())
	sessions, err := h.sessionSvc.ListSessions(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if sessions == nil {
		sessions = []*model.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

// Get handles GET /v1/sessions/{id}
//
// @Summary      Get a session with its questions
// @Tags         Sessions
// @Produce      json
// @Param        id   path      int  true  "Session ID"
// @Success      200  {object}  model.SessionDetail
// @Failure      404  {object}  ErrorResponse
// @Security     BearerAuth
// @Router       /sessions/{id} [get]
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetStaff(r.Context())
	sessionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	detail, err := h.sessionSvc.GetSession(r.Context(), id, sessionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Update handles PUT /v1/sessions/{id}
//
// @Summary      Update a session
// @Description  Setting isActive to false closes the session for every connected client.
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        id    path      int                  true  "Session ID"
// @Param        body  body      model.SessionUpdate  true  "Fields to change"
// @Success      200   {object}  model.Session
// @Security     BearerAuth
// @Router       /sessions/{id} [put]
func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetStaff(r.Context())
	sessionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var upd model.SessionUpdate
	if !decode(w, r, &upd) {
		return
	}

	session, err := h.sessionSvc.UpdateSession(r.Context(), id, sessionID, upd)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// SelectQuestion handles PUT /v1/sessions/{id}/select-question
//
// @Summary      Present a question to the audience
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        id    path      int                    true  "Session ID"
// @Param        body  body      SelectQuestionRequest  true  "Question to present"
// @Success      200   {object}  MessageResponse
// @Security     BearerAuth
// @Router       /sessions/{id}/select-question [put]
func (h *SessionHandler) SelectQuestion(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.GetStaff(r.Context())
	sessionID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req SelectQuestionRequest
	if !decode(w, r, &req) {
		return
	}

	if err := h.sessionSvc.SelectQuestion(r.Context(), id, sessionID, req.QuestionID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if req.QuestionID == nil {
		writeJSON(w, http.StatusOK, MessageResponse{Message: "selection cleared"})
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "question selected"})
}
