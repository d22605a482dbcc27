package handler

import (
	"net/http"

	"livepoll/internal/model"
	"livepoll/internal/service"
	"livepoll/internal/transport/rest/middleware"

	"github.com/gorilla/mux"
)

// AnonymousHandler handles the audience-facing endpoints
type AnonymousHandler struct {
	sessionSvc   *service.SessionService
	anonymousSvc *service.AnonymousService
}

// NewAnonymousHandler creates a new anonymous handler
func NewAnonymousHandler(sessionSvc *service.SessionService, anonymousSvc *service.AnonymousService) *AnonymousHandler {
	return &AnonymousHandler{sessionSvc: sessionSvc, anonymousSvc: anonymousSvc}
}

// Session handles GET /v1/anonymous/session/{code}
//
// @Summary      Public session state
// @Description  Returns the session and the live question so a client can resynchronize.
// @Tags         Anonymous
// @Produce      json
// @Param        code  path      string  true  "Join code"
// @Success      200   {object}  model.PublicSession
// @Failure      404   {object}  ErrorResponse
// @Router       /anonymous/session/{code} [get]
func (h *AnonymousHandler) Session(w http.ResponseWriter, r *http.Request) {
	code := mux.Vars(r)["code"]
	pub, err := h.sessionSvc.PublicSession(r.Context(), code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pub)
}

// Join handles POST /v1/anonymous/join
//
// @Summary      Join a session
// @Tags         Anonymous
// @Accept       json
// @Produce      json
// @Param        body  body      model.JoinRequest  true  "Join code and display name"
// @Success      201   {object}  model.JoinResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      404   {object}  ErrorResponse
// @Router       /anonymous/join [post]
func (h *AnonymousHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req model.JoinRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.anonymousSvc.Join(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Respond handles POST /v1/anonymous/response
//
// @Summary      Submit a response
// @Tags         Anonymous
// @Accept       json
// @Produce      json
// @Param        X-Anonymous-Token  header    string                        true  "Participant token"
// @Param        body               body      model.SubmitResponseRequest  true  "Answer"
// @Success      201                {object}  model.Response
// @Failure      409                {object}  ErrorResponse
// @Router       /anonymous/response [post]
func (h *AnonymousHandler) Respond(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetParticipant(r.Context())
	var req model.SubmitResponseRequest
	if !decode(w, r, &req) {
		return
	}

	resp, err := h.anonymousSvc.SubmitResponse(r.Context(), p, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// MyResponse handles GET /v1/anonymous/my-response/{questionId}
//
// @Summary      The caller's own response to a question
// @Tags         Anonymous
// @Produce      json
// @Param        X-Anonymous-Token  header    string  true  "Participant token"
// @Param        questionId         path      int     true  "Question ID"
// @Success      200                {object}  model.MyResponse
// @Router       /anonymous/my-response/{questionId} [get]
func (h *AnonymousHandler) MyResponse(w http.ResponseWriter, r *http.Request) {
	p := middleware.GetParticipant(r.Context())
	questionID, ok := pathID(w, r, "questionId")
	if !ok {
		return
	}

	resp, err := h.anonymousSvc.MyResponse(r.Context(), p, questionID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
