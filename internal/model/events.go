package model

// Event names pushed over the staff and audience sockets.
const (
	EventQuestionTransitionStart = "question-transition-start"
	EventTransitionCancelled     = "transition-cancelled"
	EventQuestionChanged         = "question-changed"
	EventQuestionSelected        = "question-selected"
	EventQuestionDeselected      = "question-deselected"
	EventQuestionClosing         = "question-closing"
	EventQuestionCloseCancelled  = "question-close-cancelled"
	EventQuestionClosed          = "question-closed"
	EventQuestionReopened        = "question-reopened"
	EventSessionClosed           = "session-closed"
	EventSessionReopened         = "session-reopened"
	EventParticipantCount        = "anonymous-participant-count"
	EventNewAnonymousResponse    = "new-anonymous-response"
	EventUserJoined              = "user-joined"
	EventUserLeft                = "user-left"
)

// CountdownSeconds is the countdown announced for transition and closing windows.
const CountdownSeconds = 5

type TransitionStartPayload struct {
	QuestionID int64             `json:"questionId"`
	Question   *AudienceQuestion `json:"question"`
	Countdown  int               `json:"countdown"`
}

type QuestionChangedPayload struct {
	QuestionID int64             `json:"questionId"`
	Question   *AudienceQuestion `json:"question"`
}

// QuestionSelectedPayload goes to staff only; a nil question means deselection.
type QuestionSelectedPayload struct {
	SessionID  int64     `json:"sessionId"`
	QuestionID *int64    `json:"questionId"`
	Question   *Question `json:"question"`
}

type QuestionClosingPayload struct {
	QuestionID int64 `json:"questionId"`
	Countdown  int   `json:"countdown"`
}

// QuestionRef is the payload of events that only name a question.
type QuestionRef struct {
	QuestionID int64 `json:"questionId"`
}

type SessionRef struct {
	SessionID int64 `json:"sessionId"`
}

type ParticipantCountPayload struct {
	Count int `json:"count"`
}

type UserJoinedPayload struct {
	Role Role `json:"role"`
}

type UserLeftPayload struct {
	UserID int64 `json:"userId"`
}

// AnonymousResponsePayload is the raw answer fanned in to elevated staff.
type AnonymousResponsePayload struct {
	ID           int64  `json:"id"`
	QuestionID   int64  `json:"question_id"`
	DisplayName  string `json:"display_name"`
	AnswerText   string `json:"answer_text"`
	ResponseTime *int   `json:"response_time"`
	CreatedAt    string `json:"created_at"`
	IsAnonymous  bool   `json:"isAnonymous"`
}

// Empty is the payload of events that carry no data.
type Empty struct{}
