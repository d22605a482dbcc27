package model

import "time"

// Response is one anonymous answer to a question.
type Response struct {
	ID            int64     `json:"id" bson:"_id"`
	QuestionID    int64     `json:"questionId" bson:"questionId"`
	SessionID     int64     `json:"sessionId" bson:"sessionId"`
	ParticipantID int64     `json:"participantId" bson:"participantId"`
	DisplayName   string    `json:"displayName" bson:"displayName"`
	AnswerText    string    `json:"answerText" bson:"answerText"`
	ResponseTime  *int      `json:"responseTime,omitempty" bson:"responseTime,omitempty"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}

// SubmitResponseRequest is the body of POST /v1/anonymous/response
type SubmitResponseRequest struct {
	QuestionID   int64  `json:"questionId"`
	AnswerText   string `json:"answerText"`
	ResponseTime *int   `json:"responseTime,omitempty"`
}

// MyResponse tells a participant whether they already answered.
type MyResponse struct {
	HasResponded bool      `json:"hasResponded"`
	Response     *Response `json:"response"`
}
