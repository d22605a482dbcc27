package model

import "time"

// Session is a presenter-owned live polling event.
type Session struct {
	ID                 int64      `json:"id" bson:"_id"`
	PresenterID        int64      `json:"presenterId" bson:"presenterId"`
	Title              string     `json:"title" bson:"title"`
	Description        string     `json:"description,omitempty" bson:"description,omitempty"`
	JoinCode           string     `json:"joinCode" bson:"joinCode"`
	IsActive           bool       `json:"isActive" bson:"isActive"`
	SelectedQuestionID *int64     `json:"selectedQuestionId" bson:"selectedQuestionId"`
	CreatedAt          time.Time  `json:"createdAt" bson:"createdAt"`
	ClosedAt           *time.Time `json:"closedAt,omitempty" bson:"closedAt,omitempty"`
}

// SessionMeta is the denormalized view cached in Redis by join code.
type SessionMeta struct {
	SessionID          int64  `json:"sessionId"`
	Title              string `json:"title"`
	Description        string `json:"description,omitempty"`
	PresenterName      string `json:"presenterName"`
	IsActive           bool   `json:"isActive"`
	SelectedQuestionID *int64 `json:"selectedQuestionId"`
}

// SessionUpdate carries the optional fields of a session update.
type SessionUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"isActive,omitempty"`
}

// SessionDetail is returned to staff for a single session.
type SessionDetail struct {
	Session                   *Session    `json:"session"`
	Questions                 []*Question `json:"questions"`
	AnonymousParticipantCount int64       `json:"anonymousParticipantCount"`
	ConnectedAudience         int         `json:"connectedAudience"`
}

// PublicSession is what an anonymous client pulls to resynchronize.
type PublicSession struct {
	Session                   *SessionMeta      `json:"session"`
	SelectedQuestion          *AudienceQuestion `json:"selectedQuestion"`
	AnonymousParticipantCount int64             `json:"anonymousParticipantCount"`
}
