package model

import "time"

// Participant is an anonymous audience member of one session.
type Participant struct {
	ID           int64     `json:"id" bson:"_id"`
	SessionID    int64     `json:"sessionId" bson:"sessionId"`
	Token        string    `json:"-" bson:"token"`
	DisplayName  string    `json:"displayName" bson:"displayName"`
	JoinedAt     time.Time `json:"joinedAt" bson:"joinedAt"`
	LastActiveAt time.Time `json:"lastActiveAt" bson:"lastActiveAt"`

	// SessionActive is the owning session's active flag at lookup time.
	SessionActive bool `json:"-" bson:"-"`
}

// JoinRequest is the body of POST /v1/anonymous/join
type JoinRequest struct {
	JoinCode    string `json:"joinCode"`
	DisplayName string `json:"displayName"`
}

// JoinResponse is returned when a participant joins a session
type JoinResponse struct {
	Token         string `json:"token"`
	ParticipantID int64  `json:"participantId"`
	SessionID     int64  `json:"sessionId"`
}
