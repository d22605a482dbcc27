package model

import "time"

// QuestionType defines how a question is answered
type QuestionType string

const (
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypeTrueFalse      QuestionType = "true_false"
	QuestionTypeShortAnswer    QuestionType = "short_answer"
	QuestionTypeWordCloud      QuestionType = "word_cloud"
	QuestionTypeRating         QuestionType = "rating"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTypeMultipleChoice, QuestionTypeTrueFalse, QuestionTypeShortAnswer,
		QuestionTypeWordCloud, QuestionTypeRating:
		return true
	}
	return false
}

// Question is a persisted question belonging to a session.
type Question struct {
	ID            int64        `json:"id" bson:"_id"`
	SessionID     int64        `json:"sessionId" bson:"sessionId"`
	PresenterID   int64        `json:"presenterId" bson:"presenterId"`
	Text          string       `json:"questionText" bson:"questionText"`
	Type          QuestionType `json:"questionType" bson:"questionType"`
	Options       []string     `json:"options,omitempty" bson:"options,omitempty"`
	CorrectAnswer string       `json:"correctAnswer,omitempty" bson:"correctAnswer,omitempty"`
	TimeLimit     *int         `json:"timeLimit,omitempty" bson:"timeLimit,omitempty"`
	IsActive      bool         `json:"isActive" bson:"isActive"`
	ClosedAt      *time.Time   `json:"closedAt,omitempty" bson:"closedAt,omitempty"`
	CreatedAt     time.Time    `json:"createdAt" bson:"createdAt"`
	ResponseCount int64        `json:"responseCount" bson:"-"`
}

// AudienceQuestion is the question shape sent to anonymous participants.
// It never carries the correct answer or presenter fields.
type AudienceQuestion struct {
	ID        int64        `json:"id"`
	Text      string       `json:"questionText"`
	Type      QuestionType `json:"questionType"`
	Options   []string     `json:"options,omitempty"`
	TimeLimit *int         `json:"timeLimit,omitempty"`
}

// Audience returns the audience-safe view of q.
func (q *Question) Audience() *AudienceQuestion {
	if q == nil {
		return nil
	}
	return &AudienceQuestion{
		ID:        q.ID,
		Text:      q.Text,
		Type:      q.Type,
		Options:   q.Options,
		TimeLimit: q.TimeLimit,
	}
}

// QuestionUpdate carries the optional fields of a question update.
type QuestionUpdate struct {
	Text          *string       `json:"questionText,omitempty"`
	Type          *QuestionType `json:"questionType,omitempty"`
	Options       []string      `json:"options,omitempty"`
	CorrectAnswer *string       `json:"correctAnswer,omitempty"`
	TimeLimit     *int          `json:"timeLimit,omitempty"`
}

// Empty reports whether the update changes nothing.
func (u *QuestionUpdate) Empty() bool {
	return u.Text == nil && u.Type == nil && u.Options == nil && u.CorrectAnswer == nil && u.TimeLimit == nil
}
