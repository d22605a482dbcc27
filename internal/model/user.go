package model

import "time"

// Role is a staff role
type Role string

const (
	RolePresenter Role = "presenter"
	RoleAdmin     Role = "admin"
)

// Elevated reports whether the role may see raw responses.
func (r Role) Elevated() bool {
	return r == RolePresenter || r == RoleAdmin
}

// User is a staff account (presenter or admin).
type User struct {
	ID           int64     `json:"id" bson:"_id"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	FirstName    string    `json:"firstName" bson:"firstName"`
	LastName     string    `json:"lastName" bson:"lastName"`
	Role         Role      `json:"role" bson:"role"`
	TokenVersion int       `json:"-" bson:"tokenVersion"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

// DisplayName is the presenter name shown to the audience.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.LastName
	}
}
