package service

import "livepoll/internal/model"

// Broadcaster fans events out to the rooms of a session (avoids import cycle with ws)
type Broadcaster interface {
	ToStaff(sessionID int64, event string, payload any)
	ToAudience(sessionID int64, event string, payload any)
	ToStaffFiltered(sessionID int64, event string, payload any, keep func(model.StaffIdentity) bool)
	CountAudience(sessionID int64) int
}

// toBoth sends the same event to staff and audience of a session.
func toBoth(b Broadcaster, sessionID int64, event string, payload any) {
	b.ToStaff(sessionID, event, payload)
	b.ToAudience(sessionID, event, payload)
}

// elevatedStaff passes presenters and admins.
func elevatedStaff(id model.StaffIdentity) bool {
	return id.Role.Elevated()
}

type nopBroadcaster struct{}

func (nopBroadcaster) ToStaff(int64, string, any)    {}
func (nopBroadcaster) ToAudience(int64, string, any) {}
func (nopBroadcaster) ToStaffFiltered(int64, string, any, func(model.StaffIdentity) bool) {
}
func (nopBroadcaster) CountAudience(int64) int { return 0 }
