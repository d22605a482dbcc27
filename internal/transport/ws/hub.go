package ws

import (
	"context"
	"log/slog"
	"sync"

	"livepoll/internal/model"
	"livepoll/internal/service"

	"github.com/google/uuid"
)

const sendBuffer = 256

// Kind tells staff and audience connections apart
type Kind int

const (
	KindStaff Kind = iota
	KindAudience
)

// Connection represents a WebSocket connection bound to one identity
type Connection struct {
	ID          string
	Kind        Kind
	Staff       model.StaffIdentity
	Participant *model.Participant
	Send        chan []byte

	mu        sync.Mutex
	sessionID int64
	inRoom    bool
	closed    bool
}

// NewStaffConnection creates a connection for an authenticated staff user
func NewStaffConnection(id model.StaffIdentity) *Connection {
	return &Connection{
		ID:    uuid.NewString(),
		Kind:  KindStaff,
		Staff: id,
		Send:  make(chan []byte, sendBuffer),
	}
}

// NewAudienceConnection creates a connection for an anonymous participant
func NewAudienceConnection(p *model.Participant) *Connection {
	return &Connection{
		ID:          uuid.NewString(),
		Kind:        KindAudience,
		Participant: p,
		Send:        make(chan []byte, sendBuffer),
	}
}

// Room returns the session the connection is in, if any.
func (c *Connection) Room() (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID, c.inRoom
}

func (c *Connection) setRoom(sessionID int64, in bool) {
	c.mu.Lock()
	c.sessionID, c.inRoom = sessionID, in
	c.mu.Unlock()
}

// room holds the two connection sets of one session.
type room struct {
	mu       sync.Mutex
	dead     bool
	staff    map[string]*Connection
	audience map[string]*Connection
}

func (r *room) empty() bool {
	return len(r.staff) == 0 && len(r.audience) == 0
}

// Hub tracks session rooms and routes events to them
type Hub struct {
	sessions service.SessionStore

	mu    sync.Mutex
	rooms map[int64]*room
}

// NewHub creates a new WebSocket hub
func NewHub(sessions service.SessionStore) *Hub {
	return &Hub{
		sessions: sessions,
		rooms:    make(map[int64]*room),
	}
}

// acquire returns the room of the session, created on demand, locked.
func (h *Hub) acquire(sessionID int64) *room {
	for {
		h.mu.Lock()
		r, ok := h.rooms[sessionID]
		if !ok {
			r = &room{
				staff:    make(map[string]*Connection),
				audience: make(map[string]*Connection),
			}
			h.rooms[sessionID] = r
		}
		h.mu.Unlock()

		r.mu.Lock()
		if !r.dead {
			return r
		}
		r.mu.Unlock()
	}
}

// existing returns the room of the session locked, or nil.
func (h *Hub) existing(sessionID int64) *room {
	h.mu.Lock()
	r, ok := h.rooms[sessionID]
	h.mu.Unlock()
	if !ok {
		return nil
	}
	r.mu.Lock()
	if r.dead {
		r.mu.Unlock()
		return nil
	}
	return r
}

// release unlocks r and removes it from the hub once both sets are empty.
func (h *Hub) release(sessionID int64, r *room) {
	empty := r.empty()
	r.mu.Unlock()
	if !empty {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.dead && r.empty() && h.rooms[sessionID] == r {
		r.dead = true
		delete(h.rooms, sessionID)
	}
}

// JoinStaff puts a staff connection in the session room. Joins for unknown
// sessions or sessions the user may not see are dropped and reported false.
func (h *Hub) JoinStaff(ctx context.Context, c *Connection, sessionID int64) bool {
	if c.Kind != KindStaff {
		return false
	}
	if !h.authorized(ctx, c.Staff, sessionID) {
		return false
	}

	if current, ok := c.Room(); ok {
		if current == sessionID {
			return true
		}
		h.Leave(c)
	}

	r := h.acquire(sessionID)
	r.staff[c.ID] = c
	c.setRoom(sessionID, true)
	h.sendLocked(r.staff, model.EventUserJoined, model.UserJoinedPayload{Role: c.Staff.Role}, func(peer *Connection) bool {
		return peer != c
	})
	h.release(sessionID, r)

	slog.Info("staff joined session", "session_id", sessionID, "user_id", c.Staff.UserID)
	return true
}

func (h *Hub) authorized(ctx context.Context, id model.StaffIdentity, sessionID int64) bool {
	var (
		ok  bool
		err error
	)
	if id.Role == model.RoleAdmin {
		ok, err = h.sessions.Exists(ctx, sessionID)
	} else {
		ok, err = h.sessions.IsOwnedBy(ctx, sessionID, id.UserID)
	}
	if err != nil {
		slog.Warn("staff join check failed", "session_id", sessionID, "user_id", id.UserID, "err", err)
		return false
	}
	return ok
}

// JoinAudience puts an audience connection in its participant's session room
func (h *Hub) JoinAudience(c *Connection) {
	if c.Kind != KindAudience || c.Participant == nil {
		return
	}
	sessionID := c.Participant.SessionID

	r := h.acquire(sessionID)
	r.audience[c.ID] = c
	c.setRoom(sessionID, true)
	h.sendCountLocked(r)
	h.release(sessionID, r)
}

// Leave removes the connection from its room and tells the remaining staff.
func (h *Hub) Leave(c *Connection) {
	sessionID, ok := c.Room()
	if !ok {
		return
	}
	c.setRoom(0, false)

	r := h.existing(sessionID)
	if r == nil {
		return
	}
	switch c.Kind {
	case KindStaff:
		if _, in := r.staff[c.ID]; in {
			delete(r.staff, c.ID)
			h.sendLocked(r.staff, model.EventUserLeft, model.UserLeftPayload{UserID: c.Staff.UserID}, nil)
		}
	case KindAudience:
		if _, in := r.audience[c.ID]; in {
			delete(r.audience, c.ID)
			h.sendCountLocked(r)
		}
	}
	h.release(sessionID, r)
}

// Disconnect leaves any room and closes the outbound channel.
func (h *Hub) Disconnect(c *Connection) {
	h.Leave(c)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// ToStaff sends an event to every staff connection of the session (implements service.Broadcaster)
func (h *Hub) ToStaff(sessionID int64, event string, payload any) {
	h.broadcast(sessionID, event, payload, true, nil)
}

// ToAudience sends an event to every audience connection of the session (implements service.Broadcaster)
func (h *Hub) ToAudience(sessionID int64, event string, payload any) {
	h.broadcast(sessionID, event, payload, false, nil)
}

// ToStaffFiltered sends an event to the staff connections whose identity passes keep (implements service.Broadcaster)
func (h *Hub) ToStaffFiltered(sessionID int64, event string, payload any, keep func(model.StaffIdentity) bool) {
	h.broadcast(sessionID, event, payload, true, func(c *Connection) bool {
		return keep(c.Staff)
	})
}

// CountAudience returns the number of audience connections in the session room
func (h *Hub) CountAudience(sessionID int64) int {
	r := h.existing(sessionID)
	if r == nil {
		return 0
	}
	defer r.mu.Unlock()
	return len(r.audience)
}

// ForEachStaff calls fn for each staff identity in the session room.
func (h *Hub) ForEachStaff(sessionID int64, fn func(model.StaffIdentity)) {
	r := h.existing(sessionID)
	if r == nil {
		return
	}
	defer r.mu.Unlock()
	for _, c := range r.staff {
		fn(c.Staff)
	}
}

// Rooms returns the number of live rooms
func (h *Hub) Rooms() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms)
}

func (h *Hub) broadcast(sessionID int64, event string, payload any, staff bool, keep func(*Connection) bool) {
	r := h.existing(sessionID)
	if r == nil {
		return
	}
	defer r.mu.Unlock()

	conns := r.audience
	if staff {
		conns = r.staff
	}
	h.sendLocked(conns, event, payload, keep)
}

// sendLocked delivers to conns without blocking; the room lock must be held.
// A connection whose buffer is full misses the event.
func (h *Hub) sendLocked(conns map[string]*Connection, event string, payload any, keep func(*Connection) bool) {
	if len(conns) == 0 {
		return
	}
	data, err := encode(event, payload)
	if err != nil {
		slog.Error("failed to encode event", "event", event, "err", err)
		return
	}
	for _, c := range conns {
		if keep != nil && !keep(c) {
			continue
		}
		select {
		case c.Send <- data:
		default:
			slog.Warn("dropping event for slow connection", "event", event, "conn_id", c.ID)
		}
	}
}

func (h *Hub) sendCountLocked(r *room) {
	h.sendLocked(r.staff, model.EventParticipantCount, model.ParticipantCountPayload{Count: len(r.audience)}, func(c *Connection) bool {
		return c.Staff.Role.Elevated()
	})
}
