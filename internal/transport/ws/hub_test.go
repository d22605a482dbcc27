package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"livepoll/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSessions owns sessions by presenter id.
type stubSessions struct {
	owners map[int64]int64
	err    error
}

func (s *stubSessions) IsOwnedBy(_ context.Context, sessionID, userID int64) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	owner, ok := s.owners[sessionID]
	return ok && owner == userID, nil
}

func (s *stubSessions) IsActive(_ context.Context, sessionID int64) (bool, error) {
	_, ok := s.owners[sessionID]
	return ok, s.err
}

func (s *stubSessions) Exists(_ context.Context, sessionID int64) (bool, error) {
	_, ok := s.owners[sessionID]
	return ok, s.err
}

func newTestHub() *Hub {
	return NewHub(&stubSessions{owners: map[int64]int64{1: 10, 2: 20}})
}

func drain(c *Connection) []Message {
	var out []Message
	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				return out
			}
			var m Message
			if err := json.Unmarshal(data, &m); err == nil {
				out = append(out, m)
			}
		default:
			return out
		}
	}
}

func types(msgs []Message) []string {
	out := []string{}
	for _, m := range msgs {
		out = append(out, m.Type)
	}
	return out
}

func presenter(id int64) *Connection {
	return NewStaffConnection(model.StaffIdentity{UserID: id, Role: model.RolePresenter})
}

func TestHub_StaffJoinRequiresOwnership(t *testing.T) {
	h := newTestHub()
	ctx := context.Background()
	owner := presenter(10)
	stranger := presenter(99)

	assert.True(t, h.JoinStaff(ctx, owner, 1))
	assert.False(t, h.JoinStaff(ctx, stranger, 1))
	assert.False(t, h.JoinStaff(ctx, owner, 404))

	_, in := stranger.Room()
	assert.False(t, in)
	assert.Empty(t, drain(stranger))

	h.ToStaff(1, model.EventSessionClosed, model.SessionRef{SessionID: 1})
	assert.Equal(t, []string{model.EventSessionClosed}, types(drain(owner)))
	assert.Empty(t, drain(stranger))
}

func TestHub_AdminJoinsAnyExistingSession(t *testing.T) {
	h := newTestHub()
	admin := NewStaffConnection(model.StaffIdentity{UserID: 1, Role: model.RoleAdmin})

	assert.True(t, h.JoinStaff(context.Background(), admin, 2))
	assert.False(t, h.JoinStaff(context.Background(), admin, 404))

	current, in := admin.Room()
	assert.True(t, in)
	assert.Equal(t, int64(2), current)
}

func TestHub_StoreErrorDropsJoin(t *testing.T) {
	h := NewHub(&stubSessions{err: errors.New("down")})

	assert.False(t, h.JoinStaff(context.Background(), presenter(10), 1))
	assert.Zero(t, h.Rooms())
}

func TestHub_PresenceEvents(t *testing.T) {
	h := newTestHub()
	ctx := context.Background()
	a := presenter(10)
	b := NewStaffConnection(model.StaffIdentity{UserID: 7, Role: model.RoleAdmin})

	require.True(t, h.JoinStaff(ctx, a, 1))
	require.True(t, h.JoinStaff(ctx, b, 1))

	msgs := drain(a)
	require.Equal(t, []string{model.EventUserJoined}, types(msgs))
	var joined model.UserJoinedPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &joined))
	assert.Equal(t, model.RoleAdmin, joined.Role)
	assert.Empty(t, drain(b), "joiner is not told about itself")

	h.Leave(b)
	msgs = drain(a)
	require.Equal(t, []string{model.EventUserLeft}, types(msgs))
	var left model.UserLeftPayload
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &left))
	assert.Equal(t, int64(7), left.UserID)
}

func TestHub_JoinOtherSessionLeavesPrevious(t *testing.T) {
	h := newTestHub()
	ctx := context.Background()
	admin := NewStaffConnection(model.StaffIdentity{UserID: 1, Role: model.RoleAdmin})
	peer := presenter(10)

	require.True(t, h.JoinStaff(ctx, peer, 1))
	require.True(t, h.JoinStaff(ctx, admin, 1))
	drain(peer)

	require.True(t, h.JoinStaff(ctx, admin, 2))
	assert.Equal(t, []string{model.EventUserLeft}, types(drain(peer)))

	h.ToStaff(1, model.EventSessionClosed, model.SessionRef{SessionID: 1})
	assert.Empty(t, drain(admin))
	h.ToStaff(2, model.EventSessionClosed, model.SessionRef{SessionID: 2})
	assert.Len(t, drain(admin), 1)
}

func TestHub_AudienceCountGoesToStaffOnly(t *testing.T) {
	h := newTestHub()
	staff := presenter(10)
	require.True(t, h.JoinStaff(context.Background(), staff, 1))

	p1 := NewAudienceConnection(&model.Participant{ID: 1, SessionID: 1})
	p2 := NewAudienceConnection(&model.Participant{ID: 2, SessionID: 1})
	h.JoinAudience(p1)
	h.JoinAudience(p2)
	assert.Equal(t, 2, h.CountAudience(1))

	msgs := drain(staff)
	require.Len(t, msgs, 2)
	var count model.ParticipantCountPayload
	require.NoError(t, json.Unmarshal(msgs[1].Payload, &count))
	assert.Equal(t, 2, count.Count)
	assert.Empty(t, drain(p1))

	h.Disconnect(p2)
	msgs = drain(staff)
	require.Len(t, msgs, 1)
	require.NoError(t, json.Unmarshal(msgs[0].Payload, &count))
	assert.Equal(t, 1, count.Count)
	assert.Empty(t, drain(p1))
}

func TestHub_FilteredStaffDelivery(t *testing.T) {
	h := newTestHub()
	admin := NewStaffConnection(model.StaffIdentity{UserID: 1, Role: model.RoleAdmin})
	owner := presenter(10)
	require.True(t, h.JoinStaff(context.Background(), admin, 1))
	require.True(t, h.JoinStaff(context.Background(), owner, 1))
	audience := NewAudienceConnection(&model.Participant{ID: 5, SessionID: 1})
	h.JoinAudience(audience)
	drain(admin)
	drain(owner)
	drain(audience)

	h.ToStaffFiltered(1, model.EventNewAnonymousResponse, model.AnonymousResponsePayload{ID: 3}, func(id model.StaffIdentity) bool {
		return id.Role == model.RoleAdmin
	})

	assert.Equal(t, []string{model.EventNewAnonymousResponse}, types(drain(admin)))
	assert.Empty(t, drain(owner))
	assert.Empty(t, drain(audience))

	var ids []int64
	h.ForEachStaff(1, func(id model.StaffIdentity) { ids = append(ids, id.UserID) })
	assert.ElementsMatch(t, []int64{1, 10}, ids)
}

func TestHub_RoomRemovedWhenEmpty(t *testing.T) {
	h := newTestHub()
	staff := presenter(10)
	audience := NewAudienceConnection(&model.Participant{ID: 5, SessionID: 1})

	require.True(t, h.JoinStaff(context.Background(), staff, 1))
	h.JoinAudience(audience)
	assert.Equal(t, 1, h.Rooms())

	h.Disconnect(audience)
	assert.Equal(t, 1, h.Rooms())
	h.Disconnect(staff)
	assert.Zero(t, h.Rooms())

	_, ok := <-staff.Send
	for ok {
		_, ok = <-staff.Send
	}
	assert.False(t, ok, "send channel is closed")

	h.Disconnect(staff)
	h.ToStaff(1, model.EventSessionClosed, model.SessionRef{SessionID: 1})
}

func TestHub_SlowConnectionDropsWithoutBlocking(t *testing.T) {
	h := newTestHub()
	slow := presenter(10)
	require.True(t, h.JoinStaff(context.Background(), slow, 1))

	for i := 0; i < sendBuffer+10; i++ {
		h.ToStaff(1, model.EventQuestionClosed, model.QuestionRef{QuestionID: int64(i)})
	}
	assert.Len(t, drain(slow), sendBuffer)
}

func TestSessionIDFrom(t *testing.T) {
	id, err := sessionIDFrom(json.RawMessage(`42`))
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	id, err = sessionIDFrom(json.RawMessage(`{"sessionId":7}`))
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	_, err = sessionIDFrom(json.RawMessage(`"x"`))
	assert.Error(t, err)
}
