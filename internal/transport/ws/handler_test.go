package ws

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"livepoll/internal/model"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct{}

func (stubAuth) ValidateStaffToken(_ context.Context, token string) (*model.StaffClaims, error) {
	if token != "staff-10" {
		return nil, errors.New("invalid")
	}
	return &model.StaffClaims{UserID: 10, Role: model.RolePresenter}, nil
}

type stubTokens struct{}

func (stubTokens) Resolve(_ context.Context, token string) (*model.Participant, bool, error) {
	switch token {
	case "active":
		return &model.Participant{ID: 5, SessionID: 1, SessionActive: true}, false, nil
	case "closed":
		return &model.Participant{ID: 6, SessionID: 2, SessionActive: false}, false, nil
	case "broken":
		return nil, false, errors.New("db down")
	}
	return nil, false, nil
}

func newTestServer(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := newTestHub()
	h := NewHandler(hub, stubAuth{}, stubTokens{}, "*")

	r := mux.NewRouter()
	r.HandleFunc("/v1/ws/staff", h.StaffWS)
	r.HandleFunc("/v1/ws/audience", h.AudienceWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

func staffCount(h *Hub, sessionID int64) int {
	n := 0
	h.ForEachStaff(sessionID, func(model.StaffIdentity) { n++ })
	return n
}

func TestStaffWS_RejectsBadToken(t *testing.T) {
	_, base := newTestServer(t)

	_, resp, err := dial(t, base+"/v1/ws/staff?token=nope")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dial(t, base+"/v1/ws/staff")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStaffWS_JoinAndReceive(t *testing.T) {
	hub, base := newTestServer(t)

	conn, _, err := dial(t, base+"/v1/ws/staff?token=staff-10")
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": MsgJoinSession, "payload": 2}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": MsgJoinSession, "payload": map[string]int{"sessionId": 1}}))
	require.Eventually(t, func() bool { return staffCount(hub, 1) == 1 }, time.Second, 5*time.Millisecond)
	assert.Zero(t, staffCount(hub, 2), "not the owner of session 2")

	hub.ToStaff(1, model.EventQuestionClosed, model.QuestionRef{QuestionID: 3})

	var msg Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, model.EventQuestionClosed, msg.Type)
	assert.JSONEq(t, `{"questionId":3}`, string(msg.Payload))

	require.NoError(t, conn.WriteJSON(map[string]any{"type": MsgLeaveSession, "payload": 1}))
	require.Eventually(t, func() bool { return hub.Rooms() == 0 }, time.Second, 5*time.Millisecond)
}

func TestAudienceWS_Admission(t *testing.T) {
	hub, base := newTestServer(t)

	_, resp, err := dial(t, base+"/v1/ws/audience?token=unknown")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dial(t, base+"/v1/ws/audience?token=broken")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dial(t, base+"/v1/ws/audience?token=closed")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := dial(t, base+"/v1/ws/audience?token=active")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.CountAudience(1) == 1 }, time.Second, 5*time.Millisecond)

	hub.ToAudience(1, model.EventQuestionDeselected, model.Empty{})
	var msg Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, model.EventQuestionDeselected, msg.Type)

	conn.Close()
	require.Eventually(t, func() bool { return hub.CountAudience(1) == 0 }, time.Second, 5*time.Millisecond)
}
