package ws

import (
	"encoding/json"
	"fmt"
)

// Client message types
const (
	MsgJoinSession  = "join-session"
	MsgLeaveSession = "leave-session"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", event, err)
	}
	return json.Marshal(&Message{Type: event, Payload: data})
}

// sessionIDFrom accepts either a bare id or {"sessionId": id}.
func sessionIDFrom(payload json.RawMessage) (int64, error) {
	var id int64
	if err := json.Unmarshal(payload, &id); err == nil {
		return id, nil
	}
	var body struct {
		SessionID int64 `json:"sessionId"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return 0, err
	}
	if body.SessionID == 0 {
		return 0, fmt.Errorf("missing sessionId")
	}
	return body.SessionID, nil
}
