package amqp

import (
	"encoding/json"
	"time"
)

// Event names carried in ActivityMessage.Event.
const (
	EventExpenseCreated = "expense.created"
	EventExpenseUpdated = "expense.updated"
	EventExpenseDeleted = "expense.deleted"
	EventSessionLogin   = "session.login"
	EventSessionLogout  = "session.logout"
	EventListExported   = "expense.exported"
)

// ActivityMessage announces a user action taken through the web client. It
// never carries credentials; consumers look records up through the API.
type ActivityMessage struct {
	Event     string    `json:"event"`
	SessionID string    `json:"session_id"`
	ExpenseID string    `json:"expense_id,omitempty"`
	Type      string    `json:"type,omitempty"`
	Category  string    `json:"category,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewActivityMessage stamps an event with the current time.
func NewActivityMessage(event, sessionID string) *ActivityMessage {
	return &ActivityMessage{
		Event:     event,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ActivityMessageFromJSON decodes a message body.
func ActivityMessageFromJSON(data []byte) (*ActivityMessage, error) {
	var msg ActivityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
