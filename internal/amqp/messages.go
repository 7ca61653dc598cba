package amqp

import (
	"encoding/json"
	"time"
)

// Element mutation operations carried on the event stream.
const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpDelete = "delete"
)

// ElementEventMessage describes one element mutation. It carries only
// identifiers; the audit worker persists it as-is without fetching the row,
// so deletions can be recorded after the row is gone.
type ElementEventMessage struct {
	Kind      string    `json:"kind"`
	Operation string    `json:"operation"`
	ElementID int64     `json:"element_id"`
	ActorID   int64     `json:"actor_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewElementEventMessage(kind, operation string, elementID, actorID int64) *ElementEventMessage {
	return &ElementEventMessage{
		Kind:      kind,
		Operation: operation,
		ElementID: elementID,
		ActorID:   actorID,
		Timestamp: time.Now(),
	}
}

func (m *ElementEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ElementEventMessageFromJSON(data []byte) (*ElementEventMessage, error) {
	var msg ElementEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
