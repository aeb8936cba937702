package amqp

import (
	"encoding/json"
	"time"
)

// LimitAlertMessage is the wire form of a limit notification fanned out
// to the alerts worker.
type LimitAlertMessage struct {
	UserID     string    `json:"user_id"`
	Category   string    `json:"category"`
	Status     string    `json:"status"`
	LimitCents int64     `json:"limit_cents"`
	SpentCents int64     `json:"spent_cents"`
	Percentage float64   `json:"percentage"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *LimitAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LimitAlertMessageFromJSON creates a message from JSON bytes
func LimitAlertMessageFromJSON(data []byte) (*LimitAlertMessage, error) {
	var msg LimitAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
