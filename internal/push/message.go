// Package push delivers events to connected subscribers over long-lived
// server-sent-event streams.
package push

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stacklok/posting-sync/internal/notification"
)

// EnvelopeVersion is the version of the Envelope format
const EnvelopeVersion = 1

// Envelope is the JSON body of every pushed event
type Envelope struct {
	Type    string          `json:"type"`
	Version int             `json:"v"`
	At      time.Time       `json:"at"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Message is a framed event ready to be written to a channel
type Message struct {
	Type string
	Data []byte
}

// NewMessage wraps data in an Envelope
func NewMessage(typ string, data any, at time.Time) (Message, error) {
	var raw json.RawMessage
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return Message{}, fmt.Errorf("failed to marshal %s data: %w", typ, err)
		}
		raw = b
	}
	return newMessage(typ, raw, at)
}

// MessageFromEvent wraps a notification event. JSON content is embedded
// as-is, anything else is sent as a JSON string.
func MessageFromEvent(e notification.Event) (Message, error) {
	raw := json.RawMessage(e.Content)
	if !json.Valid(raw) {
		b, err := json.Marshal(e.Content)
		if err != nil {
			return Message{}, fmt.Errorf("failed to marshal event content: %w", err)
		}
		raw = b
	}
	return newMessage(string(e.Type), raw, e.CreatedAt)
}

func newMessage(typ string, raw json.RawMessage, at time.Time) (Message, error) {
	b, err := json.Marshal(Envelope{
		Type:    typ,
		Version: EnvelopeVersion,
		At:      at.UTC(),
		Data:    raw,
	})
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return Message{Type: typ, Data: b}, nil
}
