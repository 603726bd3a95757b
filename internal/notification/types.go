// Package notification defines notification events and persists them in
// idempotent chunks.
package notification

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type is the kind of a notification
type Type string

const (
	// TypePostingOpened is sent when a watched company opens a posting
	TypePostingOpened Type = "POSTING_OPENED"
	// TypePointAwarded is sent when a member is awarded points
	TypePointAwarded Type = "POINT_AWARDED"
	// TypeDailyWinner announces the daily winner
	TypeDailyWinner Type = "DAILY_WINNER"
	// TypeProcessingError tells operators a sync step failed
	TypeProcessingError Type = "PROCESSING_ERROR"
)

// Valid reports whether t is a known Type
func (t Type) Valid() bool {
	switch t {
	case TypePostingOpened, TypePointAwarded, TypeDailyWinner, TypeProcessingError:
		return true
	default:
		return false
	}
}

// Event is a notification addressed to one recipient.
// Content is the JSON payload delivered to clients and stored verbatim.
type Event struct {
	RecipientID string    `json:"recipient_id"`
	Type        Type      `json:"type"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewEvent builds an Event with payload marshalled as its content
func NewEvent(recipientID string, typ Type, payload any, at time.Time) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal %s payload: %w", typ, err)
	}
	return Event{
		RecipientID: recipientID,
		Type:        typ,
		Content:     string(b),
		CreatedAt:   at.UTC(),
	}, nil
}

// Notification is a persisted Event
type Notification struct {
	ID          uuid.UUID `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Type        Type      `json:"type"`
	Content     string    `json:"content"`
	IsRead      bool      `json:"is_read"`
	CreatedAt   time.Time `json:"created_at"`
	DedupKey    string    `json:"-"`
}

// FromEvent maps an event to a new unread Notification
func FromEvent(e Event) Notification {
	return Notification{
		ID:          uuid.New(),
		RecipientID: e.RecipientID,
		Type:        e.Type,
		Content:     e.Content,
		CreatedAt:   e.CreatedAt,
		DedupKey:    DedupKey(e),
	}
}

// DedupKey is the hex sha256 of recipient, type, content and the UTC day of
// creation. Two events with the same key are the same notification.
func DedupKey(e Event) string {
	h := sha256.New()
	for _, part := range []string{
		e.RecipientID,
		string(e.Type),
		e.Content,
		e.CreatedAt.UTC().Format(time.DateOnly),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// PostingOpened is the content of a TypePostingOpened event
type PostingOpened struct {
	ExternalID string `json:"external_id"`
	CompanyID  string `json:"company_id"`
	Title      string `json:"title"`
	URL        string `json:"url,omitempty"`
	Keyword    string `json:"keyword"`
}

// ProcessingError is the content of a TypeProcessingError event
type ProcessingError struct {
	Keyword string `json:"keyword"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}
