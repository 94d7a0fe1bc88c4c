package models

import (
	"time"

	"github.com/google/uuid"
)

// DeliveryStatus is the terminal outcome of one dispatch call
type DeliveryStatus string

const (
	DeliverySent   DeliveryStatus = "SENT"
	DeliveryFailed DeliveryStatus = "FAILED"
)

// MaxDeliveryErrorLen bounds the error text kept per entry, in runes
const MaxDeliveryErrorLen = 500

// DeliveryLogEntry is the append-only audit record written once per dispatch
type DeliveryLogEntry struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	Timestamp time.Time      `json:"timestamp" db:"timestamp"`
	Status    DeliveryStatus `json:"status" db:"status"`
	To        string         `json:"to" db:"to_address"`
	Subject   string         `json:"subject" db:"subject"`
	Provider  string         `json:"provider" db:"provider"`
	MessageID string         `json:"message_id,omitempty" db:"message_id"`
	Error     string         `json:"error,omitempty" db:"error"`
}

// TableName returns the table name for the DeliveryLogEntry model
func (DeliveryLogEntry) TableName() string {
	return "email_logs"
}

// NewDeliveryLogEntry builds an entry stamped with the current time.
// Error text longer than MaxDeliveryErrorLen runes is cut.
func NewDeliveryLogEntry(status DeliveryStatus, to, subject, provider, messageID, errText string) *DeliveryLogEntry {
	return &DeliveryLogEntry{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Status:    status,
		To:        to,
		Subject:   subject,
		Provider:  provider,
		MessageID: messageID,
		Error:     TruncateRunes(errText, MaxDeliveryErrorLen),
	}
}

// TruncateRunes cuts s to at most n runes
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
