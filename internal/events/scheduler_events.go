package events

import (
	"time"

	"github.com/cartfollow/followup-service-go/internal/dedup"
)

// CartEmailsQueued is the scheduler's acknowledgment of a
// QueueCartEmails command. It lists the (email, product) pairs the
// scheduler actually queued so the dedup tracker can record them.
type CartEmailsQueued struct {
	EventType string       `json:"eventType"`
	UserID    int64        `json:"userId"`
	Email     string       `json:"email"`
	Queued    []dedup.Mark `json:"queued"`
	Timestamp time.Time    `json:"timestamp"`
}
