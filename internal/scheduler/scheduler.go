package scheduler

import (
	"context"
	"time"

	"github.com/cartfollow/followup-service-go/internal/cart"
	"github.com/cartfollow/followup-service-go/internal/dedup"
)

// Scheduler is the external email scheduling engine. This module only
// invokes it; the queueing, timing and sending all live elsewhere.
type Scheduler interface {
	// QueueCartEmails asks the scheduler to queue follow-up emails for
	// the identity's current cart. addedProduct is the product id of a
	// just-added item, or 0 when the update was not an add-to-cart
	// action. marks lists the (email, product) pairs already queued so
	// the scheduler can skip them.
	QueueCartEmails(ctx context.Context, items []cart.Item, userID int64, email string, addedProduct int64, marks []dedup.Mark) error

	// DeleteUnsentCartEmails removes every queued-but-unsent cart email
	// addressed to the user id and/or email.
	DeleteUnsentCartEmails(ctx context.Context, userID int64, email string) error

	// SentEmails returns sent queue items matching the filter,
	// most recent first.
	SentEmails(ctx context.Context, f SentEmailFilter) ([]SentEmail, error)

	// ActiveEmailIDs lists the ids of active follow-up email
	// definitions.
	ActiveEmailIDs(ctx context.Context) ([]int64, error)
}

// SentEmail is one sent item from the scheduler's queue.
type SentEmail struct {
	ID       string    `json:"id"`
	EmailID  int64     `json:"emailId"`
	UserID   int64     `json:"userId"`
	Email    string    `json:"email"`
	DateSent time.Time `json:"dateSent"`
}

type SentEmailFilter struct {
	EmailIDs []int64
	UserID   int64
	Email    string
	From     time.Time
	To       time.Time
	Limit    int
}
