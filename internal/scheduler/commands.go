package scheduler

import (
	"time"

	"github.com/cartfollow/followup-service-go/internal/cart"
	"github.com/cartfollow/followup-service-go/internal/dedup"
)

const (
	QueueCartEmailsQueue        = "scheduler.queue_cart_emails"
	DeleteUnsentCartEmailsQueue = "scheduler.delete_unsent_cart_emails"
)

type QueueCartEmailsCommand struct {
	CommandType   string       `json:"commandType"`
	UserID        int64        `json:"userId"`
	Email         string       `json:"email"`
	Items         []cart.Item  `json:"items"`
	AddedProduct  int64        `json:"addedProduct,omitempty"`
	AlreadyQueued []dedup.Mark `json:"alreadyQueued,omitempty"`
	Timestamp     time.Time    `json:"timestamp"`
}

type DeleteUnsentCartEmailsCommand struct {
	CommandType string    `json:"commandType"`
	UserID      int64     `json:"userId"`
	Email       string    `json:"email"`
	Timestamp   time.Time `json:"timestamp"`
}
