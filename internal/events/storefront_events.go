package events

import (
	"time"

	"github.com/cartfollow/followup-service-go/internal/cart"
)

// Incoming storefront lifecycle events. The storefront integration
// publishes these on every cart mutation and order state change; they
// carry everything the handlers need so no ambient session state is
// read here.

type CartUpdated struct {
	EventType    string      `json:"eventType"`
	UserID       int64       `json:"userId"`
	Email        string      `json:"email"`
	FirstName    string      `json:"firstName"`
	LastName     string      `json:"lastName"`
	Items        []cart.Item `json:"items"`
	Total        float64     `json:"totalAmount"`
	AddedProduct int64       `json:"addedProduct,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
}

type CartEmptied struct {
	EventType    string    `json:"eventType"`
	UserID       int64     `json:"userId"`
	Email        string    `json:"email"`
	DuringLogout bool      `json:"duringLogout"`
	Timestamp    time.Time `json:"timestamp"`
}

type OrderFinalized struct {
	EventType string    `json:"eventType"`
	OrderID   string    `json:"orderId"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
