package contracts

import "time"

const (
	CartEmptiedEventName    = "CartEmptied"
	CartEmptiedEventVersion = 1

	CartConversionEventName    = "CartConversion"
	CartConversionEventVersion = 1
)

// CartEmptiedPayload announces that an identified visitor's cart was
// emptied and its pending follow-up emails were discarded.
type CartEmptiedPayload struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email,omitempty"`
}

// CartConversionPayload announces that a completed order was credited
// to a previously sent follow-up email.
type CartConversionPayload struct {
	OrderID     string    `json:"orderId"`
	EmailID     int64     `json:"emailId"`
	QueueItemID string    `json:"queueItemId"`
	DateSent    time.Time `json:"dateSent"`
}

func BuildCartEmptiedEvent(payload CartEmptiedPayload, opts EnvelopeOptions) EventEnvelope[CartEmptiedPayload] {
	return newEnvelope(CartEmptiedEventName, CartEmptiedEventVersion, payload, opts)
}

func BuildCartConversionEvent(payload CartConversionPayload, opts EnvelopeOptions) EventEnvelope[CartConversionPayload] {
	return newEnvelope(CartConversionEventName, CartConversionEventVersion, payload, opts)
}
