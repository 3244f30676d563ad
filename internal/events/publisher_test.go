package events

import (
	"testing"
	"time"

	"github.com/cartfollow/followup-service-go/internal/cart"
	"github.com/cartfollow/followup-service-go/internal/contracts"
	"github.com/cartfollow/followup-service-go/internal/scheduler"
)

func TestCartEmptiedEnvelope(t *testing.T) {
	env, err := cartEmptiedEnvelope(cart.Identity{UserID: 7}, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.EventName != contracts.CartEmptiedEventName {
		t.Fatalf("unexpected event name %s", env.EventName)
	}
	if env.PartitionKey != "user:7" {
		t.Fatalf("unexpected partition key %s", env.PartitionKey)
	}
	if env.Sequence != 3 {
		t.Fatalf("unexpected sequence %d", env.Sequence)
	}
	if env.Payload.UserID != 7 {
		t.Fatalf("unexpected payload %+v", env.Payload)
	}
}

func TestCartConversionEnvelope(t *testing.T) {
	sent := scheduler.SentEmail{
		ID:       "queue-9",
		EmailID:  5,
		DateSent: time.Date(2026, time.February, 20, 9, 30, 0, 0, time.UTC),
	}

	env, err := cartConversionEnvelope("order-1", sent, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.EventName != contracts.CartConversionEventName {
		t.Fatalf("unexpected event name %s", env.EventName)
	}
	if env.PartitionKey != "order-1" {
		t.Fatalf("unexpected partition key %s", env.PartitionKey)
	}
	if env.Payload.EmailID != 5 || env.Payload.QueueItemID != "queue-9" {
		t.Fatalf("unexpected payload %+v", env.Payload)
	}

	t.Run("missing order id fails validation", func(t *testing.T) {
		if _, err := cartConversionEnvelope("", sent, 1); err == nil {
			t.Fatal("expected validation error for empty partition key")
		}
	})
}
