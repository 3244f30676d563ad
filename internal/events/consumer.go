package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cartfollow/followup-service-go/internal/cart"
	"github.com/cartfollow/followup-service-go/internal/dedup"
	"github.com/cartfollow/followup-service-go/internal/followup"
)

const (
	cartUpdatedQueue      = "storefront.cart_updated"
	cartEmptiedQueue      = "storefront.cart_emptied"
	orderFinalizedQueue   = "storefront.order_finalized"
	cartEmailsQueuedQueue = "scheduler.cart_emails_queued"

	consumerTag = "followup-service"
)

// LifecycleHandler reacts to storefront cart lifecycle events and to
// the scheduler's queueing acknowledgments.
type LifecycleHandler interface {
	CartUpdated(ctx context.Context, v followup.Visitor, items []cart.Item, total float64, addedProduct int64) error
	CartEmptied(ctx context.Context, v followup.Visitor, opts followup.EmptiedOptions) error
	OrderFinalized(ctx context.Context, orderID string) error
	CartEmailsQueued(ctx context.Context, id cart.Identity, queued []dedup.Mark) error
}

// Attributor records order conversions.
type Attributor interface {
	Attribute(ctx context.Context, orderID string) error
}

// StartStorefrontConsumers consumes the storefront lifecycle queues and
// dispatches to the orchestrator and the attributor.
func StartStorefrontConsumers(ctx context.Context, conn *amqp.Connection, lifecycle LifecycleHandler, attributor Attributor, logger *log.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}

	for _, queue := range []string{cartUpdatedQueue, cartEmptiedQueue, orderFinalizedQueue, cartEmailsQueuedQueue} {
		if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare %s: %w", queue, err)
		}
	}

	handlers := map[string]func(context.Context, []byte) error{
		cartUpdatedQueue: func(ctx context.Context, body []byte) error {
			return handleCartUpdated(ctx, lifecycle, body)
		},
		cartEmptiedQueue: func(ctx context.Context, body []byte) error {
			return handleCartEmptied(ctx, lifecycle, body)
		},
		orderFinalizedQueue: func(ctx context.Context, body []byte) error {
			return handleOrderFinalized(ctx, lifecycle, attributor, body)
		},
		cartEmailsQueuedQueue: func(ctx context.Context, body []byte) error {
			return handleCartEmailsQueued(ctx, lifecycle, body)
		},
	}

	for queue, handle := range handlers {
		msgs, err := ch.Consume(queue, consumerTag+"."+queue, false, false, false, false, nil)
		if err != nil {
			return fmt.Errorf("consume %s: %w", queue, err)
		}

		go func(queue string, msgs <-chan amqp.Delivery, handle func(context.Context, []byte) error) {
			for {
				select {
				case <-ctx.Done():
					logger.Printf("stopping %s consumer", queue)
					return
				case msg, ok := <-msgs:
					if !ok {
						logger.Printf("%s messages channel closed", queue)
						return
					}

					if err := handle(ctx, msg.Body); err != nil {
						logger.Printf("handle %s: %v", queue, err)
						_ = msg.Nack(false, false) // drop for now
						continue
					}
					_ = msg.Ack(false)
				}
			}
		}(queue, msgs, handle)
	}

	return nil
}

func handleCartUpdated(ctx context.Context, lifecycle LifecycleHandler, body []byte) error {
	var ev CartUpdated
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	v := followup.Visitor{
		Identity:  cart.Identity{UserID: ev.UserID, Email: ev.Email},
		FirstName: ev.FirstName,
		LastName:  ev.LastName,
	}
	return lifecycle.CartUpdated(ctx, v, ev.Items, ev.Total, ev.AddedProduct)
}

func handleCartEmptied(ctx context.Context, lifecycle LifecycleHandler, body []byte) error {
	var ev CartEmptied
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	v := followup.Visitor{Identity: cart.Identity{UserID: ev.UserID, Email: ev.Email}}
	return lifecycle.CartEmptied(ctx, v, followup.EmptiedOptions{DuringLogout: ev.DuringLogout})
}

func handleCartEmailsQueued(ctx context.Context, lifecycle LifecycleHandler, body []byte) error {
	var ev CartEmailsQueued
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	id := cart.Identity{UserID: ev.UserID, Email: ev.Email}
	return lifecycle.CartEmailsQueued(ctx, id, ev.Queued)
}

func handleOrderFinalized(ctx context.Context, lifecycle LifecycleHandler, attributor Attributor, body []byte) error {
	var ev OrderFinalized
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}

	if err := lifecycle.OrderFinalized(ctx, ev.OrderID); err != nil {
		return fmt.Errorf("order finalized: %w", err)
	}
	if err := attributor.Attribute(ctx, ev.OrderID); err != nil {
		return fmt.Errorf("attribute conversion: %w", err)
	}
	return nil
}
