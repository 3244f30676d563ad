package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cartfollow/followup-service-go/internal/cart"
	"github.com/cartfollow/followup-service-go/internal/contracts"
	"github.com/cartfollow/followup-service-go/internal/scheduler"
)

const (
	CartEmptiedQueue    = "followup.cart_emptied"
	CartConversionQueue = "followup.cart_conversion"
)

// Publisher emits the application-wide notifications other services
// observe: cart emptied and cart conversion.
type Publisher struct {
	ch  *amqp.Channel
	seq SequenceRepository
}

func NewPublisher(conn *amqp.Connection, seq SequenceRepository) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare queues so publish never fails due to missing infra
	_, err = ch.QueueDeclare(CartEmptiedQueue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare %s: %w", CartEmptiedQueue, err)
	}
	_, err = ch.QueueDeclare(CartConversionQueue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare %s: %w", CartConversionQueue, err)
	}

	return &Publisher{ch: ch, seq: seq}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishCartEmptied(ctx context.Context, id cart.Identity) error {
	partition := id.StorageKey()
	seq, err := p.seq.NextSequence(ctx, partition)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	env, err := cartEmptiedEnvelope(id, seq)
	if err != nil {
		return err
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal CartEmptied: %w", err)
	}

	return p.publishJSON(ctx, CartEmptiedQueue, body)
}

// cartEmptiedEnvelope builds and validates the outbound envelope, so a
// malformed event never reaches the queue.
func cartEmptiedEnvelope(id cart.Identity, seq int64) (contracts.EventEnvelope[contracts.CartEmptiedPayload], error) {
	env := contracts.BuildCartEmptiedEvent(
		contracts.CartEmptiedPayload{UserID: id.UserID, Email: id.Email},
		contracts.EnvelopeOptions{PartitionKey: id.StorageKey(), Sequence: seq},
	)
	if err := env.Validate(contracts.CartEmptiedEventName, contracts.CartEmptiedEventVersion); err != nil {
		return env, fmt.Errorf("validate CartEmptied: %w", err)
	}
	return env, nil
}

func (p *Publisher) PublishCartConversion(ctx context.Context, orderID string, sent scheduler.SentEmail) error {
	seq, err := p.seq.NextSequence(ctx, orderID)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	env, err := cartConversionEnvelope(orderID, sent, seq)
	if err != nil {
		return err
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal CartConversion: %w", err)
	}

	return p.publishJSON(ctx, CartConversionQueue, body)
}

func cartConversionEnvelope(orderID string, sent scheduler.SentEmail, seq int64) (contracts.EventEnvelope[contracts.CartConversionPayload], error) {
	env := contracts.BuildCartConversionEvent(
		contracts.CartConversionPayload{
			OrderID:     orderID,
			EmailID:     sent.EmailID,
			QueueItemID: sent.ID,
			DateSent:    sent.DateSent,
		},
		contracts.EnvelopeOptions{PartitionKey: orderID, Sequence: seq},
	)
	if err := env.Validate(contracts.CartConversionEventName, contracts.CartConversionEventVersion); err != nil {
		return env, fmt.Errorf("validate CartConversion: %w", err)
	}
	return env, nil
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		"",         // default exchange
		routingKey, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}
