package conversion

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cartfollow/followup-service-go/internal/order"
	"github.com/cartfollow/followup-service-go/internal/scheduler"
)

const DefaultLookbackDays = 14

// EventsPublisher emits the cart-conversion notification.
type EventsPublisher interface {
	PublishCartConversion(ctx context.Context, orderID string, sent scheduler.SentEmail) error
}

// Attributor links completed orders back to previously sent follow-up
// emails. An order converts when a sent email addressed to its customer
// exists inside the lookback window.
type Attributor struct {
	scheduler scheduler.Scheduler
	orders    order.Repository
	events    EventsPublisher
	days      int
	logger    *log.Logger

	now func() time.Time
}

func NewAttributor(sched scheduler.Scheduler, orders order.Repository, events EventsPublisher, lookbackDays int, logger *log.Logger) *Attributor {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	return &Attributor{
		scheduler: sched,
		orders:    orders,
		events:    events,
		days:      lookbackDays,
		logger:    logger,
		now:       time.Now,
	}
}

// Attribute tags the order with the most recently sent matching email.
// Finding no match is the normal case and is not an error. Safe to call
// repeatedly for the same order: a second run rewrites the same tag.
func (a *Attributor) Attribute(ctx context.Context, orderID string) error {
	emailIDs, err := a.scheduler.ActiveEmailIDs(ctx)
	if err != nil {
		return fmt.Errorf("list active emails: %w", err)
	}
	if len(emailIDs) == 0 {
		return nil
	}

	renewal, err := a.orders.IsSubscriptionRenewal(ctx, orderID)
	if err != nil {
		return fmt.Errorf("check renewal flag: %w", err)
	}
	if renewal {
		return nil
	}

	customer, err := a.orders.Customer(ctx, orderID)
	if err != nil {
		return fmt.Errorf("resolve order customer: %w", err)
	}
	if !customer.Known() {
		return nil
	}

	now := a.now()
	from := midnight(now).AddDate(0, 0, -a.days)

	sent, err := a.scheduler.SentEmails(ctx, scheduler.SentEmailFilter{
		EmailIDs: emailIDs,
		UserID:   customer.UserID,
		Email:    customer.Email,
		From:     from,
		To:       now,
		Limit:    1,
	})
	if err != nil {
		return fmt.Errorf("query sent emails: %w", err)
	}
	if len(sent) == 0 {
		return nil
	}

	match := sent[0]
	if err := a.orders.SetConversion(ctx, orderID, match.EmailID); err != nil {
		return fmt.Errorf("tag conversion: %w", err)
	}

	// The tag is already written; the notification is best effort.
	if err := a.events.PublishCartConversion(ctx, orderID, match); err != nil {
		a.logger.Printf("publish cart conversion for order %s: %v", orderID, err)
	}

	return nil
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
