package followup

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/cartfollow/followup-service-go/internal/cart"
	"github.com/cartfollow/followup-service-go/internal/dedup"
	"github.com/cartfollow/followup-service-go/internal/order"
	"github.com/cartfollow/followup-service-go/internal/scheduler"
	"github.com/cartfollow/followup-service-go/internal/session"
)

// Visitor is the explicit view of the acting shopper. Callers extract
// it from the live request or session before invoking the orchestrator.
type Visitor struct {
	cart.Identity
	FirstName string
	LastName  string
}

type EmptiedOptions struct {
	// DuringLogout marks a cart-emptied signal fired as a side effect
	// of logging out. The cart comes back on the next login, so queued
	// emails must survive.
	DuringLogout bool
}

// DedupTracker is the subset of dedup.Tracker the orchestrator needs.
type DedupTracker interface {
	Marks(ctx context.Context, id cart.Identity) ([]dedup.Mark, error)
	Mark(ctx context.Context, id cart.Identity, emailID, productID int64) error
	Reset(ctx context.Context, id cart.Identity) error
}

// EventsPublisher emits the cart-emptied notification.
type EventsPublisher interface {
	PublishCartEmptied(ctx context.Context, id cart.Identity) error
}

// Orchestrator reacts to cart lifecycle events: it keeps the durable
// snapshot current, gates email queueing through the dedup tracker and
// tells the external scheduler what to queue or discard.
type Orchestrator struct {
	snapshots cart.Repository
	tracker   DedupTracker
	scheduler scheduler.Scheduler
	sessions  session.Repository
	orders    order.Repository
	events    EventsPublisher
	logger    *log.Logger
}

func NewOrchestrator(
	snapshots cart.Repository,
	tracker DedupTracker,
	sched scheduler.Scheduler,
	sessions session.Repository,
	orders order.Repository,
	events EventsPublisher,
	logger *log.Logger,
) *Orchestrator {
	return &Orchestrator{
		snapshots: snapshots,
		tracker:   tracker,
		scheduler: sched,
		sessions:  sessions,
		orders:    orders,
		events:    events,
		logger:    logger,
	}
}

// CartUpdated persists a snapshot of the visitor's cart and asks the
// scheduler to queue follow-up emails for it. Anonymous visitors are
// never tracked. An update that leaves the cart empty is handled as a
// cart-emptied event instead.
func (o *Orchestrator) CartUpdated(ctx context.Context, v Visitor, items []cart.Item, total float64, addedProduct int64) error {
	if !v.Known() {
		return nil
	}

	if len(items) == 0 {
		return o.CartEmptied(ctx, v, EmptiedOptions{})
	}

	snap := &cart.Snapshot{
		Identity:  v.Identity,
		FirstName: v.FirstName,
		LastName:  v.LastName,
		Items:     items,
		Total:     total,
	}
	if err := o.snapshots.Upsert(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	marks, err := o.tracker.Marks(ctx, v.Identity)
	if err != nil {
		return fmt.Errorf("load dedup marks: %w", err)
	}

	if err := o.scheduler.QueueCartEmails(ctx, items, v.UserID, v.Email, addedProduct, marks); err != nil {
		return fmt.Errorf("queue cart emails: %w", err)
	}
	return nil
}

// CartEmailsQueued records the scheduler's acknowledgment of a queue
// command: the (email, product) pairs it actually queued. Marking them
// here is what keeps the next CartUpdated from asking for the same
// emails again.
func (o *Orchestrator) CartEmailsQueued(ctx context.Context, id cart.Identity, queued []dedup.Mark) error {
	if !id.Known() {
		return nil
	}

	for _, m := range queued {
		if err := o.tracker.Mark(ctx, id, m.EmailID, m.ProductID); err != nil {
			return fmt.Errorf("record queued email: %w", err)
		}
	}
	return nil
}

// CartEmptied discards the visitor's pending cart emails and resets the
// dedup tracker. Skipped entirely during logout and for unidentified
// visitors.
func (o *Orchestrator) CartEmptied(ctx context.Context, v Visitor, opts EmptiedOptions) error {
	if opts.DuringLogout {
		return nil
	}
	if !v.Known() {
		return nil
	}

	if err := o.events.PublishCartEmptied(ctx, v.Identity); err != nil {
		o.logger.Printf("publish cart emptied for %s: %v", v.StorageKey(), err)
	}

	if err := o.scheduler.DeleteUnsentCartEmails(ctx, v.UserID, v.Email); err != nil {
		return fmt.Errorf("delete unsent cart emails: %w", err)
	}

	// Record the empty state with a fresh timestamp.
	snap := &cart.Snapshot{
		Identity:  v.Identity,
		FirstName: v.FirstName,
		LastName:  v.LastName,
	}
	if err := o.snapshots.Upsert(ctx, snap); err != nil {
		return fmt.Errorf("save empty snapshot: %w", err)
	}

	if err := o.tracker.Reset(ctx, v.Identity); err != nil {
		return fmt.Errorf("reset dedup marks: %w", err)
	}
	return nil
}

// OrderFinalized discards every pending cart email for the order's
// customer. The storefront fires it once per order status change, so it
// may run several times for one order; each run converges to the same
// state.
func (o *Orchestrator) OrderFinalized(ctx context.Context, orderID string) error {
	customer, err := o.orders.Customer(ctx, orderID)
	if err != nil {
		return fmt.Errorf("resolve order customer: %w", err)
	}

	if customer.UserID > 0 {
		if err := o.scheduler.DeleteUnsentCartEmails(ctx, customer.UserID, ""); err != nil {
			return fmt.Errorf("delete unsent cart emails for user: %w", err)
		}
		if err := o.tracker.Reset(ctx, cart.Identity{UserID: customer.UserID}); err != nil {
			return fmt.Errorf("reset dedup marks: %w", err)
		}
	}

	// Also delete emails keyed by the billing address. Covers guest
	// orders and stale guest-keyed emails left over for a customer who
	// registered after the emails were queued.
	if customer.Email != "" {
		if err := o.scheduler.DeleteUnsentCartEmails(ctx, 0, customer.Email); err != nil {
			return fmt.Errorf("delete unsent cart emails for billing email: %w", err)
		}
	}

	return nil
}

// OperatorClear is the administrative equivalent of CartEmptied. For
// registered users it additionally drops the remembered-cart marker
// from the profile and empties the cart field inside the live session
// blob.
func (o *Orchestrator) OperatorClear(ctx context.Context, userID int64, email string) error {
	id := cart.Identity{UserID: userID, Email: email}
	if !id.Known() {
		return nil
	}

	if err := o.scheduler.DeleteUnsentCartEmails(ctx, userID, email); err != nil {
		return fmt.Errorf("delete unsent cart emails: %w", err)
	}

	if err := o.snapshots.Touch(ctx, id); err != nil {
		return fmt.Errorf("touch snapshot: %w", err)
	}

	if userID > 0 {
		if err := o.tracker.Reset(ctx, cart.Identity{UserID: userID}); err != nil {
			return fmt.Errorf("reset dedup marks: %w", err)
		}
		if err := o.orders.ClearRememberedCart(ctx, userID); err != nil {
			return fmt.Errorf("clear remembered cart: %w", err)
		}
		if err := o.sessions.ClearCartField(ctx, strconv.FormatInt(userID, 10)); err != nil {
			return fmt.Errorf("clear session cart: %w", err)
		}
	}

	return nil
}
