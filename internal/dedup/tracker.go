package dedup

import (
	"context"
	"fmt"

	"github.com/cartfollow/followup-service-go/internal/cart"
)

// Tracker records which (email, product) pairs have already triggered a
// queued follow-up email for an identity's cart, so the scheduler never
// queues the same email twice for the same cart content.
type Tracker struct {
	users  Store // durable, registered customers
	guests Store // session-scoped
}

func NewTracker(users, guests Store) *Tracker {
	return &Tracker{users: users, guests: guests}
}

func (t *Tracker) storeFor(id cart.Identity) Store {
	if id.UserID != 0 {
		return t.users
	}
	return t.guests
}

// Marks returns the identity's current mark set, in insertion order.
func (t *Tracker) Marks(ctx context.Context, id cart.Identity) ([]Mark, error) {
	if !id.Known() {
		return nil, nil
	}
	return t.storeFor(id).Get(ctx, id.StorageKey())
}

func (t *Tracker) AlreadyMarked(ctx context.Context, id cart.Identity, emailID, productID int64) (bool, error) {
	marks, err := t.Marks(ctx, id)
	if err != nil {
		return false, err
	}
	for _, m := range marks {
		if m.EmailID == emailID && m.ProductID == productID {
			return true, nil
		}
	}
	return false, nil
}

// Mark adds the (email, product) pair to the identity's set. Callers
// must only mark pairs whose email has actually been queued.
func (t *Tracker) Mark(ctx context.Context, id cart.Identity, emailID, productID int64) error {
	if !id.Known() {
		return nil
	}

	store := t.storeFor(id)
	key := id.StorageKey()

	marks, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load marks: %w", err)
	}
	for _, m := range marks {
		if m.EmailID == emailID && m.ProductID == productID {
			return nil
		}
	}

	marks = append(marks, Mark{EmailID: emailID, ProductID: productID})
	if err := store.Set(ctx, key, marks); err != nil {
		return fmt.Errorf("store marks: %w", err)
	}
	return nil
}

// Reset clears the identity's whole mark set.
func (t *Tracker) Reset(ctx context.Context, id cart.Identity) error {
	if !id.Known() {
		return nil
	}
	if err := t.storeFor(id).Set(ctx, id.StorageKey(), nil); err != nil {
		return fmt.Errorf("reset marks: %w", err)
	}
	return nil
}
