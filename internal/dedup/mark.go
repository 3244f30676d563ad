package dedup

import "context"

// Mark records that a follow-up email referencing a product has already
// been queued or sent for the current cart. Membership only ever gates
// scheduling; it is never used to schedule anything itself.
type Mark struct {
	EmailID   int64 `json:"emailId"`
	ProductID int64 `json:"productId"`
}

// Store persists the set of marks for a storage key. Registered
// customers use a durable store, guests a short-lived session store;
// both expose the same contract so callers stay agnostic.
type Store interface {
	Get(ctx context.Context, key string) ([]Mark, error)
	Set(ctx context.Context, key string, marks []Mark) error
}
