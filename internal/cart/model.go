package cart

import (
	"strconv"
	"time"
)

// Identity addresses cart-related records. Registered customers are
// keyed by UserID, guests by Email; a zero UserID with an empty Email
// means the visitor cannot be tracked at all.
type Identity struct {
	UserID int64  `json:"userId"`
	Email  string `json:"email,omitempty"`
}

// Known reports whether the identity can address any stored record.
func (id Identity) Known() bool {
	return id.UserID != 0 || id.Email != ""
}

// StorageKey is the key used by per-identity key/value stores.
func (id Identity) StorageKey() string {
	if id.UserID != 0 {
		return "user:" + strconv.FormatInt(id.UserID, 10)
	}
	return "guest:" + id.Email
}

type Item struct {
	ProductID int64             `json:"productId"`
	Quantity  int               `json:"quantity"`
	Variation map[string]string `json:"variation,omitempty"`
	Price     float64           `json:"price"`
}

// Snapshot is the durable copy of an otherwise ephemeral session cart.
// At most one snapshot exists per identity; it is overwritten, never
// appended, on each cart mutation.
type Snapshot struct {
	ID string `json:"id"`
	Identity
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Items     []Item    `json:"items"`
	Total     float64   `json:"cartTotal"`
	UpdatedAt time.Time `json:"updatedAt"`
}
