package cart

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type Repository interface {
	Upsert(ctx context.Context, snap *Snapshot) error
	Fetch(ctx context.Context, id Identity) (*Snapshot, error)
	Total(ctx context.Context, id Identity) (float64, bool, error)
	Touch(ctx context.Context, id Identity) error
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

// lookupID finds the snapshot row for an identity. Registered users are
// matched on user_id, guests on user_email.
func (r *repo) lookupID(ctx context.Context, id Identity) (string, bool, error) {
	var (
		rowID string
		err   error
	)
	if id.UserID != 0 {
		err = r.db.QueryRowContext(ctx,
			`SELECT id FROM customer_carts WHERE user_id = $1`, id.UserID).Scan(&rowID)
	} else {
		err = r.db.QueryRowContext(ctx,
			`SELECT id FROM customer_carts WHERE user_email = $1`, id.Email).Scan(&rowID)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select cart id: %w", err)
	}
	return rowID, true, nil
}

// Upsert overwrites the identity's snapshot, or inserts one if none
// exists yet. Identities with no user id and no email are silently
// skipped: there is nothing to address the row by.
//
// The select-then-write here is unprotected; concurrent updates for the
// same identity resolve as last-write-wins, which is acceptable for
// advisory reporting data.
func (r *repo) Upsert(ctx context.Context, snap *Snapshot) error {
	if !snap.Known() {
		return nil
	}

	items, err := json.Marshal(snap.Items)
	if err != nil {
		return fmt.Errorf("encode cart items: %w", err)
	}

	rowID, found, err := r.lookupID(ctx, snap.Identity)
	if err != nil {
		return err
	}

	if !found {
		if snap.ID == "" {
			snap.ID = uuid.NewString()
		}
		_, err = r.db.ExecContext(ctx,
			`INSERT INTO customer_carts (id, user_id, user_email, first_name, last_name, cart_items, cart_total, date_updated)
         VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
			snap.ID, snap.UserID, snap.Email, snap.FirstName, snap.LastName, string(items), snap.Total,
		)
		if err != nil {
			return fmt.Errorf("insert cart snapshot: %w", err)
		}
		return nil
	}

	snap.ID = rowID
	_, err = r.db.ExecContext(ctx,
		`UPDATE customer_carts
         SET user_id = $2, user_email = $3, first_name = $4, last_name = $5, cart_items = $6, cart_total = $7, date_updated = NOW()
         WHERE id = $1`,
		snap.ID, snap.UserID, snap.Email, snap.FirstName, snap.LastName, string(items), snap.Total,
	)
	if err != nil {
		return fmt.Errorf("update cart snapshot: %w", err)
	}
	return nil
}

// Fetch loads the identity's snapshot. A missing row returns (nil, nil),
// and so does a row whose stored items cannot be decoded: a corrupt
// snapshot is treated as absent, not as a failure.
func (r *repo) Fetch(ctx context.Context, id Identity) (*Snapshot, error) {
	if !id.Known() {
		return nil, nil
	}

	const fields = `id, user_id, user_email, first_name, last_name, cart_items, cart_total, date_updated`

	var (
		snap     Snapshot
		rawItems string
		err      error
	)
	if id.UserID != 0 {
		err = r.db.QueryRowContext(ctx,
			`SELECT `+fields+` FROM customer_carts WHERE user_id = $1`, id.UserID).
			Scan(&snap.ID, &snap.UserID, &snap.Email, &snap.FirstName, &snap.LastName, &rawItems, &snap.Total, &snap.UpdatedAt)
	} else {
		err = r.db.QueryRowContext(ctx,
			`SELECT `+fields+` FROM customer_carts WHERE user_email = $1`, id.Email).
			Scan(&snap.ID, &snap.UserID, &snap.Email, &snap.FirstName, &snap.LastName, &rawItems, &snap.Total, &snap.UpdatedAt)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select cart snapshot: %w", err)
	}

	if err := json.Unmarshal([]byte(rawItems), &snap.Items); err != nil {
		return nil, nil
	}

	return &snap, nil
}

// Total returns the stored cart total for reporting. The bool is false
// when no snapshot exists for the identity.
func (r *repo) Total(ctx context.Context, id Identity) (float64, bool, error) {
	if !id.Known() {
		return 0, false, nil
	}

	var (
		total float64
		err   error
	)
	if id.UserID != 0 {
		err = r.db.QueryRowContext(ctx,
			`SELECT cart_total FROM customer_carts WHERE user_id = $1`, id.UserID).Scan(&total)
	} else {
		err = r.db.QueryRowContext(ctx,
			`SELECT cart_total FROM customer_carts WHERE user_email = $1`, id.Email).Scan(&total)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("select cart total: %w", err)
	}
	return total, true, nil
}

// Touch refreshes date_updated without changing the stored contents.
func (r *repo) Touch(ctx context.Context, id Identity) error {
	if !id.Known() {
		return nil
	}

	var err error
	if id.UserID != 0 {
		_, err = r.db.ExecContext(ctx,
			`UPDATE customer_carts SET date_updated = NOW() WHERE user_id = $1`, id.UserID)
	} else {
		_, err = r.db.ExecContext(ctx,
			`UPDATE customer_carts SET date_updated = NOW() WHERE user_email = $1`, id.Email)
	}
	if err != nil {
		return fmt.Errorf("touch cart snapshot: %w", err)
	}
	return nil
}
