package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/cartfollow/followup-service-go/internal/cart"
)

// Meta keys mirror the ones the storefront writes against orders and
// customer profiles.
const (
	metaCustomerUser        = "_customer_user"
	metaBillingEmail        = "_billing_email"
	metaSubscriptionRenewal = "_subscription_renewal"
	metaConversion          = "_fue_conversion"
	metaPersistentCart      = "_persistent_cart"
)

type Repository interface {
	// Customer resolves the order's customer: registered user id (when
	// any) and billing email.
	Customer(ctx context.Context, orderID string) (cart.Identity, error)
	IsSubscriptionRenewal(ctx context.Context, orderID string) (bool, error)
	// SetConversion tags the order with the follow-up email credited
	// for it. Re-tagging the same order overwrites in place.
	SetConversion(ctx context.Context, orderID string, emailID int64) error
	Conversion(ctx context.Context, orderID string) (int64, bool, error)
	// ClearRememberedCart drops the persistent-cart marker from the
	// customer's profile.
	ClearRememberedCart(ctx context.Context, userID int64) error
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

func (r *repo) meta(ctx context.Context, orderID, key string) (string, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT meta_value FROM order_meta WHERE order_id = $1 AND meta_key = $2`,
		orderID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select order meta %s: %w", key, err)
	}
	return value, true, nil
}

func (r *repo) Customer(ctx context.Context, orderID string) (cart.Identity, error) {
	var id cart.Identity

	rawUser, ok, err := r.meta(ctx, orderID, metaCustomerUser)
	if err != nil {
		return id, err
	}
	if ok {
		// A malformed user id resolves as a guest.
		if userID, convErr := strconv.ParseInt(rawUser, 10, 64); convErr == nil {
			id.UserID = userID
		}
	}

	email, _, err := r.meta(ctx, orderID, metaBillingEmail)
	if err != nil {
		return id, err
	}
	id.Email = email

	return id, nil
}

func (r *repo) IsSubscriptionRenewal(ctx context.Context, orderID string) (bool, error) {
	value, ok, err := r.meta(ctx, orderID, metaSubscriptionRenewal)
	if err != nil {
		return false, err
	}
	return ok && value != "", nil
}

func (r *repo) SetConversion(ctx context.Context, orderID string, emailID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO order_meta (order_id, meta_key, meta_value)
         VALUES ($1, $2, $3)
         ON CONFLICT (order_id, meta_key) DO UPDATE
         SET meta_value = EXCLUDED.meta_value`,
		orderID, metaConversion, strconv.FormatInt(emailID, 10))
	if err != nil {
		return fmt.Errorf("upsert conversion tag: %w", err)
	}
	return nil
}

func (r *repo) Conversion(ctx context.Context, orderID string) (int64, bool, error) {
	value, ok, err := r.meta(ctx, orderID, metaConversion)
	if err != nil || !ok {
		return 0, false, err
	}
	emailID, convErr := strconv.ParseInt(value, 10, 64)
	if convErr != nil {
		return 0, false, nil
	}
	return emailID, true, nil
}

func (r *repo) ClearRememberedCart(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM user_meta WHERE user_id = $1 AND meta_key = $2`,
		userID, metaPersistentCart)
	if err != nil {
		return fmt.Errorf("delete remembered cart: %w", err)
	}
	return nil
}
