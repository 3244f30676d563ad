package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// Repository mutates rows in the platform's sessions table. The stored
// session_value is a serialized blob owned by the platform; this module
// only ever rewrites its cart field in place and must leave every other
// key untouched.
type Repository interface {
	ClearCartField(ctx context.Context, sessionKey string) error
}

type repo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repo{db: db}
}

// ClearCartField empties the cart key inside the stored session blob.
// A missing row, an undecodable blob, or a blob without a cart key is a
// no-op: the session simply has no cart to clear.
func (r *repo) ClearCartField(ctx context.Context, sessionKey string) error {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT session_value FROM sessions WHERE session_key = $1`, sessionKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("select session: %w", err)
	}

	var blob map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		return nil
	}
	if _, ok := blob["cart"]; !ok {
		return nil
	}

	blob["cart"] = json.RawMessage(`{}`)
	updated, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET session_value = $2 WHERE session_key = $1`, sessionKey, string(updated)); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}
