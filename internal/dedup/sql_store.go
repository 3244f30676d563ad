package dedup

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLStore keeps marks in the cart_email_marks table. Used for
// registered customers, whose marks must outlive the browser session.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]Mark, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT email_id, product_id FROM cart_email_marks WHERE storage_key = $1 ORDER BY created_at`, key)
	if err != nil {
		return nil, fmt.Errorf("select marks: %w", err)
	}
	defer rows.Close()

	var marks []Mark
	for rows.Next() {
		var m Mark
		if err := rows.Scan(&m.EmailID, &m.ProductID); err != nil {
			return nil, fmt.Errorf("scan mark: %w", err)
		}
		marks = append(marks, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return marks, nil
}

// Set replaces the key's whole mark set in one transaction.
func (s *SQLStore) Set(ctx context.Context, key string, marks []Mark) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cart_email_marks WHERE storage_key = $1`, key); err != nil {
		return fmt.Errorf("delete marks: %w", err)
	}

	for _, m := range marks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cart_email_marks (storage_key, email_id, product_id) VALUES ($1, $2, $3)`,
			key, m.EmailID, m.ProductID); err != nil {
			return fmt.Errorf("insert mark: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
