package scheduler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/cartfollow/followup-service-go/internal/cart"
	"github.com/cartfollow/followup-service-go/internal/dedup"
)

// Client talks to the external scheduler. Commands (queue, delete) go
// over RabbitMQ; lookups read the scheduler-owned email_queue and
// followup_emails tables directly, read-only.
type Client struct {
	ch *amqp.Channel
	db *sql.DB
}

func NewClient(conn *amqp.Connection, db *sql.DB) (*Client, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare queues so publish never fails due to missing infra
	_, err = ch.QueueDeclare(QueueCartEmailsQueue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare %s: %w", QueueCartEmailsQueue, err)
	}
	_, err = ch.QueueDeclare(DeleteUnsentCartEmailsQueue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare %s: %w", DeleteUnsentCartEmailsQueue, err)
	}

	return &Client{ch: ch, db: db}, nil
}

func (c *Client) Close() error {
	return c.ch.Close()
}

func (c *Client) QueueCartEmails(ctx context.Context, items []cart.Item, userID int64, email string, addedProduct int64, marks []dedup.Mark) error {
	cmd := QueueCartEmailsCommand{
		CommandType:   "QueueCartEmails",
		UserID:        userID,
		Email:         email,
		Items:         items,
		AddedProduct:  addedProduct,
		AlreadyQueued: marks,
		Timestamp:     time.Now().UTC(),
	}

	body, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal QueueCartEmails: %w", err)
	}

	return c.publishJSON(ctx, QueueCartEmailsQueue, body)
}

func (c *Client) DeleteUnsentCartEmails(ctx context.Context, userID int64, email string) error {
	cmd := DeleteUnsentCartEmailsCommand{
		CommandType: "DeleteUnsentCartEmails",
		UserID:      userID,
		Email:       email,
		Timestamp:   time.Now().UTC(),
	}

	body, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("marshal DeleteUnsentCartEmails: %w", err)
	}

	return c.publishJSON(ctx, DeleteUnsentCartEmailsQueue, body)
}

func (c *Client) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return c.ch.PublishWithContext(
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

func (c *Client) SentEmails(ctx context.Context, f SentEmailFilter) ([]SentEmail, error) {
	query := `SELECT id, email_id, user_id, user_email, date_sent
              FROM email_queue
              WHERE is_sent = TRUE`
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(f.EmailIDs) > 0 {
		query += ` AND email_id = ANY(` + arg(pq.Array(f.EmailIDs)) + `)`
	}
	if f.UserID != 0 {
		query += ` AND user_id = ` + arg(f.UserID)
	} else if f.Email != "" {
		query += ` AND user_email = ` + arg(f.Email)
	}
	if !f.From.IsZero() {
		query += ` AND date_sent >= ` + arg(f.From)
	}
	if !f.To.IsZero() {
		query += ` AND date_sent <= ` + arg(f.To)
	}

	query += ` ORDER BY date_sent DESC`
	if f.Limit > 0 {
		query += ` LIMIT ` + arg(f.Limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select sent emails: %w", err)
	}
	defer rows.Close()

	var sent []SentEmail
	for rows.Next() {
		var s SentEmail
		if err := rows.Scan(&s.ID, &s.EmailID, &s.UserID, &s.Email, &s.DateSent); err != nil {
			return nil, fmt.Errorf("scan sent email: %w", err)
		}
		sent = append(sent, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return sent, nil
}

func (c *Client) ActiveEmailIDs(ctx context.Context) ([]int64, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id FROM followup_emails WHERE status = 'active' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("select active emails: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan email id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}

	return ids, nil
}
