package dedup

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cartfollow/followup-service-go/internal/session"
)

const marksSessionKey = "cart_email_marks"

// SessionStore keeps marks in the short-lived visitor session, encoded
// as a single JSON value. Used for guests, whose marks should expire
// with their session.
type SessionStore struct {
	kv session.KV
}

func NewSessionStore(kv session.KV) *SessionStore {
	return &SessionStore{kv: kv}
}

func (s *SessionStore) Get(ctx context.Context, key string) ([]Mark, error) {
	raw, err := s.kv.Get(ctx, key, marksSessionKey, "")
	if err != nil {
		return nil, fmt.Errorf("load session marks: %w", err)
	}
	if raw == "" {
		return nil, nil
	}

	var marks []Mark
	if err := json.Unmarshal([]byte(raw), &marks); err != nil {
		// An undecodable value means no usable marks.
		return nil, nil
	}
	return marks, nil
}

func (s *SessionStore) Set(ctx context.Context, key string, marks []Mark) error {
	if len(marks) == 0 {
		if err := s.kv.Delete(ctx, key, marksSessionKey); err != nil {
			return fmt.Errorf("clear session marks: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(marks)
	if err != nil {
		return fmt.Errorf("encode session marks: %w", err)
	}
	if err := s.kv.Set(ctx, key, marksSessionKey, string(raw)); err != nil {
		return fmt.Errorf("store session marks: %w", err)
	}
	return nil
}
