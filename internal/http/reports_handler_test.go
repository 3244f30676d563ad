package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cartfollow/followup-service-go/internal/cart"
)

type snapshotsMock struct {
	FetchFunc func(ctx context.Context, id cart.Identity) (*cart.Snapshot, error)
}

func (m *snapshotsMock) Upsert(ctx context.Context, snap *cart.Snapshot) error {
	return errors.New("unexpected Upsert call")
}

func (m *snapshotsMock) Fetch(ctx context.Context, id cart.Identity) (*cart.Snapshot, error) {
	if m.FetchFunc == nil {
		return nil, errors.New("unexpected Fetch call")
	}
	return m.FetchFunc(ctx, id)
}

func (m *snapshotsMock) Total(ctx context.Context, id cart.Identity) (float64, bool, error) {
	return 0, false, errors.New("unexpected Total call")
}

func (m *snapshotsMock) Touch(ctx context.Context, id cart.Identity) error {
	return errors.New("unexpected Touch call")
}

func getCartStatus(h *ReportsHandler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.CartStatus(rec, req)
	return rec
}

func TestCartStatusRequiresIdentity(t *testing.T) {
	h := NewReportsHandler(&snapshotsMock{}, cart.Threshold{Value: 1, Unit: "hours"})

	rec := getCartStatus(h, "/admin/cart-status")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCartStatusAbandoned(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	snaps := &snapshotsMock{FetchFunc: func(ctx context.Context, id cart.Identity) (*cart.Snapshot, error) {
		if id.UserID != 7 {
			t.Fatalf("unexpected identity %+v", id)
		}
		return &cart.Snapshot{
			Identity:  id,
			Items:     []cart.Item{{ProductID: 42, Quantity: 1, Price: 9.5}},
			Total:     9.5,
			UpdatedAt: now.Add(-2 * time.Hour),
		}, nil
	}}
	h := NewReportsHandler(snaps, cart.Threshold{Value: 1, Unit: "hours"})
	h.now = func() time.Time { return now }

	rec := getCartStatus(h, "/admin/cart-status?user_id=7")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp cartStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	if resp.Status != cart.StatusAbandoned {
		t.Fatalf("expected abandoned, got %s", resp.Status)
	}
	if !resp.HasCart || resp.Total != 9.5 {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestCartStatusNoCartReadsActive(t *testing.T) {
	snaps := &snapshotsMock{FetchFunc: func(ctx context.Context, id cart.Identity) (*cart.Snapshot, error) {
		if id.Email != "guest@example.com" {
			t.Fatalf("unexpected identity %+v", id)
		}
		return nil, nil
	}}
	h := NewReportsHandler(snaps, cart.Threshold{Value: 1, Unit: "hours"})

	rec := getCartStatus(h, "/admin/cart-status?email=guest%40example.com")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp cartStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	if resp.Status != cart.StatusActive || resp.HasCart {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestCartStatusFetchFailure(t *testing.T) {
	snaps := &snapshotsMock{FetchFunc: func(ctx context.Context, id cart.Identity) (*cart.Snapshot, error) {
		return nil, errors.New("db down")
	}}
	h := NewReportsHandler(snaps, cart.Threshold{Value: 1, Unit: "hours"})

	rec := getCartStatus(h, "/admin/cart-status?user_id=7")

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
