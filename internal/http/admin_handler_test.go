package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

type cleanerMock struct {
	OperatorClearFunc func(ctx context.Context, userID int64, email string) error
}

func (m *cleanerMock) OperatorClear(ctx context.Context, userID int64, email string) error {
	if m.OperatorClearFunc == nil {
		return errors.New("unexpected OperatorClear call")
	}
	return m.OperatorClearFunc(ctx, userID, email)
}

func postClearForm(h *AdminHandler, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/admin/clear-cart-emails", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ClearCartEmails(rec, req)
	return rec
}

func TestClearCartEmailsRejectsBadToken(t *testing.T) {
	h := NewAdminHandler(&cleanerMock{}, "secret", "/admin/reports")

	form := url.Values{}
	form.Set("_token", "bogus")
	form.Set("user_id", "7")

	rec := postClearForm(h, form)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Are you sure you want to do this?") {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestClearCartEmailsRedirects(t *testing.T) {
	var gotUserID int64
	var gotEmail string
	cleaner := &cleanerMock{OperatorClearFunc: func(ctx context.Context, userID int64, email string) error {
		gotUserID = userID
		gotEmail = email
		return nil
	}}
	h := NewAdminHandler(cleaner, "secret", "/admin/reports")

	form := url.Values{}
	form.Set("_token", h.Token())
	form.Set("user_id", "7")
	form.Set("email", "jo@example.com")

	rec := postClearForm(h, form)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if gotUserID != 7 || gotEmail != "jo@example.com" {
		t.Fatalf("unexpected clear args user=%d email=%q", gotUserID, gotEmail)
	}

	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad redirect location: %v", err)
	}
	if loc.Path != "/admin/reports" {
		t.Fatalf("unexpected redirect path %q", loc.Path)
	}
	q := loc.Query()
	if q.Get("user_id") != "7" || q.Get("email") != "jo@example.com" {
		t.Fatalf("unexpected redirect query %q", loc.RawQuery)
	}
	if q.Get("message") == "" {
		t.Fatal("expected a confirmation message in the redirect")
	}
}

func TestClearCartEmailsUnparsableUserID(t *testing.T) {
	var gotUserID int64 = -1
	cleaner := &cleanerMock{OperatorClearFunc: func(ctx context.Context, userID int64, email string) error {
		gotUserID = userID
		return nil
	}}
	h := NewAdminHandler(cleaner, "secret", "/admin/reports")

	form := url.Values{}
	form.Set("_token", h.Token())
	form.Set("user_id", "not-a-number")
	form.Set("email", "guest@example.com")

	rec := postClearForm(h, form)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if gotUserID != 0 {
		t.Fatalf("expected user id treated as absent, got %d", gotUserID)
	}

	loc, _ := url.Parse(rec.Header().Get("Location"))
	if loc.Query().Get("user_id") != "" {
		t.Fatalf("expected no user_id in redirect, got %q", loc.RawQuery)
	}
}

func TestClearCartEmailsCleanerFailure(t *testing.T) {
	cleaner := &cleanerMock{OperatorClearFunc: func(ctx context.Context, userID int64, email string) error {
		return errors.New("db down")
	}}
	h := NewAdminHandler(cleaner, "secret", "/admin/reports")

	form := url.Values{}
	form.Set("_token", h.Token())
	form.Set("user_id", "7")

	rec := postClearForm(h, form)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "failed to clear cart emails") {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestTokenIsStablePerSecret(t *testing.T) {
	a := NewAdminHandler(&cleanerMock{}, "secret", "/admin/reports")
	b := NewAdminHandler(&cleanerMock{}, "secret", "/admin/reports")
	c := NewAdminHandler(&cleanerMock{}, "other", "/admin/reports")

	if a.Token() != b.Token() {
		t.Fatal("expected identical tokens for identical secrets")
	}
	if a.Token() == c.Token() {
		t.Fatal("expected different tokens for different secrets")
	}
}
