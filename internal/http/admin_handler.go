package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const clearCartAction = "wc_clear_cart"

// CartEmailCleaner performs the operator clear path.
type CartEmailCleaner interface {
	OperatorClear(ctx context.Context, userID int64, email string) error
}

type AdminHandler struct {
	cleaner     CartEmailCleaner
	tokenSecret []byte
	reportsURL  string
}

func NewAdminHandler(cleaner CartEmailCleaner, tokenSecret, reportsURL string) *AdminHandler {
	return &AdminHandler{
		cleaner:     cleaner,
		tokenSecret: []byte(tokenSecret),
		reportsURL:  reportsURL,
	}
}

// Token returns the anti-forgery token the admin UI must submit with
// the clear form.
func (h *AdminHandler) Token() string {
	mac := hmac.New(sha256.New, h.tokenSecret)
	mac.Write([]byte(clearCartAction))
	return hex.EncodeToString(mac.Sum(nil))
}

// ClearCartEmails deletes a customer's scheduled cart emails and
// associated cart state, then redirects back to the reports page so a
// refresh cannot repeat the action.
func (h *AdminHandler) ClearCartEmails(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	if !hmac.Equal([]byte(r.FormValue("_token")), []byte(h.Token())) {
		http.Error(w, "Are you sure you want to do this?", http.StatusForbidden)
		return
	}

	// An unparsable user id is treated as absent.
	userID, _ := strconv.ParseInt(r.FormValue("user_id"), 10, 64)
	if userID < 0 {
		userID = 0
	}
	email := r.FormValue("email")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.cleaner.OperatorClear(ctx, userID, email); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear cart emails")
		return
	}

	q := url.Values{}
	q.Set("message", "Cart emails have been cleared for this user")
	if userID > 0 {
		q.Set("user_id", strconv.FormatInt(userID, 10))
	}
	if email != "" {
		q.Set("email", email)
	}

	http.Redirect(w, r, h.reportsURL+"?"+q.Encode(), http.StatusSeeOther)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}
