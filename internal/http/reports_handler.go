package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cartfollow/followup-service-go/internal/cart"
)

// ReportsHandler serves the cart columns of the admin reports page:
// the abandonment status and current total per customer.
type ReportsHandler struct {
	snapshots cart.Repository
	threshold cart.Threshold
	now       func() time.Time
}

func NewReportsHandler(snapshots cart.Repository, threshold cart.Threshold) *ReportsHandler {
	return &ReportsHandler{
		snapshots: snapshots,
		threshold: threshold,
		now:       time.Now,
	}
}

type cartStatusResponse struct {
	Status    cart.Status `json:"status"`
	Total     float64     `json:"total"`
	HasCart   bool        `json:"hasCart"`
	UpdatedAt *time.Time  `json:"updatedAt,omitempty"`
}

// CartStatus reports whether the customer's cart counts as abandoned
// under the configured threshold. A customer without a cart on record
// reads as active.
func (h *ReportsHandler) CartStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if userID < 0 {
		userID = 0
	}
	id := cart.Identity{UserID: userID, Email: r.URL.Query().Get("email")}
	if !id.Known() {
		writeError(w, http.StatusBadRequest, "user_id or email is required")
		return
	}

	snap, err := h.snapshots.Fetch(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load cart")
		return
	}

	resp := cartStatusResponse{
		Status: cart.Classify(snap, h.now(), h.threshold),
	}
	if snap != nil {
		resp.Total = snap.Total
		resp.HasCart = true
		resp.UpdatedAt = &snap.UpdatedAt
	}

	writeJSON(w, http.StatusOK, resp)
}
