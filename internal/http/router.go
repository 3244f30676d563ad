package http

import (
	"encoding/json"
	"net/http"
)

func NewRouter(admin *AdminHandler, reports *ReportsHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("POST /admin/clear-cart-emails", admin.ClearCartEmails)
	mux.HandleFunc("GET /admin/cart-status", reports.CartStatus)
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]string{"status": "ok", "service": "followup-service"}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
