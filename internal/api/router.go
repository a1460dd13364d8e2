package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(a *API) http.Handler {
	mux := http.NewServeMux()

	// Health check (for Railway, k8s, etc.)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	// Intake endpoints
	mux.HandleFunc("/submit", a.SubmitHandler)
	mux.HandleFunc("/check-identifier", a.CheckIdentifierHandler)
	mux.HandleFunc("/repair", a.RepairHandler)

	return mux
}
