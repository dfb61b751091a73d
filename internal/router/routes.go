package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	v1 "github.com/okvee/aria2mon/api/v1"
	"github.com/okvee/aria2mon/internal/auth"
)

// Probe is the throttled liveness check backing /readyz.
type Probe interface {
	Refresh(ctx context.Context) (string, error)
}

// New sets up the application routes and required middleware. An empty
// apiToken leaves the API unauthenticated.
func New(logger *slog.Logger, h *v1.StatusHandler, probe Probe, apiToken string) *mux.Router {

	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			logger.Error("write healthz response", "err", err)
		}
	}).Methods("GET")

	r.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := probe.Refresh(r.Context()); err != nil {
			http.Error(w, "aria2 unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ready")); err != nil {
			logger.Error("write readyz response", "err", err)
		}
	}).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.Use(v1.RequestID)
	r.Use(h.Log)
	if apiToken != "" {
		r.Use(auth.Middleware(apiToken))
	}

	api := r.PathPrefix("/v1").Subrouter()

	get := api.Methods("GET").Subrouter()
	get.HandleFunc("/sensors", h.GetSensors)
	get.HandleFunc("/sensors/{kind}", h.GetSensor)
	get.HandleFunc("/history", h.GetHistory)

	return r
}
