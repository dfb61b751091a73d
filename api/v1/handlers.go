package v1

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/okvee/aria2mon/internal/repo"
	"github.com/okvee/aria2mon/internal/reqid"
	"github.com/okvee/aria2mon/internal/sensor"
)

// StatusHandler serves the read-only sensor and history endpoints.
type StatusHandler struct {
	l       *slog.Logger
	sensors []*sensor.Sensor
	repo    repo.SampleRepo
}

// NewStatusHandler creates the handler over the given sensors and history repo.
func NewStatusHandler(l *slog.Logger, sensors []*sensor.Sensor, sampleRepo repo.SampleRepo) *StatusHandler {
	return &StatusHandler{l: l, sensors: sensors, repo: sampleRepo}
}

// sensorView is the wire shape of one sensor. State is null until the
// sensor has read a value.
type sensorView struct {
	Name  string   `json:"name"`
	Kind  string   `json:"kind"`
	State *float64 `json:"state"`
	Unit  string   `json:"unit"`
}

func viewOf(s *sensor.Sensor) sensorView {
	v := sensorView{Name: s.Name(), Kind: string(s.Kind()), Unit: s.Unit()}
	if state, ok := s.State(); ok {
		v.State = &state
	}
	return v
}

type rwLogger struct {
	http.ResponseWriter
	status int
	bytes  int
	err    error
}

func (w *rwLogger) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *rwLogger) SetErr(err error) {
	w.err = err
}

func (w *rwLogger) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

type errorSetter interface {
	SetErr(error)
}

func markErr(w http.ResponseWriter, err error) {
	if es, ok := w.(errorSetter); ok {
		es.SetErr(err)
	}
}

// GetSensors lists every configured sensor with its current state.
func (h *StatusHandler) GetSensors(w http.ResponseWriter, r *http.Request) {
	views := make([]sensorView, 0, len(h.sensors))
	for _, s := range h.sensors {
		views = append(views, viewOf(s))
	}
	if err := writeJSON(w, http.StatusOK, views); err != nil {
		markErr(w, err)
	}
}

// GetSensor returns a single sensor by kind.
func (h *StatusHandler) GetSensor(w http.ResponseWriter, r *http.Request) {
	kind, err := sensor.Parse(mux.Vars(r)["kind"])
	if err != nil {
		markErr(w, ErrUnknownSensor)
		http.Error(w, ErrUnknownSensor.Error(), http.StatusNotFound)
		return
	}
	for _, s := range h.sensors {
		if s.Kind() == kind {
			if err := writeJSON(w, http.StatusOK, viewOf(s)); err != nil {
				markErr(w, err)
			}
			return
		}
	}
	markErr(w, ErrSensorNotMonitored)
	http.Error(w, ErrSensorNotMonitored.Error(), http.StatusNotFound)
}

// GetHistory returns recent poll samples, newest first. ?limit defaults to
// 20, capped at 500.
func (h *StatusHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			markErr(w, ErrBadLimit)
			http.Error(w, ErrBadLimit.Error(), http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > 500 {
		limit = 500
	}

	samples, err := h.repo.Recent(r.Context(), limit)
	if err != nil {
		markErr(w, err)
		http.Error(w, "unable to read history", http.StatusInternalServerError)
		return
	}
	if err := writeJSON(w, http.StatusOK, samples); err != nil {
		markErr(w, err)
	}
}

// Log is the access-log middleware shared by all routes.
func (h *StatusHandler) Log(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()
		rw := &rwLogger{ResponseWriter: w}
		next.ServeHTTP(rw, r)
		if rw.status == 0 {
			rw.status = http.StatusOK
		}
		timeElapsed := time.Since(startTime)
		id, _ := reqid.From(r.Context())
		if rw.err != nil {
			h.l.Error(rw.err.Error(),
				"req_id", id,
				"method", r.Method,
				"url", r.URL.Path,
				"status", rw.status,
				"remote", r.RemoteAddr,
				"ua", r.UserAgent(),
				"dur_ms", timeElapsed.Milliseconds(),
				"bytes", rw.bytes)
			return
		}

		h.l.Info("", "req_id", id,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.status,
			"remote", r.RemoteAddr,
			"ua", r.UserAgent(),
			"dur_ms", timeElapsed.Milliseconds(),
			"bytes", rw.bytes)
	})
}
