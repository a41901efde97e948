// Package api provides the REST ingress for the ingestion gateway: a
// submission endpoint for new readings and a paginated query endpoint over
// stored readings. The endpoints are pass-through surfaces; all decisions
// live in the service package.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/OppaDev/monitoreo-ambiental/internal/ingestion/service"
	"github.com/OppaDev/monitoreo-ambiental/internal/ingestion/store"
)

// readingRequest is the JSON submission body.
type readingRequest struct {
	SensorID  string    `json:"sensorId"`
	Type      string    `json:"type"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// readingResponse is the JSON representation of a stored reading.
type readingResponse struct {
	ID         string    `json:"id"`
	SensorID   string    `json:"sensorId"`
	Type       string    `json:"type"`
	Value      float64   `json:"value"`
	ObservedAt time.Time `json:"observedAt"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Handler serves the ingestion gateway HTTP surface.
type Handler struct {
	svc   *service.Service
	store *store.Store
}

// NewHandler creates a handler around the ingestion service and store.
func NewHandler(svc *service.Service, st *store.Store) *Handler {
	return &Handler{svc: svc, store: st}
}

// Routes registers all ingestion endpoints on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/readings", h.handleSubmitReading)
	mux.HandleFunc("/api/readings/", h.handleListReadings)
	return mux
}

// handleSubmitReading accepts a new sensor reading.
// POST /api/readings
func (h *Handler) handleSubmitReading(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}

	var req readingRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reading, err := h.svc.SubmitReading(r.Context(), service.ReadingRequest{
		SensorID:   req.SensorID,
		SensorType: req.Type,
		Value:      req.Value,
		ObservedAt: req.Timestamp,
	})
	if err != nil {
		writeSubmitError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(reading))
}

// handleListReadings returns stored readings for one sensor, newest first.
// GET /api/readings/{sensorId}?limit=&offset=
func (h *Handler) handleListReadings(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}

	sensorID := strings.TrimPrefix(r.URL.Path, "/api/readings/")
	if sensorID == "" || strings.Contains(sensorID, "/") {
		http.Error(w, "sensorId path parameter is required", http.StatusBadRequest)
		return
	}

	p := parsePagination(r)
	readings, err := h.store.ListBySensor(r.Context(), sensorID, p.Limit, p.Offset)
	if err != nil {
		slog.Error("Failed to list readings", "sensor_id", sensorID, "error", err)
		http.Error(w, "Failed to list readings", http.StatusInternalServerError)
		return
	}

	resp := make([]readingResponse, 0, len(readings))
	for i := range readings {
		resp = append(resp, toResponse(&readings[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeSubmitError maps the ingestion error taxonomy onto HTTP statuses.
func writeSubmitError(w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	var ruleErr *service.BusinessRuleError
	var publishErr *service.PublishError

	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.As(err, &ruleErr):
		http.Error(w, ruleErr.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &publishErr):
		slog.Error("Publish failed after store write", "event_id", publishErr.EventID, "error", publishErr.Err)
		http.Error(w, "Reading stored but event publish failed; retry the submission", http.StatusBadGateway)
	default:
		slog.Error("Failed to submit reading", "error", err)
		http.Error(w, "Failed to submit reading", http.StatusInternalServerError)
	}
}

func toResponse(r *store.Reading) readingResponse {
	return readingResponse{
		ID:         r.ID,
		SensorID:   r.SensorID,
		Type:       r.SensorType,
		Value:      r.Value,
		ObservedAt: r.ObservedAt,
		RecordedAt: r.RecordedAt,
	}
}
