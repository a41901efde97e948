// Package api exposes read-only query endpoints over the alerts store.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/OppaDev/monitoreo-ambiental/internal/analysis/store"
)

// statsWindow is the trailing window the stats endpoint reports on.
const statsWindow = 24 * time.Hour

// alertResponse is the JSON representation of a stored alert.
type alertResponse struct {
	AlertID   string    `json:"alertId"`
	Type      string    `json:"type"`
	SensorID  string    `json:"sensorId"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	RaisedAt  time.Time `json:"raisedAt"`
}

// statsResponse summarizes recent alert activity.
type statsResponse struct {
	TotalAlerts  int            `json:"totalAlerts"`
	AlertsByType map[string]int `json:"alertsByType"`
	WindowHours  int            `json:"windowHours"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Handler serves the analysis engine query surface.
type Handler struct {
	store *store.Store
}

// NewHandler creates a handler around the alerts store.
func NewHandler(st *store.Store) *Handler {
	return &Handler{store: st}
}

// Routes registers all analysis endpoints on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/alerts", h.handleListAlerts)
	mux.HandleFunc("/api/alerts/stats", h.handleAlertStats)
	return mux
}

// handleListAlerts returns stored alerts, newest first.
// GET /api/alerts?limit=&offset=
func (h *Handler) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, offset := parsePagination(r)
	alerts, err := h.store.ListRecent(r.Context(), limit, offset)
	if err != nil {
		slog.Error("Failed to list alerts", "error", err)
		http.Error(w, "Failed to list alerts", http.StatusInternalServerError)
		return
	}

	resp := make([]alertResponse, 0, len(alerts))
	for _, a := range alerts {
		resp = append(resp, alertResponse{
			AlertID:   a.AlertID,
			Type:      a.AlertType,
			SensorID:  a.SensorID,
			Value:     a.Value,
			Threshold: a.Threshold,
			RaisedAt:  a.RaisedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleAlertStats returns counts for the trailing 24 hours.
// GET /api/alerts/stats
func (h *Handler) handleAlertStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	now := time.Now().UTC()
	counts, err := h.store.CountByTypeSince(r.Context(), now.Add(-statsWindow))
	if err != nil {
		slog.Error("Failed to count alerts", "error", err)
		http.Error(w, "Failed to count alerts", http.StatusInternalServerError)
		return
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalAlerts:  total,
		AlertsByType: counts,
		WindowHours:  int(statsWindow.Hours()),
		Timestamp:    now,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit, offset = 50, 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}
