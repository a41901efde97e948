// Package api exposes read-only query endpoints over the notification log.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/OppaDev/monitoreo-ambiental/internal/dispatch/store"
)

// statsWindow is the trailing window the stats endpoint reports on.
const statsWindow = 24 * time.Hour

// QueueInspector reports the number of alerts awaiting the next flush.
type QueueInspector interface {
	QueuedCount() int
}

// recordResponse is the JSON representation of one dispatch attempt.
type recordResponse struct {
	RecordID    string     `json:"recordId"`
	AlertID     string     `json:"alertId"`
	AlertType   string     `json:"alertType"`
	SensorID    string     `json:"sensorId"`
	Channel     string     `json:"channel"`
	Recipient   string     `json:"recipient"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AttemptedAt time.Time  `json:"attemptedAt"`
	SentAt      *time.Time `json:"sentAt,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// statsResponse summarizes recent dispatch activity.
type statsResponse struct {
	Total       int       `json:"total"`
	Sent        int       `json:"sent"`
	Failed      int       `json:"failed"`
	Queued      int       `json:"queued"`
	WindowHours int       `json:"windowHours"`
	Timestamp   time.Time `json:"timestamp"`
}

// Handler serves the notification dispatcher query surface.
type Handler struct {
	store *store.Store
	queue QueueInspector
}

// NewHandler creates a handler around the notification store and the
// dispatcher's pending queue.
func NewHandler(st *store.Store, queue QueueInspector) *Handler {
	return &Handler{store: st, queue: queue}
}

// Routes registers all dispatcher endpoints on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/notifications", h.handleListNotifications)
	mux.HandleFunc("/api/notifications/stats", h.handleNotificationStats)
	return mux
}

// handleListNotifications returns dispatch attempts, newest first.
// GET /api/notifications?limit=&offset=
func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, offset := parsePagination(r)
	records, err := h.store.ListRecent(r.Context(), limit, offset)
	if err != nil {
		slog.Error("Failed to list notifications", "error", err)
		http.Error(w, "Failed to list notifications", http.StatusInternalServerError)
		return
	}

	resp := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, recordResponse{
			RecordID:    rec.RecordID,
			AlertID:     rec.AlertID,
			AlertType:   rec.AlertType,
			SensorID:    rec.SensorID,
			Channel:     rec.Channel,
			Recipient:   rec.Recipient,
			Status:      rec.Status,
			Priority:    rec.Priority,
			AttemptedAt: rec.AttemptedAt,
			SentAt:      rec.SentAt,
			Error:       rec.ErrorMessage,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleNotificationStats returns counts for the trailing 24 hours plus the
// current pending queue depth.
// GET /api/notifications/stats
func (h *Handler) handleNotificationStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	now := time.Now().UTC()
	stats, err := h.store.StatsSince(r.Context(), now.Add(-statsWindow))
	if err != nil {
		slog.Error("Failed to query notification stats", "error", err)
		http.Error(w, "Failed to query notification stats", http.StatusInternalServerError)
		return
	}

	queued := 0
	if h.queue != nil {
		queued = h.queue.QueuedCount()
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Total:       stats.Total,
		Sent:        stats.Sent,
		Failed:      stats.Failed,
		Queued:      queued,
		WindowHours: int(statsWindow.Hours()),
		Timestamp:   now,
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
