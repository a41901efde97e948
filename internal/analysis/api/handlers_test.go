package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/OppaDev/monitoreo-ambiental/internal/analysis/store"
)

func TestHandleListAlerts(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	defer mockDB.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"alert_id", "alert_type", "sensor_id", "value", "threshold", "raised_at"}).
		AddRow("ALT-001", "HighTemperatureAlert", "S1", 45.0, 40.0, now)
	mock.ExpectQuery(`SELECT alert_id, alert_type`).
		WithArgs(50, 0).
		WillReturnRows(rows)

	h := NewHandler(store.NewStoreWithConn(mockDB))

	req := httptest.NewRequest(http.MethodGet, "/api/alerts", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", w.Code, http.StatusOK, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"alertId":"ALT-001"`) {
		t.Errorf("body = %s, want listed alert", w.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestHandleListAlerts_MethodNotAllowed(t *testing.T) {
	h := NewHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/alerts", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandleAlertStats(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	defer mockDB.Close()

	rows := sqlmock.NewRows([]string{"alert_type", "count"}).
		AddRow("HighTemperatureAlert", 2).
		AddRow("LowHumidityWarning", 1)
	mock.ExpectQuery(`SELECT alert_type, COUNT`).WillReturnRows(rows)

	h := NewHandler(store.NewStoreWithConn(mockDB))

	req := httptest.NewRequest(http.MethodGet, "/api/alerts/stats", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", w.Code, http.StatusOK, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{`"totalAlerts":3`, `"HighTemperatureAlert":2`} {
		if !strings.Contains(body, want) {
			t.Errorf("body = %s, missing %s", body, want)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}
