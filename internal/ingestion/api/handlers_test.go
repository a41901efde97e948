package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/OppaDev/monitoreo-ambiental/internal/ingestion/service"
	"github.com/OppaDev/monitoreo-ambiental/internal/ingestion/store"
)

// stubStore is a ReadingStore that accepts or rejects every insert.
type stubStore struct {
	insertErr error
}

func (s *stubStore) InsertReading(_ context.Context, _ *store.Reading) error {
	return s.insertErr
}

// stubPublisher is a Publisher that accepts or rejects every publish.
type stubPublisher struct {
	publishErr error
}

func (p *stubPublisher) Publish(_ context.Context, _ string, _ []byte) error {
	return p.publishErr
}

func newTestHandler(insertErr, publishErr error) *Handler {
	svc := service.NewService(&stubStore{insertErr: insertErr}, &stubPublisher{publishErr: publishErr}, nil)
	return NewHandler(svc, nil)
}

func validBody() string {
	observed := time.Now().UTC().Add(-time.Minute).Format(time.RFC3339)
	return `{"sensorId":"S1","type":"temperature","value":25.0,"timestamp":"` + observed + `"}`
}

func TestHandleSubmitReading_Success(t *testing.T) {
	h := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/readings", strings.NewReader(validBody()))
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d; body = %s", w.Code, http.StatusCreated, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"sensorId":"S1"`) {
		t.Errorf("body = %s, want stored reading echo", w.Body.String())
	}
}

func TestHandleSubmitReading_MethodNotAllowed(t *testing.T) {
	h := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/readings", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
}

func TestHandleSubmitReading_InvalidJSON(t *testing.T) {
	h := newTestHandler(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/readings", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestHandleSubmitReading_ErrorMapping(t *testing.T) {
	observed := time.Now().UTC().Add(-time.Minute).Format(time.RFC3339)

	tests := []struct {
		name       string
		body       string
		insertErr  error
		publishErr error
		wantStatus int
	}{
		{
			name:       "validation failure is 400",
			body:       `{"sensorId":"","type":"temperature","value":25.0,"timestamp":"` + observed + `"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "business rule violation is 422",
			body:       `{"sensorId":"S1","type":"temperature","value":75.0,"timestamp":"` + observed + `"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "publish failure is 502",
			body:       validBody(),
			publishErr: errors.New("broker down"),
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "store failure is 500",
			body:       validBody(),
			insertErr:  errors.New("db down"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(tt.insertErr, tt.publishErr)

			req := httptest.NewRequest(http.MethodPost, "/api/readings", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.Routes().ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body = %s", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

func TestHandleListReadings(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	defer mockDB.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "sensor_id", "sensor_type", "value", "observed_at", "recorded_at"}).
		AddRow("r-1", "S1", "temperature", 25.0, now, now)
	mock.ExpectQuery(`SELECT id, sensor_id, sensor_type`).
		WithArgs("S1", 50, 0).
		WillReturnRows(rows)

	h := NewHandler(nil, store.NewStoreWithConn(mockDB))

	req := httptest.NewRequest(http.MethodGet, "/api/readings/S1", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", w.Code, http.StatusOK, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"id":"r-1"`) {
		t.Errorf("body = %s, want listed reading", w.Body.String())
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unfulfilled expectations: %v", err)
	}
}

func TestHandleListReadings_MissingSensorID(t *testing.T) {
	h := NewHandler(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/readings/", nil)
	w := httptest.NewRecorder()
	h.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}
