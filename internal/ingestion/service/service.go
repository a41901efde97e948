// Package service implements the ingestion gateway: it validates incoming
// sensor readings, persists them, and publishes a ReadingRecorded event for
// each accepted reading.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/OppaDev/monitoreo-ambiental/internal/ingestion/store"
	"github.com/OppaDev/monitoreo-ambiental/pkg/events"
	"github.com/OppaDev/monitoreo-ambiental/pkg/metrics"
)

// Generic safety band for any reading value, independent of per-type
// business thresholds.
const (
	minReadingValue = -100.0
	maxReadingValue = 100.0
)

// Plausible temperature range in °C. Readings outside it are rejected as a
// business rule violation, not a generic validation failure.
const (
	minTempValue = -40.0
	maxTempValue = 60.0
)

const maxSensorIDLen = 50

// ReadingRequest is one submission from the ingress surface.
type ReadingRequest struct {
	SensorID   string
	SensorType string
	Value      float64
	ObservedAt time.Time
}

// ReadingStore is the slice of the readings store the service needs.
type ReadingStore interface {
	InsertReading(ctx context.Context, r *store.Reading) error
}

// Publisher is the slice of the event bus the service needs.
type Publisher interface {
	Publish(ctx context.Context, eventID string, payload []byte) error
}

// Service validates, persists and announces sensor readings.
type Service struct {
	store     ReadingStore
	publisher Publisher
	metrics   metrics.Recorder
	now       func() time.Time
}

// NewService creates an ingestion service. m may be nil.
func NewService(s ReadingStore, p Publisher, m metrics.Recorder) *Service {
	if m == nil {
		m = metrics.NoOp{}
	}
	return &Service{
		store:     s,
		publisher: p,
		metrics:   m,
		now:       time.Now,
	}
}

// SubmitReading validates a reading, persists it, and publishes a
// ReadingRecorded event. Validation failures have no side effects. The
// store write and the publish are not atomic: if the publish fails the
// stored reading remains and a *PublishError is returned so the caller can
// retry the call, accepting a possible duplicate row.
func (s *Service) SubmitReading(ctx context.Context, req ReadingRequest) (*store.Reading, error) {
	s.metrics.RecordReceived()
	start := s.now()

	if err := s.validate(req); err != nil {
		s.metrics.IncrementCustom("readings_rejected")
		return nil, err
	}

	reading := &store.Reading{
		ID:         uuid.NewString(),
		SensorID:   req.SensorID,
		SensorType: req.SensorType,
		Value:      req.Value,
		ObservedAt: req.ObservedAt,
		RecordedAt: s.now().UTC(),
	}

	if err := s.store.InsertReading(ctx, reading); err != nil {
		s.metrics.RecordError()
		return nil, err
	}

	slog.Info("Sensor reading stored",
		"reading_id", reading.ID,
		"sensor_id", reading.SensorID,
		"sensor_type", reading.SensorType,
		"value", reading.Value,
	)

	event := events.NewReadingRecorded(reading.SensorID, reading.SensorType, reading.Value, reading.ObservedAt)
	payload, err := events.Encode(event)
	if err != nil {
		s.metrics.RecordError()
		return nil, &PublishError{EventID: event.EventID, Err: err}
	}

	if err := s.publisher.Publish(ctx, event.EventID, payload); err != nil {
		// The reading is already stored; surface the gap to the caller.
		s.metrics.RecordError()
		return nil, &PublishError{EventID: event.EventID, Err: err}
	}

	s.metrics.RecordPublished()
	s.metrics.RecordProcessed(s.now().Sub(start))

	slog.Info("ReadingRecorded event published",
		"event_id", event.EventID,
		"sensor_id", event.SensorID,
	)

	return reading, nil
}

// validate applies the generic constraints first and the type-specific
// business rule second, so a reading can only fail one way at a time.
func (s *Service) validate(req ReadingRequest) error {
	if len(req.SensorID) == 0 || len(req.SensorID) > maxSensorIDLen {
		return &ValidationError{Field: "sensorId", Reason: "must be between 1 and 50 characters"}
	}
	if req.SensorType == "" {
		return &ValidationError{Field: "type", Reason: "must not be empty"}
	}
	if req.Value < minReadingValue || req.Value > maxReadingValue {
		return &ValidationError{Field: "value", Reason: "must be between -100 and 100"}
	}
	if req.ObservedAt.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "must not be empty"}
	}
	if req.ObservedAt.After(s.now()) {
		return &ValidationError{Field: "timestamp", Reason: "must not be in the future"}
	}

	if strings.EqualFold(req.SensorType, "temperature") {
		if req.Value < minTempValue || req.Value > maxTempValue {
			return &BusinessRuleError{
				Rule:   "temperature-range",
				Reason: "temperature must be between -40°C and 60°C",
			}
		}
	}

	return nil
}
