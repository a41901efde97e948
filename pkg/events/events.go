// Package events defines the closed set of events carried on the
// environmental events topic, plus the envelope codec shared by every
// service. Each event carries an explicit eventType discriminant and a
// schema version; payloads that do not parse into a known variant are
// rejected at decode time so consumers can drop them instead of looping
// on redelivery.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the current wire schema version stamped on every event.
const SchemaVersion = 1

// Event type discriminants.
const (
	TypeReadingRecorded = "ReadingRecorded"
	TypeAlertRaised     = "AlertRaised"
	TypeDailyReport     = "DailyReportGenerated"
	TypeSensorInactive  = "SensorInactiveAlert"
)

// ErrUnknownEventType is returned by Decode when the eventType discriminant
// is missing or names no known variant.
var ErrUnknownEventType = errors.New("unknown event type")

// Event is implemented by every wire event variant.
type Event interface {
	// Type returns the eventType discriminant.
	Type() string
}

// ReadingRecorded announces a sensor reading accepted and stored by the
// ingestion gateway. EventID is unique per publish attempt and is the
// handle consumers would key any deduplication on.
type ReadingRecorded struct {
	EventType     string    `json:"eventType"`
	SchemaVersion int       `json:"schemaVersion"`
	EventID       string    `json:"eventId"`
	SensorID      string    `json:"sensorId"`
	SensorType    string    `json:"type"`
	Value         float64   `json:"value"`
	Timestamp     time.Time `json:"timestamp"`
}

// Type returns the eventType discriminant.
func (e *ReadingRecorded) Type() string { return TypeReadingRecorded }

// AlertRaised announces a threshold violation persisted by the analysis
// engine. Message and Severity are best-effort hints; the dispatcher
// re-derives priority from the alert type and must not trust them.
type AlertRaised struct {
	EventType     string    `json:"eventType"`
	SchemaVersion int       `json:"schemaVersion"`
	AlertID       string    `json:"alertId"`
	AlertType     string    `json:"type"`
	SensorID      string    `json:"sensorId"`
	Value         float64   `json:"value"`
	Threshold     float64   `json:"threshold"`
	Timestamp     time.Time `json:"timestamp"`
	Message       string    `json:"message,omitempty"`
	Severity      string    `json:"severity,omitempty"`
}

// Type returns the eventType discriminant.
func (e *AlertRaised) Type() string { return TypeAlertRaised }

// DailyReport is the informational digest published once per reporting
// interval. It is broadcast only; the dispatcher never turns it into
// notifications.
type DailyReport struct {
	EventType     string         `json:"eventType"`
	SchemaVersion int            `json:"schemaVersion"`
	ReportDate    string         `json:"reportDate"`
	TotalAlerts   int            `json:"totalAlerts"`
	AlertsByType  map[string]int `json:"alertsByType"`
	Timestamp     time.Time      `json:"timestamp"`
}

// Type returns the eventType discriminant.
func (e *DailyReport) Type() string { return TypeDailyReport }

// SensorInactive flags an aggregate absence of recent alerts. SensorID is a
// placeholder when no individual sensor can be named.
type SensorInactive struct {
	EventType     string    `json:"eventType"`
	SchemaVersion int       `json:"schemaVersion"`
	SensorID      string    `json:"sensorId"`
	LastSeen      time.Time `json:"lastSeen"`
	Message       string    `json:"message"`
	Timestamp     time.Time `json:"timestamp"`
}

// Type returns the eventType discriminant.
func (e *SensorInactive) Type() string { return TypeSensorInactive }

// NewEventID generates a unique event identifier in the EVT-<uuid> form.
func NewEventID() string {
	return "EVT-" + uuid.NewString()
}

// NewReadingRecorded builds a ReadingRecorded event with a fresh event ID
// and the current schema version.
func NewReadingRecorded(sensorID, sensorType string, value float64, observedAt time.Time) *ReadingRecorded {
	return &ReadingRecorded{
		EventType:     TypeReadingRecorded,
		SchemaVersion: SchemaVersion,
		EventID:       NewEventID(),
		SensorID:      sensorID,
		SensorType:    sensorType,
		Value:         value,
		Timestamp:     observedAt,
	}
}

// Encode serializes an event for publishing.
func Encode(e Event) ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s event: %w", e.Type(), err)
	}
	return data, nil
}

// Decode parses a wire payload into its typed variant. It fails when the
// envelope is not JSON, when the discriminant is missing or unknown, or
// when the variant payload itself does not parse. Callers treat any error
// as a deserialization failure: log, acknowledge, drop.
func Decode(data []byte) (Event, error) {
	var head struct {
		EventType string `json:"eventType"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("malformed event envelope: %w", err)
	}
	if head.EventType == "" {
		return nil, fmt.Errorf("%w: missing eventType discriminant", ErrUnknownEventType)
	}

	switch head.EventType {
	case TypeReadingRecorded:
		var e ReadingRecorded
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", head.EventType, err)
		}
		return &e, nil
	case TypeAlertRaised:
		var e AlertRaised
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", head.EventType, err)
		}
		return &e, nil
	case TypeDailyReport:
		var e DailyReport
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", head.EventType, err)
		}
		return &e, nil
	case TypeSensorInactive:
		var e SensorInactive
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("malformed %s payload: %w", head.EventType, err)
		}
		return &e, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, head.EventType)
	}
}
