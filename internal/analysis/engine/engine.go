// Package engine implements the analysis stage: it consumes
// ReadingRecorded events from the bus, evaluates threshold rules, and
// persists and publishes an alert for every violation.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/OppaDev/monitoreo-ambiental/internal/analysis/rules"
	"github.com/OppaDev/monitoreo-ambiental/internal/analysis/store"
	"github.com/OppaDev/monitoreo-ambiental/pkg/events"
	"github.com/OppaDev/monitoreo-ambiental/pkg/metrics"
)

// Consumer is the slice of the event bus subscription the engine needs.
type Consumer interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msg kafka.Message) error
}

// Publisher is the slice of the event bus the engine needs.
type Publisher interface {
	Publish(ctx context.Context, eventID string, payload []byte) error
}

// AlertStore is the slice of the alerts store the engine and its periodic
// jobs need.
type AlertStore interface {
	InsertAlert(ctx context.Context, a *store.Alert) error
	CountByTypeSince(ctx context.Context, since time.Time) (map[string]int, error)
}

// Engine evaluates sensor readings against the threshold rule set.
type Engine struct {
	consumer  Consumer
	publisher Publisher
	store     AlertStore
	rules     *rules.RuleSet
	metrics   metrics.Recorder
	now       func() time.Time
	alertID   func() string
}

// NewEngine creates an analysis engine. m may be nil.
func NewEngine(c Consumer, p Publisher, s AlertStore, rs *rules.RuleSet, m metrics.Recorder) *Engine {
	if m == nil {
		m = metrics.NoOp{}
	}
	return &Engine{
		consumer:  c,
		publisher: p,
		store:     s,
		rules:     rs,
		metrics:   m,
		now:       time.Now,
		alertID:   newAlertID,
	}
}

// newAlertID generates an alert identifier in the ALT-NNN form used by the
// rest of the system. The three-digit range can collide under load; the ID
// format is load-bearing for downstream consumers, so it stays as is.
func newAlertID() string {
	return fmt.Sprintf("ALT-%03d", rand.Intn(1000))
}

// Run consumes readings until the context is cancelled. Messages are
// committed only after handling succeeds, so a crash mid-handle leads to
// redelivery (and, without deduplication, possibly a duplicate alert).
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("Starting analysis loop", "rules", e.rules.Len())

	for {
		select {
		case <-ctx.Done():
			slog.Info("Analysis loop stopped")
			return nil
		default:
			msg, err := e.consumer.Fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				slog.Error("Failed to fetch message", "error", err)
				continue
			}

			e.metrics.RecordReceived()

			if !e.processMessage(ctx, msg.Value) {
				// Leave the offset uncommitted so the message is
				// redelivered to this subscription.
				continue
			}

			if err := e.consumer.Commit(ctx, msg); err != nil {
				slog.Error("Failed to commit offset", "error", err)
			}
		}
	}
}

// processMessage handles one raw bus payload. Returns true when the message
// should be acknowledged.
func (e *Engine) processMessage(ctx context.Context, payload []byte) bool {
	start := e.now()

	event, err := events.Decode(payload)
	if err != nil {
		// Malformed payloads are dropped, not retried; redelivering them
		// would loop forever.
		slog.Warn("Dropping undecodable message", "error", err)
		e.metrics.RecordError()
		e.metrics.IncrementCustom("messages_dropped")
		return true
	}

	reading, ok := event.(*events.ReadingRecorded)
	if !ok {
		// The shared topic also carries alert and summary events; they are
		// not input for the engine.
		slog.Debug("Ignoring event", "event_type", event.Type())
		return true
	}

	if !e.evaluate(ctx, reading) {
		return false
	}

	e.metrics.RecordProcessed(e.now().Sub(start))
	return true
}

// evaluate runs the threshold rules for one reading. Returns true when the
// reading is fully handled.
func (e *Engine) evaluate(ctx context.Context, reading *events.ReadingRecorded) bool {
	slog.Debug("Evaluating reading",
		"event_id", reading.EventID,
		"sensor_id", reading.SensorID,
		"sensor_type", reading.SensorType,
		"value", reading.Value,
	)

	rule, ok := e.rules.Lookup(reading.SensorType)
	if !ok {
		slog.Info("No rule for sensor type, no alert raised",
			"sensor_type", reading.SensorType,
			"sensor_id", reading.SensorID,
		)
		e.metrics.IncrementCustom("readings_without_rule")
		return true
	}

	if !rule.Violated(reading.Value) {
		slog.Debug("Reading within threshold",
			"sensor_id", reading.SensorID,
			"value", reading.Value,
			"threshold", rule.Threshold,
		)
		return true
	}

	return e.raiseAlert(ctx, reading, rule)
}

// raiseAlert persists the alert and publishes the AlertRaised event.
// Returns false when either step fails so the reading is redelivered.
func (e *Engine) raiseAlert(ctx context.Context, reading *events.ReadingRecorded, rule rules.ThresholdRule) bool {
	now := e.now().UTC()
	alert := &store.Alert{
		AlertID:   e.alertID(),
		AlertType: rule.AlertType,
		SensorID:  reading.SensorID,
		Value:     reading.Value,
		Threshold: rule.Threshold,
		RaisedAt:  now,
	}

	slog.Warn("Threshold violated, raising alert",
		"alert_id", alert.AlertID,
		"alert_type", alert.AlertType,
		"sensor_id", alert.SensorID,
		"value", alert.Value,
		"threshold", alert.Threshold,
	)

	if err := e.store.InsertAlert(ctx, alert); err != nil {
		slog.Error("Failed to persist alert",
			"alert_id", alert.AlertID,
			"error", err,
		)
		e.metrics.RecordError()
		return false
	}

	raised := &events.AlertRaised{
		EventType:     events.TypeAlertRaised,
		SchemaVersion: events.SchemaVersion,
		AlertID:       alert.AlertID,
		AlertType:     alert.AlertType,
		SensorID:      alert.SensorID,
		Value:         alert.Value,
		Threshold:     alert.Threshold,
		Timestamp:     now,
		Message: fmt.Sprintf("%s: sensor %s reported %.2f (threshold %.2f)",
			alert.AlertType, alert.SensorID, alert.Value, alert.Threshold),
		Severity: rule.Severity,
	}

	payload, err := events.Encode(raised)
	if err != nil {
		slog.Error("Failed to encode alert event", "alert_id", alert.AlertID, "error", err)
		e.metrics.RecordError()
		return false
	}

	if err := e.publisher.Publish(ctx, events.NewEventID(), payload); err != nil {
		slog.Error("Failed to publish alert event",
			"alert_id", alert.AlertID,
			"error", err,
		)
		e.metrics.RecordError()
		return false
	}

	e.metrics.RecordPublished()
	e.metrics.IncrementCustom("alerts_raised")

	slog.Info("AlertRaised event published",
		"alert_id", alert.AlertID,
		"alert_type", alert.AlertType,
	)
	return true
}
