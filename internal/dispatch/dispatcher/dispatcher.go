// Package dispatcher consumes alert events from the bus and fans them out
// to the configured notification channels. Critical alerts are dispatched
// inline before their offset is committed; everything else waits in the
// pending batch for the next scheduled flush.
package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/OppaDev/monitoreo-ambiental/internal/dispatch/channel"
	"github.com/OppaDev/monitoreo-ambiental/internal/dispatch/classify"
	"github.com/OppaDev/monitoreo-ambiental/internal/dispatch/pending"
	"github.com/OppaDev/monitoreo-ambiental/internal/dispatch/store"
	"github.com/OppaDev/monitoreo-ambiental/pkg/events"
	"github.com/OppaDev/monitoreo-ambiental/pkg/metrics"
)

const defaultWorkerCount = 10

// finalFlushTimeout bounds how long shutdown waits for the last batch.
const finalFlushTimeout = 30 * time.Second

// Consumer is the subset of the event bus consumer the dispatcher needs.
type Consumer interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msg kafka.Message) error
}

// RecordStore persists one row per dispatch attempt.
type RecordStore interface {
	InsertRecord(ctx context.Context, r *store.Record) error
}

// work represents a unit of work for the worker pool.
type work struct {
	msg kafka.Message
}

// Dispatcher wires the consumer, the classifier, the channel registry and
// the notification log together.
type Dispatcher struct {
	consumer      Consumer
	store         RecordStore
	channels      *channel.Registry
	classifier    *classify.Classifier
	recipients    map[string]string
	batch         *pending.Batch
	flushInterval time.Duration
	workers       int
	metrics       metrics.Recorder
	now           func() time.Time
}

// Config holds the dispatcher construction parameters.
type Config struct {
	Consumer      Consumer
	Store         RecordStore
	Channels      *channel.Registry
	Classifier    *classify.Classifier
	Recipients    map[string]string // channel name -> recipient
	FlushInterval time.Duration
	Workers       int
	Metrics       metrics.Recorder
}

// New creates a dispatcher. Metrics may be nil; Workers defaults to 10.
func New(cfg Config) *Dispatcher {
	m := cfg.Metrics
	if m == nil {
		m = metrics.NoOp{}
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkerCount
	}
	return &Dispatcher{
		consumer:      cfg.Consumer,
		store:         cfg.Store,
		channels:      cfg.Channels,
		classifier:    cfg.Classifier,
		recipients:    cfg.Recipients,
		batch:         pending.NewBatch(),
		flushInterval: cfg.FlushInterval,
		workers:       workers,
		metrics:       m,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// QueuedCount returns the number of alerts waiting for the next flush.
func (d *Dispatcher) QueuedCount() int {
	return d.batch.Len()
}

// Run consumes events and dispatches notifications until the context is
// cancelled. On shutdown the pending batch is drained one last time so
// queued non-critical alerts are not silently lost.
func (d *Dispatcher) Run(ctx context.Context) error {
	slog.Info("Starting notification dispatch loop",
		"workers", d.workers,
		"flush_interval", d.flushInterval,
		"channels", d.channels.Names(),
	)

	var flushWG sync.WaitGroup
	flushWG.Add(1)
	go func() {
		defer flushWG.Done()
		d.runFlushLoop(ctx)
	}()

	jobs := make(chan work, d.workers*2)
	var wg sync.WaitGroup

	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go d.runWorker(ctx, jobs, &wg)
	}

	d.fetchMessages(ctx, jobs)

	close(jobs)
	wg.Wait()
	flushWG.Wait()

	// Final drain with a fresh context: the run context is already
	// cancelled at this point.
	flushCtx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
	defer cancel()
	d.Flush(flushCtx)

	slog.Info("Notification dispatch loop stopped")
	return nil
}

// fetchMessages reads messages from the bus and hands them to workers.
func (d *Dispatcher) fetchMessages(ctx context.Context, jobs chan<- work) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			msg, err := d.consumer.Fetch(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("Failed to fetch event", "error", err)
				continue
			}
			d.metrics.RecordReceived()
			jobs <- work{msg: msg}
		}
	}
}

// runWorker processes jobs from the channel until it's closed.
func (d *Dispatcher) runWorker(ctx context.Context, jobs <-chan work, wg *sync.WaitGroup) {
	defer wg.Done()
	for job := range jobs {
		d.processMessage(ctx, job.msg)
	}
}

// processMessage decodes one message and routes it by event type. The
// offset is committed after handling; a payload that cannot be decoded is
// committed anyway so it does not poison the subscription.
func (d *Dispatcher) processMessage(ctx context.Context, msg kafka.Message) {
	startTime := d.now()

	event, err := events.Decode(msg.Value)
	if err != nil {
		if errors.Is(err, events.ErrUnknownEventType) {
			slog.Warn("Dropping event of unknown type", "offset", msg.Offset, "error", err)
		} else {
			slog.Warn("Dropping undecodable event", "offset", msg.Offset, "error", err)
		}
		d.metrics.RecordError()
		d.commitOffset(ctx, msg)
		return
	}

	switch e := event.(type) {
	case *events.AlertRaised:
		d.handleAlert(ctx, e)
	case *events.DailyReport:
		slog.Info("Daily report received",
			"report_date", e.ReportDate,
			"total_alerts", e.TotalAlerts,
			"by_type", e.AlertsByType,
		)
	case *events.SensorInactive:
		slog.Warn("Sensor inactivity notice received",
			"sensor_id", e.SensorID,
			"last_seen", e.LastSeen,
			"message", e.Message,
		)
	default:
		// ReadingRecorded and friends are not this service's concern.
		slog.Debug("Ignoring event", "event_type", event.Type())
	}

	d.metrics.RecordProcessed(d.now().Sub(startTime))
	d.commitOffset(ctx, msg)
}

// handleAlert classifies the alert and either dispatches it immediately
// (critical) or queues it for the next flush.
func (d *Dispatcher) handleAlert(ctx context.Context, alert *events.AlertRaised) {
	priority := d.classifier.Classify(alert.AlertType)

	slog.Info("Alert received",
		"alert_id", alert.AlertID,
		"alert_type", alert.AlertType,
		"sensor_id", alert.SensorID,
		"priority", priority,
	)

	if priority == classify.Critical {
		d.dispatchAll(ctx, alert, priority)
		return
	}

	d.batch.Enqueue(alert)
	d.metrics.IncrementCustom("alerts_queued")
	slog.Debug("Alert queued for batch dispatch",
		"alert_id", alert.AlertID,
		"queued", d.batch.Len(),
	)
}

// dispatchAll sends the alert on every registered channel. Each attempt is
// logged to the notification store; a failing channel never stops its
// siblings, and a failing insert never stops delivery.
func (d *Dispatcher) dispatchAll(ctx context.Context, alert *events.AlertRaised, priority classify.Priority) {
	for _, ch := range d.channels.All() {
		recipient := d.recipients[ch.Name()]

		attemptedAt := d.now()
		sendErr := ch.Send(ctx, alert, recipient)

		record := &store.Record{
			RecordID:    "NTF-" + uuid.NewString(),
			AlertID:     alert.AlertID,
			AlertType:   alert.AlertType,
			SensorID:    alert.SensorID,
			Channel:     ch.Name(),
			Recipient:   recipient,
			Priority:    string(priority),
			AttemptedAt: attemptedAt,
		}

		if sendErr != nil {
			record.Status = store.StatusFailed
			record.ErrorMessage = sendErr.Error()
			d.metrics.RecordError()
			d.metrics.IncrementCustom("notifications_failed")
			slog.Error("Channel dispatch failed",
				"alert_id", alert.AlertID,
				"channel", ch.Name(),
				"error", sendErr,
			)
		} else {
			sentAt := d.now()
			record.Status = store.StatusSent
			record.SentAt = &sentAt
			d.metrics.IncrementCustom("notifications_sent")
		}

		if err := d.store.InsertRecord(ctx, record); err != nil {
			slog.Error("Failed to persist notification record",
				"record_id", record.RecordID,
				"alert_id", alert.AlertID,
				"channel", ch.Name(),
				"error", err,
			)
			d.metrics.RecordError()
		}
	}
}

// runFlushLoop flushes the pending batch on a fixed interval.
func (d *Dispatcher) runFlushLoop(ctx context.Context) {
	if d.flushInterval <= 0 {
		slog.Warn("Batch flushing disabled", "flush_interval", d.flushInterval)
		return
	}

	ticker := time.NewTicker(d.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Flush(ctx)
		}
	}
}

// Flush drains the pending batch and dispatches every queued alert.
// Priority is re-derived at flush time so keyword list changes take effect
// for alerts already queued.
func (d *Dispatcher) Flush(ctx context.Context) {
	drained := d.batch.DrainAll()
	if len(drained) == 0 {
		slog.Debug("Flush found no pending alerts")
		return
	}

	slog.Info("Flushing pending alerts", "count", len(drained))

	for _, alert := range drained {
		priority := d.classifier.Classify(alert.AlertType)
		d.dispatchAll(ctx, alert, priority)
	}
}

// commitOffset commits the offset for a handled message.
func (d *Dispatcher) commitOffset(ctx context.Context, msg kafka.Message) {
	if err := d.consumer.Commit(ctx, msg); err != nil {
		slog.Error("Failed to commit offset", "offset", msg.Offset, "error", err)
	}
}
