package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/OppaDev/monitoreo-ambiental/pkg/events"
)

// reportingWindow is the trailing window both periodic jobs look at.
const reportingWindow = 24 * time.Hour

// RunDailyDigest aggregates the trailing 24 hours of alerts by type and
// publishes a DailyReportGenerated event. Informational broadcast only.
func (e *Engine) RunDailyDigest(ctx context.Context) error {
	now := e.now().UTC()
	since := now.Add(-reportingWindow)

	counts, err := e.store.CountByTypeSince(ctx, since)
	if err != nil {
		return err
	}

	total := 0
	for _, n := range counts {
		total += n
	}

	report := &events.DailyReport{
		EventType:     events.TypeDailyReport,
		SchemaVersion: events.SchemaVersion,
		ReportDate:    now.Format("2006-01-02"),
		TotalAlerts:   total,
		AlertsByType:  counts,
		Timestamp:     now,
	}

	payload, err := events.Encode(report)
	if err != nil {
		return err
	}

	if err := e.publisher.Publish(ctx, events.NewEventID(), payload); err != nil {
		return err
	}

	e.metrics.IncrementCustom("daily_reports_published")
	slog.Info("Daily report published",
		"report_date", report.ReportDate,
		"total_alerts", report.TotalAlerts,
	)
	return nil
}

// RunInactivitySweep publishes a SensorInactiveAlert when no alerts were
// raised in the trailing 24 hours. Absence of alerts is a coarse stand-in
// for absence of readings; the event names an aggregate placeholder rather
// than a specific sensor.
func (e *Engine) RunInactivitySweep(ctx context.Context) error {
	now := e.now().UTC()
	since := now.Add(-reportingWindow)

	counts, err := e.store.CountByTypeSince(ctx, since)
	if err != nil {
		return err
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	if total > 0 {
		slog.Info("Inactivity sweep found recent alerts", "total_alerts", total)
		return nil
	}

	inactive := &events.SensorInactive{
		EventType:     events.TypeSensorInactive,
		SchemaVersion: events.SchemaVersion,
		SensorID:      "UNKNOWN-SENSORS",
		LastSeen:      since,
		Message:       "no sensor alerts observed in the last 24 hours",
		Timestamp:     now,
	}

	payload, err := events.Encode(inactive)
	if err != nil {
		return err
	}

	if err := e.publisher.Publish(ctx, events.NewEventID(), payload); err != nil {
		return err
	}

	e.metrics.IncrementCustom("inactivity_alerts_published")
	slog.Warn("No recent alerts, SensorInactiveAlert published", "last_seen", inactive.LastSeen)
	return nil
}
