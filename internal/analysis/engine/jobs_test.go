package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/OppaDev/monitoreo-ambiental/pkg/events"
)

func TestRunDailyDigest(t *testing.T) {
	publisher := &FakePublisher{}
	alertStore := &FakeAlertStore{
		Counts: map[string]int{
			"HighTemperatureAlert":    2,
			"SeismicActivityDetected": 1,
		},
	}
	eng := newTestEngine(t, &FakeConsumer{}, publisher, alertStore)

	if err := eng.RunDailyDigest(context.Background()); err != nil {
		t.Fatalf("RunDailyDigest() error = %v", err)
	}

	if len(publisher.Published) != 1 {
		t.Fatalf("published events = %d, want 1", len(publisher.Published))
	}
	decoded, err := events.Decode(publisher.Published[0])
	if err != nil {
		t.Fatalf("Decode(published) error = %v", err)
	}
	report, ok := decoded.(*events.DailyReport)
	if !ok {
		t.Fatalf("published event type = %T, want *events.DailyReport", decoded)
	}
	if report.TotalAlerts != 3 {
		t.Errorf("TotalAlerts = %d, want 3", report.TotalAlerts)
	}
	if report.AlertsByType["HighTemperatureAlert"] != 2 {
		t.Errorf("AlertsByType[HighTemperatureAlert] = %d, want 2", report.AlertsByType["HighTemperatureAlert"])
	}
}

func TestRunDailyDigest_StoreError(t *testing.T) {
	publisher := &FakePublisher{}
	alertStore := &FakeAlertStore{CountErr: errors.New("db down")}
	eng := newTestEngine(t, &FakeConsumer{}, publisher, alertStore)

	if err := eng.RunDailyDigest(context.Background()); err == nil {
		t.Error("RunDailyDigest() error = nil, want error")
	}
	if len(publisher.Published) != 0 {
		t.Errorf("published events = %d, want 0", len(publisher.Published))
	}
}

func TestRunInactivitySweep_NoRecentAlerts(t *testing.T) {
	publisher := &FakePublisher{}
	alertStore := &FakeAlertStore{}
	eng := newTestEngine(t, &FakeConsumer{}, publisher, alertStore)

	if err := eng.RunInactivitySweep(context.Background()); err != nil {
		t.Fatalf("RunInactivitySweep() error = %v", err)
	}

	if len(publisher.Published) != 1 {
		t.Fatalf("published events = %d, want 1", len(publisher.Published))
	}
	decoded, err := events.Decode(publisher.Published[0])
	if err != nil {
		t.Fatalf("Decode(published) error = %v", err)
	}
	inactive, ok := decoded.(*events.SensorInactive)
	if !ok {
		t.Fatalf("published event type = %T, want *events.SensorInactive", decoded)
	}
	if inactive.SensorID != "UNKNOWN-SENSORS" {
		t.Errorf("SensorID = %q, want UNKNOWN-SENSORS", inactive.SensorID)
	}
}

func TestRunInactivitySweep_RecentAlertsSuppressEvent(t *testing.T) {
	publisher := &FakePublisher{}
	alertStore := &FakeAlertStore{Counts: map[string]int{"LowHumidityWarning": 1}}
	eng := newTestEngine(t, &FakeConsumer{}, publisher, alertStore)

	if err := eng.RunInactivitySweep(context.Background()); err != nil {
		t.Fatalf("RunInactivitySweep() error = %v", err)
	}
	if len(publisher.Published) != 0 {
		t.Errorf("published events = %d, want 0", len(publisher.Published))
	}
}
