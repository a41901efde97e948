package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/OppaDev/monitoreo-ambiental/pkg/events"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(st ReadingStore, p Publisher) *Service {
	svc := NewService(st, p, nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func validRequest() ReadingRequest {
	return ReadingRequest{
		SensorID:   "S1",
		SensorType: "temperature",
		Value:      25.0,
		ObservedAt: fixedNow.Add(-time.Minute),
	}
}

func TestSubmitReading_Success(t *testing.T) {
	st := &FakeStore{}
	pub := &FakePublisher{}
	svc := newTestService(st, pub)

	reading, err := svc.SubmitReading(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("SubmitReading() error = %v", err)
	}
	if reading == nil {
		t.Fatal("SubmitReading() reading = nil")
	}
	if reading.ID == "" {
		t.Error("reading ID not assigned")
	}
	if reading.SensorID != "S1" || reading.Value != 25.0 {
		t.Errorf("stored reading = %+v, want S1/25.0", reading)
	}

	if len(st.Inserted) != 1 {
		t.Fatalf("inserted readings = %d, want 1", len(st.Inserted))
	}
	if len(pub.Published) != 1 {
		t.Fatalf("published events = %d, want 1", len(pub.Published))
	}

	decoded, err := events.Decode(pub.Published[0])
	if err != nil {
		t.Fatalf("Decode(published) error = %v", err)
	}
	recorded, ok := decoded.(*events.ReadingRecorded)
	if !ok {
		t.Fatalf("published event type = %T, want *events.ReadingRecorded", decoded)
	}
	if recorded.SensorID != "S1" || recorded.SensorType != "temperature" || recorded.Value != 25.0 {
		t.Errorf("published event = %+v, want S1/temperature/25.0", recorded)
	}
	if !strings.HasPrefix(recorded.EventID, "EVT-") {
		t.Errorf("EventID = %q, want EVT- prefix", recorded.EventID)
	}
}

func TestSubmitReading_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *ReadingRequest)
		field  string
	}{
		{
			name:   "empty sensor id",
			mutate: func(r *ReadingRequest) { r.SensorID = "" },
			field:  "sensorId",
		},
		{
			name:   "sensor id too long",
			mutate: func(r *ReadingRequest) { r.SensorID = strings.Repeat("x", 51) },
			field:  "sensorId",
		},
		{
			name:   "empty sensor type",
			mutate: func(r *ReadingRequest) { r.SensorType = "" },
			field:  "type",
		},
		{
			name:   "value below range",
			mutate: func(r *ReadingRequest) { r.Value = -100.5 },
			field:  "value",
		},
		{
			name:   "value above range",
			mutate: func(r *ReadingRequest) { r.Value = 100.5 },
			field:  "value",
		},
		{
			name:   "zero timestamp",
			mutate: func(r *ReadingRequest) { r.ObservedAt = time.Time{} },
			field:  "timestamp",
		},
		{
			name:   "future timestamp",
			mutate: func(r *ReadingRequest) { r.ObservedAt = fixedNow.Add(time.Hour) },
			field:  "timestamp",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &FakeStore{}
			pub := &FakePublisher{}
			svc := newTestService(st, pub)

			req := validRequest()
			tt.mutate(&req)

			_, err := svc.SubmitReading(context.Background(), req)
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("SubmitReading() error = %v, want *ValidationError", err)
			}
			if validationErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", validationErr.Field, tt.field)
			}

			// Validation failures have no side effects.
			if len(st.Inserted) != 0 {
				t.Errorf("inserted readings = %d, want 0", len(st.Inserted))
			}
			if len(pub.Published) != 0 {
				t.Errorf("published events = %d, want 0", len(pub.Published))
			}
		})
	}
}

func TestSubmitReading_SensorIDBoundaryAccepted(t *testing.T) {
	for _, n := range []int{1, 50} {
		st := &FakeStore{}
		svc := newTestService(st, &FakePublisher{})

		req := validRequest()
		req.SensorID = strings.Repeat("s", n)

		if _, err := svc.SubmitReading(context.Background(), req); err != nil {
			t.Errorf("SubmitReading() with %d-char sensorId error = %v, want nil", n, err)
		}
	}
}

func TestSubmitReading_TemperatureBusinessRule(t *testing.T) {
	tests := []struct {
		name       string
		sensorType string
		value      float64
		wantErr    bool
	}{
		{name: "temperature below plausible range", sensorType: "temperature", value: -45.0, wantErr: true},
		{name: "temperature above plausible range", sensorType: "temperature", value: 65.0, wantErr: true},
		{name: "temperature at lower bound", sensorType: "temperature", value: -40.0, wantErr: false},
		{name: "temperature at upper bound", sensorType: "temperature", value: 60.0, wantErr: false},
		{name: "case-insensitive sensor type", sensorType: "Temperature", value: 65.0, wantErr: true},
		{name: "humidity not subject to rule", sensorType: "humidity", value: 65.0, wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&FakeStore{}, &FakePublisher{})

			req := validRequest()
			req.SensorType = tt.sensorType
			req.Value = tt.value

			_, err := svc.SubmitReading(context.Background(), req)
			var ruleErr *BusinessRuleError
			if tt.wantErr {
				if !errors.As(err, &ruleErr) {
					t.Errorf("SubmitReading() error = %v, want *BusinessRuleError", err)
				}
			} else if err != nil {
				t.Errorf("SubmitReading() error = %v, want nil", err)
			}
		})
	}
}

func TestSubmitReading_StoreFailure(t *testing.T) {
	st := &FakeStore{InsertErr: errors.New("db down")}
	pub := &FakePublisher{}
	svc := newTestService(st, pub)

	_, err := svc.SubmitReading(context.Background(), validRequest())
	if err == nil {
		t.Fatal("SubmitReading() error = nil, want error")
	}
	if len(pub.Published) != 0 {
		t.Errorf("published events = %d, want 0 when the store write fails", len(pub.Published))
	}
}

func TestSubmitReading_PublishFailureAfterStore(t *testing.T) {
	st := &FakeStore{}
	pub := &FakePublisher{PublishErr: errors.New("broker down")}
	svc := newTestService(st, pub)

	_, err := svc.SubmitReading(context.Background(), validRequest())
	var publishErr *PublishError
	if !errors.As(err, &publishErr) {
		t.Fatalf("SubmitReading() error = %v, want *PublishError", err)
	}
	if publishErr.EventID == "" {
		t.Error("PublishError.EventID is empty")
	}

	// The reading is stored even though the event never made it out.
	if len(st.Inserted) != 1 {
		t.Errorf("inserted readings = %d, want 1", len(st.Inserted))
	}
}
