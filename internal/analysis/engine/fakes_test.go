package engine

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/OppaDev/monitoreo-ambiental/internal/analysis/store"
)

// FakeConsumer is a test fake for Consumer.
type FakeConsumer struct {
	Messages  []kafka.Message
	FetchErr  error
	CommitErr error
	fetchIdx  int
	Committed []kafka.Message
}

func (f *FakeConsumer) Fetch(ctx context.Context) (kafka.Message, error) {
	if f.FetchErr != nil {
		return kafka.Message{}, f.FetchErr
	}
	if f.fetchIdx >= len(f.Messages) {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := f.Messages[f.fetchIdx]
	f.fetchIdx++
	return msg, nil
}

func (f *FakeConsumer) Commit(_ context.Context, msg kafka.Message) error {
	if f.CommitErr != nil {
		return f.CommitErr
	}
	f.Committed = append(f.Committed, msg)
	return nil
}

// FakePublisher is a test fake for Publisher.
type FakePublisher struct {
	Published  [][]byte
	EventIDs   []string
	PublishErr error
}

func (f *FakePublisher) Publish(_ context.Context, eventID string, payload []byte) error {
	if f.PublishErr != nil {
		return f.PublishErr
	}
	f.EventIDs = append(f.EventIDs, eventID)
	f.Published = append(f.Published, payload)
	return nil
}

// FakeAlertStore is a test fake for AlertStore.
type FakeAlertStore struct {
	Inserted  []*store.Alert
	InsertErr error
	Counts    map[string]int
	CountErr  error
}

func (f *FakeAlertStore) InsertAlert(_ context.Context, a *store.Alert) error {
	if f.InsertErr != nil {
		return f.InsertErr
	}
	f.Inserted = append(f.Inserted, a)
	return nil
}

func (f *FakeAlertStore) CountByTypeSince(_ context.Context, _ time.Time) (map[string]int, error) {
	if f.CountErr != nil {
		return nil, f.CountErr
	}
	if f.Counts == nil {
		return map[string]int{}, nil
	}
	return f.Counts, nil
}
