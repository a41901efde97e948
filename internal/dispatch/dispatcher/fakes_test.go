package dispatcher

import (
	"context"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/OppaDev/monitoreo-ambiental/internal/dispatch/store"
	"github.com/OppaDev/monitoreo-ambiental/pkg/events"
)

// FakeConsumer is a test fake for Consumer.
type FakeConsumer struct {
	Messages  []kafka.Message
	fetchIdx  int
	Committed []kafka.Message
	mu        sync.Mutex
}

func (f *FakeConsumer) Fetch(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if f.fetchIdx < len(f.Messages) {
		msg := f.Messages[f.fetchIdx]
		f.fetchIdx++
		f.mu.Unlock()
		return msg, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *FakeConsumer) Commit(_ context.Context, msg kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Committed = append(f.Committed, msg)
	return nil
}

func (f *FakeConsumer) CommittedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Committed)
}

// FakeRecordStore is a test fake for RecordStore.
type FakeRecordStore struct {
	mu        sync.Mutex
	Records   []*store.Record
	InsertErr error
}

func (f *FakeRecordStore) InsertRecord(_ context.Context, r *store.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.InsertErr != nil {
		return f.InsertErr
	}
	f.Records = append(f.Records, r)
	return nil
}

func (f *FakeRecordStore) ByStatus(status string) []*store.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*store.Record
	for _, r := range f.Records {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

// FakeChannel is a test fake for channel.Channel.
type FakeChannel struct {
	ChannelName string
	SendErr     error
	mu          sync.Mutex
	Sent        []*events.AlertRaised
}

func (f *FakeChannel) Name() string { return f.ChannelName }

func (f *FakeChannel) Send(_ context.Context, alert *events.AlertRaised, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return f.SendErr
	}
	f.Sent = append(f.Sent, alert)
	return nil
}

func (f *FakeChannel) SentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Sent)
}
