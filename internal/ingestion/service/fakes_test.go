package service

import (
	"context"

	"github.com/OppaDev/monitoreo-ambiental/internal/ingestion/store"
)

// FakeStore is a test fake for ReadingStore.
type FakeStore struct {
	Inserted  []*store.Reading
	InsertErr error
}

func (f *FakeStore) InsertReading(_ context.Context, r *store.Reading) error {
	if f.InsertErr != nil {
		return f.InsertErr
	}
	f.Inserted = append(f.Inserted, r)
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
