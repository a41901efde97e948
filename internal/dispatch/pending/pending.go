// Package pending holds non-critical alerts awaiting the next scheduled
// flush. The batch is process-local and exclusively owned by the
// dispatcher: consumer goroutines enqueue, the flush goroutine drains.
// Contents are lost on crash; that loss is an accepted boundary for
// non-critical notifications.
package pending

import (
	"sync"

	"github.com/OppaDev/monitoreo-ambiental/pkg/events"
)

// Batch is an unordered collection of alerts with a thread-safe append and
// an atomic drain. Drain swaps the backing slice out under the lock, so a
// concurrent enqueue either lands in the drained snapshot or in the fresh
// batch, never in both and never nowhere.
type Batch struct {
	mu    sync.Mutex
	items []*events.AlertRaised
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Enqueue appends an alert to the batch.
func (b *Batch) Enqueue(alert *events.AlertRaised) {
	b.mu.Lock()
	b.items = append(b.items, alert)
	b.mu.Unlock()
}

// DrainAll atomically removes and returns everything in the batch. The
// caller owns the returned slice.
func (b *Batch) DrainAll() []*events.AlertRaised {
	b.mu.Lock()
	drained := b.items
	b.items = nil
	b.mu.Unlock()
	return drained
}

// Len returns the current number of queued alerts.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}
