package feed

import (
	"sync"

	"github.com/google/uuid"

	"github.com/quantfabric/meridian/errs"
	"github.com/quantfabric/meridian/internal/normalization"
)

// Subscription is one consumer's claim on an instrument's tick stream.
type Subscription struct {
	ID         uuid.UUID
	Instrument string
}

// Manager reference-counts instrument subscriptions over a normalization
// pipeline. The pipeline's field history is created on the first claim of an
// instrument and destroyed when the last claim is released.
type Manager struct {
	pipeline *normalization.Pipeline

	mu     sync.Mutex
	byID   map[uuid.UUID]string
	counts map[string]int
}

// NewManager creates a manager over the pipeline.
func NewManager(pipeline *normalization.Pipeline) *Manager {
	m := new(Manager)
	m.pipeline = pipeline
	m.byID = make(map[uuid.UUID]string)
	m.counts = make(map[string]int)
	return m
}

// Subscribe claims the instrument and returns a handle for release.
func (m *Manager) Subscribe(instrument string) (Subscription, error) {
	if instrument == "" {
		return Subscription{}, errs.New("feed", errs.CodeInvalid, errs.WithMessage("instrument must not be empty"))
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	sub := Subscription{ID: uuid.New(), Instrument: instrument}
	m.byID[sub.ID] = instrument
	m.counts[instrument]++
	if m.counts[instrument] == 1 {
		m.pipeline.Subscribe(instrument)
	}
	return sub, nil
}

// Unsubscribe releases the handle. Releasing an unknown or already-released
// handle is an error; the pipeline history is untouched.
func (m *Manager) Unsubscribe(sub Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	instrument, ok := m.byID[sub.ID]
	if !ok {
		return errs.New("feed", errs.CodeNotFound,
			errs.WithMessage("unknown subscription handle"),
			errs.WithField("subscription_id", sub.ID.String()))
	}
	delete(m.byID, sub.ID)
	m.counts[instrument]--
	if m.counts[instrument] <= 0 {
		delete(m.counts, instrument)
		m.pipeline.Unsubscribe(instrument)
	}
	return nil
}

// SubscriberCount reports active claims on the instrument.
func (m *Manager) SubscriberCount(instrument string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[instrument]
}

// Dispatch runs the tick through the pipeline. Ticks for unclaimed
// instruments are dropped by the pipeline itself.
func (m *Manager) Dispatch(instrument string, tick normalization.Tick) {
	m.pipeline.Process(instrument, tick)
}
