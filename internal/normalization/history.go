package normalization

import "sync"

// History is the read-only view of last-forwarded field values exposed to
// rules during normalization.
type History interface {
	LastKnown(field string) (any, bool)
}

// fieldHistory holds the last successfully-forwarded value per field name for
// one instrument. It is only mutated by the goroutine processing that
// instrument's tick stream.
type fieldHistory struct {
	values map[string]any
}

func newFieldHistory() *fieldHistory {
	return &fieldHistory{values: make(map[string]any)}
}

// LastKnown returns the most recently forwarded value for the field.
func (h *fieldHistory) LastKnown(field string) (any, bool) {
	v, ok := h.values[field]
	return v, ok
}

// update records every field of a forwarded tick; later duplicates win.
func (h *fieldHistory) update(tick Tick) {
	for _, f := range tick.Fields() {
		h.values[f.Name] = f.Value
	}
}

// HistoryStore owns per-instrument field histories. Entries are created when
// an instrument is subscribed and destroyed when it is unsubscribed; the map
// itself is guarded for concurrent subscription management, while each
// instrument's history follows the per-instrument single-writer discipline.
type HistoryStore struct {
	mu           sync.RWMutex
	byInstrument map[string]*fieldHistory
}

// NewHistoryStore creates an empty history store.
func NewHistoryStore() *HistoryStore {
	store := new(HistoryStore)
	store.byInstrument = make(map[string]*fieldHistory)
	return store
}

// Create initialises the history for the instrument if absent.
func (s *HistoryStore) Create(instrument string) {
	s.mu.Lock()
	if _, ok := s.byInstrument[instrument]; !ok {
		s.byInstrument[instrument] = newFieldHistory()
	}
	s.mu.Unlock()
}

// Destroy removes the instrument's history.
func (s *HistoryStore) Destroy(instrument string) {
	s.mu.Lock()
	delete(s.byInstrument, instrument)
	s.mu.Unlock()
}

// get returns the instrument's history, or nil when not subscribed.
func (s *HistoryStore) get(instrument string) *fieldHistory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byInstrument[instrument]
}
