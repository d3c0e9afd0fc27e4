package shock

import (
	"sync"

	"github.com/quantfabric/meridian/internal/mdata"
	"github.com/quantfabric/meridian/internal/provider"
)

// listenerSet holds the listeners registered on the composite. Delegate
// notifications fan out to every member without deduplication.
type listenerSet struct {
	mu        sync.RWMutex
	listeners []provider.Listener
}

func newListenerSet() *listenerSet {
	return new(listenerSet)
}

func (s *listenerSet) add(listener provider.Listener) {
	if listener == nil {
		return
	}
	s.mu.Lock()
	s.listeners = append(s.listeners, listener)
	s.mu.Unlock()
}

func (s *listenerSet) remove(listener provider.Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.listeners {
		if l == listener {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

func (s *listenerSet) snapshot() []provider.Listener {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]provider.Listener(nil), s.listeners...)
}

// forwardingListener relays delegate notifications to the composite's
// listener set. One forwarder is registered on each delegate, so an event
// raised by any source reaches every composite listener exactly once per
// source.
type forwardingListener struct {
	target *listenerSet
}

func (f *forwardingListener) SubscriptionSucceeded(spec mdata.ValueSpecification) {
	for _, l := range f.target.snapshot() {
		l.SubscriptionSucceeded(spec)
	}
}

func (f *forwardingListener) SubscriptionFailed(spec mdata.ValueSpecification, reason string) {
	for _, l := range f.target.snapshot() {
		l.SubscriptionFailed(spec, reason)
	}
}

func (f *forwardingListener) SubscriptionStopped(spec mdata.ValueSpecification) {
	for _, l := range f.target.snapshot() {
		l.SubscriptionStopped(spec)
	}
}

func (f *forwardingListener) ValuesChanged(specs []mdata.ValueSpecification) {
	for _, l := range f.target.snapshot() {
		l.ValuesChanged(specs)
	}
}
