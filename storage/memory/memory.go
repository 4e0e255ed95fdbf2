// Package memory provides an in-memory usage event store implementing the
// cyclequota.UsageCounter interface. This implementation is primarily
// intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Store keeps usage events per tenant in memory.
type Store struct {
	mu     sync.RWMutex
	events map[string][]time.Time
}

// New creates a new in-memory usage event store.
func New() *Store {
	return &Store{
		events: make(map[string][]time.Time),
	}
}

// Record appends a usage event for the tenant. Integrators call this after a
// successful gated action; the gate itself never writes.
func (s *Store) Record(ctx context.Context, tenantID string, at time.Time) error {
	if tenantID == "" {
		return fmt.Errorf("tenant id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[tenantID] = append(s.events[tenantID], at.UTC())
	return nil
}

// Count implements cyclequota.UsageCounter over an inclusive range.
func (s *Store) Count(ctx context.Context, tenantID string, start, end time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, at := range s.events[tenantID] {
		if !at.Before(start) && !at.After(end) {
			count++
		}
	}
	return count, nil
}

// Clear removes all data (useful for testing).
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[string][]time.Time)
}
