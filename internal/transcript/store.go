// Package transcript keeps recent transcription results and fans them out to
// listeners.
package transcript

import (
	"sync"
	"time"
)

// Event announces a new transcript.
type Event struct {
	ID       string
	Text     string
	Duration time.Duration // audio length of the utterance
}

// Entry is a stored transcript.
type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Text      string        `json:"text"`
	Duration  time.Duration `json:"duration_ns"`
}

// Store interface for transcript operations.
type Store interface {
	Add(e Entry)
	Recent(window time.Duration) []Entry
	Events() <-chan Event
}

// MemoryStore keeps the last maxSize entries in memory.
type MemoryStore struct {
	mu       sync.RWMutex
	entries  []Entry
	maxSize  int
	eventsCh chan Event
	now      func() time.Time
}

// NewStore creates a new transcript store.
func NewStore(maxEntries, eventBuffer int) *MemoryStore {
	return &MemoryStore{
		entries:  make([]Entry, 0, maxEntries),
		maxSize:  maxEntries,
		eventsCh: make(chan Event, eventBuffer),
		now:      time.Now,
	}
}

// Add stores e, stamping it if needed, and emits an event for it.
func (s *MemoryStore) Add(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}

	s.mu.Lock()
	s.entries = append(s.entries, e)
	if len(s.entries) > s.maxSize {
		s.entries = s.entries[len(s.entries)-s.maxSize:]
	}
	s.mu.Unlock()

	s.emit(Event{ID: e.ID, Text: e.Text, Duration: e.Duration})
}

// Recent returns entries stored within window, oldest first.
func (s *MemoryStore) Recent(window time.Duration) []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.now().Add(-window)
	var result []Entry
	for _, e := range s.entries {
		if !e.Timestamp.Before(cutoff) {
			result = append(result, e)
		}
	}
	return result
}

// Events returns the channel for transcript events.
func (s *MemoryStore) Events() <-chan Event {
	return s.eventsCh
}

// emit sends an event without blocking; it is dropped when nobody keeps up.
func (s *MemoryStore) emit(event Event) {
	select {
	case s.eventsCh <- event:
	default:
	}
}

// Len is the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
