package transcript

import (
	"strings"
	"testing"
	"time"
)

func TestStoreAdd(t *testing.T) {
	s := NewStore(30, 10)
	s.Add(Entry{ID: "u1", Text: "Hello", Duration: 2 * time.Second})

	entries := s.Recent(time.Minute)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ID != "u1" || entries[0].Text != "Hello" || entries[0].Timestamp.IsZero() {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestStoreMaxSize(t *testing.T) {
	s := NewStore(5, 10)
	for i := 0; i < 10; i++ {
		s.Add(Entry{Text: "msg"})
	}

	if s.Len() != 5 {
		t.Errorf("expected 5 entries, got %d", s.Len())
	}
}

func TestRecentWindow(t *testing.T) {
	now := time.Unix(10000, 0)
	s := NewStore(30, 10)
	s.now = func() time.Time { return now }

	s.Add(Entry{Text: "Old", Timestamp: now.Add(-5 * time.Minute)})
	s.Add(Entry{Text: "Recent", Timestamp: now.Add(-10 * time.Second)})
	s.Add(Entry{Text: "Now"})

	tests := []struct {
		window time.Duration
		want   string
	}{
		{time.Second, "Now"},
		{time.Minute, "Recent\nNow"},
		{time.Hour, "Old\nRecent\nNow"},
	}
	for _, tt := range tests {
		var texts []string
		for _, e := range s.Recent(tt.window) {
			texts = append(texts, e.Text)
		}
		if got := strings.Join(texts, "\n"); got != tt.want {
			t.Errorf("Recent(%s) texts = %q, want %q", tt.window, got, tt.want)
		}
	}
}

func TestAddEmitsEvent(t *testing.T) {
	s := NewStore(30, 10)
	s.Add(Entry{ID: "u2", Text: "test", Duration: time.Second})

	select {
	case e := <-s.Events():
		if e.ID != "u2" || e.Text != "test" || e.Duration != time.Second {
			t.Errorf("unexpected event: %+v", e)
		}
	case <-time.After(100 * time.Millisecond):
		t.Error("timeout waiting for event")
	}
}

func TestAddNonBlockingWhenNobodyListens(t *testing.T) {
	s := NewStore(30, 1)

	done := make(chan struct{})
	go func() {
		s.Add(Entry{Text: "first"})
		s.Add(Entry{Text: "second"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("Add blocked on a full event channel")
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 entries, got %d", s.Len())
	}
}
