package stt

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeRecognizer struct {
	events chan Event
	starts int
	aborts int
	lang   string
}

func newFakeRecognizer() *fakeRecognizer {
	return &fakeRecognizer{events: make(chan Event, 16)}
}

func (f *fakeRecognizer) Available() bool { return true }
func (f *fakeRecognizer) Start(lang string) error {
	f.starts++
	f.lang = lang
	return nil
}
func (f *fakeRecognizer) Abort()               { f.aborts++ }
func (f *fakeRecognizer) Events() <-chan Event { return f.events }

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not reached in time")
}

func TestListener_NoSupportIsNoop(t *testing.T) {
	l := NewListener(nil, "id-ID", nil)
	if l.HasSupport() {
		t.Fatalf("expected no support without recognizer")
	}
	l.StartListening()
	l.StopListening()
	if l.IsListening() {
		t.Fatalf("expected not listening")
	}
}

func TestListener_StartResetsTranscript(t *testing.T) {
	rec := newFakeRecognizer()
	l := NewListener(rec, "id-ID", nil)

	l.StartListening()
	rec.events <- Event{Kind: EventResult, Segments: []Segment{{Text: "halo", Final: true}}}
	waitFor(t, func() bool { return l.Transcript() == "halo" })
	rec.events <- Event{Kind: EventEnd}
	waitFor(t, func() bool { return !l.IsListening() })

	l.StartListening()
	if got := l.Transcript(); got != "" {
		t.Fatalf("expected transcript reset on start, got %q", got)
	}
	if rec.starts != 2 {
		t.Fatalf("expected two starts, got %d", rec.starts)
	}
	if rec.lang != "id-ID" {
		t.Fatalf("expected configured language, got %q", rec.lang)
	}
}

func TestListener_StartWhileListeningIsNoop(t *testing.T) {
	rec := newFakeRecognizer()
	l := NewListener(rec, "id-ID", nil)
	l.StartListening()
	l.StartListening()
	if rec.starts != 1 {
		t.Fatalf("expected single start, got %d", rec.starts)
	}
}

func TestListener_TranscriptOverwrittenPerEvent(t *testing.T) {
	rec := newFakeRecognizer()
	// The callback fires on the listener's consume goroutine.
	var mu sync.Mutex
	var observed []string
	l := NewListener(rec, "id-ID", func(s string) {
		mu.Lock()
		observed = append(observed, s)
		mu.Unlock()
	})
	l.StartListening()

	rec.events <- Event{Kind: EventResult, Segments: []Segment{{Text: "berapa ", Final: false}}}
	waitFor(t, func() bool { return l.Transcript() == "berapa " })

	rec.events <- Event{Kind: EventResult, Segments: []Segment{
		{Text: "berapa harga ", Final: true},
		{Text: "pupuk", Final: false},
	}}
	waitFor(t, func() bool { return l.Transcript() == "berapa harga pupuk" })

	mu.Lock()
	defer mu.Unlock()
	if len(observed) != 2 || observed[1] != "berapa harga pupuk" {
		t.Fatalf("expected overwrite notifications, got %v", observed)
	}
}

func TestListener_ErrorEndsListening(t *testing.T) {
	rec := newFakeRecognizer()
	l := NewListener(rec, "id-ID", nil)
	l.StartListening()
	rec.events <- Event{Kind: EventError, Err: errors.New("no-speech")}
	waitFor(t, func() bool { return !l.IsListening() })
}

func TestListener_StopIsIdempotent(t *testing.T) {
	rec := newFakeRecognizer()
	l := NewListener(rec, "id-ID", nil)
	l.StartListening()
	l.StopListening()
	l.StopListening()
	if rec.aborts != 1 {
		t.Fatalf("expected single abort, got %d", rec.aborts)
	}
	if l.IsListening() {
		t.Fatalf("expected not listening after stop")
	}
	// The host's natural end event after an abort changes nothing.
	rec.events <- Event{Kind: EventEnd}
	time.Sleep(10 * time.Millisecond)
	if l.IsListening() {
		t.Fatalf("expected not listening after end event")
	}
}
