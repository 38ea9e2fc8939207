// Package stt adapts the host platform's speech-recognition surface: capture
// runs on the host device (non-continuous, interim results on), this side
// tracks the best-guess transcript and the listening flag.
package stt

import (
	"log"
	"strings"
	"sync"
)

// Segment is one recognized piece of speech. Final segments are settled;
// at most the last segment of an event is interim.
type Segment struct {
	Text  string
	Final bool
}

// EventKind discriminates recognition events.
type EventKind int

const (
	EventResult EventKind = iota
	EventEnd
	EventError
)

// Event is one recognition callback from the host.
type Event struct {
	Kind     EventKind
	Segments []Segment
	Err      error
}

// Recognizer is the host speech-input capability.
type Recognizer interface {
	Available() bool
	// Start begins one non-continuous capture in the given language with
	// interim results enabled.
	Start(lang string) error
	// Abort requests cancellation of the current capture. The host still
	// reports an end event on its own.
	Abort()
	// Events delivers result/end/error events for all captures.
	Events() <-chan Event
}

// Listener is the speech-input adapter. The transcript is overwritten on
// every result event with the concatenation of all finalized segments plus
// the current interim one, so it always reads as "best guess so far".
type Listener struct {
	rec  Recognizer
	lang string

	mu         sync.Mutex
	listening  bool
	transcript string

	// onTranscript, when set, observes every transcript overwrite.
	onTranscript func(string)
}

// NewListener wires the adapter to a host recognizer and starts consuming its
// events. A nil recognizer means the capability is absent; every method then
// degrades to a no-op.
func NewListener(rec Recognizer, lang string, onTranscript func(string)) *Listener {
	l := &Listener{rec: rec, lang: lang, onTranscript: onTranscript}
	if rec != nil {
		go l.consume()
	}
	return l
}

// HasSupport reports whether the host exposes speech recognition; callers
// must check this before offering the microphone affordance.
func (l *Listener) HasSupport() bool {
	return l.rec != nil && l.rec.Available()
}

// IsListening reports whether a capture is active.
func (l *Listener) IsListening() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.listening
}

// Transcript returns the current best-guess transcript.
func (l *Listener) Transcript() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.transcript
}

// StartListening resets the transcript and begins capture. No-op when the
// capability is absent or a capture is already active.
func (l *Listener) StartListening() {
	if !l.HasSupport() {
		return
	}
	l.mu.Lock()
	if l.listening {
		l.mu.Unlock()
		return
	}
	l.transcript = ""
	l.listening = true
	l.mu.Unlock()

	if err := l.rec.Start(l.lang); err != nil {
		log.Printf("stt: start failed: %v", err)
		l.mu.Lock()
		l.listening = false
		l.mu.Unlock()
	}
}

// StopListening requests host cancellation and proactively clears the
// listening flag; the host's own end event arriving later is harmless.
// No-op when not listening.
func (l *Listener) StopListening() {
	l.mu.Lock()
	if !l.listening {
		l.mu.Unlock()
		return
	}
	l.listening = false
	l.mu.Unlock()
	l.rec.Abort()
}

func (l *Listener) consume() {
	for ev := range l.rec.Events() {
		switch ev.Kind {
		case EventResult:
			l.applyResult(ev.Segments)
		case EventError:
			// Treated as end-of-listening, not fatal.
			log.Printf("stt: recognition error: %v", ev.Err)
			l.mu.Lock()
			l.listening = false
			l.mu.Unlock()
		case EventEnd:
			l.mu.Lock()
			l.listening = false
			l.mu.Unlock()
		}
	}
}

func (l *Listener) applyResult(segments []Segment) {
	var final, interim strings.Builder
	for _, seg := range segments {
		if seg.Final {
			final.WriteString(seg.Text)
		} else {
			interim.WriteString(seg.Text)
		}
	}
	text := final.String() + interim.String()

	l.mu.Lock()
	l.transcript = text
	notify := l.onTranscript
	l.mu.Unlock()
	if notify != nil {
		notify(text)
	}
}
