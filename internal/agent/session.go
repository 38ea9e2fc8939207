// Package agent sequences the conversation: corpus arrival and removal,
// question submission, the single in-flight query, and speaking the answer.
package agent

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/skppbmd-afk/Pelayanan-Petani/internal/tts"
)

// welcomeText greets the user once a corpus has been learned.
const welcomeText = "Dokumen berhasil dipelajari. Silakan ajukan pertanyaan."

var (
	// ErrEmptyInput rejects blank submissions.
	ErrEmptyInput = errors.New("agent: empty input")
	// ErrBusy rejects a submission while a request is in flight.
	ErrBusy = errors.New("agent: request already in flight")
	// ErrNoCorpus rejects questions before any document is ingested.
	ErrNoCorpus = errors.New("agent: no corpus ingested")
)

// Session is the chat state machine. The log is owned exclusively by the
// session and mutated only under its mutex; the inFlight flag is the sole
// guard needed to keep submissions sequential.
type Session struct {
	store    CorpusSource
	answerer Answerer
	speaker  Speaker
	listener Listener
	gender   func() tts.Gender

	mu       sync.Mutex
	entries  []Entry
	inFlight bool
	// gen counts corpus changes; an answer resolving under a stale gen
	// belongs to a corpus that no longer exists and is discarded.
	gen uint64
}

// NewSession wires the controller. gender is read at call time so settings
// changes made by the hosting shell take effect on the next spoken answer.
func NewSession(store CorpusSource, answerer Answerer, speaker Speaker, listener Listener, gender func() tts.Gender) *Session {
	if gender == nil {
		gender = func() tts.Gender { return tts.GenderMale }
	}
	return &Session{store: store, answerer: answerer, speaker: speaker, listener: listener, gender: gender}
}

// Messages returns a snapshot of the conversation log.
func (s *Session) Messages() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Awaiting reports whether a question is pending an answer.
func (s *Session) Awaiting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// CorpusChanged must be called after every corpus replace or clear. A corpus
// appearing over an empty log yields the welcome message; a corpus
// disappearing wipes the log entirely, so history never crosses corpora.
func (s *Session) CorpusChanged() {
	present := s.store.Current().Present()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if present && len(s.entries) == 0 {
		s.entries = append(s.entries, Entry{
			ID:     uuid.NewString(),
			Kind:   KindContent,
			Sender: SenderAssistant,
			Text:   welcomeText,
		})
		return
	}
	if !present && len(s.entries) > 0 {
		s.entries = nil
	}
}

// Submit starts one conversation turn. Rejections are no-ops: the log is
// untouched and no request leaves the process.
func (s *Session) Submit(ctx context.Context, text string) error {
	question := strings.TrimSpace(text)
	if question == "" {
		return ErrEmptyInput
	}
	if !s.store.Current().Present() {
		return ErrNoCorpus
	}

	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrBusy
	}
	s.inFlight = true
	s.mu.Unlock()

	// The guard is held from here on; stop capture before the turn begins.
	if s.listener != nil {
		s.listener.StopListening()
	}

	s.mu.Lock()
	// Re-read under the lock: a clear may have landed while capture was
	// being stopped, and the appended turn must belong to the corpus it
	// will be answered from.
	c := s.store.Current()
	if !c.Present() {
		s.inFlight = false
		s.mu.Unlock()
		return ErrNoCorpus
	}
	gen := s.gen
	s.entries = append(s.entries,
		Entry{ID: uuid.NewString(), Kind: KindContent, Sender: SenderUser, Text: question},
		Entry{ID: uuid.NewString(), Kind: KindTyping, Sender: SenderAssistant},
	)
	s.mu.Unlock()

	go s.resolve(ctx, gen, c.Text, question)
	return nil
}

// resolve runs the single outbound query to completion and folds the answer
// (or its diagnostic) back into the log where the placeholder sat.
func (s *Session) resolve(ctx context.Context, gen uint64, corpusText, question string) {
	answer := s.answerer.Ask(ctx, corpusText, question)

	s.mu.Lock()
	s.inFlight = false
	if gen != s.gen {
		// The corpus this answer was grounded on is gone; the log was
		// already reset with it.
		s.mu.Unlock()
		log.Printf("agent: discarding answer for stale corpus")
		return
	}
	s.removeTypingLocked()
	s.entries = append(s.entries, Entry{
		ID:     uuid.NewString(),
		Kind:   KindContent,
		Sender: SenderAssistant,
		Text:   answer,
	})
	s.mu.Unlock()

	if s.speaker != nil {
		s.speaker.Speak(answer, s.gender())
	}
}

func (s *Session) removeTypingLocked() {
	kept := s.entries[:0]
	for _, e := range s.entries {
		switch e.Kind {
		case KindTyping:
			// dropped
		case KindContent:
			kept = append(kept, e)
		}
	}
	s.entries = kept
}
