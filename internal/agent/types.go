package agent

import (
	"context"

	"github.com/skppbmd-afk/Pelayanan-Petani/internal/corpus"
	"github.com/skppbmd-afk/Pelayanan-Petani/internal/tts"
)

// Sender identifies who produced a log entry.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "ai"
)

// EntryKind discriminates real content from the transient typing placeholder,
// so removal of the placeholder is a structural match rather than a flag
// check, and a placeholder can never be mistaken for an answer.
type EntryKind int

const (
	KindContent EntryKind = iota
	KindTyping
)

// Entry is one element of the conversation log.
type Entry struct {
	ID     string
	Kind   EntryKind
	Sender Sender
	Text   string
}

// Answerer produces a renderable answer string for a question over a corpus.
// It never fails; failures arrive as diagnostic text.
type Answerer interface {
	Ask(ctx context.Context, corpusText, question string) string
}

// Speaker voices an answer, best effort.
type Speaker interface {
	Speak(text string, gender tts.Gender)
}

// Listener is the slice of the speech-input adapter the session needs: any
// active capture is stopped when a question is submitted.
type Listener interface {
	StopListening()
}

// CorpusSource exposes the current corpus.
type CorpusSource interface {
	Current() corpus.Corpus
}
