// Package tts adapts the host platform's text-to-speech surface: a voice list
// that populates asynchronously, a speak/cancel pair, and a speaking flag.
// Synthesis happens on the host device; this side only normalizes text,
// selects a voice, and fires the utterance.
package tts

import (
	"log"
	"strings"
)

// Gender is the configured voice preference.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Voice describes one entry of the host's voice list.
type Voice struct {
	Name    string
	Lang    string
	Default bool
}

// Utterance is one synthesis request sent to the host. An empty VoiceName
// tells the host to use its default voice.
type Utterance struct {
	Text      string
	Lang      string
	VoiceName string
	Rate      float64
	Pitch     float64
}

// Synthesizer is the host speech-output capability. Voices may return a
// different list on every call while the host is still loading voices.
type Synthesizer interface {
	Available() bool
	Voices() []Voice
	Speaking() bool
	Cancel()
	Speak(u Utterance) error
}

// Speaker is the speech-output adapter: fire-and-forget playback with
// last-call-wins pre-emption. Synthesis failures are logged and swallowed;
// voice output is best effort and never blocks the conversation.
type Speaker struct {
	synth Synthesizer
	lang  string
}

func NewSpeaker(synth Synthesizer, lang string) *Speaker {
	return &Speaker{synth: synth, lang: lang}
}

// Available reports whether the host exposes speech output at all.
func (s *Speaker) Available() bool {
	return s.synth != nil && s.synth.Available()
}

// Speak normalizes text and starts playback on the host, cancelling any
// utterance already playing. It is a no-op when the capability is absent or
// the text is empty, and it does not wait for playback to finish.
func (s *Speaker) Speak(text string, gender Gender) {
	if !s.Available() || text == "" {
		return
	}
	if s.synth.Speaking() {
		s.synth.Cancel()
	}

	clean := Normalize(text)
	u := Utterance{
		Text:  clean,
		Lang:  s.lang,
		Rate:  0.9,
		Pitch: 1,
	}
	if v, ok := s.pickVoice(gender); ok {
		u.VoiceName = v.Name
	} else {
		log.Printf("tts: no %s voice found, using host default", s.lang)
	}

	if err := s.synth.Speak(u); err != nil {
		log.Printf("tts: synthesis failed: %v", err)
	}
}

// pickVoice evaluates the voice list fresh on every call: filter to the
// configured locale, prefer a name carrying a gender token, else the first
// locale match. No locale match at all falls through to the host default.
func (s *Speaker) pickVoice(gender Gender) (Voice, bool) {
	var local []Voice
	for _, v := range s.synth.Voices() {
		if v.Lang == s.lang {
			local = append(local, v)
		}
	}
	if len(local) == 0 {
		return Voice{}, false
	}
	for _, v := range local {
		if matchesGender(v.Name, gender) {
			return v, true
		}
	}
	return local[0], true
}

func matchesGender(name string, gender Gender) bool {
	n := strings.ToLower(name)
	switch gender {
	case GenderFemale:
		return strings.Contains(n, "female") || strings.Contains(n, "perempuan")
	default:
		// "male" is a substring of "female", so it only counts on its own.
		return (strings.Contains(n, "male") && !strings.Contains(n, "female")) ||
			strings.Contains(n, "laki")
	}
}
