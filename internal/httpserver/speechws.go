package httpserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/skppbmd-afk/Pelayanan-Petani/internal/stt"
	"github.com/skppbmd-afk/Pelayanan-Petani/internal/tts"
)

// speechWSMessage is the single frame format on the speech bridge.
// Client -> server types: "hello", "voices", "result", "end", "error",
// "speaking". Server -> client types: "listen", "abort", "speak", "cancel",
// "transcript".
type speechWSMessage struct {
	Type string `json:"type"`
	// hello
	STT bool `json:"stt,omitempty"`
	TTS bool `json:"tts,omitempty"`
	// voices
	Voices []wsVoice `json:"voices,omitempty"`
	// result
	Segments []wsSegment `json:"segments,omitempty"`
	// error
	Message string `json:"message,omitempty"`
	// speaking
	Active bool `json:"active,omitempty"`
	// listen / speak
	Lang      string  `json:"lang,omitempty"`
	Interim   bool    `json:"interim,omitempty"`
	Text      string  `json:"text,omitempty"`
	VoiceName string  `json:"voiceName,omitempty"`
	Rate      float64 `json:"rate,omitempty"`
	Pitch     float64 `json:"pitch,omitempty"`
}

type wsVoice struct {
	Name    string `json:"name"`
	Lang    string `json:"lang"`
	Default bool   `json:"default,omitempty"`
}

type wsSegment struct {
	Text  string `json:"text"`
	Final bool   `json:"final"`
}

var speechUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// The shell serves the client itself; restrict in production.
		return true
	},
}

// SpeechHub binds at most one host client at a time and exposes its speech
// capabilities to the core adapters. No bound host means both capabilities
// report unavailable and the affordances stay disabled.
type SpeechHub struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	sttOK   bool
	ttsOK   bool
	voices  []tts.Voice
	playing bool

	events chan stt.Event
}

func NewSpeechHub() *SpeechHub {
	return &SpeechHub{events: make(chan stt.Event, 16)}
}

// Recognizer returns the hub's speech-input capability view.
func (h *SpeechHub) Recognizer() stt.Recognizer { return hubRecognizer{h} }

// Synthesizer returns the hub's speech-output capability view.
func (h *SpeechHub) Synthesizer() tts.Synthesizer { return hubSynthesizer{h} }

// Handle upgrades the request and serves one host connection. A newer host
// replaces the current one.
func (h *SpeechHub) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := speechUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("speechws: upgrade error: %v", err)
		return
	}

	h.mu.Lock()
	if h.conn != nil {
		_ = h.conn.Close()
	}
	h.conn = conn
	h.sttOK, h.ttsOK = false, false
	h.voices = nil
	h.playing = false
	h.mu.Unlock()
	log.Printf("speechws: host connected from %s", r.RemoteAddr)

	h.readLoop(conn)
}

func (h *SpeechHub) readLoop(conn *websocket.Conn) {
	defer h.detach(conn)
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		var m speechWSMessage
		if json.Unmarshal(data, &m) != nil {
			continue
		}
		switch m.Type {
		case "hello":
			h.mu.Lock()
			h.sttOK, h.ttsOK = m.STT, m.TTS
			h.mu.Unlock()
			log.Printf("speechws: host capabilities stt=%v tts=%v", m.STT, m.TTS)
		case "voices":
			// The host voice list loads asynchronously and may arrive
			// several times; the latest list wins.
			list := make([]tts.Voice, 0, len(m.Voices))
			for _, v := range m.Voices {
				list = append(list, tts.Voice{Name: v.Name, Lang: v.Lang, Default: v.Default})
			}
			h.mu.Lock()
			h.voices = list
			h.mu.Unlock()
		case "result":
			segs := make([]stt.Segment, 0, len(m.Segments))
			for _, sg := range m.Segments {
				segs = append(segs, stt.Segment{Text: sg.Text, Final: sg.Final})
			}
			h.emit(stt.Event{Kind: stt.EventResult, Segments: segs})
		case "end":
			h.emit(stt.Event{Kind: stt.EventEnd})
		case "error":
			h.emit(stt.Event{Kind: stt.EventError, Err: wsRemoteError(m.Message)})
		case "speaking":
			h.mu.Lock()
			h.playing = m.Active
			h.mu.Unlock()
		}
	}
}

// detach clears host state when its connection goes away. A capture that was
// active ends with the host.
func (h *SpeechHub) detach(conn *websocket.Conn) {
	_ = conn.Close()
	h.mu.Lock()
	if h.conn != conn {
		h.mu.Unlock()
		return
	}
	h.conn = nil
	h.sttOK, h.ttsOK = false, false
	h.voices = nil
	h.playing = false
	h.mu.Unlock()
	h.emit(stt.Event{Kind: stt.EventEnd})
	log.Printf("speechws: host disconnected")
}

func (h *SpeechHub) emit(ev stt.Event) {
	if ev.Kind == stt.EventResult {
		// A slow consumer only loses intermediate best-guess updates.
		select {
		case h.events <- ev:
		default:
		}
		return
	}
	// End and error events decide the listening flag and must arrive.
	h.events <- ev
}

// PushTranscript mirrors the adapter's best-guess transcript back to the host
// so its input field can follow the recognition.
func (h *SpeechHub) PushTranscript(text string) {
	_ = h.send(speechWSMessage{Type: "transcript", Text: text})
}

func (h *SpeechHub) send(m speechWSMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conn == nil {
		return errNoHost
	}
	return h.conn.WriteJSON(m)
}

type wsRemoteError string

func (e wsRemoteError) Error() string { return "host recognition error: " + string(e) }

var errNoHost = errors.New("speechws: no host connected")

// hubRecognizer adapts the hub to stt.Recognizer.
type hubRecognizer struct{ h *SpeechHub }

func (r hubRecognizer) Available() bool {
	r.h.mu.Lock()
	defer r.h.mu.Unlock()
	return r.h.conn != nil && r.h.sttOK
}

func (r hubRecognizer) Start(lang string) error {
	return r.h.send(speechWSMessage{Type: "listen", Lang: lang, Interim: true})
}

func (r hubRecognizer) Abort() {
	_ = r.h.send(speechWSMessage{Type: "abort"})
}

func (r hubRecognizer) Events() <-chan stt.Event { return r.h.events }

// hubSynthesizer adapts the hub to tts.Synthesizer.
type hubSynthesizer struct{ h *SpeechHub }

func (s hubSynthesizer) Available() bool {
	s.h.mu.Lock()
	defer s.h.mu.Unlock()
	return s.h.conn != nil && s.h.ttsOK
}

func (s hubSynthesizer) Voices() []tts.Voice {
	s.h.mu.Lock()
	defer s.h.mu.Unlock()
	out := make([]tts.Voice, len(s.h.voices))
	copy(out, s.h.voices)
	return out
}

func (s hubSynthesizer) Speaking() bool {
	s.h.mu.Lock()
	defer s.h.mu.Unlock()
	return s.h.playing
}

func (s hubSynthesizer) Cancel() {
	_ = s.h.send(speechWSMessage{Type: "cancel"})
	s.h.mu.Lock()
	s.h.playing = false
	s.h.mu.Unlock()
}

func (s hubSynthesizer) Speak(u tts.Utterance) error {
	err := s.h.send(speechWSMessage{
		Type:      "speak",
		Text:      u.Text,
		Lang:      u.Lang,
		VoiceName: u.VoiceName,
		Rate:      u.Rate,
		Pitch:     u.Pitch,
	})
	if err != nil {
		return err
	}
	s.h.mu.Lock()
	s.h.playing = true
	s.h.mu.Unlock()
	return nil
}
