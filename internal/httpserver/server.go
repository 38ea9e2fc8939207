// Package httpserver is the hosting shell around the core: a thin echo API
// the chat and settings screens call, plus the websocket bridge that lends
// the host's speech capabilities to the core adapters.
package httpserver

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/skppbmd-afk/Pelayanan-Petani/internal/agent"
	"github.com/skppbmd-afk/Pelayanan-Petani/internal/corpus"
	"github.com/skppbmd-afk/Pelayanan-Petani/internal/ingest"
	"github.com/skppbmd-afk/Pelayanan-Petani/internal/tts"
)

// Settings is owned by the shell and only observed by the core at call time.
type Settings struct {
	mu          sync.Mutex
	voiceGender tts.Gender
}

func NewSettings() *Settings {
	return &Settings{voiceGender: tts.GenderMale}
}

// VoiceGender returns the current preference; handed to the session as its
// gender getter.
func (s *Settings) VoiceGender() tts.Gender {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voiceGender
}

func (s *Settings) SetVoiceGender(g tts.Gender) {
	s.mu.Lock()
	s.voiceGender = g
	s.mu.Unlock()
}

// Server bundles the echo router and its collaborators.
type Server struct {
	Echo *echo.Echo

	store    *corpus.Store
	pipeline *ingest.Pipeline
	session  *agent.Session
	hub      *SpeechHub
	settings *Settings
}

// New constructs the configured echo server with all routes.
func New(store *corpus.Store, pipeline *ingest.Pipeline, session *agent.Session, hub *SpeechHub, settings *Settings) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{Echo: e, store: store, pipeline: pipeline, session: session, hub: hub, settings: settings}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.POST("/api/documents", s.handleUpload)
	e.DELETE("/api/documents", s.handleClear)
	e.GET("/api/corpus", s.handleCorpusStatus)
	e.POST("/api/chat", s.handleChat)
	e.GET("/api/messages", s.handleMessages)
	e.GET("/api/settings", s.handleGetSettings)
	e.POST("/api/settings", s.handleSetSettings)
	e.GET("/ws/speech", func(c echo.Context) error {
		hub.Handle(c.Response(), c.Request())
		return nil
	})

	return s
}

func (s *Server) handleUpload(c echo.Context) error {
	if s.pipeline.Processing() {
		return c.JSON(http.StatusConflict, echo.Map{"error": "pemrosesan dokumen sedang berjalan"})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "multipart form required"})
	}
	parts := form.File["files"]
	if len(parts) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "no files uploaded"})
	}

	files := make([]ingest.File, 0, len(parts))
	for _, part := range parts {
		src, err := part.Open()
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "gagal membaca file: " + part.Filename})
		}
		data, err := io.ReadAll(src)
		_ = src.Close()
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "gagal membaca file: " + part.Filename})
		}
		files = append(files, ingest.File{Name: part.Filename, Data: data})
	}

	ingestErr := s.pipeline.Ingest(c.Request().Context(), files)
	// Success replaced the corpus, failure cleared it; the session must see
	// the change either way.
	s.session.CorpusChanged()
	if ingestErr != nil {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": ingestErr.Error()})
	}
	return c.JSON(http.StatusOK, echo.Map{"sourceNames": s.store.Current().SourceNames})
}

func (s *Server) handleClear(c echo.Context) error {
	if err := s.store.Clear(c.Request().Context()); err != nil {
		log.Printf("httpserver: clearing corpus: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "gagal menghapus dokumen"})
	}
	s.session.CorpusChanged()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleCorpusStatus(c echo.Context) error {
	cur := s.store.Current()
	names := cur.SourceNames
	if names == nil {
		names = []string{}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"present":     cur.Present(),
		"sourceNames": names,
		"processing":  s.pipeline.Processing(),
	})
}

type chatRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	// The query must outlive this request; the client polls /api/messages
	// for the outcome.
	err := s.session.Submit(context.Background(), req.Text)
	switch {
	case errors.Is(err, agent.ErrEmptyInput):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "pertanyaan kosong"})
	case errors.Is(err, agent.ErrNoCorpus):
		return c.JSON(http.StatusConflict, echo.Map{"error": "belum ada dokumen yang dipelajari"})
	case errors.Is(err, agent.ErrBusy):
		return c.JSON(http.StatusConflict, echo.Map{"error": "masih menunggu jawaban sebelumnya"})
	case err != nil:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": err.Error()})
	}
	return c.NoContent(http.StatusAccepted)
}

// wireMessage is the renderer-facing message shape, matching the client's
// expectations: the typing placeholder travels as isTyping.
type wireMessage struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Sender   string `json:"sender"`
	IsTyping bool   `json:"isTyping,omitempty"`
}

func (s *Server) handleMessages(c echo.Context) error {
	entries := s.session.Messages()
	out := make([]wireMessage, 0, len(entries))
	for _, e := range entries {
		out = append(out, wireMessage{
			ID:       e.ID,
			Text:     e.Text,
			Sender:   string(e.Sender),
			IsTyping: e.Kind == agent.KindTyping,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": out})
}

type settingsPayload struct {
	VoiceGender string `json:"voiceGender"`
}

func (s *Server) handleGetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, settingsPayload{VoiceGender: string(s.settings.VoiceGender())})
}

func (s *Server) handleSetSettings(c echo.Context) error {
	var req settingsPayload
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	switch tts.Gender(req.VoiceGender) {
	case tts.GenderMale, tts.GenderFemale:
		s.settings.SetVoiceGender(tts.Gender(req.VoiceGender))
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "voiceGender must be male or female"})
	}
	return c.JSON(http.StatusOK, settingsPayload{VoiceGender: string(s.settings.VoiceGender())})
}
