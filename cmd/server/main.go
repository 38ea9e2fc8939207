package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skppbmd-afk/Pelayanan-Petani/internal/agent"
	"github.com/skppbmd-afk/Pelayanan-Petani/internal/config"
	"github.com/skppbmd-afk/Pelayanan-Petani/internal/corpus"
	"github.com/skppbmd-afk/Pelayanan-Petani/internal/httpserver"
	"github.com/skppbmd-afk/Pelayanan-Petani/internal/ingest"
	"github.com/skppbmd-afk/Pelayanan-Petani/internal/llm"
	"github.com/skppbmd-afk/Pelayanan-Petani/internal/stt"
	"github.com/skppbmd-afk/Pelayanan-Petani/internal/tts"
)

func main() {
	// Include sub-second precision in all log timestamps
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	cfg := config.Load()

	store, err := corpus.NewStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("opening corpus store: %v", err)
	}
	defer store.Close()
	if cur := store.Current(); cur.Present() {
		log.Printf("corpus reloaded: %d file(s), %d chars", len(cur.SourceNames), len(cur.Text))
	}

	pipeline := ingest.NewPipeline(ingest.NewPDFExtractor(), store)

	hub := httpserver.NewSpeechHub()
	speaker := tts.NewSpeaker(hub.Synthesizer(), cfg.SpeechLang)
	listener := stt.NewListener(hub.Recognizer(), cfg.SpeechLang, hub.PushTranscript)

	answerer := llm.NewAnswerer(llm.NewGeminiClient(cfg.GeminiModelID))

	settings := httpserver.NewSettings()
	session := agent.NewSession(store, answerer, speaker, listener, settings.VoiceGender)
	// A corpus restored from disk greets the user the same way a fresh
	// ingestion does.
	session.CorpusChanged()

	srv := httpserver.New(store, pipeline, session, hub, settings)

	server := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           srv.Echo,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start server in background
	serverErrors := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s", cfg.HTTPAddress)
		serverErrors <- server.ListenAndServe()
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	case sig := <-sigChan:
		log.Printf("shutdown signal received: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = server.Close()
	}
}
