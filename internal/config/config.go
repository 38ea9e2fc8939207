package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	HTTPAddress   string
	GeminiModelID string
	SpeechLang    string
	DataDir       string
}

// Load reads environment variables and returns Config with sane defaults.
// The Gemini key stays in the environment and is read per call; a missing
// one surfaces as a user-visible diagnostic at question time, so here it
// only rates a warning.
func Load() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file")
	}

	addr := os.Getenv("HTTP_ADDRESS")
	if addr == "" {
		addr = ":8080"
	}

	if os.Getenv("GEMINI_API_KEY") == "" {
		log.Println("Warning: GEMINI_API_KEY not set - questions will return a configuration diagnostic")
	}

	geminiModel := os.Getenv("GEMINI_MODEL_ID")
	if geminiModel == "" {
		geminiModel = "gemini-2.5-flash"
	}

	speechLang := os.Getenv("SPEECH_LANG")
	if speechLang == "" {
		speechLang = "id-ID"
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}

	log.Printf("config: HTTP_ADDRESS=%s model=%s lang=%s data=%s", addr, geminiModel, speechLang, dataDir)
	return Config{
		HTTPAddress:   addr,
		GeminiModelID: geminiModel,
		SpeechLang:    speechLang,
		DataDir:       dataDir,
	}
}
