package llm

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Generator produces one full response for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Answerer turns a corpus plus a question into a renderable answer string.
// It never returns an error: transport and configuration failures become
// user-facing diagnostic text in the same position a real answer would take,
// so the conversation log stays uniform.
type Answerer struct {
	gen Generator
}

func NewAnswerer(gen Generator) *Answerer {
	return &Answerer{gen: gen}
}

const diagNoKey = "Error: API_KEY tidak dikonfigurasi. Silakan atur variabel lingkungan GEMINI_API_KEY."

// Ask embeds the full corpus as grounding context and instructs the model to
// answer only from it, in Indonesian.
func (a *Answerer) Ask(ctx context.Context, corpusText, question string) string {
	prompt := fmt.Sprintf(`Anda adalah asisten AI yang sangat cerdas dan relevan. Tugas Anda adalah menjawab pertanyaan pengguna HANYA berdasarkan konteks dokumen yang disediakan. Jangan gunakan pengetahuan di luar dokumen ini. Jawablah selalu dalam Bahasa Indonesia.

--- KONTEKS DOKUMEN PDF ---
%s
--- AKHIR KONTEKS ---

Pertanyaan Pengguna: "%s"

Jawaban Anda:`, corpusText, question)

	answer, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, ErrNoAPIKey) {
			log.Println(diagNoKey)
			return diagNoKey
		}
		log.Printf("gemini call failed: %v", err)
		return fmt.Sprintf("Maaf, terjadi kesalahan saat menghubungi AI: %v", err)
	}
	return answer
}
