package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGemini_NoKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	c := NewGeminiClient("model")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.Generate(ctx, "hi"); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestGemini_KeyReadPerCall(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-goog-api-key") != "late-key" {
			t.Errorf("expected late-key header, got %q", r.Header.Get("x-goog-api-key"))
		}
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer srv.Close()
	c := NewGeminiClient("model")
	c.HTTPClient = &http.Client{Timeout: 1 * time.Second, Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		req.URL.Scheme = "http"
		req.URL.Host = srv.Listener.Addr().String()
		return http.DefaultTransport.RoundTrip(req)
	})}
	if _, err := c.Generate(context.Background(), "hi"); !errors.Is(err, ErrNoAPIKey) {
		t.Fatalf("expected ErrNoAPIKey before the key is exported, got %v", err)
	}
	t.Setenv("GEMINI_API_KEY", "late-key")
	got, err := c.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("generate after exporting key: %v", err)
	}
	if got != "ok" {
		t.Fatalf("unexpected answer %q", got)
	}
}

func TestGemini_HTTPFailures(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status_non_2xx", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(500); _, _ = w.Write([]byte("oops")) }},
		{"bad_json", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("not-json")) }},
		{"empty_candidates", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(200)
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		}},
		{"candidate_without_text", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(200)
			_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[]}}]}`))
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()
			t.Setenv("GEMINI_API_KEY", "key")
			c := NewGeminiClient("model")
			c.HTTPClient = &http.Client{Timeout: 1 * time.Second, Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
				req.URL.Scheme = "http"
				req.URL.Host = srv.Listener.Addr().String()
				return http.DefaultTransport.RoundTrip(req)
			})}
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if _, err := c.Generate(ctx, "hi"); err == nil {
				t.Fatalf("expected error; got nil")
			}
		})
	}
}

func TestGemini_JoinsParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Halo "},{"text":"dunia"}]}}]}`))
	}))
	defer srv.Close()
	t.Setenv("GEMINI_API_KEY", "key")
	c := NewGeminiClient("model")
	c.HTTPClient = &http.Client{Timeout: 1 * time.Second, Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		req.URL.Scheme = "http"
		req.URL.Host = srv.Listener.Addr().String()
		return http.DefaultTransport.RoundTrip(req)
	})}
	got, err := c.Generate(context.Background(), "hi")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "Halo dunia" {
		t.Fatalf("unexpected answer %q", got)
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type fakeGenerator struct {
	reply  string
	err    error
	prompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func TestAnswerer_MissingKeyIsDiagnosticString(t *testing.T) {
	a := NewAnswerer(&fakeGenerator{err: ErrNoAPIKey})
	got := a.Ask(context.Background(), "corpus", "pertanyaan")
	if !strings.Contains(got, "API_KEY") {
		t.Fatalf("expected configuration diagnostic, got %q", got)
	}
}

func TestAnswerer_TransportErrorIsDiagnosticString(t *testing.T) {
	a := NewAnswerer(&fakeGenerator{err: errors.New("boom")})
	got := a.Ask(context.Background(), "corpus", "pertanyaan")
	if !strings.Contains(got, "Maaf") || !strings.Contains(got, "boom") {
		t.Fatalf("expected transport diagnostic, got %q", got)
	}
}

func TestAnswerer_PromptEmbedsCorpusAndQuestion(t *testing.T) {
	gen := &fakeGenerator{reply: "jawaban"}
	a := NewAnswerer(gen)
	got := a.Ask(context.Background(), "ISI-KORPUS", "berapa luas lahan?")
	if got != "jawaban" {
		t.Fatalf("expected passthrough answer, got %q", got)
	}
	if !strings.Contains(gen.prompt, "ISI-KORPUS") {
		t.Fatalf("prompt missing corpus text: %q", gen.prompt)
	}
	if !strings.Contains(gen.prompt, `"berapa luas lahan?"`) {
		t.Fatalf("prompt missing literal question: %q", gen.prompt)
	}
	if !strings.Contains(gen.prompt, "HANYA berdasarkan konteks") {
		t.Fatalf("prompt missing grounding instruction: %q", gen.prompt)
	}
}
