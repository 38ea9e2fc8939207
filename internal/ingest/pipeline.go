// Package ingest turns a batch of uploaded PDF files into the single text
// corpus the assistant answers from. Files are parsed concurrently, assembled
// in selection order, and the corpus store is replaced all-or-nothing: a
// single bad file rejects the whole batch and clears the store.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/skppbmd-afk/Pelayanan-Petani/internal/corpus"
)

// ErrNoFiles is returned when Ingest is called with an empty batch.
var ErrNoFiles = errors.New("ingest: no files provided")

// File is one uploaded document.
type File struct {
	Name string
	Data []byte
}

// Pipeline reads, parses and assembles upload batches. One batch runs at a
// time; Processing lets the caller disable further uploads meanwhile.
type Pipeline struct {
	extractor Extractor
	store     *corpus.Store

	mu         sync.Mutex
	processing bool
}

func NewPipeline(extractor Extractor, store *corpus.Store) *Pipeline {
	return &Pipeline{extractor: extractor, store: store}
}

// Processing reports whether a batch is currently being ingested.
func (p *Pipeline) Processing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.processing
}

// Ingest parses every file concurrently and replaces the stored corpus with
// the concatenation of their text in the original file order. On any failure
// the store is cleared entirely; there is no partial corpus.
func (p *Pipeline) Ingest(ctx context.Context, files []File) error {
	if len(files) == 0 {
		return ErrNoFiles
	}

	p.mu.Lock()
	if p.processing {
		p.mu.Unlock()
		return fmt.Errorf("ingest: batch already in progress")
	}
	p.processing = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.processing = false
		p.mu.Unlock()
	}()

	texts := make([]string, len(files))
	errs := make([]error, len(files))
	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f File) {
			defer wg.Done()
			text, err := p.extractFile(ctx, f)
			if err != nil {
				errs[i] = fmt.Errorf("gagal memproses file %s: %w", f.Name, err)
				return
			}
			texts[i] = text
		}(i, f)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			log.Printf("ingest: %v", err)
			if clearErr := p.store.Clear(ctx); clearErr != nil {
				log.Printf("ingest: clearing corpus after failure: %v", clearErr)
			}
			return err
		}
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	c := corpus.Corpus{
		Text:        strings.Join(texts, "\n\n"),
		SourceNames: names,
	}
	if err := p.store.Replace(ctx, c); err != nil {
		return fmt.Errorf("ingest: storing corpus: %w", err)
	}
	log.Printf("ingest: corpus replaced from %d file(s), %d chars", len(files), len(c.Text))
	return nil
}

// extractFile produces one file's text block: pages in document order, text
// items joined with single spaces, wrapped in document start/end markers.
func (p *Pipeline) extractFile(ctx context.Context, f File) (string, error) {
	ex, err := p.extractor.Extract(ctx, f.Data)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "--- MULAI DOKUMEN: %s ---\n\n", f.Name)
	for _, items := range ex.Pages {
		b.WriteString(strings.Join(items, " "))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n\n--- AKHIR DOKUMEN: %s ---", f.Name)
	return b.String(), nil
}
