package ingest

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// Extracted is the parsed form of one document: per page (in document order),
// the raw text items that page carries.
type Extracted struct {
	Pages [][]string
}

// Extractor is the external PDF text-extraction capability.
type Extractor interface {
	Extract(ctx context.Context, raw []byte) (*Extracted, error)
}

// PDFExtractor extracts text items with the pure-Go pdf reader.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

func (*PDFExtractor) Extract(ctx context.Context, raw []byte) (*Extracted, error) {
	r, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	total := r.NumPage()
	ex := &Extracted{Pages: make([][]string, 0, total)}
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			ex.Pages = append(ex.Pages, nil)
			continue
		}
		content := page.Content()
		items := make([]string, 0, len(content.Text))
		for _, t := range content.Text {
			items = append(items, t.S)
		}
		ex.Pages = append(ex.Pages, items)
	}
	return ex, nil
}
