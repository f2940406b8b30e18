// Package extract pulls plain text out of source documents.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"docrag/internal/util"
)

// Extractor returns the text of a document one page at a time.
type Extractor interface {
	ExtractPages(ctx context.Context, path string) ([]string, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, path string) ([]string, error)

func (f ExtractorFunc) ExtractPages(ctx context.Context, path string) ([]string, error) {
	return f(ctx, path)
}

// PDFExtractor reads PDFs with ledongthuc/pdf. Layout is not preserved.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

func (e *PDFExtractor) ExtractPages(ctx context.Context, path string) (pages []string, err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", util.ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat pdf: %w", statErr)
	}
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	// the reader panics on some malformed content streams
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("extract pdf text: malformed document: %v", rec)
		}
	}()

	n := r.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("extract pdf text page %d: %w", i, err)
		}
		pages = append(pages, util.SanitizeText(text))
	}
	return pages, nil
}

// JoinPages joins non-empty pages with a newline.
func JoinPages(pages []string) string {
	kept := make([]string, 0, len(pages))
	for _, p := range pages {
		if strings.TrimSpace(p) == "" {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, "\n")
}
