package extractor

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kirillkom/docs-backend/internal/core/domain"
	"github.com/kirillkom/docs-backend/internal/infrastructure/extractor/html"
	"github.com/kirillkom/docs-backend/internal/infrastructure/extractor/pdf"
	"github.com/kirillkom/docs-backend/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/docs-backend/internal/infrastructure/extractor/spreadsheet"
)

// Format extracts plain text from one file format.
type Format interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// Observer receives the outcome of every extraction attempt.
type Observer func(format string, duration time.Duration, err error)

type Registry struct {
	formats  map[string]Format
	observer Observer
}

func NewRegistry() *Registry {
	return &Registry{formats: make(map[string]Format)}
}

// NewDefaultRegistry registers txt, md, csv, pdf, html and xlsx.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	text := plaintext.NewExtractor()
	r.Register("txt", text)
	r.Register("md", text)
	r.Register("csv", text)
	r.Register("pdf", pdf.NewExtractor())
	markup := html.NewExtractor()
	r.Register("html", markup)
	r.Register("htm", markup)
	r.Register("xlsx", spreadsheet.NewExtractor())
	return r
}

func (r *Registry) Register(ext string, f Format) {
	r.formats[normalizeExt(ext)] = f
}

func (r *Registry) SetObserver(o Observer) {
	r.observer = o
}

func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.formats))
	for ext := range r.formats {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Supports(filename string) bool {
	_, ok := r.formats[normalizeExt(filepath.Ext(filename))]
	return ok
}

func (r *Registry) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	ext := normalizeExt(filepath.Ext(filename))
	f, ok := r.formats[ext]
	if !ok {
		return "", domain.NewPublicError(domain.ErrUnsupportedFormat, "Unsupported file format")
	}

	started := time.Now()
	text, err := f.Extract(ctx, data)
	if r.observer != nil {
		r.observer(ext, time.Since(started), err)
	}
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", domain.WrapError(domain.ErrExtraction, "extract "+ext, err)
	}
	return strings.ReplaceAll(text, "\x00", ""), nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
