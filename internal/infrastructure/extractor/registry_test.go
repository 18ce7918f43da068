package extractor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kirillkom/docs-backend/internal/core/domain"
)

type formatFunc func(ctx context.Context, data []byte) (string, error)

func (f formatFunc) Extract(ctx context.Context, data []byte) (string, error) { return f(ctx, data) }

func TestDefaultRegistrySupports(t *testing.T) {
	r := NewDefaultRegistry()
	for _, name := range []string{"a.txt", "b.PDF", "c.md", "d.xlsx", "e.html"} {
		if !r.Supports(name) {
			t.Fatalf("expected %s to be supported", name)
		}
	}
	for _, name := range []string{"a.exe", "noext", "x.docx"} {
		if r.Supports(name) {
			t.Fatalf("expected %s to be unsupported", name)
		}
	}
}

func TestDefaultRegistryFormats(t *testing.T) {
	got := NewDefaultRegistry().Formats()
	want := []string{"csv", "htm", "html", "md", "pdf", "txt", "xlsx"}
	if len(got) != len(want) {
		t.Fatalf("Formats() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Formats() = %v, want %v", got, want)
		}
	}
}

func TestExtractBinaryTextFileIsExtractionKind(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0x00, 0x00, 0x00, 0x0d, 'I', 'H', 'D', 'R', 0xff, 0xfe}
	_, err := NewDefaultRegistry().Extract(context.Background(), "image.txt", png)
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
}

func TestExtractStripsNUL(t *testing.T) {
	r := NewRegistry()
	r.Register(".txt", formatFunc(func(context.Context, []byte) (string, error) {
		return "a\x00b\x00c", nil
	}))

	text, err := r.Extract(context.Background(), "x.txt", nil)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "abc" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestExtractUnsupportedFormat(t *testing.T) {
	_, err := NewRegistry().Extract(context.Background(), "x.exe", []byte("MZ"))
	if !domain.IsKind(err, domain.ErrUnsupportedFormat) {
		t.Fatalf("expected unsupported format, got %v", err)
	}
}

func TestExtractFailureIsExtractionKind(t *testing.T) {
	r := NewRegistry()
	var observed []string
	r.SetObserver(func(format string, _ time.Duration, err error) {
		if err != nil {
			observed = append(observed, format)
		}
	})
	r.Register("pdf", formatFunc(func(context.Context, []byte) (string, error) {
		return "", errors.New("broken xref")
	}))

	_, err := r.Extract(context.Background(), "bad.pdf", []byte("%PDF"))
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
	if len(observed) != 1 || observed[0] != "pdf" {
		t.Fatalf("unexpected observer calls: %v", observed)
	}
}

func TestExtractPlainTextEndToEnd(t *testing.T) {
	text, err := NewDefaultRegistry().Extract(context.Background(), "notes.txt", []byte("hello\x00 world"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "hello world" {
		t.Fatalf("unexpected text %q", text)
	}
}
