package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/docs-backend/internal/core/domain"
)

type chunkerFake struct {
	chunks []string
}

func (f chunkerFake) Split(string) []string { return f.chunks }

func TestSummarizeStoresSummaryAndMarksReady(t *testing.T) {
	repo := newDocRepoFake(domain.Document{ID: 1, Title: "t", Content: strPtr("long text"), OwnerID: 1})
	summarizer := &summarizerFake{text: " line1\nline2\nline3 "}
	uc := NewSummarizeDocumentUseCase(repo, summarizer, nil, SummaryOptions{})

	doc, err := uc.Summarize(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if doc.Summary != "line1\nline2\nline3" || doc.SummaryStatus != domain.SummaryReady {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if len(repo.statusCalls) != 1 || repo.statusCalls[0].status != domain.SummaryProcessing {
		t.Fatalf("expected processing status call, got %+v", repo.statusCalls)
	}
}

func TestSummarizeEmptyContentSkipsModel(t *testing.T) {
	repo := newDocRepoFake(domain.Document{ID: 1, Title: "t", Content: strPtr("  \n"), OwnerID: 1})
	summarizer := &summarizerFake{text: "unused"}
	uc := NewSummarizeDocumentUseCase(repo, summarizer, nil, SummaryOptions{})

	doc, err := uc.Summarize(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if doc.Summary != EmptyContentSummary {
		t.Fatalf("expected %q, got %q", EmptyContentSummary, doc.Summary)
	}
	if len(summarizer.inputs) != 0 {
		t.Fatalf("model must not be called for empty content")
	}
}

func TestSummarizeTruncatesByRunes(t *testing.T) {
	text := strings.Repeat("한", 3100)
	repo := newDocRepoFake(domain.Document{ID: 1, Title: "t", Content: &text, OwnerID: 1})
	summarizer := &summarizerFake{text: "ok"}
	uc := NewSummarizeDocumentUseCase(repo, summarizer, nil, SummaryOptions{})

	if _, err := uc.Summarize(context.Background(), 1, 1); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if got := len([]rune(summarizer.inputs[0])); got != 3000 {
		t.Fatalf("expected 3000 runes sent to model, got %d", got)
	}
}

func TestSummarizeChunkedReducesPartialSummaries(t *testing.T) {
	repo := newDocRepoFake(domain.Document{ID: 1, Title: "t", Content: strPtr("abc"), OwnerID: 1})
	summarizer := &summarizerFake{text: "part"}
	uc := NewSummarizeDocumentUseCase(repo, summarizer, chunkerFake{chunks: []string{"a", "b", "c"}}, SummaryOptions{Mode: SummaryModeChunked})

	if _, err := uc.Summarize(context.Background(), 1, 1); err != nil {
		t.Fatalf("Summarize() error = %v", err)
	}
	if len(summarizer.inputs) != 4 {
		t.Fatalf("expected 3 map calls and 1 reduce call, got %d", len(summarizer.inputs))
	}
	if summarizer.inputs[3] != "part\npart\npart" {
		t.Fatalf("unexpected reduce input %q", summarizer.inputs[3])
	}
}

func TestSummarizeFailureMarksDocumentFailed(t *testing.T) {
	repo := newDocRepoFake(domain.Document{ID: 1, Title: "t", Content: strPtr("text"), OwnerID: 1})
	summarizer := &summarizerFake{err: domain.WrapError(domain.ErrTemporary, "llm", errors.New("503"))}
	uc := NewSummarizeDocumentUseCase(repo, summarizer, nil, SummaryOptions{})

	_, err := uc.Summarize(context.Background(), 1, 1)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
	last := repo.statusCalls[len(repo.statusCalls)-1]
	if last.status != domain.SummaryFailed || !strings.Contains(last.errMsg, "503") {
		t.Fatalf("expected failed status with message, got %+v", last)
	}
}

func TestProcessByIDMarksFailedAfterCancellation(t *testing.T) {
	repo := newDocRepoFake(domain.Document{ID: 1, Title: "t", Content: strPtr("text"), OwnerID: 1})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	uc := NewSummarizeDocumentUseCase(repo, cancellingSummarizer{cancel: cancel}, nil, SummaryOptions{})

	err := uc.ProcessByID(ctx, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if strings.Contains(err.Error(), "mark failed status") {
		t.Fatalf("failed status was not written: %v", err)
	}
	doc, _ := repo.GetByID(context.Background(), 1)
	if doc.SummaryStatus != domain.SummaryFailed {
		t.Fatalf("expected failed status, got %s", doc.SummaryStatus)
	}
}

func TestSummarizeHidesOtherOwnersDocument(t *testing.T) {
	repo := newDocRepoFake(domain.Document{ID: 1, Title: "t", Content: strPtr("text"), OwnerID: 2})
	uc := NewSummarizeDocumentUseCase(repo, &summarizerFake{text: "x"}, nil, SummaryOptions{})

	if _, err := uc.Summarize(context.Background(), 1, 1); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestProcessByIDIgnoresOwnership(t *testing.T) {
	repo := newDocRepoFake(domain.Document{ID: 4, Title: "t", Content: strPtr("text"), OwnerID: 9})
	uc := NewSummarizeDocumentUseCase(repo, &summarizerFake{text: "sum"}, nil, SummaryOptions{})

	var observed int
	uc.OnSummary(func(domain.SummaryResult, error) { observed++ })

	if err := uc.ProcessByID(context.Background(), 4); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	doc, _ := repo.GetByID(context.Background(), 4)
	if doc.Summary != "sum" || doc.SummaryStatus != domain.SummaryReady {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if observed != 1 {
		t.Fatalf("expected observer to be called once, got %d", observed)
	}
}

func TestProcessByIDMissingDocument(t *testing.T) {
	uc := NewSummarizeDocumentUseCase(newDocRepoFake(), &summarizerFake{}, nil, SummaryOptions{})

	if err := uc.ProcessByID(context.Background(), 404); !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}
