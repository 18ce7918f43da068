package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kirillkom/docs-backend/internal/core/domain"
	"github.com/kirillkom/docs-backend/internal/core/ports"
)

const (
	SummaryModeTruncate = "truncate"
	SummaryModeChunked  = "chunked"

	// EmptyContentSummary is stored for documents without any text.
	EmptyContentSummary = "Empty content"

	defaultSummaryMaxChars = 3000
	statusWriteTimeout     = 10 * time.Second
)

type SummaryOptions struct {
	Mode     string
	MaxChars int
}

// SummarizeDocumentUseCase drives a document through pending -> processing -> ready|failed.
type SummarizeDocumentUseCase struct {
	repo       ports.DocumentRepository
	summarizer ports.Summarizer
	chunker    ports.Chunker
	opts       SummaryOptions

	observer func(domain.SummaryResult, error)
}

func NewSummarizeDocumentUseCase(
	repo ports.DocumentRepository,
	summarizer ports.Summarizer,
	chunker ports.Chunker,
	opts SummaryOptions,
) *SummarizeDocumentUseCase {
	if opts.MaxChars <= 0 {
		opts.MaxChars = defaultSummaryMaxChars
	}
	if opts.Mode != SummaryModeChunked {
		opts.Mode = SummaryModeTruncate
	}
	return &SummarizeDocumentUseCase{
		repo:       repo,
		summarizer: summarizer,
		chunker:    chunker,
		opts:       opts,
	}
}

// OnSummary registers a callback invoked after every model run, e.g. for metrics.
func (uc *SummarizeDocumentUseCase) OnSummary(fn func(domain.SummaryResult, error)) {
	uc.observer = fn
}

func (uc *SummarizeDocumentUseCase) Summarize(ctx context.Context, ownerID, id int64) (*domain.Document, error) {
	doc, err := loadOwned(ctx, uc.repo, ownerID, id)
	if err != nil {
		return nil, err
	}
	if err := uc.run(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (uc *SummarizeDocumentUseCase) ProcessByID(ctx context.Context, documentID int64) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}
	return uc.run(ctx, doc)
}

func (uc *SummarizeDocumentUseCase) run(ctx context.Context, doc *domain.Document) error {
	if err := uc.repo.UpdateSummaryStatus(ctx, doc.ID, domain.SummaryProcessing, ""); err != nil {
		return fmt.Errorf("set summary status=processing: %w", err)
	}

	summary, err := uc.GenerateSummary(ctx, doc.Text())
	if err != nil {
		return uc.fail(ctx, doc, err)
	}
	if err := uc.repo.SaveSummary(ctx, doc.ID, summary); err != nil {
		return uc.fail(ctx, doc, fmt.Errorf("save summary: %w", err))
	}

	doc.Summary = summary
	doc.SummaryStatus = domain.SummaryReady
	doc.SummaryError = ""
	return nil
}

// GenerateSummary applies the configured summary mode to text.
func (uc *SummarizeDocumentUseCase) GenerateSummary(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return EmptyContentSummary, nil
	}
	if uc.opts.Mode == SummaryModeChunked && uc.chunker != nil {
		return uc.summarizeChunked(ctx, text)
	}
	return uc.summarizeOnce(ctx, truncateRunes(text, uc.opts.MaxChars))
}

func (uc *SummarizeDocumentUseCase) summarizeChunked(ctx context.Context, text string) (string, error) {
	chunks := uc.chunker.Split(text)
	if len(chunks) <= 1 {
		return uc.summarizeOnce(ctx, truncateRunes(text, uc.opts.MaxChars))
	}

	partials := make([]string, 0, len(chunks))
	for idx, chunk := range chunks {
		partial, err := uc.summarizeOnce(ctx, chunk)
		if err != nil {
			return "", fmt.Errorf("summarize chunk %d/%d: %w", idx+1, len(chunks), err)
		}
		partials = append(partials, partial)
	}
	return uc.summarizeOnce(ctx, truncateRunes(strings.Join(partials, "\n"), uc.opts.MaxChars))
}

func (uc *SummarizeDocumentUseCase) summarizeOnce(ctx context.Context, text string) (string, error) {
	result, err := uc.summarizer.Summarize(ctx, text)
	if uc.observer != nil {
		uc.observer(result, err)
	}
	if err != nil {
		return "", fmt.Errorf("generate summary: %w", err)
	}
	summary := strings.TrimSpace(result.Text)
	if summary == "" {
		return "", domain.WrapError(domain.ErrTemporary, "generate summary", fmt.Errorf("model returned an empty summary"))
	}
	return summary, nil
}

func (uc *SummarizeDocumentUseCase) fail(ctx context.Context, doc *domain.Document, processErr error) error {
	// The caller's context may already be cancelled; the terminal status must still land.
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), statusWriteTimeout)
	defer cancel()
	if markErr := uc.repo.UpdateSummaryStatus(markCtx, doc.ID, domain.SummaryFailed, processErr.Error()); markErr != nil {
		return fmt.Errorf("%w; mark failed status: %v", processErr, markErr)
	}
	doc.SummaryStatus = domain.SummaryFailed
	doc.SummaryError = processErr.Error()
	return processErr
}

func truncateRunes(text string, limit int) string {
	if limit <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
