package usecase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/docs-backend/internal/core/domain"
	"github.com/kirillkom/docs-backend/internal/core/ports"
)

const defaultMaxUploadBytes int64 = 20 << 20

type IngestDocumentUseCase struct {
	repo      ports.DocumentRepository
	storage   ports.ObjectStorage
	extractor ports.TextExtractor
	queue     ports.MessageQueue

	maxBytes     int64
	queueEnabled bool
}

type IngestOptions struct {
	MaxUploadBytes int64
	QueueEnabled   bool
}

func NewIngestDocumentUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	extractor ports.TextExtractor,
	queue ports.MessageQueue,
	opts IngestOptions,
) *IngestDocumentUseCase {
	maxBytes := opts.MaxUploadBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &IngestDocumentUseCase{
		repo:         repo,
		storage:      storage,
		extractor:    extractor,
		queue:        queue,
		maxBytes:     maxBytes,
		queueEnabled: opts.QueueEnabled,
	}
}

func (uc *IngestDocumentUseCase) Upload(ctx context.Context, upload domain.Upload) (*domain.Document, error) {
	filename := filepath.Base(strings.TrimSpace(upload.Filename))
	if filename == "" || filename == "." || filename == "/" {
		return nil, domain.NewPublicError(domain.ErrInvalidInput, "Filename is required")
	}
	if !uc.extractor.Supports(filename) {
		return nil, domain.NewPublicError(domain.ErrUnsupportedFormat, fmt.Sprintf("Unsupported format: %s", filepath.Ext(filename)))
	}

	raw, err := readLimited(upload.Body, uc.maxBytes)
	if err != nil {
		return nil, err
	}

	text, err := uc.extractor.Extract(ctx, filename, raw)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	storageKey := fmt.Sprintf("%s_%s", uuid.NewString(), sanitizeFilename(filename))
	location, err := uc.storage.Save(ctx, storageKey, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	title := strings.TrimSpace(upload.Title)
	if title == "" {
		title = strings.TrimSpace(strings.TrimSuffix(filename, filepath.Ext(filename)))
	}
	if title == "" {
		// Dotfiles such as ".txt" have no stem.
		title = filename
	}
	status := domain.SummaryNone
	if uc.queueEnabled {
		status = domain.SummaryPending
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		Title:         title,
		Content:       &text,
		FilePath:      location,
		Filename:      filename,
		MimeType:      upload.MimeType,
		Format:        formatOf(filename),
		OwnerID:       upload.OwnerID,
		SummaryStatus: status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		if delErr := uc.storage.Delete(ctx, location); delErr != nil {
			slog.Warn("orphaned_upload", "location", location, "error", delErr)
		}
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if uc.queueEnabled {
		if err := uc.queue.PublishDocumentUploaded(ctx, doc.ID); err != nil {
			slog.Warn("publish_upload_event_failed", "document_id", doc.ID, "error", err)
			if markErr := uc.repo.UpdateSummaryStatus(ctx, doc.ID, domain.SummaryNone, ""); markErr == nil {
				doc.SummaryStatus = domain.SummaryNone
			}
		}
	}

	return doc, nil
}

func readLimited(body io.Reader, maxBytes int64) ([]byte, error) {
	if body == nil {
		return nil, domain.NewPublicError(domain.ErrInvalidInput, "File is required")
	}
	raw, err := io.ReadAll(io.LimitReader(body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(raw)) > maxBytes {
		return nil, domain.NewPublicError(domain.ErrPayloadTooLarge, fmt.Sprintf("File exceeds the %d byte limit", maxBytes))
	}
	return raw, nil
}

func formatOf(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" {
		return "document.bin"
	}
	return base
}
