package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/docs-backend/internal/core/domain"
	"github.com/kirillkom/docs-backend/internal/core/ports"
)

var errNoFile = errors.New("document has no uploaded file")

type DocumentUseCase struct {
	repo    ports.DocumentRepository
	storage ports.ObjectStorage
}

func NewDocumentUseCase(repo ports.DocumentRepository, storage ports.ObjectStorage) *DocumentUseCase {
	return &DocumentUseCase{
		repo:    repo,
		storage: storage,
	}
}

func (uc *DocumentUseCase) Create(ctx context.Context, ownerID int64, input domain.DocumentInput) (*domain.Document, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, domain.NewPublicError(domain.ErrInvalidInput, "Title is required")
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		Title:         title,
		Content:       sanitizeContent(input.Content),
		OwnerID:       ownerID,
		SummaryStatus: domain.SummaryNone,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

func (uc *DocumentUseCase) List(ctx context.Context, ownerID int64) ([]domain.Document, error) {
	docs, err := uc.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	return docs, nil
}

func (uc *DocumentUseCase) Get(ctx context.Context, ownerID, id int64) (*domain.Document, error) {
	return loadOwned(ctx, uc.repo, ownerID, id)
}

func (uc *DocumentUseCase) Update(ctx context.Context, ownerID, id int64, patch domain.DocumentPatch) (*domain.Document, error) {
	doc, err := loadOwned(ctx, uc.repo, ownerID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, domain.NewPublicError(domain.ErrInvalidInput, "Title cannot be empty")
		}
		doc.Title = title
	}
	if patch.Content != nil {
		doc.Content = sanitizeContent(patch.Content)
	}
	doc.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}
	return doc, nil
}

func (uc *DocumentUseCase) Delete(ctx context.Context, ownerID, id int64) error {
	doc, err := loadOwned(ctx, uc.repo, ownerID, id)
	if err != nil {
		return err
	}
	if err := uc.repo.Delete(ctx, doc.ID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if doc.HasFile() {
		if err := uc.storage.Delete(ctx, doc.FilePath); err != nil {
			slog.Warn("stored_file_delete_failed", "document_id", doc.ID, "location", doc.FilePath, "error", err)
		}
	}
	return nil
}

func (uc *DocumentUseCase) OpenFile(ctx context.Context, ownerID, id int64) (*domain.Document, io.ReadCloser, error) {
	doc, err := loadOwned(ctx, uc.repo, ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	if !doc.HasFile() {
		return nil, nil, domain.WrapError(domain.ErrDocumentNotFound, "open file", errNoFile)
	}
	reader, err := uc.storage.Open(ctx, doc.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open stored file: %w", err)
	}
	return doc, reader, nil
}

// loadOwned hides documents of other owners behind the not-found kind.
func loadOwned(ctx context.Context, repo ports.DocumentRepository, ownerID, id int64) (*domain.Document, error) {
	doc, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetch document by id: %w", err)
	}
	if doc.OwnerID != ownerID {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "fetch document by id", fmt.Errorf("id=%d", id))
	}
	return doc, nil
}

// sanitizeContent drops NUL characters, which PostgreSQL TEXT columns reject.
func sanitizeContent(content *string) *string {
	if content == nil {
		return nil
	}
	cleaned := strings.ReplaceAll(*content, "\x00", "")
	return &cleaned
}
