package ports

import (
	"context"
	"io"

	"github.com/kirillkom/docs-backend/internal/core/domain"
)

// AccountService is the inbound contract for registration and token-based authentication.
type AccountService interface {
	Register(ctx context.Context, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.AccessToken, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
	Logout(ctx context.Context, token string) error
}

// DocumentService is the inbound contract for owner-scoped document CRUD.
type DocumentService interface {
	Create(ctx context.Context, ownerID int64, input domain.DocumentInput) (*domain.Document, error)
	List(ctx context.Context, ownerID int64) ([]domain.Document, error)
	Get(ctx context.Context, ownerID, id int64) (*domain.Document, error)
	Update(ctx context.Context, ownerID, id int64, patch domain.DocumentPatch) (*domain.Document, error)
	Delete(ctx context.Context, ownerID, id int64) error
	OpenFile(ctx context.Context, ownerID, id int64) (*domain.Document, io.ReadCloser, error)
}

// DocumentIngestor is the inbound contract for file upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, upload domain.Upload) (*domain.Document, error)
}

// DocumentSummarizer is the inbound contract for on-demand summaries.
type DocumentSummarizer interface {
	Summarize(ctx context.Context, ownerID, id int64) (*domain.Document, error)
}

// DocumentProcessor is the inbound contract for asynchronous summary processing.
type DocumentProcessor interface {
	ProcessByID(ctx context.Context, documentID int64) error
}
