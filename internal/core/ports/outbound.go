package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/docs-backend/internal/core/domain"
)

// UserRepository persists user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
}

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id int64) (*domain.Document, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Document, error)
	Update(ctx context.Context, doc *domain.Document) error
	Delete(ctx context.Context, id int64) error
	UpdateSummaryStatus(ctx context.Context, id int64, status domain.SummaryStatus, errMessage string) error
	SaveSummary(ctx context.Context, id int64, summary string) error
}

// ObjectStorage stores uploaded source files. Save returns the location to persist on the document.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) (string, error)
	Open(ctx context.Context, location string) (io.ReadCloser, error)
	Delete(ctx context.Context, location string) error
	Backend() string
}

// MessageQueue publishes/consumes upload events.
type MessageQueue interface {
	PublishDocumentUploaded(ctx context.Context, documentID int64) error
	SubscribeDocumentUploaded(ctx context.Context, handler func(context.Context, int64) error) error
}

// TextExtractor normalizes a file's bytes into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
	Supports(filename string) bool
}

// Summarizer produces a short summary of text using a language model.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (domain.SummaryResult, error)
}

// Chunker splits text into overlapping chunks.
type Chunker interface {
	Split(text string) []string
}

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// TokenIssuer signs and verifies access tokens.
type TokenIssuer interface {
	Issue(userID int64) (string, domain.TokenClaims, error)
	Parse(token string) (domain.TokenClaims, error)
}

// RevocationStore remembers logged-out token ids until they expire.
type RevocationStore interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
