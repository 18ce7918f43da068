package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/docs-backend/internal/core/domain"
)

const documentColumns = `id, title, content, file_path, filename, mime_type, format, summary, summary_status, summary_error, owner_id, created_at, updated_at`

type DocumentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	err := r.db.QueryRowContext(ctx, `
INSERT INTO documents (
	title, content, file_path, filename, mime_type, format, summary, summary_status, summary_error, owner_id, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
RETURNING id
`,
		doc.Title, doc.Content, doc.FilePath, doc.Filename, doc.MimeType, doc.Format, doc.Summary,
		string(doc.SummaryStatus), doc.SummaryError, doc.OwnerID, doc.CreatedAt, doc.UpdatedAt,
	).Scan(&doc.ID)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetByID(ctx context.Context, id int64) (*domain.Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+documentColumns+`
FROM documents
WHERE id = $1
`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id %d", id))
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Document, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+documentColumns+`
FROM documents
WHERE owner_id = $1
ORDER BY created_at DESC, id DESC
`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]domain.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

func (r *DocumentRepository) Update(ctx context.Context, doc *domain.Document) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET title = $2, content = $3, updated_at = $4
WHERE id = $1
`, doc.ID, doc.Title, doc.Content, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return ensureAffected(res, "update document", doc.ID)
}

func (r *DocumentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return ensureAffected(res, "delete document", id)
}

func (r *DocumentRepository) UpdateSummaryStatus(ctx context.Context, id int64, status domain.SummaryStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET summary_status = $2, summary_error = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update summary status: %w", err)
	}
	return ensureAffected(res, "update summary status", id)
}

func (r *DocumentRepository) SaveSummary(ctx context.Context, id int64, summary string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE documents
SET summary = $2, summary_status = $3, summary_error = '', updated_at = $4
WHERE id = $1
`, id, summary, string(domain.SummaryReady), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save summary: %w", err)
	}
	return ensureAffected(res, "save summary", id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (domain.Document, error) {
	var doc domain.Document
	var status string
	err := row.Scan(
		&doc.ID, &doc.Title, &doc.Content, &doc.FilePath, &doc.Filename, &doc.MimeType, &doc.Format,
		&doc.Summary, &status, &doc.SummaryError, &doc.OwnerID, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return domain.Document{}, err
	}
	doc.SummaryStatus = domain.SummaryStatus(status)
	return doc, nil
}

func ensureAffected(res sql.Result, op string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return domain.WrapError(domain.ErrDocumentNotFound, op, fmt.Errorf("id %d", id))
	}
	return nil
}
