package httpadapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/kirillkom/docs-backend/internal/config"
	"github.com/kirillkom/docs-backend/internal/core/domain"
)

const testToken = "token-alice"

var alice = &domain.User{ID: 1, Email: "alice@example.com"}

type accountsFake struct {
	registerErr error
	revoked     []string
}

func (f *accountsFake) Register(_ context.Context, email, _ string) (*domain.User, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &domain.User{ID: 7, Email: email}, nil
}

func (f *accountsFake) Login(_ context.Context, email, password string) (*domain.AccessToken, error) {
	if email != alice.Email || password != "secret" {
		return nil, domain.NewPublicError(domain.ErrUnauthorized, "Invalid credentials")
	}
	return &domain.AccessToken{Token: testToken, TokenType: "bearer"}, nil
}

func (f *accountsFake) Authenticate(_ context.Context, token string) (*domain.User, error) {
	if token != testToken {
		return nil, domain.WrapError(domain.ErrUnauthorized, "authenticate", errors.New("bad token"))
	}
	return alice, nil
}

func (f *accountsFake) Logout(_ context.Context, token string) error {
	f.revoked = append(f.revoked, token)
	return nil
}

type documentsFake struct {
	mu   sync.Mutex
	docs map[int64]*domain.Document
	file []byte
}

func newDocumentsFake(docs ...domain.Document) *documentsFake {
	f := &documentsFake{docs: make(map[int64]*domain.Document)}
	for _, doc := range docs {
		d := doc
		f.docs[d.ID] = &d
	}
	return f
}

func (f *documentsFake) owned(ownerID, id int64) (*domain.Document, error) {
	doc, ok := f.docs[id]
	if !ok || doc.OwnerID != ownerID {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%d", id))
	}
	return doc, nil
}

func (f *documentsFake) Create(_ context.Context, ownerID int64, input domain.DocumentInput) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc := &domain.Document{
		ID:            int64(len(f.docs) + 100),
		Title:         input.Title,
		Content:       input.Content,
		OwnerID:       ownerID,
		SummaryStatus: domain.SummaryNone,
		CreatedAt:     time.Now().UTC(),
	}
	f.docs[doc.ID] = doc
	return doc, nil
}

func (f *documentsFake) List(_ context.Context, ownerID int64) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Document{}
	for _, doc := range f.docs {
		if doc.OwnerID == ownerID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *documentsFake) Get(_ context.Context, ownerID, id int64) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.owned(ownerID, id)
}

func (f *documentsFake) Update(_ context.Context, ownerID, id int64, patch domain.DocumentPatch) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.owned(ownerID, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		doc.Title = *patch.Title
	}
	if patch.Content != nil {
		doc.Content = patch.Content
	}
	return doc, nil
}

func (f *documentsFake) Delete(_ context.Context, ownerID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.owned(ownerID, id); err != nil {
		return err
	}
	delete(f.docs, id)
	return nil
}

func (f *documentsFake) OpenFile(_ context.Context, ownerID, id int64) (*domain.Document, io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.owned(ownerID, id)
	if err != nil {
		return nil, nil, err
	}
	if !doc.HasFile() {
		return nil, nil, domain.NewPublicError(domain.ErrDocumentNotFound, "Document has no file")
	}
	return doc, io.NopCloser(bytes.NewReader(f.file)), nil
}

type ingestFake struct {
	err  error
	last domain.Upload
	body []byte
}

func (f *ingestFake) Upload(_ context.Context, upload domain.Upload) (*domain.Document, error) {
	raw, err := io.ReadAll(upload.Body)
	if err != nil {
		return nil, err
	}
	f.last, f.body = upload, raw
	if f.err != nil {
		return nil, f.err
	}
	content := string(raw)
	return &domain.Document{
		ID:            42,
		Title:         upload.Title,
		Content:       &content,
		Filename:      upload.Filename,
		FilePath:      "uploads/x_" + upload.Filename,
		OwnerID:       upload.OwnerID,
		SummaryStatus: domain.SummaryNone,
	}, nil
}

type summarizerFake struct {
	err error
}

func (f summarizerFake) Summarize(_ context.Context, ownerID, id int64) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Document{ID: id, OwnerID: ownerID, Summary: "short", SummaryStatus: domain.SummaryReady}, nil
}

type testDeps struct {
	accounts   *accountsFake
	documents  *documentsFake
	ingestor   *ingestFake
	summarizer summarizerFake
}

func newTestDeps() *testDeps {
	return &testDeps{
		accounts:  &accountsFake{},
		documents: newDocumentsFake(),
		ingestor:  &ingestFake{},
	}
}

func newTestHandler(cfg config.Config, deps *testDeps) http.Handler {
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = 1 << 20
	}
	return NewRouter(cfg, Services{
		Accounts:   deps.accounts,
		Documents:  deps.documents,
		Ingestor:   deps.ingestor,
		Summarizer: deps.summarizer,
	}).Handler()
}
