package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/kirillkom/docs-backend/internal/core/domain"
)

type statusCall struct {
	status domain.SummaryStatus
	errMsg string
}

// docRepoFake is an in-memory DocumentRepository.
type docRepoFake struct {
	mu          sync.Mutex
	nextID      int64
	docs        map[int64]*domain.Document
	createErr   error
	getErr      error
	saveErr     error
	statusCalls []statusCall
}

func newDocRepoFake(docs ...domain.Document) *docRepoFake {
	f := &docRepoFake{docs: make(map[int64]*domain.Document)}
	for _, doc := range docs {
		d := doc
		f.docs[d.ID] = &d
		if d.ID > f.nextID {
			f.nextID = d.ID
		}
	}
	return f
}

func (f *docRepoFake) Create(_ context.Context, doc *domain.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	doc.ID = f.nextID
	copyDoc := *doc
	f.docs[doc.ID] = &copyDoc
	return nil
}

func (f *docRepoFake) GetByID(_ context.Context, id int64) (*domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "get document", fmt.Errorf("id=%d", id))
	}
	copyDoc := *doc
	return &copyDoc, nil
}

func (f *docRepoFake) ListByOwner(_ context.Context, ownerID int64) ([]domain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Document
	for _, doc := range f.docs {
		if doc.OwnerID == ownerID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *docRepoFake) Update(_ context.Context, doc *domain.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copyDoc := *doc
	f.docs[doc.ID] = &copyDoc
	return nil
}

func (f *docRepoFake) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *docRepoFake) UpdateSummaryStatus(ctx context.Context, id int64, status domain.SummaryStatus, errMessage string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls = append(f.statusCalls, statusCall{status: status, errMsg: errMessage})
	if doc, ok := f.docs[id]; ok {
		doc.SummaryStatus = status
		doc.SummaryError = errMessage
	}
	return nil
}

func (f *docRepoFake) SaveSummary(_ context.Context, id int64, summary string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	doc, ok := f.docs[id]
	if !ok {
		return domain.ErrDocumentNotFound
	}
	doc.Summary = summary
	doc.SummaryStatus = domain.SummaryReady
	doc.SummaryError = ""
	return nil
}

type storageFake struct {
	saved   map[string]string
	deleted []string
	saveErr error
	openErr error
}

func newStorageFake() *storageFake {
	return &storageFake{saved: make(map[string]string)}
}

func (f *storageFake) Save(_ context.Context, key string, data io.Reader) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return "", err
	}
	location := "mem/" + key
	f.saved[location] = string(raw)
	return location, nil
}

func (f *storageFake) Open(_ context.Context, location string) (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	body, ok := f.saved[location]
	if !ok {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "open", errors.New(location))
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func (f *storageFake) Delete(_ context.Context, location string) error {
	f.deleted = append(f.deleted, location)
	delete(f.saved, location)
	return nil
}

func (f *storageFake) Backend() string { return "mem" }

type queueFake struct {
	published []int64
	err       error
}

func (f *queueFake) PublishDocumentUploaded(_ context.Context, documentID int64) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, documentID)
	return nil
}

func (f *queueFake) SubscribeDocumentUploaded(context.Context, func(context.Context, int64) error) error {
	return errors.New("not implemented")
}

type extractorFake struct {
	text string
	err  error
}

func (f *extractorFake) Supports(filename string) bool {
	return !strings.HasSuffix(filename, ".exe")
}

func (f *extractorFake) Extract(context.Context, string, []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type summarizerFake struct {
	inputs []string
	text   string
	err    error
}

func (f *summarizerFake) Summarize(_ context.Context, text string) (domain.SummaryResult, error) {
	f.inputs = append(f.inputs, text)
	if f.err != nil {
		return domain.SummaryResult{}, f.err
	}
	return domain.SummaryResult{Text: f.text, Model: "fake"}, nil
}

// cancellingSummarizer cancels the caller's context mid-call, like a shutdown signal.
type cancellingSummarizer struct {
	cancel context.CancelFunc
}

func (f cancellingSummarizer) Summarize(ctx context.Context, _ string) (domain.SummaryResult, error) {
	f.cancel()
	<-ctx.Done()
	return domain.SummaryResult{}, ctx.Err()
}

type userRepoFake struct {
	nextID  int64
	byEmail map[string]*domain.User
}

func newUserRepoFake() *userRepoFake {
	return &userRepoFake{byEmail: make(map[string]*domain.User)}
}

func (f *userRepoFake) CreateUser(_ context.Context, user *domain.User) error {
	if _, ok := f.byEmail[user.Email]; ok {
		return domain.WrapError(domain.ErrConflict, "insert user", errors.New("duplicate"))
	}
	f.nextID++
	user.ID = f.nextID
	copyUser := *user
	f.byEmail[user.Email] = &copyUser
	return nil
}

func (f *userRepoFake) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, domain.WrapError(domain.ErrUserNotFound, "get user", errors.New(email))
	}
	copyUser := *user
	return &copyUser, nil
}

func (f *userRepoFake) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	for _, user := range f.byEmail {
		if user.ID == id {
			copyUser := *user
			return &copyUser, nil
		}
	}
	return nil, domain.WrapError(domain.ErrUserNotFound, "get user", fmt.Errorf("id=%d", id))
}

type hasherFake struct{}

func (hasherFake) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (hasherFake) Verify(hash, password string) bool { return hash == "hashed:"+password }

// tokenFake issues tokens of the form "tok-<userID>-<n>".
type tokenFake struct {
	issued int
}

func (f *tokenFake) Issue(userID int64) (string, domain.TokenClaims, error) {
	f.issued++
	tokenID := fmt.Sprintf("%d-%d", userID, f.issued)
	return "tok-" + tokenID, domain.TokenClaims{
		UserID:    userID,
		TokenID:   tokenID,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (f *tokenFake) Parse(token string) (domain.TokenClaims, error) {
	var userID int64
	var n int
	if _, err := fmt.Sscanf(token, "tok-%d-%d", &userID, &n); err != nil {
		return domain.TokenClaims{}, errors.New("bad token")
	}
	return domain.TokenClaims{
		UserID:    userID,
		TokenID:   fmt.Sprintf("%d-%d", userID, n),
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

type revocationFake struct {
	revoked map[string]bool
}

func (f *revocationFake) Revoke(_ context.Context, tokenID string, _ time.Time) error {
	if f.revoked == nil {
		f.revoked = make(map[string]bool)
	}
	f.revoked[tokenID] = true
	return nil
}

func (f *revocationFake) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	return f.revoked[tokenID], nil
}
