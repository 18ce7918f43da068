package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/kirillkom/docs-backend/internal/core/domain"
	"github.com/kirillkom/docs-backend/internal/core/ports"
	"github.com/kirillkom/docs-backend/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/docs-backend/internal/infrastructure/storage/s3"
)

// Router saves new files to the primary backend and resolves existing locations
// to whichever backend wrote them, so switching STORAGE_TYPE keeps old files readable.
type Router struct {
	primary  ports.ObjectStorage
	backends map[string]ports.ObjectStorage
}

func NewRouter(primary ports.ObjectStorage, others ...ports.ObjectStorage) *Router {
	r := &Router{
		primary:  primary,
		backends: map[string]ports.ObjectStorage{primary.Backend(): primary},
	}
	for _, b := range others {
		if b == nil {
			continue
		}
		if _, exists := r.backends[b.Backend()]; !exists {
			r.backends[b.Backend()] = b
		}
	}
	return r
}

func (r *Router) Backend() string {
	return r.primary.Backend()
}

func (r *Router) Save(ctx context.Context, key string, data io.Reader) (string, error) {
	return r.primary.Save(ctx, key, data)
}

func (r *Router) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	backend, err := r.backendFor(location)
	if err != nil {
		return nil, err
	}
	return backend.Open(ctx, location)
}

func (r *Router) Delete(ctx context.Context, location string) error {
	backend, err := r.backendFor(location)
	if err != nil {
		return err
	}
	return backend.Delete(ctx, location)
}

func (r *Router) backendFor(location string) (ports.ObjectStorage, error) {
	name := localfs.BackendName
	if s3.IsLocation(location) {
		name = s3.BackendName
	}
	backend, ok := r.backends[name]
	if !ok {
		return nil, domain.WrapError(domain.ErrTemporary, "resolve storage backend", fmt.Errorf("backend %q is not configured", name))
	}
	return backend, nil
}
