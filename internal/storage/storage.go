// Package storage provides the persistence backends for user memory.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/easeaico/finadvisor/internal/memory"
)

// Backend names accepted by Open.
const (
	BackendFile     = "file"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
)

// ErrStorage wraps every failure reported by a backend.
var ErrStorage = errors.New("storage error")

// Options selects and configures a backend.
type Options struct {
	Backend     string
	FilePath    string
	MongoURI    string
	DatabaseURL string
}

// Open connects the configured backend and prepares its schema.
func Open(ctx context.Context, opts Options) (memory.Backend, error) {
	var (
		backend memory.Backend
		err     error
	)
	switch opts.Backend {
	case "", BackendFile:
		backend, err = fileBackend(opts.FilePath)
	case BackendMongo:
		backend, err = mongoBackend(ctx, opts.MongoURI)
	case BackendPostgres:
		backend, err = postgresBackend(ctx, opts.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := prepare(ctx, backend); err != nil {
		return nil, err
	}
	return backend, nil
}

// migrator is implemented by backends whose schema must exist before use.
type migrator interface {
	Migrate(ctx context.Context) error
}

// prepare migrates backend when it needs a schema, closing it on failure.
func prepare(ctx context.Context, backend memory.Backend) error {
	m, ok := backend.(migrator)
	if !ok {
		return nil
	}
	if err := m.Migrate(ctx); err != nil {
		_ = backend.Close(ctx)
		return err
	}
	return nil
}

func fileBackend(path string) (memory.Backend, error) {
	b, err := NewFileBackend(path)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func mongoBackend(ctx context.Context, uri string) (memory.Backend, error) {
	b, err := NewMongoBackend(ctx, uri)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func postgresBackend(ctx context.Context, url string) (memory.Backend, error) {
	b, err := NewPostgresBackend(ctx, url)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func wrap(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
