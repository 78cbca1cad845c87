package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/easeaico/finadvisor/internal/memory"
	"github.com/easeaico/finadvisor/internal/types"
)

// DefaultMemoryFile is used when no path is configured.
const DefaultMemoryFile = "user_memory.json"

// FileBackend keeps every record in one JSON document keyed by user id.
// Each Save rewrites the whole file through a temp file and rename.
type FileBackend struct {
	path string

	mu      sync.Mutex
	records map[string]*types.UserRecord
}

// NewFileBackend reads path if it exists. A missing file is an empty store.
func NewFileBackend(path string) (*FileBackend, error) {
	if path == "" {
		path = DefaultMemoryFile
	}
	b := &FileBackend{path: path, records: make(map[string]*types.UserRecord)}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return b, nil
	case err != nil:
		return nil, wrap("read memory file", err)
	}
	if len(data) == 0 {
		return b, nil
	}
	if err := json.Unmarshal(data, &b.records); err != nil {
		return nil, wrap("decode memory file", err)
	}
	for id, rec := range b.records {
		if rec == nil {
			delete(b.records, id)
			continue
		}
		rec.UserID = id
	}
	return b, nil
}

func (b *FileBackend) LoadAll(context.Context) (map[string]*types.UserRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make(map[string]*types.UserRecord, len(b.records))
	for id, rec := range b.records {
		out[id] = rec.Clone()
	}
	return out, nil
}

func (b *FileBackend) Load(_ context.Context, userID string) (*types.UserRecord, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.records[userID]
	if !ok {
		return nil, memory.ErrNotFound
	}
	return rec.Clone(), nil
}

func (b *FileBackend) Save(_ context.Context, rec *types.UserRecord) error {
	if rec == nil || rec.UserID == "" {
		return fmt.Errorf("%w: record without user id", ErrStorage)
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	prev, hadPrev := b.records[rec.UserID]
	b.records[rec.UserID] = rec.Clone()
	if err := b.flush(); err != nil {
		if hadPrev {
			b.records[rec.UserID] = prev
		} else {
			delete(b.records, rec.UserID)
		}
		return err
	}
	return nil
}

func (b *FileBackend) Close(context.Context) error {
	return nil
}

// flush writes the full map. Callers hold b.mu.
func (b *FileBackend) flush() error {
	data, err := json.MarshalIndent(b.records, "", "  ")
	if err != nil {
		return wrap("encode memory file", err)
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return wrap("create memory dir", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return wrap("create temp file", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return wrap("write temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return wrap("close temp file", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return wrap("replace memory file", err)
	}
	return nil
}
