package artifact

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// File is a cached file body together with its MIME type.
type File struct {
	Data        []byte
	ContentType string
}

// Fetcher downloads a file from the agent service.
type Fetcher interface {
	FileContent(ctx context.Context, fileID string) ([]byte, string, error)
}

// InMemoryStore keeps downloaded files in a nested map guarded by an RWMutex.
// Data is copied on save and retrieval.
//
// Layout: sessionID -> fileID -> File
type InMemoryStore struct {
	mu    sync.RWMutex
	files map[string]map[string]File
}

// NewInMemoryStore returns an empty in-memory file store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{files: make(map[string]map[string]File)}
}

// Save stores (or overwrites) the file for the given session and id. An empty
// content type is sniffed from the data.
func (a *InMemoryStore) Save(sessionID, fileID string, data []byte, contentType string) error {
	if sessionID == "" || fileID == "" {
		return fmt.Errorf("artifact: session id and file id are required")
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.files[sessionID]; !exists {
		a.files[sessionID] = make(map[string]File)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	a.files[sessionID][fileID] = File{Data: cp, ContentType: contentType}
	return nil
}

// Get returns a copy of the cached file or ErrNotFound.
func (a *InMemoryStore) Get(sessionID, fileID string) (File, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.files[sessionID]
	if !ok {
		return File{}, ErrNotFound
	}
	f, ok := m[fileID]
	if !ok {
		return File{}, ErrNotFound
	}
	cp := make([]byte, len(f.Data))
	copy(cp, f.Data)
	return File{Data: cp, ContentType: f.ContentType}, nil
}

// Fetch returns the cached file, downloading and caching it on a miss.
func (a *InMemoryStore) Fetch(ctx context.Context, fetcher Fetcher, sessionID, fileID string) (File, error) {
	if f, err := a.Get(sessionID, fileID); err == nil {
		return f, nil
	}

	data, contentType, err := fetcher.FileContent(ctx, fileID)
	if err != nil {
		return File{}, err
	}
	if err := a.Save(sessionID, fileID, data, contentType); err != nil {
		return File{}, err
	}
	return a.Get(sessionID, fileID)
}

// List returns the file ids cached for the session. The slice is a snapshot.
func (a *InMemoryStore) List(sessionID string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m := a.files[sessionID]
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}

// Delete removes a single file or returns ErrNotFound.
func (a *InMemoryStore) Delete(sessionID, fileID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	m, ok := a.files[sessionID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m[fileID]; !ok {
		return ErrNotFound
	}
	delete(m, fileID)
	return nil
}

// DeleteSession drops every file cached for the session.
func (a *InMemoryStore) DeleteSession(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.files, sessionID)
}
