// Package blob stages uploaded media and tracks the lifecycle of the
// transient preview URLs handed out for it. A staged preview belongs to
// exactly one owner (the form buffer or one queued entity) and must be
// released exactly once when that owner lets go of it.
package blob

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// StagingPrefix is the URL path under which staged previews are served.
// Any URL without this prefix (upstream absolute URLs, data URLs) is not
// ours to release.
const StagingPrefix = "/api/media/staging/"

// ObjectStore holds staged media bytes.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}

// Ref is one staged media item: the object key and the preview URL built
// from it. Persisted media carries a URL only (Key empty).
type Ref struct {
	Key string `json:"key,omitempty"`
	URL string `json:"url"`
}

type Manager struct {
	objects ObjectStore

	mu   sync.Mutex
	live map[string]string // staged preview URL -> object key
}

func NewManager(objects ObjectStore) *Manager {
	return &Manager{
		objects: objects,
		live:    make(map[string]string),
	}
}

// IsStaged reports whether url is a transient preview owned by this service.
func IsStaged(url string) bool {
	return strings.HasPrefix(url, StagingPrefix)
}

// CreatePreview stages a file and returns its preview ref.
func (m *Manager) CreatePreview(ctx context.Context, filename, contentType string, r io.Reader, size int64) (Ref, error) {
	key := uuid.NewString() + sanitizeExt(filename)
	if err := m.objects.Put(ctx, key, contentType, r, size); err != nil {
		return Ref{}, fmt.Errorf("stage media: %w", err)
	}

	url := StagingPrefix + key
	m.mu.Lock()
	m.live[url] = key
	m.mu.Unlock()

	return Ref{Key: key, URL: url}, nil
}

// ReleaseAll frees the staged objects behind the given preview URLs.
// Non-staged URLs and URLs already released are ignored, so callers can
// pass whole preview lists without filtering.
func (m *Manager) ReleaseAll(ctx context.Context, urls []string) {
	for _, url := range urls {
		if !IsStaged(url) {
			continue
		}

		m.mu.Lock()
		key, ok := m.live[url]
		if ok {
			delete(m.live, url)
		}
		m.mu.Unlock()
		if !ok {
			continue
		}

		if err := m.objects.Delete(ctx, key); err != nil {
			log.Printf("blob: delete staged object %s: %v", key, err)
		}
	}
}

// Open streams a staged object for serving. Returns the reader and content
// type; the caller closes the reader.
func (m *Manager) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	m.mu.Lock()
	_, ok := m.live[StagingPrefix+key]
	m.mu.Unlock()
	if !ok {
		return nil, "", fmt.Errorf("staged object %s: not found", key)
	}
	return m.objects.Get(ctx, key)
}

// Live returns the number of staged previews not yet released.
func (m *Manager) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}

func sanitizeExt(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	for _, r := range ext {
		if r != '.' && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	if len(ext) > 8 {
		return ""
	}
	return ext
}
