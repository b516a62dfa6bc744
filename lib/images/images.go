// Package images fetches cover art and caches it twice over: a bounded
// in-memory LRU keyed by URL for display, and files on disk keyed by game id
// for offline use. Neither cache is required for correctness; callers fall
// back to "image not available".
package images

import (
	"container/list"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"log/slog"
)

type cacheEntry struct {
	url  string
	data []byte
}

type Store struct {
	dir        string
	httpClient *http.Client
	logger     *slog.Logger

	mu      sync.Mutex
	maxSize int
	entries map[string]*list.Element
	order   *list.List // front = most recently used
}

// NewStore builds a store writing local covers under dir and holding at most
// cacheSize images in memory.
func NewStore(dir string, cacheSize int, logger *slog.Logger) *Store {
	return &Store{
		dir:        dir,
		httpClient: &http.Client{},
		logger:     logger,
		maxSize:    cacheSize,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

// Fetch returns the image bytes for url, served from the in-memory cache
// when possible.
func (s *Store) Fetch(ctx context.Context, url string) ([]byte, error) {
	if data, ok := s.cached(url); ok {
		return data, nil
	}

	data, err := s.download(ctx, url)
	if err != nil {
		return nil, err
	}
	s.remember(url, data)
	return data, nil
}

// SaveLocal fetches url and writes it to the local cover file for id,
// returning the file path.
func (s *Store) SaveLocal(ctx context.Context, url string, id uint) (string, error) {
	data, err := s.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create image directory: %w", err)
	}

	path := s.LocalPath(id)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write image file: %w", err)
	}

	s.logger.Debug("Saved cover image", slog.Uint64("game_id", uint64(id)), slog.String("path", path))
	return path, nil
}

// LocalPath returns where the cover for id lives on disk, whether or not it
// exists yet.
func (s *Store) LocalPath(id uint) string {
	return filepath.Clean(filepath.Join(s.dir, fmt.Sprintf("%d.jpg", id)))
}

// Remove deletes the local cover file for id. A missing file is not an
// error.
func (s *Store) Remove(id uint) error {
	if err := os.Remove(s.LocalPath(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove image file: %w", err)
	}
	return nil
}

// CacheLen reports how many images the in-memory cache holds.
func (s *Store) CacheLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			s.logger.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	return data, nil
}

func (s *Store) cached(url string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[url]
	if !ok {
		return nil, false
	}
	s.order.MoveToFront(el)
	return el.Value.(*cacheEntry).data, true
}

func (s *Store) remember(url string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.entries[url]; ok {
		s.order.MoveToFront(el)
		el.Value.(*cacheEntry).data = data
		return
	}

	s.entries[url] = s.order.PushFront(&cacheEntry{url: url, data: data})

	for len(s.entries) > s.maxSize {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		s.order.Remove(oldest)
		delete(s.entries, oldest.Value.(*cacheEntry).url)
	}
}
