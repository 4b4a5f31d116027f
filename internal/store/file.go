package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	logx "crossposter/pkg/logx"
)

// fileStore keeps the whole collection in memory and writes it through to
// a single JSON file on every mutation. Writes go to a temp file first and
// are renamed over the target, so a crash mid-write leaves the previous
// collection intact.
//
// All writers for one storage location must share one fileStore instance;
// the mutex serializes mutations, the rename keeps external readers safe.
type fileStore struct {
	log  logx.Logger
	path string

	mu    sync.Mutex
	posts map[string]*Post
}

// collection is the on-disk layout.
type collection struct {
	Posts map[string]*Post `json:"posts"`
}

func openFileStore(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	s := &fileStore{log: log, path: path, posts: map[string]*Post{}}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *fileStore) load() error {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("store: read %s: %w", s.path, err)
	}
	var col collection
	if err := json.Unmarshal(b, &col); err != nil {
		return fmt.Errorf("store: decode %s: %w", s.path, err)
	}
	if col.Posts != nil {
		s.posts = col.Posts
	}
	return nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) Create(ctx context.Context, d Draft) (*Post, error) {
	_ = ctx
	d.Platforms = NormalizePlatforms(d.Platforms)
	if err := ValidateDraft(d); err != nil {
		return nil, err
	}

	p := &Post{
		ID:            uuid.NewString(),
		ScheduledTime: d.ScheduledTime,
		Text:          d.Text,
		Media:         d.Media,
		Platforms:     d.Platforms,
		Status:        StatusScheduled,
		Created:       time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.ID] = p
	if err := s.persistLocked(); err != nil {
		delete(s.posts, p.ID)
		return nil, err
	}
	return p.Clone(), nil
}

func (s *fileStore) Get(ctx context.Context, id string) (*Post, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p.Clone(), nil
}

func (s *fileStore) List(ctx context.Context) ([]*Post, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (s *fileStore) Update(ctx context.Context, id string, mutate func(*Post) error) (*Post, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	next := prev.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	// Identity and creation time never change through Update.
	next.ID = prev.ID
	next.Created = prev.Created

	s.posts[id] = next
	if err := s.persistLocked(); err != nil {
		s.posts[id] = prev
		return nil, err
	}
	return next.Clone(), nil
}

func (s *fileStore) Delete(ctx context.Context, id string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.posts[id]
	if !ok {
		// Idempotent: tolerate duplicate delete requests.
		return nil
	}
	delete(s.posts, id)
	if err := s.persistLocked(); err != nil {
		s.posts[id] = prev
		return err
	}
	return nil
}

// persistLocked rewrites the full collection. Callers hold s.mu.
func (s *fileStore) persistLocked() error {
	b, err := json.MarshalIndent(collection{Posts: s.posts}, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode: %w", err)
	}

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("store: write %s: %w", tmp, err)
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return fmt.Errorf("store: write %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("store: sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("store: close %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("store: rename %s: %w", s.path, err)
	}
	return nil
}
