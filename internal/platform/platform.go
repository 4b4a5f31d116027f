package platform

import (
	"context"
	"sort"
	"sync"
)

// ID names a destination platform.
type ID string

const (
	Linkedin ID = "linkedin"
	Telegram ID = "telegram"
	Reddit   ID = "reddit"
	X        ID = "x"
	Facebook ID = "facebook"
	Discord  ID = "discord"
	Bluesky  ID = "bluesky"
)

// All returns the known platform ids in stable order.
func All() []ID {
	return []ID{Linkedin, Telegram, Reddit, X, Facebook, Discord, Bluesky}
}

// Known reports whether id is part of the fixed platform enumeration.
func Known(id ID) bool {
	for _, p := range All() {
		if p == id {
			return true
		}
	}
	return false
}

// Content is the normalized payload handed to every dispatcher.
// Media, when set, is a local path or URL of an attached file.
type Content struct {
	Text  string
	Media string
}

// Bundle holds the credential material for one platform (tokens, ids).
// Keys are lowercase snake_case, e.g. "token", "chat_id", "client_secret".
type Bundle map[string]string

// Result of a single delivery attempt on one platform.
type Result struct {
	Success      bool
	RemoteID     string
	ErrorMessage string
}

// Dispatcher delivers one post to one platform.
//
// Implementations must not retain content or creds beyond the call. A failed
// delivery may be reported either via a non-nil error or via Result with
// Success=false; callers treat both the same.
type Dispatcher interface {
	Post(ctx context.Context, content Content, creds Bundle) (Result, error)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(ctx context.Context, content Content, creds Bundle) (Result, error)

func (f DispatcherFunc) Post(ctx context.Context, content Content, creds Bundle) (Result, error) {
	return f(ctx, content, creds)
}

// Registry maps platform ids to their dispatchers.
// Adding a platform means registering one implementation here; the
// scheduler never branches on platform ids itself.
type Registry struct {
	mu sync.RWMutex
	m  map[ID]Dispatcher
}

func NewRegistry() *Registry {
	return &Registry{m: map[ID]Dispatcher{}}
}

func (r *Registry) Register(id ID, d Dispatcher) {
	if d == nil {
		return
	}
	r.mu.Lock()
	r.m[id] = d
	r.mu.Unlock()
}

func (r *Registry) Lookup(id ID) (Dispatcher, bool) {
	r.mu.RLock()
	d, ok := r.m[id]
	r.mu.RUnlock()
	return d, ok
}

// IDs returns the registered platform ids, sorted.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	ids := make([]ID, 0, len(r.m))
	for id := range r.m {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
