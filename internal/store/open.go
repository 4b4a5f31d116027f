package store

import (
	"context"
	"errors"
	"strings"
	"time"

	logx "crossposter/pkg/logx"
)

// Store is the durable post collection used by the scheduler and by
// manual operations. Implementations serialize all writes; Update runs
// the mutation under the store's write lock so read-modify-write cycles
// never interleave.
type Store interface {
	Create(ctx context.Context, d Draft) (*Post, error)
	Get(ctx context.Context, id string) (*Post, error)
	List(ctx context.Context) ([]*Post, error)

	// Update applies mutate to a copy of the stored post and atomically
	// replaces the record with the result. A mutate error aborts the
	// update and is returned unchanged.
	Update(ctx context.Context, id string, mutate func(*Post) error) (*Post, error)

	// Delete removes the post. Deleting an absent id is a no-op so
	// duplicate delete requests are tolerated.
	Delete(ctx context.Context, id string) error

	Close() error
}

// Config configures the post store.
//
// Driver values:
//   - "file" (default): single JSON collection, atomic rewrite on every mutation
//   - "sqlite": SQLite database file (build with -tags sqlite)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// Open initializes the configured store.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "file":
		return openFileStore(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
