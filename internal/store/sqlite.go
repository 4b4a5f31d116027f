//go:build sqlite
// +build sqlite

package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	logx "crossposter/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

// sqliteStore persists each post as one row holding the serialized record.
// Whole-record replacement keeps the wire layout identical to the file
// backend, so switching drivers never changes what callers observe.
type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) Create(ctx context.Context, d Draft) (*Post, error) {
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
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("store: encode: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO posts(id, data, updated_at) VALUES(?,?,?)`,
		p.ID, string(b), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("store: insert: %w", err)
	}
	return p, nil
}

func (s *sqliteStore) Get(ctx context.Context, id string) (*Post, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM posts WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: select: %w", err)
	}
	return decodePost(data)
}

func (s *sqliteStore) List(ctx context.Context) ([]*Post, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM posts`)
	if err != nil {
		return nil, fmt.Errorf("store: select: %w", err)
	}
	defer rows.Close()

	var out []*Post
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		p, err := decodePost(data)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *sqliteStore) Update(ctx context.Context, id string, mutate func(*Post) error) (*Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var data string
	err = tx.QueryRowContext(ctx, `SELECT data FROM posts WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: select: %w", err)
	}
	prev, err := decodePost(data)
	if err != nil {
		return nil, err
	}

	next := prev.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = prev.ID
	next.Created = prev.Created

	b, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("store: encode: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE posts SET data = ?, updated_at = ? WHERE id = ?`,
		string(b), time.Now().UTC().Format(time.RFC3339Nano), id,
	); err != nil {
		return nil, fmt.Errorf("store: update: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return next, nil
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	// Idempotent: deleting an absent id is a no-op.
	_, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete: %w", err)
	}
	return nil
}

func decodePost(data string) (*Post, error) {
	var p Post
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("store: decode: %w", err)
	}
	return &p, nil
}
