package exporter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const artifactsSchema = `CREATE TABLE IF NOT EXISTS artifacts (
	name        TEXT PRIMARY KEY,
	content     BLOB NOT NULL,
	compiled_at INTEGER NOT NULL
)`

// SQLiteCache keeps artifacts in a single sqlite database.
type SQLiteCache struct {
	db *sql.DB
}

// OpenSQLiteCache opens (creating if needed) the artifact database at
// path.
func OpenSQLiteCache(ctx context.Context, path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path))
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, artifactsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite cache: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

func (c *SQLiteCache) Get(ctx context.Context, name string) (Artifact, bool, error) {
	var (
		content []byte
		ts      int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT content, compiled_at FROM artifacts WHERE name = ?`, name,
	).Scan(&content, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return Artifact{}, false, nil
	}
	if err != nil {
		return Artifact{}, false, err
	}
	return Artifact{Name: name, Content: content, CompiledAt: time.Unix(0, ts)}, true, nil
}

func (c *SQLiteCache) Put(ctx context.Context, a Artifact) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO artifacts (name, content, compiled_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET content = excluded.content, compiled_at = excluded.compiled_at`,
		a.Name, a.Content, a.CompiledAt.UnixNano(),
	)
	return err
}

func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

var _ Cache = (*SQLiteCache)(nil)
