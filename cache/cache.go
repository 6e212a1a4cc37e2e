// Package cache persists file digests in SQLite so repeated scans can skip
// files whose size and modification time have not changed.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"
)

var ErrLocked = errors.New("hash cache is in use by another process")

type Entry struct {
	Path       string
	Size       int64
	ModifiedAt time.Time
	Algorithm  string
	Digest     string
	HashedAt   time.Time
}

type Cache struct {
	db   *sql.DB
	lock *flock.Flock
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS file_hashes (
    path TEXT PRIMARY KEY,
    size INTEGER NOT NULL,
    modified_at INTEGER NOT NULL,
    algorithm TEXT NOT NULL,
    digest TEXT NOT NULL,
    hashed_at INTEGER NOT NULL
);
`

// Open opens (creating if needed) the cache database in dir. An empty dir
// selects ~/.cache/neatfs. Only one process may hold the cache at a time;
// a second Open returns ErrLocked.
func Open(dir string) (*Cache, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get cache directory: %w", err)
		}
		dir = d
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	lock := flock.New(filepath.Join(dir, "neatfs.lock"))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire cache lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	dbPath := filepath.Join(dir, "neatfs.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		lock.Unlock()
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	db.Exec(`PRAGMA journal_mode=WAL;`)
	db.Exec(`PRAGMA synchronous=NORMAL;`)
	db.Exec(`PRAGMA busy_timeout=5000;`)
	db.Exec(`PRAGMA temp_store=MEMORY;`)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		lock.Unlock()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Cache{db: db, lock: lock, path: dbPath}, nil
}

func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "neatfs"), nil
}

func (c *Cache) Path() string {
	return c.path
}

func (c *Cache) Close() error {
	var err error
	if c.db != nil {
		err = c.db.Close()
	}
	if c.lock != nil {
		err = errors.Join(err, c.lock.Unlock())
	}
	return err
}

func (c *Cache) InsertOrUpdate(entry *Entry) error {
	query := `
        INSERT INTO file_hashes (path, size, modified_at, algorithm, digest, hashed_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(path) DO UPDATE SET
            size = excluded.size,
            modified_at = excluded.modified_at,
            algorithm = excluded.algorithm,
            digest = excluded.digest,
            hashed_at = excluded.hashed_at
    `
	_, err := c.db.Exec(query,
		entry.Path,
		entry.Size,
		entry.ModifiedAt.UnixNano(),
		entry.Algorithm,
		entry.Digest,
		entry.HashedAt.Unix(),
	)
	return err
}

// Get returns sql.ErrNoRows when path has no entry.
func (c *Cache) Get(path string) (*Entry, error) {
	var (
		size                int64
		modNano, hashedUnix int64
		algorithm, digest   string
	)
	err := c.db.QueryRow(
		"SELECT size, modified_at, algorithm, digest, hashed_at FROM file_hashes WHERE path = ?", path,
	).Scan(&size, &modNano, &algorithm, &digest, &hashedUnix)
	if err != nil {
		return nil, err
	}
	return &Entry{
		Path:       path,
		Size:       size,
		ModifiedAt: time.Unix(0, modNano),
		Algorithm:  algorithm,
		Digest:     digest,
		HashedAt:   time.Unix(hashedUnix, 0),
	}, nil
}

func (c *Cache) Delete(path string) error {
	_, err := c.db.Exec("DELETE FROM file_hashes WHERE path = ?", path)
	return err
}

// Prune drops entries under root whose file no longer exists. It returns
// the number of entries removed.
func (c *Cache) Prune(root string) (int, error) {
	rows, err := c.db.Query("SELECT path FROM file_hashes")
	if err != nil {
		return 0, err
	}

	prefix := strings.TrimSuffix(root, string(os.PathSeparator)) + string(os.PathSeparator)
	var stale []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			rows.Close()
			return 0, err
		}
		if path != root && !strings.HasPrefix(path, prefix) {
			continue
		}
		if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
			stale = append(stale, path)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	rows.Close()

	for _, path := range stale {
		if err := c.Delete(path); err != nil {
			return 0, err
		}
	}
	return len(stale), nil
}
