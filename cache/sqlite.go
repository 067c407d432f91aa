package cache

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// SQLiteCache is a cache provider backed by a SQLite database.
// Expiry times are stored as unix milliseconds; expired rows read as absent
// and are purged on access.
type SQLiteCache struct {
	db         *sql.DB
	writeMutex *sync.Mutex
}

// NewSQLiteCache creates a new cache with the given filename as the db.
// If the file name is empty, a new in-memory db is opened.
func NewSQLiteCache(filename string) SQLiteCache {
	if filename == "" {
		filename = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		panic(err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS cache (
		key TEXT PRIMARY KEY,
		expires INTEGER,
		bytes BLOB
	)`)
	if err != nil {
		panic(err)
	}
	_, err = db.Exec("CREATE INDEX IF NOT EXISTS expires_idx ON cache (expires)")
	if err != nil {
		panic(err)
	}
	_, err = db.Exec("PRAGMA journal_mode=WAL")
	if err != nil {
		panic(err)
	}
	return SQLiteCache{
		db:         db,
		writeMutex: &sync.Mutex{},
	}
}

func (s SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var expires int64
	var bytes []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT expires, bytes FROM cache WHERE key = ?", key).Scan(&expires, &bytes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if nowMillis() >= expires {
		_ = s.Delete(ctx, key)
		return nil, false, nil
	}
	return bytes, true, nil
}

func (s SQLiteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	expires := time.Now().Add(ttl).UnixMilli()
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO cache (key, expires, bytes) VALUES (?, ?, ?)",
		key, expires, value)
	return err
}

func (s SQLiteCache) Delete(ctx context.Context, key string) error {
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	_, err := s.db.ExecContext(ctx, "DELETE FROM cache WHERE key = ?", key)
	return err
}

func (s SQLiteCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	if err := ValidatePattern(pattern); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM cache WHERE key LIKE ? ESCAPE '\' AND expires > ?`,
		likePattern(pattern), nowMillis())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	keys := make([]string, 0)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s SQLiteCache) TTL(ctx context.Context, key string) (time.Duration, bool, error) {
	var expires int64
	err := s.db.QueryRowContext(ctx,
		"SELECT expires FROM cache WHERE key = ?", key).Scan(&expires)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	remaining := expires - nowMillis()
	if remaining <= 0 {
		return 0, false, nil
	}
	return time.Duration(remaining) * time.Millisecond, true, nil
}

func (s SQLiteCache) DeletePattern(ctx context.Context, pattern string) (int, error) {
	if err := ValidatePattern(pattern); err != nil {
		return 0, err
	}
	s.writeMutex.Lock()
	defer s.writeMutex.Unlock()
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM cache WHERE key LIKE ? ESCAPE '\'`, likePattern(pattern))
	if err != nil {
		return 0, err
	}
	removed, err := result.RowsAffected()
	return int(removed), err
}

func (s SQLiteCache) Close() error {
	return s.db.Close()
}

// likePattern translates a glob pattern to a SQL LIKE pattern.
// Literal LIKE wildcards in the glob are escaped so they only match themselves.
func likePattern(pattern string) string {
	return strings.NewReplacer(
		`\`, `\\`,
		"%", `\%`,
		"_", `\_`,
		"*", "%",
		"?", "_",
	).Replace(pattern)
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

var _ CacheProvider = SQLiteCache{}
