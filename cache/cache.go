// Package cache stores compiled chunks in SQLite, keyed by a hash of
// the source, so unchanged scripts skip recompilation.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/tliron/commonlog"

	"github.com/lunet-lang/lunet/pkg/bytecode"
)

var log = commonlog.GetLogger("lunet.cache")

// Store handles SQLite storage for compiled chunks.
type Store struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// Open opens (creating if needed) a chunk store at the given path.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Create table if needed
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS chunks (
		id TEXT PRIMARY KEY,
		hash TEXT UNIQUE NOT NULL,
		data BLOB NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// OpenDefault opens the chunk store at the default path: the
// LUNET_CACHE_DB environment variable, or ~/.lunet/cache.db.
func OpenDefault() (*Store, error) {
	dbPath := os.Getenv("LUNET_CACHE_DB")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home dir: %w", err)
		}
		dbPath = filepath.Join(home, ".lunet", "cache.db")
	}
	return Open(dbPath)
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Key returns the cache key for a source buffer.
func Key(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// Put stores the compiled chunk for a source buffer, replacing any
// previous entry for the same source.
func (s *Store) Put(source []byte, chunk *bytecode.Chunk) error {
	data, err := chunk.Serialize()
	if err != nil {
		return fmt.Errorf("serializing chunk: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		`INSERT INTO chunks (id, hash, data) VALUES (?, ?, ?)
		 ON CONFLICT(hash) DO UPDATE SET data = excluded.data`,
		uuid.NewString(), Key(source), data,
	)
	if err != nil {
		return fmt.Errorf("storing chunk: %w", err)
	}
	return nil
}

// Get returns the cached chunk for a source buffer, or false if the
// source has not been compiled before. A cache entry that fails to
// deserialize (e.g. written by an older format version) is treated as a
// miss and evicted.
func (s *Store) Get(source []byte) (*bytecode.Chunk, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash := Key(source)

	var data []byte
	err := s.db.QueryRow(`SELECT data FROM chunks WHERE hash = ?`, hash).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading chunk: %w", err)
	}

	chunk, err := bytecode.Deserialize(data)
	if err != nil {
		log.Warningf("evicting unreadable cache entry %s: %v", hash[:12], err)
		if _, delErr := s.db.Exec(`DELETE FROM chunks WHERE hash = ?`, hash); delErr != nil {
			return nil, false, fmt.Errorf("evicting chunk: %w", delErr)
		}
		return nil, false, nil
	}
	return chunk, true, nil
}

// Len returns the number of cached chunks.
func (s *Store) Len() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}
