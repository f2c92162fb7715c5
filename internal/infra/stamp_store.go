package infra

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlcipher "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/eliteGoblin/closurebatch/internal/domain"
)

// Ensure sqlcipher driver is registered.
var _ = sqlcipher.ErrBusy

// DefaultStateFileName is the stamp database name inside a per-output state directory.
const DefaultStateFileName = "stamps.db"

// stateDirName groups every state directory under the user cache directory.
const stateDirName = "closurebatch"

// DefaultStatePath returns the stamp database used for outputDir when no
// state file is configured. It lives under the user cache directory, keyed
// by the absolute output path, so nothing is ever written next to the
// compiled files.
func DefaultStatePath(outputDir string) (string, error) {
	abs, err := filepath.Abs(outputDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve output directory: %w", err)
	}
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate cache directory: %w", err)
	}
	sum := sha256.Sum256([]byte(abs))
	key := hex.EncodeToString(sum[:8])
	return filepath.Join(cacheDir, stateDirName, key, DefaultStateFileName), nil
}

// SQLiteStampStore implements domain.StampStore on a SQLite database.
type SQLiteStampStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStampStore opens (or creates) the stamp database at dbPath.
func NewSQLiteStampStore(dbPath string) (*SQLiteStampStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to state database: %w", err)
	}

	s := &SQLiteStampStore{db: db, dbPath: dbPath}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStampStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stamps (
		target TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		source_digest TEXT NOT NULL,
		level TEXT NOT NULL,
		compiled_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the stamp for a target, or nil if none is recorded.
func (s *SQLiteStampStore) Get(target string) (*domain.Stamp, error) {
	var st domain.Stamp
	var compiledAt int64
	err := s.db.QueryRow(`
		SELECT target, source, source_digest, level, compiled_at
		FROM stamps WHERE target = ?`, target,
	).Scan(&st.Target, &st.Source, &st.SourceDigest, &st.Level, &compiledAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	st.CompiledAt = time.Unix(0, compiledAt)
	return &st, nil
}

// Put records a stamp, replacing any previous one for the target.
func (s *SQLiteStampStore) Put(stamp domain.Stamp) error {
	if stamp.CompiledAt.IsZero() {
		stamp.CompiledAt = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO stamps (target, source, source_digest, level, compiled_at)
		VALUES (?, ?, ?, ?, ?)`,
		stamp.Target, stamp.Source, stamp.SourceDigest, stamp.Level, stamp.CompiledAt.UnixNano(),
	)
	return err
}

// Delete forgets the stamp for a target.
func (s *SQLiteStampStore) Delete(target string) error {
	_, err := s.db.Exec(`DELETE FROM stamps WHERE target = ?`, target)
	return err
}

// Path returns the database file path.
func (s *SQLiteStampStore) Path() string {
	return s.dbPath
}

// Close releases the database connection.
func (s *SQLiteStampStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ensure SQLiteStampStore implements domain.StampStore.
var _ domain.StampStore = (*SQLiteStampStore)(nil)
