package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver
)

const (
	slotText    = "corpus_text"
	slotSources = "corpus_sources"
)

// Store is the durable holder for exactly one Corpus at a time. It is written
// only by the ingestion pipeline (Replace/Clear) and read by the session
// controller. The two slots are updated in a single transaction so a crash can
// never leave a half-written corpus behind; if one slot is somehow present
// without the other, Load discards both and reports empty.
type Store struct {
	db   *sql.DB
	path string

	mu      sync.RWMutex
	current Corpus
}

// NewStore opens (or creates) the corpus database under dataDir and loads the
// last persisted corpus into memory.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	dbPath := filepath.Join(dataDir, "corpus.db")

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS slots (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating slots table: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.load(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Current returns the corpus as last loaded or written. The zero Corpus means
// no documents are ingested.
func (s *Store) Current() Corpus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Replace atomically overwrites both slots with the given corpus, discarding
// whatever was stored before.
func (s *Store) Replace(ctx context.Context, c Corpus) error {
	if !c.Present() {
		return fmt.Errorf("refusing to store empty corpus")
	}
	names, err := json.Marshal(c.SourceNames)
	if err != nil {
		return fmt.Errorf("encoding source names: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning replace: %w", err)
	}
	defer tx.Rollback()
	upsert := `INSERT INTO slots (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := tx.ExecContext(ctx, upsert, slotText, c.Text); err != nil {
		return fmt.Errorf("writing corpus text: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsert, slotSources, string(names)); err != nil {
		return fmt.Errorf("writing source names: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing replace: %w", err)
	}

	s.mu.Lock()
	s.current = c
	s.mu.Unlock()
	return nil
}

// Clear removes both slots atomically.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE key IN (?, ?)`, slotText, slotSources); err != nil {
		return fmt.Errorf("clearing corpus: %w", err)
	}
	s.mu.Lock()
	s.current = Corpus{}
	s.mu.Unlock()
	return nil
}

// load reads both slots. Partial state (exactly one slot present) is corrupted
// and is deleted rather than used.
func (s *Store) load(ctx context.Context) error {
	text, haveText, err := s.slot(ctx, slotText)
	if err != nil {
		return err
	}
	rawNames, haveNames, err := s.slot(ctx, slotSources)
	if err != nil {
		return err
	}

	if haveText != haveNames {
		// One half of an atomic pair without the other; drop it.
		return s.Clear(ctx)
	}
	if !haveText {
		return nil
	}

	var names []string
	if err := json.Unmarshal([]byte(rawNames), &names); err != nil {
		return s.Clear(ctx)
	}
	c := Corpus{Text: text, SourceNames: names}
	if !c.Present() {
		return s.Clear(ctx)
	}

	s.mu.Lock()
	s.current = c
	s.mu.Unlock()
	return nil
}

func (s *Store) slot(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading slot %s: %w", key, err)
	}
	return value, true, nil
}
