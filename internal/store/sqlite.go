package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/strrl/polar-persona/internal/blueprint"
	"github.com/strrl/polar-persona/internal/topics"
)

// Fixed width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex
	entropy io.Reader
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID(t time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		id           TEXT PRIMARY KEY,
		language     TEXT NOT NULL,
		generated_at TEXT NOT NULL,
		item_count   INTEGER NOT NULL,
		sections     TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_lang_generated ON snapshots(language, generated_at DESC);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, snap blueprint.Snapshot) (blueprint.Snapshot, error) {
	if snap.GeneratedAt.IsZero() {
		snap.GeneratedAt = time.Now()
	}
	snap.GeneratedAt = snap.GeneratedAt.UTC()
	if snap.ID == "" {
		snap.ID = s.newID(snap.GeneratedAt)
	}
	if snap.Sections == nil {
		snap.Sections = blueprint.NewSections()
	}

	payload, err := json.Marshal(snap.Sections)
	if err != nil {
		return blueprint.Snapshot{}, fmt.Errorf("encode sections: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, language, generated_at, item_count, sections) VALUES (?, ?, ?, ?, ?)`,
		snap.ID, string(snap.Language), snap.GeneratedAt.Format(timeLayout), snap.Sections.Total(), string(payload))
	if err != nil {
		return blueprint.Snapshot{}, fmt.Errorf("insert snapshot: %w", err)
	}

	return snap, nil
}

// Render lets the store act as a pipeline sink.
func (s *SQLiteStore) Render(ctx context.Context, snap blueprint.Snapshot) error {
	_, err := s.Save(ctx, snap)
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (blueprint.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, language, generated_at, sections FROM snapshots WHERE id = ?`, id)
	return scanOne(row)
}

func (s *SQLiteStore) Latest(ctx context.Context, lang topics.Language) (blueprint.Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, language, generated_at, sections FROM snapshots
		WHERE language = ?
		ORDER BY generated_at DESC, id DESC
		LIMIT 1`, string(lang))
	return scanOne(row)
}

func (s *SQLiteStore) List(ctx context.Context, p ListParams) ([]blueprint.Snapshot, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	var where []string
	var args []interface{}
	if p.Language != "" {
		where = append(where, "language = ?")
		args = append(args, string(p.Language))
	}

	query := `SELECT id, language, generated_at, sections FROM snapshots`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY generated_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []blueprint.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanOne(row scanner) (blueprint.Snapshot, error) {
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return blueprint.Snapshot{}, ErrNotFound
	}
	return snap, err
}

func scanSnapshot(row scanner) (blueprint.Snapshot, error) {
	var snap blueprint.Snapshot
	var lang, generatedAt, sectionsJSON string

	if err := row.Scan(&snap.ID, &lang, &generatedAt, &sectionsJSON); err != nil {
		return snap, err
	}

	snap.Language = topics.Language(lang)
	snap.GeneratedAt, _ = time.Parse(timeLayout, generatedAt)

	snap.Sections = blueprint.NewSections()
	if err := json.Unmarshal([]byte(sectionsJSON), &snap.Sections); err != nil {
		return snap, fmt.Errorf("decode sections of %s: %w", snap.ID, err)
	}

	return snap, nil
}
