package parser

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/strrl/polar-persona/internal/conversation"
	"github.com/strrl/polar-persona/internal/db"
)

var _ conversation.Source = (*Parser)(nil)

// Parser reads conversation transcripts from JSONL files matched by a glob
// pattern, using DuckDB's read_json.
type Parser struct {
	db      *sql.DB
	pattern string
	session string
}

type Option func(*Parser)

// WithSession restricts every query to entries tagged with session.
func WithSession(session string) Option {
	return func(p *Parser) {
		p.session = session
	}
}

func WithDB(database *sql.DB) Option {
	return func(p *Parser) {
		p.db = database
	}
}

func NewParser(pattern string, opts ...Option) (*Parser, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, fmt.Errorf("transcript pattern is required")
	}

	p := &Parser{pattern: pattern}
	for _, opt := range opts {
		opt(p)
	}

	if p.db == nil {
		database, err := db.GetDB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database: %w", err)
		}
		p.db = database
	}

	return p, nil
}

func (p *Parser) source() string {
	return fmt.Sprintf(`read_json('%s',
		format = 'newline_delimited',
		columns = {role: 'VARCHAR', content: 'VARCHAR', timestamp: 'VARCHAR', session: 'VARCHAR'},
		ignore_errors = true
	)`, strings.ReplaceAll(p.pattern, "'", "''"))
}

func (p *Parser) where() (string, []any) {
	clause := "WHERE lower(role) IN ('user', 'assistant') AND content IS NOT NULL"
	if p.session == "" {
		return clause, nil
	}
	return clause + " AND session = $1", []any{p.session}
}

// hasFiles reports whether the pattern can match anything. DuckDB fails on
// an empty glob, while a missing transcript just means no history yet.
// Recursive patterns are left to DuckDB.
func (p *Parser) hasFiles() (bool, error) {
	if strings.Contains(p.pattern, "**") {
		return true, nil
	}
	matches, err := filepath.Glob(p.pattern)
	if err != nil {
		return false, fmt.Errorf("invalid transcript pattern %q: %w", p.pattern, err)
	}
	return len(matches) > 0, nil
}

// Messages returns the transcript in chronological order. Entries keep their
// file order when any of them lacks a readable timestamp.
func (p *Parser) Messages(ctx context.Context) ([]conversation.Message, error) {
	ok, err := p.hasFiles()
	if err != nil || !ok {
		return nil, err
	}

	where, args := p.where()
	query := fmt.Sprintf(`
		SELECT
			role,
			content,
			COALESCE(timestamp, '') AS ts,
			COALESCE(session, '') AS session
		FROM %s
		%s
	`, p.source(), where)

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcripts: %w", err)
	}
	defer rows.Close()

	var messages []conversation.Message
	for rows.Next() {
		var entry TranscriptEntry
		if err := rows.Scan(&entry.Role, &entry.Content, &entry.Timestamp, &entry.Session); err != nil {
			continue
		}
		msg, ok := entry.ToMessage()
		if !ok {
			continue
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	stamped := lo.EveryBy(messages, func(m conversation.Message) bool {
		return !m.Timestamp.IsZero()
	})
	if stamped {
		sort.SliceStable(messages, func(i, j int) bool {
			return messages[i].Timestamp.Before(messages[j].Timestamp)
		})
	}

	return messages, nil
}

func (p *Parser) ListSessions(ctx context.Context) ([]string, error) {
	ok, err := p.hasFiles()
	if err != nil || !ok {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT DISTINCT session
		FROM %s
		WHERE session IS NOT NULL AND session != ''
		ORDER BY session
	`, p.source())

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []string
	for rows.Next() {
		var session string
		if err := rows.Scan(&session); err != nil {
			continue
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

func (p *Parser) Stats(ctx context.Context) (Stats, error) {
	ok, err := p.hasFiles()
	if err != nil || !ok {
		return Stats{}, err
	}

	where, args := p.where()
	query := fmt.Sprintf(`
		SELECT
			COUNT(*) AS count,
			MIN(timestamp) AS first,
			MAX(timestamp) AS last
		FROM %s
		%s
	`, p.source(), where)

	var count int
	var firstStr, lastStr sql.NullString

	if err := p.db.QueryRowContext(ctx, query, args...).Scan(&count, &firstStr, &lastStr); err != nil {
		return Stats{}, fmt.Errorf("failed to get stats: %w", err)
	}

	stats := Stats{Count: count}
	if firstStr.Valid {
		stats.First, _ = time.Parse(time.RFC3339Nano, firstStr.String)
	}
	if lastStr.Valid {
		stats.Last, _ = time.Parse(time.RFC3339Nano, lastStr.String)
	}

	return stats, nil
}
