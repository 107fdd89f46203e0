// Package store persists assembled statement corpora in SQLite. Each
// corpus is a named snapshot; statements are stored as their canonical
// JSON with the matches key, type and belief lifted into columns for
// querying without deserialization.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/sorgerlab/indra/statements"
)

const schema = `
CREATE TABLE IF NOT EXISTS statements (
    corpus      TEXT    NOT NULL,
    pos         INTEGER NOT NULL,
    id          TEXT    NOT NULL,
    matches_key TEXT    NOT NULL,
    type        TEXT    NOT NULL,
    belief      REAL    NOT NULL DEFAULT 0,
    json        TEXT    NOT NULL,
    PRIMARY KEY (corpus, id)
);
CREATE INDEX IF NOT EXISTS idx_statements_matches_key
    ON statements (corpus, matches_key);
CREATE INDEX IF NOT EXISTS idx_statements_type
    ON statements (corpus, type);
`

// CorpusStore is a SQLite-backed corpus archive. A single instance is
// safe for concurrent use; writes are serialized on one connection.
type CorpusStore struct {
	db   *sql.DB
	path string
	log  *zap.Logger
}

// Open initializes the database at the given path, creating parent
// directories and the schema as needed. log may be nil.
func Open(path string, log *zap.Logger) (*CorpusStore, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite handles one writer; funneling everything through a single
	// connection avoids SQLITE_BUSY under concurrent use.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			log.Debug("pragma failed", zap.String("pragma", pragma), zap.Error(err))
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	log.Debug("corpus store opened", zap.String("path", path))
	return &CorpusStore{db: db, path: path, log: log}, nil
}

// Close closes the underlying database.
func (s *CorpusStore) Close() error { return s.db.Close() }

// SaveCorpus replaces the named corpus with the given statements.
// Refinement links are preserved as ID references inside the stored
// JSON.
func (s *CorpusStore) SaveCorpus(ctx context.Context, corpus string, stmts []statements.Statement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM statements WHERE corpus = ?`, corpus); err != nil {
		return fmt.Errorf("clear corpus %q: %w", corpus, err)
	}
	ins, err := tx.PrepareContext(ctx, `
		INSERT INTO statements (corpus, pos, id, matches_key, type, belief, json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer ins.Close()

	for i, st := range stmts {
		raw, err := statements.MarshalStatement(st)
		if err != nil {
			return err
		}
		b := st.Core()
		if _, err := ins.ExecContext(ctx, corpus, i, b.ID,
			st.MatchesKey(), st.Type(), b.Belief, string(raw)); err != nil {
			return fmt.Errorf("insert statement %s: %w", b.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	s.log.Info("corpus saved",
		zap.String("corpus", corpus), zap.Int("statements", len(stmts)))
	return nil
}

// LoadCorpus returns the named corpus in saved order with refinement
// links restored.
func (s *CorpusStore) LoadCorpus(ctx context.Context, corpus string) ([]statements.Statement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json FROM statements WHERE corpus = ? ORDER BY pos`, corpus)
	if err != nil {
		return nil, fmt.Errorf("load corpus %q: %w", corpus, err)
	}
	defer rows.Close()

	var raws []json.RawMessage
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		raws = append(raws, json.RawMessage(raw))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	data, err := json.Marshal(raws)
	if err != nil {
		return nil, err
	}
	return statements.UnmarshalStatements(data)
}

// Corpora lists stored corpus names.
func (s *CorpusStore) Corpora(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT corpus FROM statements ORDER BY corpus`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteCorpus removes the named corpus.
func (s *CorpusStore) DeleteCorpus(ctx context.Context, corpus string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM statements WHERE corpus = ?`, corpus)
	return err
}

// CountByType returns statement counts per relation type for a corpus.
func (s *CorpusStore) CountByType(ctx context.Context, corpus string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT type, COUNT(*) FROM statements
		WHERE corpus = ? GROUP BY type`, corpus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, err
		}
		counts[typ] = n
	}
	return counts, rows.Err()
}
