package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/agentic-research/exporttree/api"
	"github.com/agentic-research/exporttree/internal/tree"
	_ "modernc.org/sqlite"
)

const pagesSchema = `
CREATE TABLE IF NOT EXISTS pages (
	id             TEXT PRIMARY KEY,
	parent_id      TEXT NOT NULL,
	position       INTEGER NOT NULL,
	label          TEXT NOT NULL DEFAULT '',
	reference      TEXT NOT NULL DEFAULT '',
	type           TEXT NOT NULL,
	has_children   INTEGER NOT NULL DEFAULT 0,
	checked        INTEGER NOT NULL DEFAULT 1,
	disabled       INTEGER NOT NULL DEFAULT 0,
	undetermined   INTEGER NOT NULL DEFAULT 0,
	valid_children TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_pages_parent ON pages(parent_id, position);

CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// SQLiteWriter stores a wiki fixture as one row per node.
type SQLiteWriter struct {
	db *sql.DB
}

// NewSQLiteWriter opens (or creates) dbPath and ensures the schema.
func NewSQLiteWriter(dbPath string) (*SQLiteWriter, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	if _, err := db.Exec(pagesSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteWriter{db: db}, nil
}

// Write replaces the stored wiki with w in a single transaction.
func (w *SQLiteWriter) Write(ctx context.Context, wiki *api.Wiki) (int, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin write: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op once committed

	if _, err := tx.ExecContext(ctx, "DELETE FROM pages"); err != nil {
		return 0, fmt.Errorf("clear pages: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT OR REPLACE INTO meta (key, value) VALUES ('wiki', ?)", wiki.Name); err != nil {
		return 0, fmt.Errorf("write wiki name: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO pages
		(id, parent_id, position, label, reference, type, has_children, checked, disabled, undetermined, valid_children)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare page insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	count := 0
	var insert func(parentID string, nodes []api.Node) error
	insert = func(parentID string, nodes []api.Node) error {
		for i := range nodes {
			d := descriptor(&nodes[i])
			valid := make([]string, len(d.ValidChildren))
			for j, t := range d.ValidChildren {
				valid[j] = string(t)
			}
			if _, err := stmt.ExecContext(ctx, d.ID, parentID, i, d.Label, d.Reference, string(d.Type),
				d.HasChildren, d.Checked, d.Disabled, d.Undetermined, strings.Join(valid, ",")); err != nil {
				return fmt.Errorf("insert page %s: %w", d.ID, err)
			}
			count++
			if err := insert(d.ID, nodes[i].Nodes); err != nil {
				return err
			}
		}
		return nil
	}
	if err := insert(tree.RootID, wiki.Nodes); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit pages: %w", err)
	}
	return count, nil
}

// Close closes the database.
func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}

// SQLiteLoader serves children from a database written by SQLiteWriter, one
// indexed query per opened node.
type SQLiteLoader struct {
	db   *sql.DB
	wiki string
}

// OpenSQLiteLoader opens dbPath and reads the wiki name.
func OpenSQLiteLoader(dbPath string) (*SQLiteLoader, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	var wiki string
	if err := db.QueryRow("SELECT value FROM meta WHERE key = 'wiki'").Scan(&wiki); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("read wiki name from %s: %w", dbPath, err)
	}
	return &SQLiteLoader{db: db, wiki: wiki}, nil
}

// Wiki returns the stored wiki name.
func (l *SQLiteLoader) Wiki() string {
	return l.wiki
}

// Children implements tree.Loader.
func (l *SQLiteLoader) Children(ctx context.Context, parentID string) ([]tree.ChildDescriptor, error) {
	if parentID != tree.RootID {
		var exists int
		err := l.db.QueryRowContext(ctx, "SELECT 1 FROM pages WHERE id = ?", parentID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownNode, parentID)
		}
		if err != nil {
			return nil, fmt.Errorf("look up %q: %w", parentID, err)
		}
	}

	rows, err := l.db.QueryContext(ctx, `SELECT id, label, reference, type, has_children, checked, disabled, undetermined, valid_children
		FROM pages WHERE parent_id = ? ORDER BY position`, parentID)
	if err != nil {
		return nil, fmt.Errorf("query children of %q: %w", parentID, err)
	}
	defer func() { _ = rows.Close() }()

	var out []tree.ChildDescriptor
	for rows.Next() {
		var (
			d     tree.ChildDescriptor
			typ   string
			valid string
		)
		if err := rows.Scan(&d.ID, &d.Label, &d.Reference, &typ, &d.HasChildren, &d.Checked,
			&d.Disabled, &d.Undetermined, &valid); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		d.Type = tree.NodeType(typ)
		if valid != "" {
			for _, t := range strings.Split(valid, ",") {
				d.ValidChildren = append(d.ValidChildren, tree.NodeType(t))
			}
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Close closes the database.
func (l *SQLiteLoader) Close() error {
	return l.db.Close()
}
