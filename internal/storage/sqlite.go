package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matsen/kgeval/internal/triple"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// StoredTriple is a triple row with its source and position.
type StoredTriple struct {
	Source string `json:"source"`
	Index  int    `json:"index"`
	triple.Triple
}

// TripleFilter selects triples. Empty fields match everything; non-empty
// fields are compared after normalization.
type TripleFilter struct {
	Source   string
	Head     string
	Relation string
	Tail     string
	Limit    int
}

// RelationCount is the number of complete triples using one relation.
type RelationCount struct {
	Relation string `json:"relation"`
	Count    int    `json:"count"`
}

// SourceCount summarizes one indexed source.
type SourceCount struct {
	Source   string `json:"source"`
	Triples  int    `json:"triples"`
	Complete int    `json:"complete"`
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS triples (
			source TEXT NOT NULL,
			idx INTEGER NOT NULL,
			head TEXT NOT NULL,
			head_type TEXT NOT NULL,
			relation TEXT NOT NULL,
			tail TEXT NOT NULL,
			tail_type TEXT NOT NULL,
			head_norm TEXT NOT NULL,
			relation_norm TEXT NOT NULL,
			tail_norm TEXT NOT NULL,
			complete INTEGER NOT NULL,
			PRIMARY KEY (source, idx)
		);

		CREATE INDEX IF NOT EXISTS idx_triples_head ON triples(head_norm);
		CREATE INDEX IF NOT EXISTS idx_triples_relation ON triples(relation_norm);
		CREATE INDEX IF NOT EXISTS idx_triples_tail ON triples(tail_norm);
	`

	_, err := db.Exec(schema)
	return err
}

// Clear removes every indexed triple.
func (d *DB) Clear() error {
	if _, err := d.db.Exec("DELETE FROM triples"); err != nil {
		return fmt.Errorf("clearing triples table: %w", err)
	}
	return nil
}

// RebuildSource replaces the indexed triples of one source.
func (d *DB) RebuildSource(source string, triples []triple.Triple) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM triples WHERE source = ?", source); err != nil {
		return 0, fmt.Errorf("clearing source %s: %w", source, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO triples (
			source, idx, head, head_type, relation, tail, tail_type,
			head_norm, relation_norm, tail_norm, complete
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing triples insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range triples {
		n := t.Normalize()
		complete := 0
		if t.Complete() {
			complete = 1
		}
		_, err = stmt.Exec(
			source, i, t.Head, t.HeadType, t.Relation, t.Tail, t.TailType,
			n.Head, n.Relation, n.Tail, complete,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting triple %d of %s: %w", i, source, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing source %s: %w", source, err)
	}
	return len(triples), nil
}

// ListTriples returns triples matching the filter in (source, index) order.
func (d *DB) ListTriples(f TripleFilter) ([]StoredTriple, error) {
	var where []string
	var args []any
	if f.Source != "" {
		where = append(where, "source = ?")
		args = append(args, f.Source)
	}
	for _, c := range []struct{ col, val string }{
		{"head_norm", f.Head},
		{"relation_norm", f.Relation},
		{"tail_norm", f.Tail},
	} {
		if c.val != "" {
			where = append(where, c.col+" = ?")
			args = append(args, triple.NormalizeValue(c.val))
		}
	}

	query := `SELECT source, idx, head, head_type, relation, tail, tail_type FROM triples`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY source, idx"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying triples: %w", err)
	}
	defer rows.Close()

	var out []StoredTriple
	for rows.Next() {
		var st StoredTriple
		if err := rows.Scan(&st.Source, &st.Index,
			&st.Head, &st.HeadType, &st.Relation, &st.Tail, &st.TailType); err != nil {
			return nil, fmt.Errorf("scanning triple: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// RelationCounts returns relation usage over complete triples, most frequent first.
// An empty source counts across all sources; limit <= 0 returns every relation.
func (d *DB) RelationCounts(source string, limit int) ([]RelationCount, error) {
	query := `SELECT relation_norm, COUNT(*) AS n FROM triples WHERE complete = 1`
	var args []any
	if source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}
	query += " GROUP BY relation_norm ORDER BY n DESC, relation_norm"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying relation counts: %w", err)
	}
	defer rows.Close()

	var out []RelationCount
	for rows.Next() {
		var rc RelationCount
		if err := rows.Scan(&rc.Relation, &rc.Count); err != nil {
			return nil, fmt.Errorf("scanning relation count: %w", err)
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// SourceCounts returns per-source totals ordered by source name.
func (d *DB) SourceCounts() ([]SourceCount, error) {
	rows, err := d.db.Query(`
		SELECT source, COUNT(*), SUM(complete)
		FROM triples
		GROUP BY source
		ORDER BY source
	`)
	if err != nil {
		return nil, fmt.Errorf("querying source counts: %w", err)
	}
	defer rows.Close()

	var out []SourceCount
	for rows.Next() {
		var sc SourceCount
		if err := rows.Scan(&sc.Source, &sc.Triples, &sc.Complete); err != nil {
			return nil, fmt.Errorf("scanning source count: %w", err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// CountTriples returns the total number of indexed triples.
func (d *DB) CountTriples() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM triples").Scan(&count)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return 0, nil
		}
		return 0, err
	}
	return count, nil
}
