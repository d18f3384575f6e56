package search

import (
	"context"
	"database/sql"
	"fmt"
)

// SQLiteBackend executes queries against the SQLite FTS5 index maintained by
// the directory store. The match expression comes from the compiler; every
// other predicate is a bound parameter in the same statement.
type SQLiteBackend struct {
	db       *sql.DB
	compiler *Compiler
}

// NewSQLiteBackend creates a backend over the directory database
func NewSQLiteBackend(db *sql.DB) *SQLiteBackend {
	return &SQLiteBackend{db: db, compiler: NewCompiler()}
}

// Query implements Backend. Results are ordered by bm25 relevance; FTS5
// reports lower scores for better matches, so the order is ascending.
func (b *SQLiteBackend) Query(ctx context.Context, orgID string, q CompiledQuery, entityType string, limit, offset int) ([]Document, int, error) {
	if q.Empty() {
		return nil, 0, nil
	}

	where := `directory_fts MATCH ? AND d.organization_id = ?`
	args := []interface{}{q.Match, orgID}
	if entityType != "" {
		where += ` AND d.entity_type = ?`
		args = append(args, entityType)
	}

	var total int
	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM directory_fts f
		JOIN directory_documents d ON d.id = f.rowid
		WHERE %s
	`, where)
	if err := b.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count matches: %w", err)
	}

	pageQuery := fmt.Sprintf(`
		SELECT d.entity_type, d.entity_id, d.name, d.body, bm25(directory_fts) AS rank
		FROM directory_fts f
		JOIN directory_documents d ON d.id = f.rowid
		WHERE %s
		ORDER BY rank ASC, d.id ASC
		LIMIT ? OFFSET ?
	`, where)
	args = append(args, limit, offset)

	rows, err := b.db.QueryContext(ctx, pageQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to execute search: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.EntityType, &doc.EntityID, &doc.Name, &doc.Body, &doc.Rank); err != nil {
			return nil, 0, fmt.Errorf("failed to scan search result: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read search results: %w", err)
	}
	return docs, total, nil
}

// Suggest implements Backend using a prefix-phrase query over the name column
func (b *SQLiteBackend) Suggest(ctx context.Context, orgID string, prefix string, limit int) ([]string, error) {
	q := b.compiler.CompilePrefix(prefix, "name")
	if q.Empty() {
		return nil, nil
	}

	rows, err := b.db.QueryContext(ctx, `
		SELECT DISTINCT d.name
		FROM directory_fts f
		JOIN directory_documents d ON d.id = f.rowid
		WHERE directory_fts MATCH ? AND d.organization_id = ?
		ORDER BY d.name ASC
		LIMIT ?
	`, q.Match, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute autocomplete: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan suggestion: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read suggestions: %w", err)
	}
	return names, nil
}
