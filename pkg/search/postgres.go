package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PostgresBackend executes queries against a PostgreSQL tsvector index. It
// does not use the compiled match expression: plainto_tsquery takes the
// literal terms as a bound parameter and neutralizes operator syntax itself,
// so the whole statement is parameterized.
type PostgresBackend struct {
	db *sql.DB
}

// NewPostgresBackend creates a backend over a Postgres search database
func NewPostgresBackend(db *sql.DB) *PostgresBackend {
	return &PostgresBackend{db: db}
}

// Query implements Backend
func (b *PostgresBackend) Query(ctx context.Context, orgID string, q CompiledQuery, entityType string, limit, offset int) ([]Document, int, error) {
	if q.Empty() {
		return nil, 0, nil
	}
	needle := strings.Join(q.Terms, " ")

	where := `search_vector @@ plainto_tsquery('simple', $1) AND organization_id = $2`
	args := []interface{}{needle, orgID}
	if entityType != "" {
		where += ` AND entity_type = $3`
		args = append(args, entityType)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM search_documents WHERE %s`, where)
	if err := b.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count matches: %w", err)
	}

	pageQuery := fmt.Sprintf(`
		SELECT entity_type, entity_id, name, body,
		       ts_rank(search_vector, plainto_tsquery('simple', $1)) AS rank
		FROM search_documents
		WHERE %s
		ORDER BY rank DESC, entity_id ASC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
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

// Suggest implements Backend with an escaped, parameterized prefix ILIKE
func (b *PostgresBackend) Suggest(ctx context.Context, orgID string, prefix string, limit int) ([]string, error) {
	trimmed := strings.TrimSpace(prefix)
	if trimmed == "" {
		return nil, nil
	}
	pattern := escapeLikePattern(trimmed) + "%"

	rows, err := b.db.QueryContext(ctx, `
		SELECT DISTINCT name
		FROM search_documents
		WHERE organization_id = $1 AND name ILIKE $2
		ORDER BY name ASC
		LIMIT $3
	`, orgID, pattern, limit)
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

// escapeLikePattern neutralizes LIKE metacharacters so user input matches
// literally. Backslash first, since it is the escape character.
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
