package directory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// departmentDocument projects a department into its index document
func departmentDocument(dept *Department) *Document {
	return &Document{
		OrganizationID: dept.OrganizationID,
		EntityType:     EntityDepartment,
		EntityID:       dept.ID,
		Name:           dept.Name,
		Body:           dept.Description,
	}
}

// personDocument projects a person into its index document
func personDocument(person *Person) *Document {
	body := strings.TrimSpace(person.Title + " " + person.Email)
	return &Document{
		OrganizationID: person.OrganizationID,
		EntityType:     EntityPerson,
		EntityID:       person.ID,
		Name:           person.Name,
		Body:           body,
	}
}

// execer covers both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// upsertDocument writes an index document. The FTS triggers propagate the
// change to directory_fts.
func upsertDocument(ctx context.Context, e execer, doc *Document) error {
	_, err := e.ExecContext(ctx, `
		INSERT INTO directory_documents (organization_id, entity_type, entity_id, name, body)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (entity_type, entity_id) DO UPDATE SET
			organization_id = excluded.organization_id,
			name = excluded.name,
			body = excluded.body
	`, doc.OrganizationID, doc.EntityType, doc.EntityID, doc.Name, doc.Body)
	if err != nil {
		return fmt.Errorf("failed to index %s %s: %w", doc.EntityType, doc.EntityID, err)
	}
	return nil
}

// removeDocument deletes an index document
func removeDocument(ctx context.Context, e execer, entityType EntityType, entityID string) error {
	_, err := e.ExecContext(ctx, `
		DELETE FROM directory_documents WHERE entity_type = ? AND entity_id = ?
	`, entityType, entityID)
	if err != nil {
		return fmt.Errorf("failed to remove %s %s from index: %w", entityType, entityID, err)
	}
	return nil
}

// Indexer provides index maintenance beyond the per-mutation upkeep done by
// Store: full rebuilds after bulk imports and the scheduled optimize pass.
type Indexer struct {
	db *sql.DB
}

// NewIndexer creates an indexer over the directory database
func NewIndexer(db *sql.DB) *Indexer {
	return &Indexer{db: db}
}

// ReindexOrganization rebuilds all index documents for one organization from
// the base tables.
func (ix *Indexer) ReindexOrganization(ctx context.Context, orgID string) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reindex transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM directory_documents WHERE organization_id = ?
	`, orgID); err != nil {
		return fmt.Errorf("failed to clear index for organization %s: %w", orgID, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO directory_documents (organization_id, entity_type, entity_id, name, body)
		SELECT organization_id, 'department', id, name, description
		FROM departments WHERE organization_id = ?
	`, orgID); err != nil {
		return fmt.Errorf("failed to reindex departments: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO directory_documents (organization_id, entity_type, entity_id, name, body)
		SELECT organization_id, 'person', id, TRIM(name), TRIM(title || ' ' || email)
		FROM people WHERE organization_id = ?
	`, orgID); err != nil {
		return fmt.Errorf("failed to reindex people: %w", err)
	}

	return tx.Commit()
}

// Optimize merges the FTS b-trees. Run from the scheduled maintenance job;
// cheap when the index is already merged.
func (ix *Indexer) Optimize(ctx context.Context) error {
	_, err := ix.db.ExecContext(ctx, `
		INSERT INTO directory_fts(directory_fts) VALUES ('optimize')
	`)
	if err != nil {
		return fmt.Errorf("failed to optimize directory index: %w", err)
	}
	return nil
}

// CountDocuments returns the total number of indexed documents, for metrics
func (ix *Indexer) CountDocuments(ctx context.Context) (int64, error) {
	var count int64
	err := ix.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM directory_documents`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}
