package directory

import (
	"database/sql"
	"fmt"
)

// schema is the SQLite schema for the directory service. The directory_fts
// virtual table uses external content so base rows are stored once; the
// triggers keep it synchronized with directory_documents.
const schema = `
CREATE TABLE IF NOT EXISTS organizations (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	is_public INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS organization_members (
	organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'member',
	joined_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (organization_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_org_members_user ON organization_members(user_id);

CREATE TABLE IF NOT EXISTS departments (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	parent_id TEXT REFERENCES departments(id) ON DELETE SET NULL,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_departments_org ON departments(organization_id);

CREATE TABLE IF NOT EXISTS people (
	id TEXT PRIMARY KEY,
	organization_id TEXT NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
	department_id TEXT REFERENCES departments(id) ON DELETE SET NULL,
	name TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	email TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_people_org ON people(organization_id);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	is_discoverable INTEGER NOT NULL DEFAULT 0,
	api_token TEXT UNIQUE,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS directory_documents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	organization_id TEXT NOT NULL,
	entity_type TEXT NOT NULL CHECK (entity_type IN ('department', 'person')),
	entity_id TEXT NOT NULL,
	name TEXT NOT NULL,
	body TEXT NOT NULL DEFAULT '',
	UNIQUE (entity_type, entity_id)
);

CREATE INDEX IF NOT EXISTS idx_directory_documents_org
	ON directory_documents(organization_id, entity_type);

CREATE VIRTUAL TABLE IF NOT EXISTS directory_fts USING fts5(
	name,
	body,
	content='directory_documents',
	content_rowid='id',
	tokenize='unicode61'
);

CREATE TRIGGER IF NOT EXISTS directory_documents_ai
AFTER INSERT ON directory_documents BEGIN
	INSERT INTO directory_fts(rowid, name, body)
	VALUES (new.id, new.name, new.body);
END;

CREATE TRIGGER IF NOT EXISTS directory_documents_ad
AFTER DELETE ON directory_documents BEGIN
	INSERT INTO directory_fts(directory_fts, rowid, name, body)
	VALUES ('delete', old.id, old.name, old.body);
END;

CREATE TRIGGER IF NOT EXISTS directory_documents_au
AFTER UPDATE ON directory_documents BEGIN
	INSERT INTO directory_fts(directory_fts, rowid, name, body)
	VALUES ('delete', old.id, old.name, old.body);
	INSERT INTO directory_fts(rowid, name, body)
	VALUES (new.id, new.name, new.body);
END;
`

// Migrate creates the directory schema on a SQLite database. It is
// idempotent and safe to run at every startup.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply directory schema: %w", err)
	}
	return nil
}
