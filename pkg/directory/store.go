package directory

import (
	"context"
	"database/sql"
	"fmt"
)

// Store provides CRUD over the directory schema. All department and person
// mutations maintain the directory_documents projection in the same
// transaction as the base row, so the FTS index never lags a commit.
type Store struct {
	db *sql.DB
}

// NewStore creates a directory store over an explicitly passed database
// handle. Tests substitute an in-memory SQLite instance per test.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle for collaborators (search backends,
// health checks) wired at startup.
func (s *Store) DB() *sql.DB {
	return s.db
}

// CreateOrganization inserts a new organization
func (s *Store) CreateOrganization(ctx context.Context, org *Organization) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO organizations (id, name, is_public)
		VALUES (?, ?, ?)
	`, org.ID, org.Name, org.IsPublic)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// GetOrganization fetches an organization by ID
func (s *Store) GetOrganization(ctx context.Context, id string) (*Organization, error) {
	org := &Organization{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, is_public, created_at, updated_at
		FROM organizations WHERE id = ?
	`, id).Scan(&org.ID, &org.Name, &org.IsPublic, &org.CreatedAt, &org.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	return org, nil
}

// AddMember adds a user to an organization
func (s *Store) AddMember(ctx context.Context, orgID, userID, role string) error {
	if role == "" {
		role = "member"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO organization_members (organization_id, user_id, role)
		VALUES (?, ?, ?)
	`, orgID, userID, role)
	if err != nil {
		return fmt.Errorf("failed to add member: %w", err)
	}
	return nil
}

// RemoveMember removes a user from an organization
func (s *Store) RemoveMember(ctx context.Context, orgID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM organization_members
		WHERE organization_id = ? AND user_id = ?
	`, orgID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// CreateUser inserts a new user account
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, is_discoverable)
		VALUES (?, ?, ?, ?)
	`, user.ID, user.Name, user.Email, user.IsDiscoverable)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// SetUserToken stores the API token used by the auth middleware
func (s *Store) SetUserToken(ctx context.Context, userID, token string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET api_token = ? WHERE id = ?
	`, token, userID)
	if err != nil {
		return fmt.Errorf("failed to set user token: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user not found: %s", userID)
	}
	return nil
}

// LookupUserByToken resolves an API token to a user ID. Returns empty string
// when the token is unknown.
func (s *Store) LookupUserByToken(ctx context.Context, token string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM users WHERE api_token = ?
	`, token).Scan(&userID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up token: %w", err)
	}
	return userID, nil
}

// CreateDepartment inserts a department and indexes it atomically
func (s *Store) CreateDepartment(ctx context.Context, dept *Department) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO departments (id, organization_id, parent_id, name, description)
			VALUES (?, ?, NULLIF(?, ''), ?, ?)
		`, dept.ID, dept.OrganizationID, dept.ParentID, dept.Name, dept.Description)
		if err != nil {
			return fmt.Errorf("failed to create department: %w", err)
		}
		return upsertDocument(ctx, tx, departmentDocument(dept))
	})
}

// UpdateDepartment updates a department and reindexes it atomically
func (s *Store) UpdateDepartment(ctx context.Context, dept *Department) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE departments
			SET name = ?, description = ?, parent_id = NULLIF(?, ''), updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND organization_id = ?
		`, dept.Name, dept.Description, dept.ParentID, dept.ID, dept.OrganizationID)
		if err != nil {
			return fmt.Errorf("failed to update department: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("department not found: %s", dept.ID)
		}
		return upsertDocument(ctx, tx, departmentDocument(dept))
	})
}

// DeleteDepartment removes a department and its index document atomically
func (s *Store) DeleteDepartment(ctx context.Context, orgID, deptID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM departments WHERE id = ? AND organization_id = ?
		`, deptID, orgID)
		if err != nil {
			return fmt.Errorf("failed to delete department: %w", err)
		}
		return removeDocument(ctx, tx, EntityDepartment, deptID)
	})
}

// CreatePerson inserts a person and indexes them atomically
func (s *Store) CreatePerson(ctx context.Context, person *Person) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO people (id, organization_id, department_id, name, title, email)
			VALUES (?, ?, NULLIF(?, ''), ?, ?, ?)
		`, person.ID, person.OrganizationID, person.DepartmentID, person.Name, person.Title, person.Email)
		if err != nil {
			return fmt.Errorf("failed to create person: %w", err)
		}
		return upsertDocument(ctx, tx, personDocument(person))
	})
}

// UpdatePerson updates a person and reindexes them atomically
func (s *Store) UpdatePerson(ctx context.Context, person *Person) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE people
			SET name = ?, title = ?, email = ?, department_id = NULLIF(?, ''), updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND organization_id = ?
		`, person.Name, person.Title, person.Email, person.DepartmentID, person.ID, person.OrganizationID)
		if err != nil {
			return fmt.Errorf("failed to update person: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("person not found: %s", person.ID)
		}
		return upsertDocument(ctx, tx, personDocument(person))
	})
}

// DeletePerson removes a person and their index document atomically
func (s *Store) DeletePerson(ctx context.Context, orgID, personID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM people WHERE id = ? AND organization_id = ?
		`, personID, orgID)
		if err != nil {
			return fmt.Errorf("failed to delete person: %w", err)
		}
		return removeDocument(ctx, tx, EntityPerson, personID)
	})
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
