package authz

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Checker decides whether a user may read an organization's directory
type Checker interface {
	// CanRead returns nil when userID may read orgID, an *Error when access
	// is denied or the organization is unknown, and a wrapped storage error
	// otherwise.
	CanRead(ctx context.Context, userID, orgID string) error
}

// Error is an authorization rejection. It is distinct from "no results":
// searching an organization the caller cannot access always surfaces this
// error, never an empty response.
type Error struct {
	UserID string
	OrgID  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("user %q may not read organization %q: %s", e.UserID, e.OrgID, e.Reason)
}

// IsAuthorizationError reports whether err is an authorization rejection
func IsAuthorizationError(err error) bool {
	var authErr *Error
	return errors.As(err, &authErr)
}

// SQLChecker implements Checker against the directory schema: an
// organization is readable by its members, and public organizations are
// readable by any authenticated user.
type SQLChecker struct {
	db *sql.DB
}

// NewSQLChecker creates a checker over the directory database
func NewSQLChecker(db *sql.DB) *SQLChecker {
	return &SQLChecker{db: db}
}

// CanRead implements Checker
func (c *SQLChecker) CanRead(ctx context.Context, userID, orgID string) error {
	if userID == "" {
		return &Error{UserID: userID, OrgID: orgID, Reason: "no authenticated user"}
	}

	var isPublic bool
	err := c.db.QueryRowContext(ctx, `
		SELECT is_public FROM organizations WHERE id = ?
	`, orgID).Scan(&isPublic)
	if err == sql.ErrNoRows {
		// Unknown organizations reject exactly like forbidden ones so the
		// response does not reveal which organization IDs exist.
		return &Error{UserID: userID, OrgID: orgID, Reason: "organization not accessible"}
	}
	if err != nil {
		return fmt.Errorf("failed to load organization: %w", err)
	}

	if isPublic {
		return nil
	}

	var isMember bool
	err = c.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM organization_members
			WHERE organization_id = ? AND user_id = ?
		)
	`, orgID, userID).Scan(&isMember)
	if err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}

	if !isMember {
		return &Error{UserID: userID, OrgID: orgID, Reason: "organization not accessible"}
	}
	return nil
}
