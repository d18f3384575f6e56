package directory

import (
	"context"
	"fmt"
	"strings"
)

const (
	// MinUserQueryLength is the minimum query length before storage is touched
	MinUserQueryLength = 2

	// DefaultUserSearchLimit applies when the caller passes a non-positive limit
	DefaultUserSearchLimit = 5

	// MaxUserSearchLimit caps the result set regardless of the caller's request
	MaxUserSearchLimit = 25
)

// UserDirectory is the global, cross-organization account search. It never
// touches the FTS index: matching is a parameterized case-insensitive
// substring comparison on name and email, restricted to discoverable users.
type UserDirectory struct {
	store *Store
}

// NewUserDirectory creates the user directory search over a directory store
func NewUserDirectory(store *Store) *UserDirectory {
	return &UserDirectory{store: store}
}

// SearchUsers returns up to limit discoverable users whose name or email
// contains the query, case-insensitively. Queries shorter than
// MinUserQueryLength return an empty list without querying storage. The
// query is always bound as a parameter; LIKE metacharacters in it are
// escaped so they match literally.
func (ud *UserDirectory) SearchUsers(ctx context.Context, query string, limit int) ([]UserSummary, error) {
	query = strings.TrimSpace(query)
	if len(query) < MinUserQueryLength {
		return []UserSummary{}, nil
	}

	if limit <= 0 {
		limit = DefaultUserSearchLimit
	}
	if limit > MaxUserSearchLimit {
		limit = MaxUserSearchLimit
	}

	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	rows, err := ud.store.db.QueryContext(ctx, `
		SELECT id, name, email
		FROM users
		WHERE is_discoverable = 1
		  AND (LOWER(name) LIKE ? ESCAPE '\' OR LOWER(email) LIKE ? ESCAPE '\')
		ORDER BY name ASC
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	results := make([]UserSummary, 0, limit)
	for rows.Next() {
		var user UserSummary
		if err := rows.Scan(&user.ID, &user.Name, &user.Email); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		results = append(results, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return results, nil
}

// escapeLike escapes LIKE metacharacters so user input matches literally
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
