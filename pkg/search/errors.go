package search

import (
	"errors"
	"fmt"
)

// ValidationError reports a query rejected before any storage access
type ValidationError struct {
	Reason  ValidationReason
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid query (%s): %s", e.Reason, e.Message)
}

// AuthorizationError reports a caller denied access to an organization. It is
// a hard failure: it never degrades into an empty result set.
type AuthorizationError struct {
	UserID string
	OrgID  string
	err    error
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("user %q is not authorized for organization %q", e.UserID, e.OrgID)
}

func (e *AuthorizationError) Unwrap() error {
	return e.err
}

// IsValidationError reports whether err is a query validation rejection
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// IsAuthorizationError reports whether err is an authorization rejection
func IsAuthorizationError(err error) bool {
	var aErr *AuthorizationError
	return errors.As(err, &aErr)
}
