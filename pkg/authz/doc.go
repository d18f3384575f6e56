// Package authz answers one question for the search subsystem: may this user
// read this organization's directory? The check runs before any query is
// compiled or executed, and a failure is a hard rejection that callers can
// tell apart from an empty result set.
package authz
