// Package search implements tenant-scoped full-text search over the
// organizational directory: query validation, compilation into an engine
// expression, execution against a pluggable backend, autocomplete, and the
// HTTP surface for all of it.
//
// The compiler is the only place in the system that builds a query string by
// hand. Every other predicate, including the organization_id scope that rides
// in the same statement as the match, is a bound parameter.
package search
