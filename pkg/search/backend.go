package search

import "context"

// Document is a raw index hit returned by a backend, before snippet building
type Document struct {
	EntityType string
	EntityID   string
	Name       string
	Body       string
	Rank       float64
}

// Backend executes compiled queries against a search engine. Implementations
// must bind organization_id inside the same statement as the match predicate;
// filtering results after retrieval is not tenant scoping.
type Backend interface {
	// Query runs a compiled query scoped to one organization. entityType is
	// an optional filter ("" means all types). It returns the page of
	// documents and the total match count.
	Query(ctx context.Context, orgID string, q CompiledQuery, entityType string, limit, offset int) ([]Document, int, error)

	// Suggest returns entity names starting with the given prefix, scoped to
	// one organization, ordered deterministically.
	Suggest(ctx context.Context, orgID string, prefix string, limit int) ([]string, error)
}
