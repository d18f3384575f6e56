package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/orgdex/orgdex/pkg/authz"
	"github.com/orgdex/orgdex/pkg/directory"
	"github.com/orgdex/orgdex/pkg/observability"
)

var tracer = otel.Tracer("orgdex/search/service")

const (
	// DefaultLimit is the page size when the caller does not specify one
	DefaultLimit = 20
	// MaxLimit caps the page size regardless of what the caller requests
	MaxLimit = 100

	// MinPrefixLength is the shortest autocomplete prefix that hits storage
	MinPrefixLength = 2
	// DefaultSuggestionLimit is the autocomplete page size default
	DefaultSuggestionLimit = 10
	// MaxSuggestionLimit caps the autocomplete page size
	MaxSuggestionLimit = 25
)

// Accepted values for the type filter. The wire values are plural; the index
// stores the singular entity types.
const (
	FilterAll         = "all"
	FilterDepartments = "departments"
	FilterPeople      = "people"
)

// entityTypeFilter maps a wire filter value onto the stored entity type.
// Empty and "all" disable the filter. Anything else is a rejection, not an
// empty result set.
func entityTypeFilter(v string) (string, error) {
	switch v {
	case "", FilterAll:
		return "", nil
	case FilterDepartments:
		return string(directory.EntityDepartment), nil
	case FilterPeople:
		return string(directory.EntityPerson), nil
	default:
		return "", &ValidationError{
			Reason:  ReasonInvalidType,
			Message: fmt.Sprintf("unknown type filter %q, expected all, departments or people", v),
		}
	}
}

// Params are the caller-supplied search parameters
type Params struct {
	Query      string
	EntityType string
	Limit      int
	Offset     int
}

// Result is one search hit as returned to the caller
type Result struct {
	EntityType string  `json:"entityType"`
	EntityID   string  `json:"entityId"`
	Name       string  `json:"name"`
	Snippet    string  `json:"snippet,omitempty"`
	Rank       float64 `json:"rank"`
}

// Performance carries query timing for the caller
type Performance struct {
	QueryTimeMs int64 `json:"queryTimeMs"`
}

// Response is a page of search results
type Response struct {
	Results     []Result    `json:"results"`
	Total       int         `json:"total"`
	HasMore     bool        `json:"hasMore"`
	Performance Performance `json:"performance"`
}

// Service is the search executor. Every call checks authorization before any
// query work; throttling and authentication live in middleware, outside this
// package.
type Service struct {
	backend   Backend
	checker   authz.Checker
	validator *Validator
	compiler  *Compiler
	logger    *observability.Logger
	metrics   *observability.Metrics

	suggestions *expirable.LRU[string, []string]
}

// NewService creates a search service over a backend and an authorization
// checker. metrics may be nil in tests.
func NewService(backend Backend, checker authz.Checker, logger *observability.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		backend:   backend,
		checker:   checker,
		validator: NewValidator(),
		compiler:  NewCompiler(),
		logger:    logger,
		metrics:   metrics,
	}
}

// EnableSuggestionCache turns on the autocomplete cache. Entries are keyed by
// organization and prefix, never by prefix alone.
func (s *Service) EnableSuggestionCache(size int, ttl time.Duration) {
	s.suggestions = expirable.NewLRU[string, []string](size, nil, ttl)
}

// Validate checks a raw query without executing it
func (s *Service) Validate(raw string) ValidationResult {
	return s.validator.Validate(raw)
}

// Search runs a tenant-scoped search. The order is fixed: authorize,
// validate, compile, execute.
func (s *Service) Search(ctx context.Context, orgID, userID string, params Params) (*Response, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("org_id", orgID),
			attribute.Int("query_length", len(params.Query)),
			attribute.Int("limit", params.Limit),
			attribute.Int("offset", params.Offset),
		),
	)
	defer span.End()

	if err := s.authorize(ctx, span, "search", userID, orgID); err != nil {
		return nil, err
	}

	if res := s.validator.Validate(params.Query); !res.Valid {
		span.SetStatus(codes.Error, "query rejected")
		s.countRejection("search", string(res.Reason))
		return nil, &ValidationError{Reason: res.Reason, Message: res.Message}
	}

	entityType, err := entityTypeFilter(params.EntityType)
	if err != nil {
		span.SetStatus(codes.Error, "type filter rejected")
		s.countRejection("search", string(ReasonInvalidType))
		return nil, err
	}

	limit := clamp(params.Limit, DefaultLimit, MaxLimit)
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	q := s.compiler.Compile(params.Query)
	span.SetAttributes(attribute.Int("term_count", len(q.Terms)))

	resp := &Response{Results: []Result{}}
	if !q.Empty() {
		docs, total, err := s.backend.Query(ctx, orgID, q, entityType, limit, offset)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "backend query failed")
			s.countRequest("search", "error")
			return nil, fmt.Errorf("search failed for organization %s: %w", orgID, err)
		}

		resp.Results = make([]Result, 0, len(docs))
		for _, doc := range docs {
			text := doc.Body
			if text == "" {
				text = doc.Name
			}
			resp.Results = append(resp.Results, Result{
				EntityType: doc.EntityType,
				EntityID:   doc.EntityID,
				Name:       doc.Name,
				Snippet:    Snippet(text, q.Terms),
				Rank:       doc.Rank,
			})
		}
		resp.Total = total
		resp.HasMore = offset+len(docs) < total
	}

	resp.Performance.QueryTimeMs = time.Since(start).Milliseconds()
	s.countRequest("search", "ok")
	s.observe("search", start, len(resp.Results))

	observability.FromContext(ctx).WithFields(map[string]interface{}{
		"org_id":  orgID,
		"total":   resp.Total,
		"took_ms": resp.Performance.QueryTimeMs,
	}).Debug("search executed")
	return resp, nil
}

// Autocomplete returns name suggestions for a prefix, scoped to one
// organization. Prefixes shorter than MinPrefixLength return an empty slice
// without touching storage.
func (s *Service) Autocomplete(ctx context.Context, orgID, userID, prefix string, limit int) ([]string, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "Autocomplete",
		trace.WithAttributes(attribute.String("org_id", orgID)),
	)
	defer span.End()

	if err := s.authorize(ctx, span, "autocomplete", userID, orgID); err != nil {
		return nil, err
	}

	trimmed := strings.TrimSpace(prefix)
	if len([]rune(trimmed)) < MinPrefixLength {
		s.countRequest("autocomplete", "ok")
		return []string{}, nil
	}

	limit = clamp(limit, DefaultSuggestionLimit, MaxSuggestionLimit)

	key := suggestionCacheKey(orgID, trimmed, limit)
	if s.suggestions != nil {
		if cached, ok := s.suggestions.Get(key); ok {
			s.countCache("suggestions", true)
			s.countRequest("autocomplete", "ok")
			return cached, nil
		}
		s.countCache("suggestions", false)
	}

	names, err := s.backend.Suggest(ctx, orgID, trimmed, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend suggest failed")
		s.countRequest("autocomplete", "error")
		return nil, fmt.Errorf("autocomplete failed for organization %s: %w", orgID, err)
	}
	if names == nil {
		names = []string{}
	}

	if s.suggestions != nil {
		s.suggestions.Add(key, names)
	}
	s.countRequest("autocomplete", "ok")
	s.observe("autocomplete", start, len(names))
	return names, nil
}

func (s *Service) authorize(ctx context.Context, span trace.Span, operation, userID, orgID string) error {
	err := s.checker.CanRead(ctx, userID, orgID)
	if err == nil {
		return nil
	}

	if authz.IsAuthorizationError(err) {
		span.SetStatus(codes.Error, "authorization denied")
		s.countRejection(operation, "unauthorized")
		observability.FromContext(ctx).WithFields(map[string]interface{}{
			"org_id":    orgID,
			"operation": operation,
		}).Warn("search access denied")
		return &AuthorizationError{UserID: userID, OrgID: orgID, err: err}
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, "authorization check failed")
	s.countRequest(operation, "error")
	return fmt.Errorf("authorization check failed: %w", err)
}

func (s *Service) countRequest(operation, status string) {
	if s.metrics != nil {
		s.metrics.SearchRequestsTotal.WithLabelValues(operation, status).Inc()
	}
}

func (s *Service) countRejection(operation, reason string) {
	if s.metrics != nil {
		s.metrics.SearchRejectionsTotal.WithLabelValues(operation, reason).Inc()
	}
}

func (s *Service) countCache(cacheType string, hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.CacheHitsTotal.WithLabelValues(cacheType).Inc()
	} else {
		s.metrics.CacheMissesTotal.WithLabelValues(cacheType).Inc()
	}
}

func (s *Service) observe(operation string, start time.Time, results int) {
	if s.metrics == nil {
		return
	}
	s.metrics.SearchDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	s.metrics.SearchResultsReturned.WithLabelValues(operation).Observe(float64(results))
}

// suggestionCacheKey builds a cache key that always includes the tenant, so
// one organization's suggestions can never serve another's request.
func suggestionCacheKey(orgID, prefix string, limit int) string {
	return fmt.Sprintf("%s\x00%s\x00%d", orgID, strings.ToLower(prefix), limit)
}

func clamp(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}
