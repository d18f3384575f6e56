package search

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/orgdex/orgdex/pkg/directory"
	"github.com/orgdex/orgdex/pkg/httputil"
	"github.com/orgdex/orgdex/pkg/observability"
)

// Handler exposes the search subsystem over HTTP
type Handler struct {
	service *Service
	users   *directory.UserDirectory
	logger  *observability.Logger
}

// NewHandler creates an HTTP handler for the search endpoints
func NewHandler(service *Service, users *directory.UserDirectory, logger *observability.Logger) *Handler {
	return &Handler{service: service, users: users, logger: logger}
}

// RegisterRoutes registers the search endpoints on the router
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/orgs/{org_id}/search", h.handleSearch).Methods("GET")
	router.HandleFunc("/api/v1/orgs/{org_id}/autocomplete", h.handleAutocomplete).Methods("GET")
	router.HandleFunc("/api/v1/users/search", h.handleUserSearch).Methods("GET")
	router.HandleFunc("/api/v1/search/validate", h.handleValidate).Methods("GET")
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathStringOrError(w, r, "org_id")
	if !ok {
		return
	}
	userID := observability.GetUserID(r.Context())
	if userID == "" {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	limit, err := httputil.ParseQueryInt(r, "limit", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	offset, err := httputil.ParseQueryInt(r, "offset", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	params := Params{
		Query:      r.URL.Query().Get("q"),
		EntityType: httputil.ParseQueryString(r, "type", ""),
		Limit:      limit,
		Offset:     offset,
	}

	resp, err := h.service.Search(r.Context(), orgID, userID, params)
	if err != nil {
		h.writeSearchError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, resp)
}

func (h *Handler) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	orgID, ok := httputil.ParsePathStringOrError(w, r, "org_id")
	if !ok {
		return
	}
	userID := observability.GetUserID(r.Context())
	if userID == "" {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	limit, err := httputil.ParseQueryInt(r, "limit", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	suggestions, err := h.service.Autocomplete(r.Context(), orgID, userID, r.URL.Query().Get("q"), limit)
	if err != nil {
		h.writeSearchError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, map[string]interface{}{
		"suggestions": suggestions,
	})
}

func (h *Handler) handleUserSearch(w http.ResponseWriter, r *http.Request) {
	if observability.GetUserID(r.Context()) == "" {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}

	limit, err := httputil.ParseQueryInt(r, "limit", 0)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	users, err := h.users.SearchUsers(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		h.writeSearchError(w, r, err)
		return
	}
	if users == nil {
		users = []directory.UserSummary{}
	}
	httputil.WriteSuccess(w, map[string]interface{}{
		"users": users,
	})
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	if observability.GetUserID(r.Context()) == "" {
		httputil.WriteUnauthorized(w, "authentication required")
		return
	}
	httputil.WriteSuccess(w, h.service.Validate(r.URL.Query().Get("q")))
}

// writeSearchError maps the error taxonomy onto HTTP statuses. A zero-match
// query is a 200 and never reaches here.
func (h *Handler) writeSearchError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case IsValidationError(err):
		httputil.WriteBadRequest(w, err.Error())
	case IsAuthorizationError(err):
		httputil.WriteForbidden(w, "organization not accessible")
	default:
		observability.FromContext(r.Context()).WithError(err).Error("search request failed")
		httputil.WriteInternalError(w, err)
	}
}
