package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orgdex/orgdex/pkg/authz"
	"github.com/orgdex/orgdex/pkg/directory"
	"github.com/orgdex/orgdex/pkg/observability"
)

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.ErrorLevel, io.Discard)
}

// allowAll is a checker stub that grants every request
type allowAll struct{}

func (allowAll) CanRead(ctx context.Context, userID, orgID string) error { return nil }

// recordingBackend captures calls so tests can assert ordering guarantees
type recordingBackend struct {
	queries  int
	suggests int
	names    []string
}

func (b *recordingBackend) Query(ctx context.Context, orgID string, q CompiledQuery, entityType string, limit, offset int) ([]Document, int, error) {
	b.queries++
	return nil, 0, nil
}

func (b *recordingBackend) Suggest(ctx context.Context, orgID string, prefix string, limit int) ([]string, error) {
	b.suggests++
	return append([]string{orgID + ":" + prefix}, b.names...), nil
}

func newTestService(t *testing.T) (*Service, context.Context) {
	t.Helper()
	db := newTestDB(t)
	seedDirectory(t, db)

	svc := NewService(NewSQLiteBackend(db), authz.NewSQLChecker(db), testLogger(), nil)
	return svc, context.Background()
}

func TestService_SearchReturnsOwnTenantOnly(t *testing.T) {
	svc, ctx := newTestService(t)

	resp, err := svc.Search(ctx, "org-1", "user-1", Params{Query: "dept"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Confidential Dept", resp.Results[0].Name)
	assert.Equal(t, 1, resp.Total)
	assert.False(t, resp.HasMore)
}

func TestService_CrossTenantSearchIsAuthorizationError(t *testing.T) {
	svc, ctx := newTestService(t)

	// user-1 is not a member of org-2: the identical query that succeeds on
	// org-1 must fail hard, not return an empty page.
	resp, err := svc.Search(ctx, "org-2", "user-1", Params{Query: "dept"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, IsAuthorizationError(err))
	assert.False(t, IsValidationError(err))
}

func TestService_AuthorizationPrecedesValidation(t *testing.T) {
	svc, ctx := newTestService(t)

	// Even an invalid query against a forbidden org reports the
	// authorization failure, proving the check runs first.
	_, err := svc.Search(ctx, "org-2", "user-1", Params{Query: strings.Repeat("a", MaxQueryLength+1)})
	require.Error(t, err)
	assert.True(t, IsAuthorizationError(err))
}

func TestService_DeniedCallerNeverReachesBackend(t *testing.T) {
	backend := &recordingBackend{}
	db := newTestDB(t)
	seedDirectory(t, db)

	svc := NewService(backend, authz.NewSQLChecker(db), testLogger(), nil)

	_, err := svc.Search(context.Background(), "org-2", "user-1", Params{Query: "dept"})
	require.Error(t, err)
	_, err = svc.Autocomplete(context.Background(), "org-2", "user-1", "de", 10)
	require.Error(t, err)

	assert.Equal(t, 0, backend.queries)
	assert.Equal(t, 0, backend.suggests)
}

func TestService_ValidationRejections(t *testing.T) {
	svc, ctx := newTestService(t)

	tests := []struct {
		name   string
		query  string
		reason ValidationReason
	}{
		{"over length limit", strings.Repeat("a", MaxQueryLength+1), ReasonTooLong},
		{"wildcard noise", strings.Repeat("*", 100), ReasonUnmatchable},
		{"empty", "", ReasonUnmatchable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(ctx, "org-1", "user-1", Params{Query: tt.query})
			require.Error(t, err)

			var vErr *ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.reason, vErr.Reason)
		})
	}
}

func TestService_EntityTypeFilter(t *testing.T) {
	svc, ctx := newTestService(t)

	// "engineer" matches a person; the people filter keeps it, the
	// departments filter excludes it
	resp, err := svc.Search(ctx, "org-1", "user-1", Params{Query: "engineer", EntityType: FilterPeople})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "person", resp.Results[0].EntityType)

	resp, err = svc.Search(ctx, "org-1", "user-1", Params{Query: "engineer", EntityType: FilterDepartments})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.Total)

	resp, err = svc.Search(ctx, "org-1", "user-1", Params{Query: "sensitive", EntityType: FilterDepartments})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "department", resp.Results[0].EntityType)

	// "all" and the empty string disable the filter identically
	for _, filter := range []string{"", FilterAll} {
		resp, err = svc.Search(ctx, "org-1", "user-1", Params{Query: "dept", EntityType: filter})
		require.NoError(t, err)
		assert.Equal(t, 1, resp.Total)
	}
}

func TestService_UnknownEntityTypeIsRejected(t *testing.T) {
	backend := &recordingBackend{}
	svc := NewService(backend, allowAll{}, testLogger(), nil)

	// The stored singular forms are not wire values either
	for _, filter := range []string{"teams", "department", "person", "ALL"} {
		_, err := svc.Search(context.Background(), "org-1", "user-1", Params{Query: "dept", EntityType: filter})
		require.Error(t, err, "filter %q", filter)

		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, ReasonInvalidType, vErr.Reason)
	}
	assert.Equal(t, 0, backend.queries)
}

func TestService_MetacharacterQueriesAreSafe(t *testing.T) {
	svc, ctx := newTestService(t)

	// Injection-shaped input executes without error and matches nothing,
	// because no document literally contains all its terms.
	resp, err := svc.Search(ctx, "org-1", "user-1", Params{Query: "foo%' OR 1=1 --"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.Total)
}

func TestService_MaxLengthQueryExecutesQuickly(t *testing.T) {
	svc, ctx := newTestService(t)

	// Exactly at the limit: passes validation and executes
	query := strings.Repeat("zq ", MaxQueryLength/3)
	require.LessOrEqual(t, len(query), MaxQueryLength)

	resp, err := svc.Search(ctx, "org-1", "user-1", Params{Query: query})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Less(t, resp.Performance.QueryTimeMs, int64(1000))
}

func TestService_UnindexableQuerySkipsStorage(t *testing.T) {
	backend := &recordingBackend{}
	svc := NewService(backend, allowAll{}, testLogger(), nil)

	// Valid per the length check, but no token survives compilation
	resp, err := svc.Search(context.Background(), "org-1", "user-1", Params{Query: "--- ''' !!"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, backend.queries)
}

func TestService_LimitClamped(t *testing.T) {
	db := newTestDB(t)
	store := seedDirectory(t, db)
	ctx := context.Background()

	for i := 0; i < 150; i++ {
		require.NoError(t, store.CreatePerson(ctx, &directory.Person{
			ID:             fmt.Sprintf("widget-%03d", i),
			OrganizationID: "org-1",
			Name:           "Widget Person",
		}))
	}

	svc := NewService(NewSQLiteBackend(db), authz.NewSQLChecker(db), testLogger(), nil)

	resp, err := svc.Search(ctx, "org-1", "user-1", Params{Query: "widget", Limit: 10000})
	require.NoError(t, err)
	assert.Len(t, resp.Results, MaxLimit)
	assert.Equal(t, 150, resp.Total)
	assert.True(t, resp.HasMore)

	resp, err = svc.Search(ctx, "org-1", "user-1", Params{Query: "widget"})
	require.NoError(t, err)
	assert.Len(t, resp.Results, DefaultLimit)
}

func TestService_SnippetsAreEscaped(t *testing.T) {
	db := newTestDB(t)
	store := seedDirectory(t, db)
	ctx := context.Background()

	require.NoError(t, store.CreateDepartment(ctx, &directory.Department{
		ID:             "dept-markup",
		OrganizationID: "org-1",
		Name:           "Payroll",
		Description:    `<script>alert("x")</script> payroll processing`,
	}))

	svc := NewService(NewSQLiteBackend(db), authz.NewSQLChecker(db), testLogger(), nil)

	resp, err := svc.Search(ctx, "org-1", "user-1", Params{Query: "payroll"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.NotContains(t, resp.Results[0].Snippet, "<script>")
	assert.Contains(t, resp.Results[0].Snippet, "<mark>payroll</mark>")
}

func TestService_StorageErrorPropagates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("disk I/O error"))

	svc := NewService(NewSQLiteBackend(db), allowAll{}, testLogger(), nil)

	resp, err := svc.Search(context.Background(), "org-1", "user-1", Params{Query: "dept"})
	require.Error(t, err)
	assert.Nil(t, resp)
	assert.False(t, IsValidationError(err))
	assert.False(t, IsAuthorizationError(err))
	assert.ErrorContains(t, err, "disk I/O error")
}

func TestService_Autocomplete(t *testing.T) {
	svc, ctx := newTestService(t)

	names, err := svc.Autocomplete(ctx, "org-1", "user-1", "gr", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Grace Hopper"}, names)

	// Below the minimum prefix length: empty, not an error
	names, err = svc.Autocomplete(ctx, "org-1", "user-1", "g", 10)
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestService_SuggestionCacheIsTenantScoped(t *testing.T) {
	backend := &recordingBackend{}
	svc := NewService(backend, allowAll{}, testLogger(), nil)
	svc.EnableSuggestionCache(16, time.Minute)
	ctx := context.Background()

	first, err := svc.Autocomplete(ctx, "org-1", "user-1", "en", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.suggests)

	// Same prefix, same org: served from cache
	again, err := svc.Autocomplete(ctx, "org-1", "user-1", "en", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.suggests)
	assert.Equal(t, first, again)

	// Same prefix, different org: cache must not cross tenants
	other, err := svc.Autocomplete(ctx, "org-2", "user-2", "en", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, backend.suggests)
	assert.NotEqual(t, first, other)
}
