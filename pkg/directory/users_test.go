package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUsers(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	users := []*User{
		{ID: "user-1", Name: "User One", Email: "one@example.com", IsDiscoverable: true},
		{ID: "user-2", Name: "User Two", Email: "two@example.com", IsDiscoverable: true},
		{ID: "user-3", Name: "Hidden Harry", Email: "harry@example.com", IsDiscoverable: false},
		{ID: "user-4", Name: "Percy 100%", Email: "percy@example.com", IsDiscoverable: true},
	}
	for _, u := range users {
		require.NoError(t, store.CreateUser(ctx, u))
	}
}

func TestSearchUsers_CaseInsensitive(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	seedUsers(t, store)

	ud := NewUserDirectory(store)
	results, err := ud.SearchUsers(context.Background(), "user one", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "User One", results[0].Name)
}

func TestSearchUsers_MatchesEmail(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	seedUsers(t, store)

	ud := NewUserDirectory(store)
	results, err := ud.SearchUsers(context.Background(), "TWO@example", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "user-2", results[0].ID)
}

func TestSearchUsers_NeverReturnsNonDiscoverable(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	seedUsers(t, store)

	ud := NewUserDirectory(store)
	queries := []string{
		"harry",
		"Hidden",
		"harry@example.com",
		"foo%' OR 1=1 --",
		"%",
		"__",
	}

	for _, q := range queries {
		results, err := ud.SearchUsers(context.Background(), q, 25)
		require.NoError(t, err, "query %q", q)
		for _, r := range results {
			assert.NotEqual(t, "user-3", r.ID, "non-discoverable user leaked for query %q", q)
		}
	}
}

func TestSearchUsers_InjectionShapedPayloadIsLiteral(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	seedUsers(t, store)

	ud := NewUserDirectory(store)

	// A payload shaped like an injection matches nothing because no stored
	// name or email literally contains it.
	results, err := ud.SearchUsers(context.Background(), "foo%' OR 1=1 --", 25)
	require.NoError(t, err)
	assert.Empty(t, results)

	// LIKE metacharacters match literally, not as wildcards: "100%" only
	// matches the user whose name really contains "100%".
	results, err = ud.SearchUsers(context.Background(), "100%", 25)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "user-4", results[0].ID)

	// A bare "%" wildcard would otherwise match every user
	results, err = ud.SearchUsers(context.Background(), "%%", 25)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchUsers_ShortQueryReturnsEmptyWithoutStorage(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	seedUsers(t, store)
	ud := NewUserDirectory(store)

	for _, q := range []string{"", "a", "  a  "} {
		results, err := ud.SearchUsers(context.Background(), q, 5)
		require.NoError(t, err)
		assert.Empty(t, results, "query %q", q)
	}
}

func TestSearchUsers_LimitClamped(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	for i := 0; i < 40; i++ {
		require.NoError(t, store.CreateUser(ctx, &User{
			ID:             "bulk-" + string(rune('a'+i%26)) + string(rune('a'+i/26)),
			Name:           "Bulk Account",
			Email:          "bulk@example.com",
			IsDiscoverable: true,
		}))
	}

	ud := NewUserDirectory(store)

	results, err := ud.SearchUsers(ctx, "bulk", 1000)
	require.NoError(t, err)
	assert.Len(t, results, MaxUserSearchLimit)

	// Non-positive limit falls back to the default
	results, err = ud.SearchUsers(ctx, "bulk", 0)
	require.NoError(t, err)
	assert.Len(t, results, DefaultUserSearchLimit)
}
