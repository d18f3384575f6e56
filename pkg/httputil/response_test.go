package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	err := WriteJSON(rec, http.StatusOK, map[string]int{"total": 3})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"total":3}`, rec.Body.String())
}

func TestWriteErrorMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteErrorMessage(rec, http.StatusForbidden, "not a member of organization")

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not a member of organization", body["error"])
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusInternalServerError, errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "boom")
}

func TestParseQueryInt(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		defaultVal int
		expected   int
		wantErr    bool
	}{
		{"present", "/?limit=25", 10, 25, false},
		{"absent uses default", "/", 10, 10, false},
		{"garbage", "/?limit=abc", 10, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.url, nil)
			val, err := ParseQueryInt(r, "limit", tt.defaultVal)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, val)
		})
	}
}

func TestParsePathString(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/orgs/org-1/search", nil)
	r = mux.SetURLVars(r, map[string]string{"org_id": "org-1"})

	val, err := ParsePathString(r, "org_id")
	require.NoError(t, err)
	assert.Equal(t, "org-1", val)

	_, err = ParsePathString(r, "missing")
	assert.Error(t, err)
}
