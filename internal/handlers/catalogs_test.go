package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/blossom-engine/internal/content"
	"github.com/jwebster45206/blossom-engine/pkg/scenario"
	"github.com/jwebster45206/blossom-engine/pkg/storage"
)

func TestCatalogHandler(t *testing.T) {
	store := storage.NewMockStorage()
	store.AddCatalog(content.DefaultFileName, content.MustPeachBlossom())
	h := NewCatalogHandler(testLogger(), store)

	t.Run("list", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/catalogs", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var list map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&list))
		assert.Len(t, list, 1)
		for _, file := range list {
			assert.Equal(t, content.DefaultFileName, file)
		}
	})

	t.Run("get", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/catalogs/"+content.DefaultFileName, nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var s scenario.Scenario
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&s))
		assert.Equal(t, "scene1", s.OpeningScene)
		assert.Len(t, s.Scenes, 3)
	})

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{name: "missing", method: http.MethodGet, path: "/v1/catalogs/other.json", expectedStatus: http.StatusNotFound},
		{name: "traversal", method: http.MethodGet, path: "/v1/catalogs/..secret.json", expectedStatus: http.StatusBadRequest},
		{name: "post", method: http.MethodPost, path: "/v1/catalogs", expectedStatus: http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.expectedStatus, rr.Code)
		})
	}
}
