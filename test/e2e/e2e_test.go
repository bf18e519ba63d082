//go:build e2e

package e2e

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/veccache/internal/domain"
)

// TestE2E_CacheLifecycle walks the full flow against a real pgvector
// database: seed, initialize, search, inspect, clear.
func TestE2E_CacheLifecycle(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	scope := domain.Scope{OrgID: "org-e2e", ChatbotConfigID: "cfg-main"}
	env.SeedVectors(scope, []domain.VectorEntry{
		{
			Item: domain.KnowledgeItem{
				ID:         "kv-refunds",
				Text:       "Refunds are processed within 14 days.",
				Category:   domain.ItemCategoryPolicy,
				SourceType: domain.ItemSourceTypeFAQ,
				Tags:       []string{"refunds", "billing"},
			},
			Vector: BasisVector(0),
		},
		{
			Item: domain.KnowledgeItem{
				ID:         "kv-pricing",
				Text:       "The starter plan costs 29 euro per month.",
				Category:   domain.ItemCategoryPricing,
				SourceType: domain.ItemSourceTypeDocument,
			},
			Vector: BasisVector(1),
		},
		{
			Item: domain.KnowledgeItem{
				ID:         "kv-setup",
				Text:       "Install the widget snippet before the closing body tag.",
				Category:   domain.ItemCategorySupport,
				SourceType: domain.ItemSourceTypeManual,
			},
			Vector: BlendVector(0, 1),
		},
	})

	t.Run("initialize loads seeded vectors", func(t *testing.T) {
		status, resp, err := env.Post(ScopePath(scope)+"/init", nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)

		var init struct {
			VectorsLoaded  int     `json:"vectors_loaded"`
			VectorsEvicted int     `json:"vectors_evicted"`
			MemoryUsageKB  float64 `json:"memory_usage_kb"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &init))
		assert.Equal(t, 3, init.VectorsLoaded)
		assert.Equal(t, 0, init.VectorsEvicted)
		assert.Greater(t, init.MemoryUsageKB, 0.0)
	})

	t.Run("search ranks exact axis first", func(t *testing.T) {
		status, resp, err := env.Post(ScopePath(scope)+"/search", map[string]interface{}{
			"embedding": BasisVector(0),
			"threshold": 0.5,
			"limit":     2,
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)

		var search struct {
			Results []struct {
				ID         string  `json:"id"`
				Text       string  `json:"text"`
				Similarity float64 `json:"similarity"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &search))
		require.Len(t, search.Results, 2)
		assert.Equal(t, "kv-refunds", search.Results[0].ID)
		assert.InDelta(t, 1.0, search.Results[0].Similarity, 0.001)
		assert.Equal(t, "kv-setup", search.Results[1].ID)
	})

	t.Run("category filter narrows results", func(t *testing.T) {
		status, resp, err := env.Post(ScopePath(scope)+"/search", map[string]interface{}{
			"embedding":       BasisVector(0),
			"threshold":       0.5,
			"category_filter": "policy",
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)

		var search struct {
			Results []struct {
				ID string `json:"id"`
			} `json:"results"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &search))
		require.Len(t, search.Results, 1)
		assert.Equal(t, "kv-refunds", search.Results[0].ID)
	})

	t.Run("invalid threshold is rejected", func(t *testing.T) {
		status, resp, err := env.Post(ScopePath(scope)+"/search", map[string]interface{}{
			"embedding": BasisVector(0),
			"threshold": 1.5,
		})
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, resp.Error, "INVALID_SEARCH_PARAMETER")
	})

	t.Run("stats reflect cache activity", func(t *testing.T) {
		status, resp, err := env.Get(ScopePath(scope) + "/stats")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)

		var stats struct {
			TotalVectors int     `json:"total_vectors"`
			SearchCount  int64   `json:"search_count"`
			CacheHitRate float64 `json:"cache_hit_rate"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &stats))
		assert.Equal(t, 3, stats.TotalVectors)
		assert.Equal(t, int64(2), stats.SearchCount)
		assert.Equal(t, 1.0, stats.CacheHitRate)
	})

	t.Run("health reports clean bands", func(t *testing.T) {
		status, resp, err := env.Get(ScopePath(scope) + "/health")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)

		var health struct {
			Overall string `json:"overall"`
			Memory  string `json:"memory"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &health))
		assert.Equal(t, "excellent", health.Overall)
		assert.Equal(t, "good", health.Memory)
	})

	t.Run("access patterns track scanned records", func(t *testing.T) {
		status, resp, err := env.Get(ScopePath(scope) + "/patterns")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)

		var patterns struct {
			Hottest []struct {
				ID          string `json:"id"`
				AccessCount int64  `json:"access_count"`
			} `json:"hottest"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &patterns))
		require.NotEmpty(t, patterns.Hottest)
		assert.Greater(t, patterns.Hottest[0].AccessCount, int64(0))
	})

	t.Run("clear drops the scope", func(t *testing.T) {
		status, _, err := env.Delete(ScopePath(scope) + "/")
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, status)

		status, _, err = env.Delete(ScopePath(scope) + "/")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestE2E_ScopeIsolation(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	scopeA := domain.Scope{OrgID: "org-a", ChatbotConfigID: "cfg-1"}
	scopeB := domain.Scope{OrgID: "org-b", ChatbotConfigID: "cfg-1"}

	env.SeedVectors(scopeA, []domain.VectorEntry{
		{
			Item:   domain.KnowledgeItem{ID: "kv-a", Text: "Belongs to org-a."},
			Vector: BasisVector(0),
		},
	})

	for _, scope := range []domain.Scope{scopeA, scopeB} {
		status, _, err := env.Post(ScopePath(scope)+"/init", nil)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)
	}

	status, resp, err := env.Post(ScopePath(scopeB)+"/search", map[string]interface{}{
		"embedding": BasisVector(0),
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)

	var search struct {
		Results []json.RawMessage `json:"results"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &search))
	assert.Empty(t, search.Results)
}

func TestE2E_ReinitializePicksUpNewVectors(t *testing.T) {
	env := SetupE2EEnv(t)
	defer env.Cleanup()

	scope := domain.Scope{OrgID: "org-reload", ChatbotConfigID: "cfg-1"}
	env.SeedVectors(scope, []domain.VectorEntry{
		{
			Item:   domain.KnowledgeItem{ID: "kv-1", Text: "First document."},
			Vector: BasisVector(0),
		},
	})

	status, resp, err := env.Post(ScopePath(scope)+"/init", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)

	var init struct {
		VectorsLoaded int `json:"vectors_loaded"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &init))
	assert.Equal(t, 1, init.VectorsLoaded)

	env.SeedVectors(scope, []domain.VectorEntry{
		{
			Item:   domain.KnowledgeItem{ID: "kv-2", Text: "Second document."},
			Vector: BasisVector(1),
		},
	})

	status, resp, err = env.Post(ScopePath(scope)+"/init", nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(resp.Data, &init))
	assert.Equal(t, 2, init.VectorsLoaded)
}
