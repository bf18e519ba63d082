package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/veccache/internal/api"
	"github.com/cloo-solutions/veccache/internal/cache"
	"github.com/cloo-solutions/veccache/internal/domain"
)

// MockVectorSource is a mock implementation of source.VectorSource
type MockVectorSource struct {
	mock.Mock
}

func (m *MockVectorSource) FetchVectors(ctx context.Context, scope domain.Scope) ([]domain.VectorEntry, error) {
	args := m.Called(ctx, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.VectorEntry), args.Error(1)
}

// MockQueryEmbedder is a mock implementation of QueryEmbedder
type MockQueryEmbedder struct {
	mock.Mock
}

func (m *MockQueryEmbedder) GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func floatPtr(v float64) *float64 {
	return &v
}

func testEntries(n int) []domain.VectorEntry {
	entries := make([]domain.VectorEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, domain.VectorEntry{
			Item: domain.KnowledgeItem{
				ID:       fmt.Sprintf("k%d", i),
				Text:     fmt.Sprintf("item %d", i),
				Category: domain.ItemCategoryGeneral,
			},
			Vector: []float32{1, float32(i) * 0.1},
		})
	}
	return entries
}

func newTestRouter(h *CacheHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/scopes/{orgID}/{chatbotConfigID}", func(r chi.Router) {
		r.Post("/init", h.Initialize)
		r.Post("/search", h.Search)
		r.Get("/stats", h.Stats)
		r.Get("/health", h.Health)
		r.Get("/patterns", h.AccessPatterns)
		r.Delete("/", h.Clear)
	})
	return r
}

func decodeSuccess(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NoError(t, json.Unmarshal(envelope.Data, target))
}

func TestCacheHandler_Initialize(t *testing.T) {
	vectors := new(MockVectorSource)
	scope := domain.Scope{OrgID: "org-1", ChatbotConfigID: "cfg-1"}
	vectors.On("FetchVectors", mock.Anything, scope).Return(testEntries(3), nil)

	scopes := cache.NewScopeManager(domain.CacheConfig{}, nil)
	router := newTestRouter(NewCacheHandler(scopes, vectors, nil))

	req := httptest.NewRequest(http.MethodPost, "/scopes/org-1/cfg-1/init", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp InitializeResponse
	decodeSuccess(t, w, &resp)
	assert.Equal(t, 3, resp.VectorsLoaded)
	assert.Equal(t, 0, resp.VectorsEvicted)
	assert.Greater(t, resp.MemoryUsageKB, 0.0)
	vectors.AssertExpectations(t)
}

func TestCacheHandler_Initialize_NoSourceConfigured(t *testing.T) {
	scopes := cache.NewScopeManager(domain.CacheConfig{}, nil)
	router := newTestRouter(NewCacheHandler(scopes, nil, nil))

	req := httptest.NewRequest(http.MethodPost, "/scopes/org-1/cfg-1/init", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestCacheHandler_Initialize_SourceFailure(t *testing.T) {
	vectors := new(MockVectorSource)
	vectors.On("FetchVectors", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("database offline"))

	scopes := cache.NewScopeManager(domain.CacheConfig{}, nil)
	router := newTestRouter(NewCacheHandler(scopes, vectors, nil))

	req := httptest.NewRequest(http.MethodPost, "/scopes/org-1/cfg-1/init", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func initializedRouter(t *testing.T) (http.Handler, *cache.ScopeManager) {
	t.Helper()
	vectors := new(MockVectorSource)
	vectors.On("FetchVectors", mock.Anything, mock.Anything).Return(testEntries(3), nil)

	scopes := cache.NewScopeManager(domain.CacheConfig{}, nil)
	router := newTestRouter(NewCacheHandler(scopes, vectors, nil))

	req := httptest.NewRequest(http.MethodPost, "/scopes/org-1/cfg-1/init", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	return router, scopes
}

func TestCacheHandler_Search_WithEmbedding(t *testing.T) {
	router, _ := initializedRouter(t)

	body, _ := json.Marshal(SearchRequest{
		Embedding: []float32{1, 0},
		Threshold: floatPtr(0.9),
	})
	req := httptest.NewRequest(http.MethodPost, "/scopes/org-1/cfg-1/search", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp SearchResponse
	decodeSuccess(t, w, &resp)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "k0", resp.Results[0].ID)
	assert.InDelta(t, 1.0, resp.Results[0].Similarity, 1e-6)
	assert.Nil(t, resp.DebugInfo)
}

func TestCacheHandler_Search_IncludeDebug(t *testing.T) {
	router, _ := initializedRouter(t)

	body, _ := json.Marshal(SearchRequest{
		Embedding:    []float32{1, 0},
		IncludeDebug: true,
	})
	req := httptest.NewRequest(http.MethodPost, "/scopes/org-1/cfg-1/search", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp SearchResponse
	decodeSuccess(t, w, &resp)
	assert.Len(t, resp.DebugInfo, 3)
}

func TestCacheHandler_Search_InvalidThreshold(t *testing.T) {
	router, _ := initializedRouter(t)

	body, _ := json.Marshal(SearchRequest{
		Embedding: []float32{1, 0},
		Threshold: floatPtr(1.5),
	})
	req := httptest.NewRequest(http.MethodPost, "/scopes/org-1/cfg-1/search", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "INVALID_SEARCH_PARAMETER")
}

func TestCacheHandler_Search_ExplicitZeroThreshold(t *testing.T) {
	router, _ := initializedRouter(t)

	// Query orthogonal to k0 so every candidate scores below the
	// default threshold. A supplied 0 must not resolve to 0.15.
	body, _ := json.Marshal(SearchRequest{
		Embedding: []float32{0, 1},
		Threshold: floatPtr(0),
	})
	req := httptest.NewRequest(http.MethodPost, "/scopes/org-1/cfg-1/search", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp SearchResponse
	decodeSuccess(t, w, &resp)
	assert.Len(t, resp.Results, 3)

	// The same query with the field omitted falls back to the default
	// and drops all the weak matches.
	body, _ = json.Marshal(SearchRequest{Embedding: []float32{0, 1}})
	req = httptest.NewRequest(http.MethodPost, "/scopes/org-1/cfg-1/search", bytes.NewReader(body))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	decodeSuccess(t, w, &resp)
	assert.Len(t, resp.Results, 1)
}

func TestCacheHandler_Search_EmptyEmbedding(t *testing.T) {
	router, _ := initializedRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/scopes/org-1/cfg-1/search", bytes.NewReader([]byte("{}")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCacheHandler_Search_MalformedBody(t *testing.T) {
	router, _ := initializedRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/scopes/org-1/cfg-1/search", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCacheHandler_Search_QueryTextWithEmbedder(t *testing.T) {
	embedder := new(MockQueryEmbedder)
	embedder.On("GenerateQueryEmbedding", mock.Anything, "refund policy").Return([]float32{1, 0}, nil)

	vectors := new(MockVectorSource)
	vectors.On("FetchVectors", mock.Anything, mock.Anything).Return(testEntries(3), nil)

	scopes := cache.NewScopeManager(domain.CacheConfig{}, nil)
	router := newTestRouter(NewCacheHandler(scopes, vectors, embedder))

	initReq := httptest.NewRequest(http.MethodPost, "/scopes/org-1/cfg-1/init", nil)
	initW := httptest.NewRecorder()
	router.ServeHTTP(initW, initReq)
	require.Equal(t, http.StatusOK, initW.Code)

	body, _ := json.Marshal(SearchRequest{Query: "refund policy", Threshold: floatPtr(0.9)})
	req := httptest.NewRequest(http.MethodPost, "/scopes/org-1/cfg-1/search", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	embedder.AssertExpectations(t)
}

func TestCacheHandler_Search_QueryTextWithoutEmbedder(t *testing.T) {
	router, _ := initializedRouter(t)

	body, _ := json.Marshal(SearchRequest{Query: "refund policy"})
	req := httptest.NewRequest(http.MethodPost, "/scopes/org-1/cfg-1/search", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestCacheHandler_Stats(t *testing.T) {
	router, _ := initializedRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/scopes/org-1/cfg-1/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp StatsResponse
	decodeSuccess(t, w, &resp)
	assert.Equal(t, 3, resp.TotalVectors)
	assert.Equal(t, 1.0, resp.CacheHitRate)
	assert.NotEmpty(t, resp.LastUpdated)
}

func TestCacheHandler_Stats_UnknownScopeIsEmpty(t *testing.T) {
	scopes := cache.NewScopeManager(domain.CacheConfig{}, nil)
	router := newTestRouter(NewCacheHandler(scopes, nil, nil))

	req := httptest.NewRequest(http.MethodGet, "/scopes/org-9/cfg-9/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp StatsResponse
	decodeSuccess(t, w, &resp)
	assert.Equal(t, 0, resp.TotalVectors)
}

func TestCacheHandler_Health(t *testing.T) {
	router, _ := initializedRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/scopes/org-1/cfg-1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	decodeSuccess(t, w, &resp)
	assert.NotEmpty(t, resp.Overall)
	assert.NotEmpty(t, resp.Memory)
}

func TestCacheHandler_AccessPatterns(t *testing.T) {
	router, _ := initializedRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/scopes/org-1/cfg-1/patterns", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp AccessPatternsResponse
	decodeSuccess(t, w, &resp)
	assert.NotEmpty(t, resp.Distribution)
	assert.Len(t, resp.Coldest, 3)
}

func TestCacheHandler_Clear(t *testing.T) {
	router, scopes := initializedRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/scopes/org-1/cfg-1/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, scopes.Len())
}

func TestCacheHandler_Clear_UnknownScope(t *testing.T) {
	scopes := cache.NewScopeManager(domain.CacheConfig{}, nil)
	router := newTestRouter(NewCacheHandler(scopes, nil, nil))

	req := httptest.NewRequest(http.MethodDelete, "/scopes/org-9/cfg-9/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
