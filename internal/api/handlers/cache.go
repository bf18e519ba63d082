package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cloo-solutions/veccache/internal/api"
	"github.com/cloo-solutions/veccache/internal/cache"
	"github.com/cloo-solutions/veccache/internal/domain"
	"github.com/cloo-solutions/veccache/internal/source"
)

// QueryEmbedder generates an embedding for raw query text.
type QueryEmbedder interface {
	GenerateQueryEmbedding(ctx context.Context, query string) ([]float32, error)
}

// CacheHandler exposes the per-scope cache workflows over HTTP for
// operations and debugging. The production path calls the orchestrator
// in-process; this surface mirrors it one to one.
type CacheHandler struct {
	scopes   *cache.ScopeManager
	vectors  source.VectorSource
	embedder QueryEmbedder
}

// NewCacheHandler creates a CacheHandler. vectors and embedder are
// optional; endpoints that need a missing collaborator return 501.
func NewCacheHandler(scopes *cache.ScopeManager, vectors source.VectorSource, embedder QueryEmbedder) *CacheHandler {
	return &CacheHandler{
		scopes:   scopes,
		vectors:  vectors,
		embedder: embedder,
	}
}

func scopeFromRequest(r *http.Request) domain.Scope {
	return domain.Scope{
		OrgID:           chi.URLParam(r, "orgID"),
		ChatbotConfigID: chi.URLParam(r, "chatbotConfigID"),
	}
}

type InitializeResponse struct {
	VectorsLoaded  int     `json:"vectors_loaded"`
	VectorsEvicted int     `json:"vectors_evicted"`
	MemoryUsageKB  float64 `json:"memory_usage_kb"`
	DurationMS     int64   `json:"duration_ms"`
}

// Initialize loads the scope's vectors from the configured source.
func (h *CacheHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	if h.vectors == nil {
		api.Error(w, http.StatusNotImplemented, "no vector source configured")
		return
	}

	scope := scopeFromRequest(r)

	entries, err := h.vectors.FetchVectors(r.Context(), scope)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	result, err := h.scopes.Get(scope).Initialize(r.Context(), entries)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, InitializeResponse{
		VectorsLoaded:  result.VectorsLoaded,
		VectorsEvicted: result.VectorsEvicted,
		MemoryUsageKB:  result.MemoryUsageKB,
		DurationMS:     result.Duration.Milliseconds(),
	})
}

type SearchRequest struct {
	Embedding []float32 `json:"embedding,omitempty"`
	Query     string    `json:"query,omitempty"`
	// Threshold is a pointer so an explicit 0 (accept every
	// non-negative score) is distinguishable from an omitted field.
	Threshold        *float64 `json:"threshold,omitempty"`
	Limit            int      `json:"limit,omitempty"`
	CategoryFilter   string   `json:"category_filter,omitempty"`
	SourceTypeFilter string   `json:"source_type_filter,omitempty"`
	IncludeDebug     bool     `json:"include_debug,omitempty"`
}

type SearchResultResponse struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Category   string   `json:"category,omitempty"`
	SourceType string   `json:"source_type,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Similarity float64  `json:"similarity"`
}

type DebugEntryResponse struct {
	ID              string  `json:"id"`
	Similarity      float64 `json:"similarity"`
	PassedThreshold bool    `json:"passed_threshold"`
	Error           string  `json:"error,omitempty"`
}

type SearchResponse struct {
	Results    []*SearchResultResponse `json:"results"`
	DebugInfo  []*DebugEntryResponse   `json:"debug_info,omitempty"`
	DurationMS int64                   `json:"duration_ms"`
}

// Search scores a query embedding against the scope's cache. Raw query
// text is accepted when an embedder is configured.
func (h *CacheHandler) Search(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)

	start := time.Now()
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	embedding := req.Embedding
	if len(embedding) == 0 && req.Query != "" {
		if h.embedder == nil {
			api.Error(w, http.StatusNotImplemented, "no query embedder configured; supply an embedding")
			return
		}
		var err error
		embedding, err = h.embedder.GenerateQueryEmbedding(r.Context(), req.Query)
		if err != nil {
			api.Error(w, http.StatusBadGateway, err.Error())
			return
		}
	}

	opts := domain.SearchOptions{
		Limit:            req.Limit,
		CategoryFilter:   domain.ItemCategory(req.CategoryFilter),
		SourceTypeFilter: domain.ItemSourceType(req.SourceTypeFilter),
	}
	if req.Threshold != nil {
		opts.Threshold = *req.Threshold
		opts.ThresholdSet = true
	}

	out, err := h.scopes.Get(scope).Search(r.Context(), embedding, opts)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	results := make([]*SearchResultResponse, len(out.Results))
	for i, res := range out.Results {
		results[i] = &SearchResultResponse{
			ID:         res.Item.ID,
			Text:       res.Item.Text,
			Category:   string(res.Item.Category),
			SourceType: string(res.Item.SourceType),
			Tags:       res.Item.Tags,
			Similarity: res.Similarity,
		}
	}

	resp := SearchResponse{
		Results:    results,
		DurationMS: time.Since(start).Milliseconds(),
	}
	if req.IncludeDebug {
		resp.DebugInfo = make([]*DebugEntryResponse, len(out.DebugInfo))
		for i, entry := range out.DebugInfo {
			debug := &DebugEntryResponse{
				ID:              entry.ID,
				Similarity:      entry.Similarity,
				PassedThreshold: entry.PassedThreshold,
			}
			if entry.Err != nil {
				debug.Error = entry.Err.Error()
			}
			resp.DebugInfo[i] = debug
		}
	}

	api.Success(w, http.StatusOK, resp)
}

type StatsResponse struct {
	TotalVectors       int     `json:"total_vectors"`
	MemoryUsageKB      float64 `json:"memory_usage_kb"`
	MemoryLimitKB      int64   `json:"memory_limit_kb"`
	Utilization        float64 `json:"utilization"`
	CacheHitRate       float64 `json:"cache_hit_rate"`
	SearchCount        int64   `json:"search_count"`
	CacheHits          int64   `json:"cache_hits"`
	EvictionsPerformed int64   `json:"evictions_performed"`
	LastUpdated        string  `json:"last_updated"`
}

// Stats reports a point-in-time snapshot for the scope. Safe before
// initialization: an unknown scope reports an empty store.
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)
	st := h.scopes.Get(scope).Stats(r.Context())

	api.Success(w, http.StatusOK, StatsResponse{
		TotalVectors:       st.TotalVectors,
		MemoryUsageKB:      st.MemoryUsageKB,
		MemoryLimitKB:      st.MemoryLimitKB,
		Utilization:        st.Utilization,
		CacheHitRate:       st.CacheHitRate,
		SearchCount:        st.SearchCount,
		CacheHits:          st.CacheHits,
		EvictionsPerformed: st.EvictionsPerformed,
		LastUpdated:        st.LastUpdated.UTC().Format(time.RFC3339Nano),
	})
}

type HealthResponse struct {
	Overall         string   `json:"overall"`
	Memory          string   `json:"memory"`
	HitRate         string   `json:"hit_rate"`
	Eviction        string   `json:"eviction"`
	AccessPattern   string   `json:"access_pattern"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Health reports the composite health verdict for the scope.
func (h *CacheHandler) Health(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)
	report := h.scopes.Get(scope).HealthReport()

	api.Success(w, http.StatusOK, HealthResponse{
		Overall:         string(report.Overall),
		Memory:          string(report.Memory),
		HitRate:         string(report.HitRate),
		Eviction:        string(report.Eviction),
		AccessPattern:   string(report.AccessPattern),
		Recommendations: report.Recommendations,
	})
}

type AccessBucketResponse struct {
	MinAccess int64 `json:"min_access"`
	MaxAccess int64 `json:"max_access"`
	Count     int   `json:"count"`
}

type RecordAccessResponse struct {
	ID             string `json:"id"`
	AccessCount    int64  `json:"access_count"`
	LastAccessedAt string `json:"last_accessed_at"`
}

type AccessPatternsResponse struct {
	Distribution []AccessBucketResponse `json:"distribution"`
	Hottest      []RecordAccessResponse `json:"hottest"`
	Coldest      []RecordAccessResponse `json:"coldest"`
}

// AccessPatterns reports the access-count distribution for the scope.
func (h *CacheHandler) AccessPatterns(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)
	report := h.scopes.Get(scope).AccessPatterns()

	resp := AccessPatternsResponse{
		Distribution: make([]AccessBucketResponse, len(report.Distribution)),
		Hottest:      make([]RecordAccessResponse, len(report.Hottest)),
		Coldest:      make([]RecordAccessResponse, len(report.Coldest)),
	}
	for i, b := range report.Distribution {
		resp.Distribution[i] = AccessBucketResponse{
			MinAccess: b.MinAccess,
			MaxAccess: b.MaxAccess,
			Count:     b.Count,
		}
	}
	for i, rec := range report.Hottest {
		resp.Hottest[i] = RecordAccessResponse{
			ID:             rec.ID,
			AccessCount:    rec.AccessCount,
			LastAccessedAt: rec.LastAccessedAt.UTC().Format(time.RFC3339Nano),
		}
	}
	for i, rec := range report.Coldest {
		resp.Coldest[i] = RecordAccessResponse{
			ID:             rec.ID,
			AccessCount:    rec.AccessCount,
			LastAccessedAt: rec.LastAccessedAt.UTC().Format(time.RFC3339Nano),
		}
	}

	api.Success(w, http.StatusOK, resp)
}

// Clear empties the scope's cache. Unknown scopes are a 404.
func (h *CacheHandler) Clear(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromRequest(r)

	o, ok := h.scopes.Lookup(scope)
	if !ok {
		api.HandleError(w, domain.ErrScopeNotFound)
		return
	}

	o.Clear(r.Context())
	h.scopes.Remove(scope)

	api.Success(w, http.StatusOK, map[string]string{"status": "cleared"})
}
