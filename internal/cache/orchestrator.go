package cache

import (
	"context"
	"sync"
	"time"

	"github.com/cloo-solutions/veccache/internal/domain"
	"github.com/cloo-solutions/veccache/internal/logging"
	"github.com/cloo-solutions/veccache/internal/stats"
	"github.com/cloo-solutions/veccache/internal/telemetry"
)

// Workflow operation names used in logs, spans, and error context.
const (
	OpInitialize = "cache.initialize"
	OpSearch     = "cache.search"
	OpClear      = "cache.clear"
	OpStats      = "cache.stats"
)

// Orchestrator coordinates the record store, admission policy, search
// engine, and statistics service for one cache scope. It exclusively
// owns its store. The HTTP server hands the same instance to parallel
// request goroutines, so each workflow holds the orchestrator mutex for
// its duration; searches mutate access counters on every scanned
// record, so readers take the same exclusive lock as loads.
type Orchestrator struct {
	scope    domain.Scope
	cfg      domain.CacheConfig
	mu       sync.Mutex
	store    *Store
	logger   logging.Logger
	counters stats.Counters
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured event logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOrchestrator creates an empty cache scope with resolved budgets.
func NewOrchestrator(scope domain.Scope, cfg domain.CacheConfig, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		scope:  scope,
		cfg:    cfg.Resolve(),
		store:  NewStore(),
		logger: logging.NewNopLogger(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Scope returns the orchestrator's scope identifiers.
func (o *Orchestrator) Scope() domain.Scope {
	return o.scope
}

// Config returns the resolved cache configuration.
func (o *Orchestrator) Config() domain.CacheConfig {
	return o.cfg
}

// Initialize bulk-loads the offered entries through the admission
// policy, replacing any previously loaded store. Repeating it for the
// same scope is safe but not incremental: the store is cleared and
// repopulated in full.
func (o *Orchestrator) Initialize(ctx context.Context, entries []domain.VectorEntry) (*domain.InitializeResult, error) {
	ctx, span := telemetry.StartSpan(ctx, OpInitialize, o.spanAttributes(OpInitialize))
	defer span.End()

	o.mu.Lock()
	defer o.mu.Unlock()

	start := o.now()
	o.logger.Step(o.scope, OpInitialize, "loading vectors", logging.Fields{
		"vectors_offered": len(entries),
	})

	for i := range entries {
		if err := domain.ValidateVectorEntry(&entries[i]); err != nil {
			wrapped := domain.NewOrchestrationFailure(OpInitialize, o.scope.OrgID, o.scope.ChatbotConfigID, err)
			o.logger.Error(o.scope, OpInitialize, wrapped, logging.Fields{
				"vectors_offered": len(entries),
				"entry_index":     i,
			})
			telemetry.CaptureError(ctx, wrapped)
			span.SetError(wrapped)
			return nil, wrapped
		}
	}

	plan := Admit(entries, o.cfg)

	o.store.Clear()
	loadedAt := o.now()
	for _, entry := range plan.Kept {
		o.store.Put(entry, loadedAt)
	}

	o.counters.EvictionsPerformed += int64(plan.Evicted)
	o.counters.InitializedAt = loadedAt

	result := &domain.InitializeResult{
		VectorsLoaded:  len(plan.Kept),
		VectorsEvicted: plan.Evicted,
		MemoryUsageKB:  EstimateStoreKB(o.store),
		Duration:       o.now().Sub(start),
	}

	o.logger.Metrics(o.scope, OpInitialize, logging.Fields{
		"vectors_loaded":  result.VectorsLoaded,
		"vectors_evicted": result.VectorsEvicted,
		"memory_usage_kb": result.MemoryUsageKB,
		"duration_ms":     result.Duration.Milliseconds(),
	})

	return result, nil
}

// Search scores the query against every resident record and returns the
// ranked matches. Validation errors surface immediately and are never
// retried; they are logged with scope context before propagating.
func (o *Orchestrator) Search(ctx context.Context, query []float32, opts domain.SearchOptions) (*SearchOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, OpSearch, o.spanAttributes(OpSearch))
	defer span.End()

	o.mu.Lock()
	defer o.mu.Unlock()

	resolved := opts.Resolve()
	o.logger.Step(o.scope, OpSearch, "searching cache", logging.Fields{
		"query_dimensions":   len(query),
		"threshold":          resolved.Threshold,
		"limit":              resolved.Limit,
		"category_filter":    string(resolved.CategoryFilter),
		"source_type_filter": string(resolved.SourceTypeFilter),
	})

	out, err := Search(o.store, query, opts, o.now())
	if err != nil {
		o.logger.Error(o.scope, OpSearch, err, logging.Fields{
			"query_dimensions": len(query),
		})
		span.SetError(err)
		return nil, err
	}

	o.counters.SearchCount++
	if len(out.Results) > 0 {
		o.counters.CacheHits++
	}

	o.logger.Metrics(o.scope, OpSearch, logging.Fields{
		"result_count":   len(out.Results),
		"scored_count":   len(out.DebugInfo),
		"top_candidates": topCandidates(out.DebugInfo, 5),
		"cache_hit":      len(out.Results) > 0,
		"search_count":   o.counters.SearchCount,
	})

	return out, nil
}

// Clear empties the store for this scope. Other scopes are unaffected.
func (o *Orchestrator) Clear(ctx context.Context) {
	_, span := telemetry.StartSpan(ctx, OpClear, o.spanAttributes(OpClear))
	defer span.End()

	o.mu.Lock()
	defer o.mu.Unlock()

	previous := o.store.Clear()
	o.logger.Step(o.scope, OpClear, "cache cleared", logging.Fields{
		"previous_size": previous,
	})
}

// Stats derives a point-in-time snapshot. Safe to call at any time,
// including before initialization: an empty store yields empty stats
// rather than an error.
func (o *Orchestrator) Stats(ctx context.Context) domain.CacheStats {
	_, span := telemetry.StartSpan(ctx, OpStats, o.spanAttributes(OpStats))
	defer span.End()

	o.mu.Lock()
	defer o.mu.Unlock()

	snapshot := stats.Calculate(o.store.Records(), EstimateStoreKB(o.store), o.cfg, o.counters, o.now())

	o.logger.Metrics(o.scope, OpStats, logging.Fields{
		"total_vectors":   snapshot.TotalVectors,
		"memory_usage_kb": snapshot.MemoryUsageKB,
		"utilization":     snapshot.Utilization,
		"cache_hit_rate":  snapshot.CacheHitRate,
	})

	return snapshot
}

// Efficiency derives density and access-distribution metrics.
func (o *Orchestrator) Efficiency() stats.EfficiencyMetrics {
	o.mu.Lock()
	defer o.mu.Unlock()

	return stats.Efficiency(o.store.Records(), EstimateStoreKB(o.store), o.cfg, o.counters, o.now())
}

// HealthReport grades the scope across the four health bands.
func (o *Orchestrator) HealthReport() stats.HealthReport {
	o.mu.Lock()
	defer o.mu.Unlock()

	return stats.Health(o.store.Records(), EstimateStoreKB(o.store), o.cfg, o.counters, o.now())
}

// AccessPatterns reports the access-count distribution and the
// hottest/coldest records.
func (o *Orchestrator) AccessPatterns() stats.AccessPatternReport {
	o.mu.Lock()
	defer o.mu.Unlock()

	return stats.AccessPatterns(o.store.Records())
}

func (o *Orchestrator) spanAttributes(operation string) telemetry.SpanAttributes {
	return telemetry.SpanAttributes{
		OrgID:           o.scope.OrgID,
		ChatbotConfigID: o.scope.ChatbotConfigID,
		Operation:       operation,
	}
}

type candidateSummary struct {
	ID         string  `json:"id"`
	Similarity float64 `json:"similarity"`
	Passed     bool    `json:"passed"`
}

func topCandidates(trace []DebugEntry, n int) []candidateSummary {
	if n > len(trace) {
		n = len(trace)
	}
	out := make([]candidateSummary, 0, n)
	for _, entry := range trace[:n] {
		out = append(out, candidateSummary{
			ID:         entry.ID,
			Similarity: entry.Similarity,
			Passed:     entry.PassedThreshold,
		})
	}
	return out
}
