package domain

import (
	"fmt"
	"time"
)

const (
	// DefaultMaxMemoryKB bounds the estimated footprint of one cache scope.
	// Sized for a warm serverless execution context holding 1536-dim
	// float32 embeddings (~6.5 KB per record).
	DefaultMaxMemoryKB = 51200
	// DefaultMaxVectorCount bounds the number of resident records.
	DefaultMaxVectorCount = 1000
	// DefaultEvictionBatchSize is how many candidates are dropped per
	// admission round when a load exceeds the memory budget.
	DefaultEvictionBatchSize = 50

	// DefaultSearchThreshold is the minimum cosine similarity for a match.
	DefaultSearchThreshold = 0.15
	// DefaultSearchLimit is the maximum number of results returned.
	DefaultSearchLimit = 5
	// MaxSearchLimit is the upper bound accepted for SearchOptions.Limit.
	MaxSearchLimit = 1000
)

// Scope is the (organization, chatbot configuration) pair that isolates
// one cache instance from another. No state is shared across scopes.
type Scope struct {
	OrgID           string
	ChatbotConfigID string
}

// CacheConfig holds the budgets for one cache scope. A zero value is
// usable after Resolve; both budgets are enforced independently.
type CacheConfig struct {
	MaxMemoryKB       int64
	MaxVectorCount    int
	EvictionBatchSize int
}

// DefaultCacheConfig returns a fully resolved configuration.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		MaxMemoryKB:       DefaultMaxMemoryKB,
		MaxVectorCount:    DefaultMaxVectorCount,
		EvictionBatchSize: DefaultEvictionBatchSize,
	}
}

// Resolve fills unset fields with defaults. All fields are concrete
// before the configuration is used.
func (c CacheConfig) Resolve() CacheConfig {
	if c.MaxMemoryKB <= 0 {
		c.MaxMemoryKB = DefaultMaxMemoryKB
	}
	if c.MaxVectorCount <= 0 {
		c.MaxVectorCount = DefaultMaxVectorCount
	}
	if c.EvictionBatchSize <= 0 {
		c.EvictionBatchSize = DefaultEvictionBatchSize
	}
	return c
}

// SearchOptions controls one search call. Zero values for Threshold and
// Limit mean "use defaults"; out-of-range values are rejected. A
// literal threshold of 0 is valid and means "accept every non-negative
// score"; callers who want it must set ThresholdSet so the zero value
// is not mistaken for unset.
type SearchOptions struct {
	Threshold float64
	// ThresholdSet marks Threshold as explicitly supplied, letting a
	// caller pass 0 without it resolving to the default.
	ThresholdSet     bool
	Limit            int
	CategoryFilter   ItemCategory
	SourceTypeFilter ItemSourceType

	// SkipDimensionCheck disables the query/record length comparison.
	SkipDimensionCheck bool
	// StrictZeroVectors makes zero-norm vectors an ordinary 0 score via
	// the guarded denominator instead of the explicit early return.
	StrictZeroVectors bool
}

// Validate checks threshold and limit ranges when they are supplied.
func (o SearchOptions) Validate() error {
	if o.Threshold < 0 || o.Threshold > 1 {
		return NewInvalidSearchParameter("threshold", fmt.Sprintf("%g not in [0,1]", o.Threshold))
	}
	if o.Limit < 0 || o.Limit > MaxSearchLimit {
		return NewInvalidSearchParameter("limit", fmt.Sprintf("%d not in [1,%d]", o.Limit, MaxSearchLimit))
	}
	return nil
}

// Resolve fills defaulted fields after validation.
func (o SearchOptions) Resolve() SearchOptions {
	if o.Threshold == 0 && !o.ThresholdSet {
		o.Threshold = DefaultSearchThreshold
	}
	if o.Limit == 0 {
		o.Limit = DefaultSearchLimit
	}
	return o
}

// CacheStats is a derived snapshot of one cache scope. It is recomputed
// on demand from the store and running counters, never stored.
type CacheStats struct {
	TotalVectors       int
	MemoryUsageKB      float64
	MemoryLimitKB      int64
	Utilization        float64
	CacheHitRate       float64
	SearchCount        int64
	CacheHits          int64
	EvictionsPerformed int64
	LastUpdated        time.Time
}

// InitializeResult reports one bulk-load outcome.
type InitializeResult struct {
	VectorsLoaded  int
	VectorsEvicted int
	MemoryUsageKB  float64
	Duration       time.Duration
}
