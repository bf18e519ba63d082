// Package stats derives cache metrics, efficiency ratios, and health
// verdicts from a cache scope's records and running counters. Every
// function here is pure: all required state arrives as parameters and
// nothing is stored.
package stats

import (
	"time"

	"github.com/cloo-solutions/veccache/internal/domain"
)

// Counters are the running totals the orchestrator maintains per scope.
type Counters struct {
	SearchCount        int64
	CacheHits          int64
	EvictionsPerformed int64
	InitializedAt      time.Time
}

// Calculate derives a CacheStats snapshot. The hit rate is clamped to
// [0,1] and defined as 1.0 before the first search: no searches yet is
// treated as "perfect", not "unknown".
func Calculate(records []*domain.CachedVectorRecord, memoryUsageKB float64, cfg domain.CacheConfig, c Counters, now time.Time) domain.CacheStats {
	cfg = cfg.Resolve()

	hitRate := 1.0
	if c.SearchCount > 0 {
		hitRate = float64(c.CacheHits) / float64(c.SearchCount)
		if hitRate < 0 {
			hitRate = 0
		}
		if hitRate > 1 {
			hitRate = 1
		}
	}

	utilization := 0.0
	if cfg.MaxMemoryKB > 0 {
		utilization = memoryUsageKB / float64(cfg.MaxMemoryKB)
	}

	return domain.CacheStats{
		TotalVectors:       len(records),
		MemoryUsageKB:      memoryUsageKB,
		MemoryLimitKB:      cfg.MaxMemoryKB,
		Utilization:        utilization,
		CacheHitRate:       hitRate,
		SearchCount:        c.SearchCount,
		CacheHits:          c.CacheHits,
		EvictionsPerformed: c.EvictionsPerformed,
		LastUpdated:        now,
	}
}

// EfficiencyMetrics are density and access-distribution ratios against
// the configured budgets.
type EfficiencyMetrics struct {
	VectorDensity      float64
	MemoryDensity      float64
	EvictionRate       float64
	AvgAccessCount     float64
	AvgTimeSinceAccess time.Duration
	HotRecords         int
	ColdRecords        int
}

// Efficiency computes density ratios, the eviction rate, and the
// hot/cold record split. Hot means access count above the mean; cold
// means never accessed.
func Efficiency(records []*domain.CachedVectorRecord, memoryUsageKB float64, cfg domain.CacheConfig, c Counters, now time.Time) EfficiencyMetrics {
	cfg = cfg.Resolve()

	m := EfficiencyMetrics{}
	if cfg.MaxVectorCount > 0 {
		m.VectorDensity = float64(len(records)) / float64(cfg.MaxVectorCount)
	}
	if cfg.MaxMemoryKB > 0 {
		m.MemoryDensity = memoryUsageKB / float64(cfg.MaxMemoryKB)
	}
	if c.SearchCount > 0 {
		m.EvictionRate = float64(c.EvictionsPerformed) / float64(c.SearchCount)
	}

	if len(records) == 0 {
		return m
	}

	var totalAccess int64
	var totalSince time.Duration
	for _, rec := range records {
		totalAccess += rec.AccessCount
		totalSince += now.Sub(rec.LastAccessedAt)
	}
	m.AvgAccessCount = float64(totalAccess) / float64(len(records))
	m.AvgTimeSinceAccess = totalSince / time.Duration(len(records))

	for _, rec := range records {
		if rec.AccessCount == 0 {
			m.ColdRecords++
		} else if float64(rec.AccessCount) > m.AvgAccessCount {
			m.HotRecords++
		}
	}

	return m
}
