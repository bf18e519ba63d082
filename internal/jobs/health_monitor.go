package jobs

import (
	"context"

	"github.com/cloo-solutions/veccache/internal/cache"
	"github.com/cloo-solutions/veccache/internal/logging"
)

const opHealthMonitor = "cache.health_monitor"

// HealthMonitor periodically grades every live cache scope and emits
// the verdicts as metrics events. It never mutates cache state.
type HealthMonitor struct {
	scopes *cache.ScopeManager
	logger logging.Logger
}

// NewHealthMonitor creates a monitor over the given scope manager.
func NewHealthMonitor(scopes *cache.ScopeManager, logger logging.Logger) *HealthMonitor {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HealthMonitor{scopes: scopes, logger: logger}
}

// Process implements Processor.
func (m *HealthMonitor) Process(ctx context.Context) error {
	for _, scope := range m.scopes.Scopes() {
		orch, ok := m.scopes.Lookup(scope)
		if !ok {
			continue
		}
		report := orch.HealthReport()
		m.logger.Metrics(scope, opHealthMonitor, logging.Fields{
			"overall":              string(report.Overall),
			"memory":               string(report.Memory),
			"hit_rate":             string(report.HitRate),
			"eviction":             string(report.Eviction),
			"access_pattern":       string(report.AccessPattern),
			"total_vectors":        report.Stats.TotalVectors,
			"memory_usage_kb":      report.Stats.MemoryUsageKB,
			"cache_hit_rate":       report.Stats.CacheHitRate,
			"evictions_performed":  report.Stats.EvictionsPerformed,
			"recommendation_count": len(report.Recommendations),
		})
	}
	return nil
}
