package stats

import (
	"time"

	"github.com/cloo-solutions/veccache/internal/domain"
)

// HealthBand is one graded verdict for a health dimension.
type HealthBand string

const (
	HealthExcellent HealthBand = "excellent"
	HealthGood      HealthBand = "good"
	HealthWarning   HealthBand = "warning"
	HealthPoor      HealthBand = "poor"
	HealthCritical  HealthBand = "critical"
)

// HealthReport combines the per-dimension bands into a composite
// verdict with actionable recommendations per failing band.
type HealthReport struct {
	Overall         HealthBand
	Memory          HealthBand
	HitRate         HealthBand
	Eviction        HealthBand
	AccessPattern   HealthBand
	Recommendations []string
	Stats           domain.CacheStats
	Efficiency      EfficiencyMetrics
}

// Health grades one cache scope across four independent bands and
// derives the overall verdict: any critical band wins critical, one or
// more warning-level bands yield warning, an excellent hit rate with a
// clean board yields excellent, otherwise good.
func Health(records []*domain.CachedVectorRecord, memoryUsageKB float64, cfg domain.CacheConfig, c Counters, now time.Time) HealthReport {
	cfg = cfg.Resolve()

	st := Calculate(records, memoryUsageKB, cfg, c, now)
	eff := Efficiency(records, memoryUsageKB, cfg, c, now)

	report := HealthReport{
		Stats:      st,
		Efficiency: eff,
	}

	switch {
	case st.Utilization < 0.90:
		report.Memory = HealthGood
	case st.Utilization < 0.95:
		report.Memory = HealthWarning
		report.Recommendations = append(report.Recommendations,
			"memory utilization above 90%: raise MaxMemoryKB or reduce the loaded vector set")
	default:
		report.Memory = HealthCritical
		report.Recommendations = append(report.Recommendations,
			"memory utilization above 95%: the next load will evict aggressively; raise MaxMemoryKB")
	}

	switch {
	case st.CacheHitRate > 0.95:
		report.HitRate = HealthExcellent
	case st.CacheHitRate > 0.80:
		report.HitRate = HealthGood
	default:
		report.HitRate = HealthPoor
		report.Recommendations = append(report.Recommendations,
			"hit rate below 80%: lower the search threshold or review the knowledge base coverage")
	}

	switch {
	case eff.EvictionRate < 0.10:
		report.Eviction = HealthGood
	case eff.EvictionRate < 0.20:
		report.Eviction = HealthWarning
		report.Recommendations = append(report.Recommendations,
			"eviction rate above 10%: budgets are too tight for the offered vector set")
	default:
		report.Eviction = HealthCritical
		report.Recommendations = append(report.Recommendations,
			"eviction rate above 20%: raise MaxVectorCount/MaxMemoryKB or shrink the load batch")
	}

	coldFraction := 0.0
	if len(records) > 0 {
		coldFraction = float64(eff.ColdRecords) / float64(len(records))
	}
	if coldFraction < 0.30 {
		report.AccessPattern = HealthGood
	} else {
		report.AccessPattern = HealthWarning
		report.Recommendations = append(report.Recommendations,
			"over 30% of records were never accessed: prune unused knowledge items from the load batch")
	}

	report.Overall = overallVerdict(report)
	return report
}

func overallVerdict(r HealthReport) HealthBand {
	bands := []HealthBand{r.Memory, r.HitRate, r.Eviction, r.AccessPattern}

	warnings := 0
	for _, b := range bands {
		switch b {
		case HealthCritical:
			return HealthCritical
		case HealthWarning, HealthPoor:
			warnings++
		}
	}

	if warnings > 0 {
		return HealthWarning
	}
	if r.HitRate == HealthExcellent {
		return HealthExcellent
	}
	return HealthGood
}
