package cache

import (
	"github.com/cloo-solutions/veccache/internal/domain"
)

const (
	// bytesPerElement is the storage cost of one float32 vector element.
	bytesPerElement = 4
	// recordOverheadBytes is the fixed per-record cost covering the
	// knowledge item payload and access bookkeeping. Coarse on purpose:
	// the estimate feeds budgets and health bands, not allocations.
	recordOverheadBytes = 512
)

// EstimateEntryBytes estimates the resident footprint of one entry.
func EstimateEntryBytes(vectorLen int) int64 {
	return int64(vectorLen)*bytesPerElement + recordOverheadBytes
}

// EstimateStoreKB estimates the aggregate footprint of a store in KB.
func EstimateStoreKB(s *Store) float64 {
	var total int64
	for _, rec := range s.Records() {
		total += EstimateEntryBytes(len(rec.Vector))
	}
	return float64(total) / 1024
}

// AdmissionPlan is the load-time decision of which offered entries are
// kept given the configured budgets.
type AdmissionPlan struct {
	Kept    []domain.VectorEntry
	Evicted int
}

// Admit applies the load-time admission policy: when the offered batch
// would exceed the count or memory budget, candidates are dropped from
// the tail of the batch (reverse insertion order) until both budgets
// hold. The cache's lifetime is bound to a single process, so there is
// no access history to drive an LRU at load time; callers order their
// batch by priority and tail-drop keeps the highest-ranked items.
//
// The count budget is trimmed exactly. The memory budget is satisfied
// by dropping EvictionBatchSize-sized groups, so the final kept set may
// land below the limit by up to one group.
func Admit(entries []domain.VectorEntry, cfg domain.CacheConfig) AdmissionPlan {
	cfg = cfg.Resolve()

	kept := entries
	if len(kept) > cfg.MaxVectorCount {
		kept = kept[:cfg.MaxVectorCount]
	}

	memoryBudget := cfg.MaxMemoryKB * 1024
	usage := int64(0)
	for _, e := range kept {
		usage += EstimateEntryBytes(len(e.Vector))
	}

	for usage > memoryBudget && len(kept) > 0 {
		drop := cfg.EvictionBatchSize
		if drop > len(kept) {
			drop = len(kept)
		}
		for _, e := range kept[len(kept)-drop:] {
			usage -= EstimateEntryBytes(len(e.Vector))
		}
		kept = kept[:len(kept)-drop]
	}

	return AdmissionPlan{
		Kept:    kept,
		Evicted: len(entries) - len(kept),
	}
}
