package cache

import (
	"sort"
	"time"

	"github.com/cloo-solutions/veccache/internal/domain"
	"github.com/cloo-solutions/veccache/internal/similarity"
)

// SearchResult is one ranked match returned to the caller.
type SearchResult struct {
	Item       domain.KnowledgeItem
	Similarity float64
}

// DebugEntry records the scoring outcome for one scanned candidate,
// regardless of whether it passed the threshold.
type DebugEntry struct {
	ID              string
	Similarity      float64
	PassedThreshold bool
	Err             error
}

// SearchOutput carries the ranked results plus the full scoring trace
// for troubleshooting.
type SearchOutput struct {
	Results   []SearchResult
	DebugInfo []DebugEntry
}

// Search scans every record in the store linearly and scores it against
// the query. Each scanned record's access stats are bumped even when it
// does not match, so pure lookups also count as accesses for the health
// heuristics. Category and source-type filters apply before scoring.
// A record whose vector length differs from the query is skipped with
// the mismatch noted in the trace; the scan continues.
func Search(store *Store, query []float32, opts domain.SearchOptions, now time.Time) (*SearchOutput, error) {
	if len(query) == 0 {
		return nil, domain.ErrEmptyQueryEmbedding
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.Resolve()

	simOpts := similarity.Options{
		ValidateDimensions: !opts.SkipDimensionCheck,
		HandleZeroVectors:  !opts.StrictZeroVectors,
	}

	out := &SearchOutput{
		Results:   []SearchResult{},
		DebugInfo: []DebugEntry{},
	}

	for _, rec := range store.Records() {
		rec.Touch(now)

		if opts.CategoryFilter != "" && rec.Item.Category != opts.CategoryFilter {
			continue
		}
		if opts.SourceTypeFilter != "" && rec.Item.SourceType != opts.SourceTypeFilter {
			continue
		}

		sim, err := similarity.Cosine(query, rec.Vector, simOpts)
		if err != nil {
			// Per-record isolation: the offending record is excluded
			// from this search rather than aborting the whole scan.
			out.DebugInfo = append(out.DebugInfo, DebugEntry{
				ID:  rec.Item.ID,
				Err: err,
			})
			continue
		}

		passed := sim >= opts.Threshold
		out.DebugInfo = append(out.DebugInfo, DebugEntry{
			ID:              rec.Item.ID,
			Similarity:      sim,
			PassedThreshold: passed,
		})

		if passed {
			out.Results = append(out.Results, SearchResult{
				Item:       rec.Item,
				Similarity: sim,
			})
		}
	}

	sort.Slice(out.Results, func(i, j int) bool {
		return out.Results[i].Similarity > out.Results[j].Similarity
	})
	if len(out.Results) > opts.Limit {
		out.Results = out.Results[:opts.Limit]
	}

	// The trace stays unbounded; it is sorted in full for diagnostics.
	sort.Slice(out.DebugInfo, func(i, j int) bool {
		return out.DebugInfo[i].Similarity > out.DebugInfo[j].Similarity
	})

	return out, nil
}
