package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/veccache/internal/domain"
)

func searchStore(t *testing.T, entries ...domain.VectorEntry) *Store {
	t.Helper()
	s := NewStore()
	now := time.Now()
	for _, e := range entries {
		s.Put(e, now)
	}
	return s
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	s := searchStore(t, entry("a", 1, 0))

	_, err := Search(s, nil, domain.SearchOptions{}, time.Now())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyQueryEmbedding)
}

func TestSearch_InvalidThresholdRejected(t *testing.T) {
	s := searchStore(t, entry("a", 1, 0))

	_, err := Search(s, []float32{1, 0}, domain.SearchOptions{Threshold: 1.5}, time.Now())

	require.Error(t, err)
	assert.True(t, domain.IsInvalidSearchParameter(err))
}

func TestSearch_EmptyStoreReturnsEmptySlices(t *testing.T) {
	s := NewStore()

	out, err := Search(s, []float32{1, 0}, domain.SearchOptions{}, time.Now())

	require.NoError(t, err)
	assert.NotNil(t, out.Results)
	assert.NotNil(t, out.DebugInfo)
	assert.Empty(t, out.Results)
	assert.Empty(t, out.DebugInfo)
}

func TestSearch_ExactMatchRanksFirst(t *testing.T) {
	s := searchStore(t,
		entry("a", 1, 0, 0, 0),
		entry("b", 0.9, 0.1, 0, 0),
		entry("c", 0, 1, 0, 0),
	)
	query := []float32{0.9, 0.1, 0, 0}

	out, err := Search(s, query, domain.SearchOptions{Threshold: 0.999}, time.Now())

	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "b", out.Results[0].Item.ID)
	assert.InDelta(t, 1.0, out.Results[0].Similarity, 1e-9)
}

func TestSearch_ResultsSortedAndTruncatedToLimit(t *testing.T) {
	s := searchStore(t,
		entry("far", 0.2, 1),
		entry("near", 0.95, 1),
		entry("nearest", 1, 1),
		entry("mid", 0.6, 1),
	)
	query := []float32{1, 1}

	out, err := Search(s, query, domain.SearchOptions{Threshold: 0.01, Limit: 2}, time.Now())

	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "nearest", out.Results[0].Item.ID)
	assert.Equal(t, "near", out.Results[1].Item.ID)
	assert.GreaterOrEqual(t, out.Results[0].Similarity, out.Results[1].Similarity)
	// Trace covers every scored candidate, beyond the result limit.
	assert.Len(t, out.DebugInfo, 4)
}

func TestSearch_ThresholdExcludesWeakMatches(t *testing.T) {
	s := searchStore(t,
		entry("aligned", 1, 0),
		entry("orthogonal", 0, 1),
	)

	out, err := Search(s, []float32{1, 0}, domain.SearchOptions{Threshold: 0.5}, time.Now())

	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "aligned", out.Results[0].Item.ID)

	require.Len(t, out.DebugInfo, 2)
	for _, d := range out.DebugInfo {
		assert.Equal(t, d.Similarity >= 0.5, d.PassedThreshold)
	}
}

func TestSearch_CategoryFilterAppliesBeforeScoring(t *testing.T) {
	pricing := entry("pricing-1", 1, 0)
	pricing.Item.Category = domain.ItemCategoryPricing
	support := entry("support-1", 1, 0)
	support.Item.Category = domain.ItemCategorySupport

	s := searchStore(t, pricing, support)

	out, err := Search(s, []float32{1, 0}, domain.SearchOptions{
		Threshold:      0.5,
		CategoryFilter: domain.ItemCategoryPricing,
	}, time.Now())

	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "pricing-1", out.Results[0].Item.ID)
	// The filtered-out record is never scored, so it has no trace entry.
	require.Len(t, out.DebugInfo, 1)
	assert.Equal(t, "pricing-1", out.DebugInfo[0].ID)
}

func TestSearch_SourceTypeFilter(t *testing.T) {
	faq := entry("faq-1", 1, 0)
	faq.Item.SourceType = domain.ItemSourceTypeFAQ
	doc := entry("doc-1", 1, 0)
	doc.Item.SourceType = domain.ItemSourceTypeDocument

	s := searchStore(t, faq, doc)

	out, err := Search(s, []float32{1, 0}, domain.SearchOptions{
		Threshold:        0.5,
		SourceTypeFilter: domain.ItemSourceTypeDocument,
	}, time.Now())

	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.Equal(t, "doc-1", out.Results[0].Item.ID)
}

func TestSearch_DimensionMismatchIsolatedPerRecord(t *testing.T) {
	s := searchStore(t,
		entry("good", 1, 0),
		entry("short", 1),
		entry("also-good", 0.9, 0.1),
	)

	out, err := Search(s, []float32{1, 0}, domain.SearchOptions{Threshold: 0.5}, time.Now())

	require.NoError(t, err)
	assert.Len(t, out.Results, 2)

	require.Len(t, out.DebugInfo, 3)
	var mismatched int
	for _, d := range out.DebugInfo {
		if d.Err != nil {
			mismatched++
			assert.Equal(t, "short", d.ID)
			assert.True(t, domain.IsDimensionMismatch(d.Err))
			assert.False(t, d.PassedThreshold)
		}
	}
	assert.Equal(t, 1, mismatched)
}

func TestSearch_EveryScannedRecordTouched(t *testing.T) {
	s := searchStore(t,
		entry("match", 1, 0),
		entry("miss", 0, 1),
	)
	now := time.Now().Add(time.Hour)

	_, err := Search(s, []float32{1, 0}, domain.SearchOptions{Threshold: 0.5}, now)
	require.NoError(t, err)

	for _, rec := range s.Records() {
		assert.Equal(t, int64(1), rec.AccessCount, "record %s", rec.Item.ID)
		assert.Equal(t, now, rec.LastAccessedAt)
	}
}

func TestSearch_FilteredRecordsStillTouched(t *testing.T) {
	filtered := entry("filtered", 1, 0)
	filtered.Item.Category = domain.ItemCategorySupport

	s := searchStore(t, filtered)
	now := time.Now().Add(time.Hour)

	out, err := Search(s, []float32{1, 0}, domain.SearchOptions{
		CategoryFilter: domain.ItemCategoryPricing,
	}, now)

	require.NoError(t, err)
	assert.Empty(t, out.Results)
	assert.Equal(t, int64(1), s.Get("filtered").AccessCount)
}

func TestSearch_DefaultThresholdAndLimitApplied(t *testing.T) {
	entries := make([]domain.VectorEntry, 0, 10)
	for i := 0; i < 10; i++ {
		entries = append(entries, entry("e"+string(rune('a'+i)), 1, float32(i)*0.01))
	}
	s := searchStore(t, entries...)

	out, err := Search(s, []float32{1, 0}, domain.SearchOptions{}, time.Now())

	require.NoError(t, err)
	// All ten score near 1.0, well over the default threshold, but the
	// default limit caps the results at five.
	assert.Len(t, out.Results, domain.DefaultSearchLimit)
	assert.Len(t, out.DebugInfo, 10)
}

func TestSearch_ExplicitZeroThresholdAcceptsOrthogonal(t *testing.T) {
	s := searchStore(t,
		entry("aligned", 1, 0),
		entry("orthogonal", 0, 1),
		entry("opposite", -1, 0),
	)

	out, err := Search(s, []float32{1, 0}, domain.SearchOptions{ThresholdSet: true}, time.Now())

	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "aligned", out.Results[0].Item.ID)
	assert.Equal(t, "orthogonal", out.Results[1].Item.ID)
}
