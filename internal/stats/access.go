package stats

import (
	"sort"
	"time"

	"github.com/cloo-solutions/veccache/internal/domain"
)

const (
	maxDistributionBuckets = 10
	topRecordCount         = 10
)

// AccessBucket is one access-count range in the distribution report.
type AccessBucket struct {
	MinAccess int64
	MaxAccess int64
	Count     int
}

// RecordAccess is the access summary for one record.
type RecordAccess struct {
	ID             string
	AccessCount    int64
	LastAccessedAt time.Time
}

// AccessPatternReport describes how a scope's records are being read.
type AccessPatternReport struct {
	Distribution []AccessBucket
	Hottest      []RecordAccess
	Coldest      []RecordAccess
}

// AccessPatterns buckets records by access count into up to ten ranges
// and surfaces the ten hottest records plus the ten coldest
// (never-accessed, oldest first).
func AccessPatterns(records []*domain.CachedVectorRecord) AccessPatternReport {
	report := AccessPatternReport{
		Distribution: []AccessBucket{},
		Hottest:      []RecordAccess{},
		Coldest:      []RecordAccess{},
	}
	if len(records) == 0 {
		return report
	}

	var maxAccess int64
	for _, rec := range records {
		if rec.AccessCount > maxAccess {
			maxAccess = rec.AccessCount
		}
	}

	bucketWidth := maxAccess/maxDistributionBuckets + 1
	buckets := make(map[int64]*AccessBucket)
	for _, rec := range records {
		idx := rec.AccessCount / bucketWidth
		b, ok := buckets[idx]
		if !ok {
			b = &AccessBucket{
				MinAccess: idx * bucketWidth,
				MaxAccess: (idx+1)*bucketWidth - 1,
			}
			buckets[idx] = b
		}
		b.Count++
	}
	indices := make([]int64, 0, len(buckets))
	for idx := range buckets {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	for _, idx := range indices {
		report.Distribution = append(report.Distribution, *buckets[idx])
	}

	byAccess := make([]*domain.CachedVectorRecord, len(records))
	copy(byAccess, records)
	sort.Slice(byAccess, func(i, j int) bool {
		return byAccess[i].AccessCount > byAccess[j].AccessCount
	})
	for _, rec := range byAccess {
		if len(report.Hottest) == topRecordCount {
			break
		}
		report.Hottest = append(report.Hottest, RecordAccess{
			ID:             rec.Item.ID,
			AccessCount:    rec.AccessCount,
			LastAccessedAt: rec.LastAccessedAt,
		})
	}

	var cold []*domain.CachedVectorRecord
	for _, rec := range records {
		if rec.AccessCount == 0 {
			cold = append(cold, rec)
		}
	}
	sort.Slice(cold, func(i, j int) bool {
		return cold[i].LastAccessedAt.Before(cold[j].LastAccessedAt)
	})
	for _, rec := range cold {
		if len(report.Coldest) == topRecordCount {
			break
		}
		report.Coldest = append(report.Coldest, RecordAccess{
			ID:             rec.Item.ID,
			AccessCount:    rec.AccessCount,
			LastAccessedAt: rec.LastAccessedAt,
		})
	}

	return report
}
