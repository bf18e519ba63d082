package domain

import (
	"fmt"
	"time"
)

// ItemCategory represents the category tag of a knowledge item
type ItemCategory string

const (
	ItemCategoryProduct ItemCategory = "product"
	ItemCategoryPricing ItemCategory = "pricing"
	ItemCategorySupport ItemCategory = "support"
	ItemCategoryPolicy  ItemCategory = "policy"
	ItemCategoryGeneral ItemCategory = "general"
)

// ItemSourceType represents where a knowledge item was produced
type ItemSourceType string

const (
	ItemSourceTypeFAQ      ItemSourceType = "faq"
	ItemSourceTypeDocument ItemSourceType = "document"
	ItemSourceTypeWebsite  ItemSourceType = "website"
	ItemSourceTypeManual   ItemSourceType = "manual"
)

// KnowledgeItem is the payload cached alongside an embedding vector.
// The cache treats it as opaque and immutable; it is produced and
// persisted elsewhere.
type KnowledgeItem struct {
	ID         string
	Text       string
	Category   ItemCategory
	SourceType ItemSourceType
	Tags       []string
}

// VectorEntry pairs a knowledge item with its embedding vector.
// Batches of entries are offered to the cache once per scope at load time.
type VectorEntry struct {
	Item   KnowledgeItem
	Vector []float32
}

// CachedVectorRecord is one resident entry in a vector cache.
// LastAccessedAt and AccessCount are updated on every search scan and
// feed health diagnostics only.
type CachedVectorRecord struct {
	Item           KnowledgeItem
	Vector         []float32
	CachedAt       time.Time
	LastAccessedAt time.Time
	AccessCount    int64
}

// NewCachedVectorRecord creates a record for the given entry.
func NewCachedVectorRecord(entry VectorEntry, now time.Time) *CachedVectorRecord {
	return &CachedVectorRecord{
		Item:           entry.Item,
		Vector:         entry.Vector,
		CachedAt:       now,
		LastAccessedAt: now,
		AccessCount:    0,
	}
}

// Touch records one access to the record.
func (r *CachedVectorRecord) Touch(now time.Time) {
	r.LastAccessedAt = now
	r.AccessCount++
}

// ValidateVectorEntry validates a VectorEntry instance
func ValidateVectorEntry(e *VectorEntry) error {
	if e == nil {
		return fmt.Errorf("vector entry cannot be nil")
	}

	if e.Item.ID == "" {
		return fmt.Errorf("vector entry item ID is required")
	}

	if len(e.Vector) == 0 {
		return fmt.Errorf("vector entry embedding is required")
	}

	return nil
}
