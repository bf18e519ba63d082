// Package source provides the collaborators that produce
// (knowledge item, embedding vector) batches for cache initialization.
// The cache itself never fetches or embeds anything; a VectorSource is
// queried once per scope at load time.
package source

import (
	"context"

	"github.com/cloo-solutions/veccache/internal/domain"
)

// VectorSource supplies the load batch for one cache scope.
type VectorSource interface {
	FetchVectors(ctx context.Context, scope domain.Scope) ([]domain.VectorEntry, error)
}
