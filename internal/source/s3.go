package source

import (
	"context"
	"fmt"
	"io"

	"github.com/cloo-solutions/veccache/internal/domain"
	"github.com/cloo-solutions/veccache/internal/storage"
)

// SnapshotFetcher opens a snapshot object for reading.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, key string) (io.ReadCloser, error)
}

// S3Source reads a scope's embeddings snapshot from object storage.
// Serverless deployments use this at cold start instead of holding a
// database connection.
type S3Source struct {
	fetcher SnapshotFetcher
}

// NewS3Source creates an S3Source over the given fetcher.
func NewS3Source(fetcher SnapshotFetcher) *S3Source {
	return &S3Source{fetcher: fetcher}
}

// FetchVectors implements VectorSource.
func (s *S3Source) FetchVectors(ctx context.Context, scope domain.Scope) ([]domain.VectorEntry, error) {
	key := storage.SnapshotKey(scope.OrgID, scope.ChatbotConfigID)

	rc, err := s.fetcher.FetchSnapshot(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	entries, err := DecodeSnapshot(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", key, err)
	}

	return entries, nil
}
