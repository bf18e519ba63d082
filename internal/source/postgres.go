package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/cloo-solutions/veccache/internal/domain"
)

// PostgresSource fetches knowledge vectors from the knowledge_vectors
// table, scoped to one organization and chatbot configuration. Rows are
// ordered by creation time so the admission policy's tail-drop keeps
// the most recently curated items when budgets are tight.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// NewPostgresSource creates a PostgresSource over the given pool.
func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

// FetchVectors implements VectorSource.
func (s *PostgresSource) FetchVectors(ctx context.Context, scope domain.Scope) ([]domain.VectorEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, text, category, source_type, tags, embedding
		FROM knowledge_vectors
		WHERE org_id = $1 AND chatbot_config_id = $2 AND embedding IS NOT NULL
		ORDER BY created_at DESC`,
		scope.OrgID, scope.ChatbotConfigID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge vectors: %w", err)
	}
	defer rows.Close()

	var entries []domain.VectorEntry
	for rows.Next() {
		var (
			entry      domain.VectorEntry
			category   *string
			sourceType *string
			vec        pgvector.Vector
		)
		if err := rows.Scan(&entry.Item.ID, &entry.Item.Text, &category, &sourceType, &entry.Item.Tags, &vec); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge vector: %w", err)
		}
		if category != nil {
			entry.Item.Category = domain.ItemCategory(*category)
		}
		if sourceType != nil {
			entry.Item.SourceType = domain.ItemSourceType(*sourceType)
		}
		entry.Vector = vec.Slice()
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// InsertVector stores one knowledge vector. Used by fixtures and the
// embedding pipeline's backfill tooling.
func (s *PostgresSource) InsertVector(ctx context.Context, scope domain.Scope, entry domain.VectorEntry) error {
	if err := domain.ValidateVectorEntry(&entry); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO knowledge_vectors
			(id, org_id, chatbot_config_id, text, category, source_type, tags, embedding)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			text = EXCLUDED.text,
			category = EXCLUDED.category,
			source_type = EXCLUDED.source_type,
			tags = EXCLUDED.tags,
			embedding = EXCLUDED.embedding`,
		entry.Item.ID,
		scope.OrgID,
		scope.ChatbotConfigID,
		entry.Item.Text,
		nullableString(string(entry.Item.Category)),
		nullableString(string(entry.Item.SourceType)),
		entry.Item.Tags,
		pgvector.NewVector(entry.Vector),
	)
	if err != nil {
		return fmt.Errorf("failed to insert knowledge vector: %w", err)
	}

	return nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
