package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/veccache/internal/cache"
	"github.com/cloo-solutions/veccache/internal/domain"
	"github.com/cloo-solutions/veccache/internal/logging"
	"github.com/cloo-solutions/veccache/internal/openai"
	"github.com/cloo-solutions/veccache/internal/source"
)

// The inspect commands load a snapshot file into a throwaway cache scope
// and report on it without a running server.

// SearchCmd returns the search command
func SearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search a snapshot file",
		Long:  "Load a local snapshot file into a cache and run a similarity search against it",
		RunE:  runSearch,
	}

	cmd.Flags().String("snapshot", "", "Path to a JSONL snapshot file (required)")
	cmd.Flags().String("query", "", "Query text (requires OPENAI_API_KEY)")
	cmd.Flags().String("query-file", "", "Path to a JSON array holding a precomputed query embedding")
	cmd.Flags().Float64("threshold", 0, "Minimum similarity; omit for the default, 0 accepts every non-negative score")
	cmd.Flags().Int("limit", 0, "Maximum results, 0 means default")
	cmd.Flags().String("category", "", "Restrict matches to one category")
	cmd.Flags().String("source-type", "", "Restrict matches to one source type")
	_ = cmd.MarkFlagRequired("snapshot")

	return cmd
}

// StatsCmd returns the stats command
func StatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Report cache stats for a snapshot file",
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := loadSnapshotScope(cmd)
			if err != nil {
				return err
			}
			return printJSON(statsOutput(orch.Stats(context.Background())))
		},
	}

	cmd.Flags().String("snapshot", "", "Path to a JSONL snapshot file (required)")
	_ = cmd.MarkFlagRequired("snapshot")

	return cmd
}

// HealthCmd returns the health command
func HealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Report cache health for a snapshot file",
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, err := loadSnapshotScope(cmd)
			if err != nil {
				return err
			}
			report := orch.HealthReport()
			return printJSON(healthOutput{
				Overall:         string(report.Overall),
				Memory:          string(report.Memory),
				HitRate:         string(report.HitRate),
				Eviction:        string(report.Eviction),
				AccessPattern:   string(report.AccessPattern),
				Recommendations: report.Recommendations,
				Stats:           statsOutput(report.Stats),
			})
		},
	}

	cmd.Flags().String("snapshot", "", "Path to a JSONL snapshot file (required)")
	_ = cmd.MarkFlagRequired("snapshot")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	orch, err := loadSnapshotScope(cmd)
	if err != nil {
		return err
	}

	query, err := resolveQueryEmbedding(ctx, cmd)
	if err != nil {
		return err
	}

	threshold, _ := cmd.Flags().GetFloat64("threshold")
	limit, _ := cmd.Flags().GetInt("limit")
	category, _ := cmd.Flags().GetString("category")
	sourceType, _ := cmd.Flags().GetString("source-type")

	out, err := orch.Search(ctx, query, domain.SearchOptions{
		Threshold:        threshold,
		ThresholdSet:     cmd.Flags().Changed("threshold"),
		Limit:            limit,
		CategoryFilter:   domain.ItemCategory(category),
		SourceTypeFilter: domain.ItemSourceType(sourceType),
	})
	if err != nil {
		return err
	}

	results := make([]searchMatch, 0, len(out.Results))
	for _, r := range out.Results {
		results = append(results, searchMatch{
			ID:         r.Item.ID,
			Text:       r.Item.Text,
			Category:   string(r.Item.Category),
			SourceType: string(r.Item.SourceType),
			Similarity: r.Similarity,
		})
	}

	return printJSON(searchOutput{Results: results, Scanned: len(out.DebugInfo)})
}

// loadSnapshotScope builds a single-scope orchestrator from the
// --snapshot flag. The scope identity is synthetic; it only exists for
// the lifetime of the command.
func loadSnapshotScope(cmd *cobra.Command) (*cache.Orchestrator, error) {
	path, _ := cmd.Flags().GetString("snapshot")

	ctx := context.Background()
	entries, err := source.NewFileSource(path).FetchVectors(ctx, domain.Scope{
		OrgID:           "local",
		ChatbotConfigID: "snapshot",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	orch := cache.NewOrchestrator(
		domain.Scope{OrgID: "local", ChatbotConfigID: "snapshot"},
		domain.DefaultCacheConfig(),
		cache.WithLogger(logging.NewNopLogger()),
	)
	if _, err := orch.Initialize(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	return orch, nil
}

func resolveQueryEmbedding(ctx context.Context, cmd *cobra.Command) ([]float32, error) {
	if queryFile, _ := cmd.Flags().GetString("query-file"); queryFile != "" {
		data, err := os.ReadFile(queryFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read query file: %w", err)
		}
		var embedding []float32
		if err := json.Unmarshal(data, &embedding); err != nil {
			return nil, fmt.Errorf("query file is not a JSON float array: %w", err)
		}
		return embedding, nil
	}

	query, _ := cmd.Flags().GetString("query")
	if query == "" {
		return nil, fmt.Errorf("either --query or --query-file is required")
	}

	client, err := openai.NewClientFromEnv()
	if err != nil {
		return nil, fmt.Errorf("--query needs an embedding provider: %w", err)
	}
	return client.GenerateQueryEmbedding(ctx, query)
}

type searchMatch struct {
	ID         string  `json:"id"`
	Text       string  `json:"text"`
	Category   string  `json:"category"`
	SourceType string  `json:"sourceType"`
	Similarity float64 `json:"similarity"`
}

type searchOutput struct {
	Results []searchMatch `json:"results"`
	Scanned int           `json:"scanned"`
}

type cacheStatsOutput struct {
	TotalVectors       int     `json:"totalVectors"`
	MemoryUsageKB      float64 `json:"memoryUsageKB"`
	MemoryLimitKB      int64   `json:"memoryLimitKB"`
	Utilization        float64 `json:"utilization"`
	CacheHitRate       float64 `json:"cacheHitRate"`
	SearchCount        int64   `json:"searchCount"`
	CacheHits          int64   `json:"cacheHits"`
	EvictionsPerformed int64   `json:"evictionsPerformed"`
}

type healthOutput struct {
	Overall         string           `json:"overall"`
	Memory          string           `json:"memory"`
	HitRate         string           `json:"hitRate"`
	Eviction        string           `json:"eviction"`
	AccessPattern   string           `json:"accessPattern"`
	Recommendations []string         `json:"recommendations"`
	Stats           cacheStatsOutput `json:"stats"`
}

func statsOutput(s domain.CacheStats) cacheStatsOutput {
	return cacheStatsOutput{
		TotalVectors:       s.TotalVectors,
		MemoryUsageKB:      s.MemoryUsageKB,
		MemoryLimitKB:      s.MemoryLimitKB,
		Utilization:        s.Utilization,
		CacheHitRate:       s.CacheHitRate,
		SearchCount:        s.SearchCount,
		CacheHits:          s.CacheHits,
		EvictionsPerformed: s.EvictionsPerformed,
	}
}

func printJSON(v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}
