package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cloo-solutions/veccache/internal/domain"
)

// snapshotLine is one JSONL record in an embeddings snapshot. Snapshots
// are produced by the embedding pipeline and fetched at cold start.
type snapshotLine struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Category   string    `json:"category,omitempty"`
	SourceType string    `json:"source_type,omitempty"`
	Tags       []string  `json:"tags,omitempty"`
	Embedding  []float32 `json:"embedding"`
}

// DecodeSnapshot reads a JSONL embeddings snapshot into vector entries.
// Lines are validated individually; a malformed line fails the whole
// decode with its line number.
func DecodeSnapshot(r io.Reader) ([]domain.VectorEntry, error) {
	scanner := bufio.NewScanner(r)
	// Embedding lines for 1536-dim vectors run well past the default
	// token limit.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var entries []domain.VectorEntry
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var line snapshotLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, fmt.Errorf("snapshot line %d: %w", lineNo, err)
		}

		entry := domain.VectorEntry{
			Item: domain.KnowledgeItem{
				ID:         line.ID,
				Text:       line.Text,
				Category:   domain.ItemCategory(line.Category),
				SourceType: domain.ItemSourceType(line.SourceType),
				Tags:       line.Tags,
			},
			Vector: line.Embedding,
		}
		if err := domain.ValidateVectorEntry(&entry); err != nil {
			return nil, fmt.Errorf("snapshot line %d: %w", lineNo, err)
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	return entries, nil
}

// FileSource reads vector entries from a local JSONL snapshot file.
// Scope identifiers are carried by the caller; the file is assumed to
// already be scoped to one (organization, chatbot configuration) pair.
type FileSource struct {
	Path string
}

// NewFileSource creates a FileSource for the given path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// FetchVectors implements VectorSource.
func (s *FileSource) FetchVectors(ctx context.Context, scope domain.Scope) ([]domain.VectorEntry, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot %s: %w", s.Path, err)
	}
	defer f.Close()

	return DecodeSnapshot(f)
}
