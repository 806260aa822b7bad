// Package ingest loads historical domestic-violence cases from local files
// into the vector index the API retrieves from.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ai-model4vda/lamp2-4.0/internal/rag"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// caseNamespace scopes the name-based case IDs.
var caseNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:lamp:domestic_case"))

// CaseID is stable for a given story, so re-importing a case replaces it.
func CaseID(story string) string {
	return uuid.NewSHA1(caseNamespace, []byte(strings.TrimSpace(story))).String()
}

type Stats struct {
	Files   int
	Skipped int
	Cases   int
}

type Importer struct {
	embeddings rag.EmbeddingsClient
	indexer    rag.CaseIndexer
	logger     *zap.Logger
}

func NewImporter(embeddings rag.EmbeddingsClient, indexer rag.CaseIndexer, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{embeddings: embeddings, indexer: indexer, logger: logger}
}

// ImportPath imports root, which may be a single file or a directory walked
// recursively. Unreadable or unparsable files are skipped with a warning;
// embedding and indexing failures abort the import.
func (im *Importer) ImportPath(ctx context.Context, root string) (Stats, error) {
	var stats Stats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !Supported(path) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		stats.Files++
		cases, err := LoadFile(path)
		if err != nil {
			stats.Skipped++
			im.logger.Warn("skipping file", zap.String("path", path), zap.Error(err))
			return nil
		}

		for _, c := range cases {
			if err := im.ImportCase(ctx, c, path); err != nil {
				return err
			}
			stats.Cases++
		}

		im.logger.Info("file imported", zap.String("path", path), zap.Int("cases", len(cases)))
		return nil
	})

	return stats, err
}

// ImportCase embeds the case story and upserts it.
func (im *Importer) ImportCase(ctx context.Context, c rag.RetrievedCase, source string) error {
	vec, err := im.embeddings.Embed(ctx, c.CaseStory)
	if err != nil {
		return fmt.Errorf("embed case from %s: %w", source, err)
	}

	indexed := rag.IndexedCase{
		ID:       CaseID(c.CaseStory),
		Case:     c,
		Language: rag.DetectLanguage(c.CaseStory),
		Source:   filepath.Base(source),
	}
	if err := im.indexer.IndexCase(ctx, indexed, vec); err != nil {
		return fmt.Errorf("index case from %s: %w", source, err)
	}

	im.logger.Debug("case indexed",
		zap.String("id", indexed.ID),
		zap.String("language", indexed.Language),
		zap.Int("story_len", len(c.CaseStory)),
	)
	return nil
}

// LoadFile parses every case in one supported file.
func LoadFile(path string) ([]rag.RetrievedCase, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return ParseJSON(data)
	case ".jsonl":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return ParseJSONL(data)
	}

	text, err := ReadText(path)
	if err != nil {
		return nil, err
	}
	return ParseText(text), nil
}
