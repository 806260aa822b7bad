package caseindex

import (
	"context"
	"fmt"

	"github.com/ai-model4vda/lamp2-4.0/internal/rag"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

type pgConn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PgRepository keeps cases in Postgres with pgvector embeddings.
type PgRepository struct {
	db pgConn
}

func NewPgRepository(db pgConn) *PgRepository {
	return &PgRepository{db: db}
}

// SearchCases orders by L2 distance to embedding, closest first.
func (r *PgRepository) SearchCases(ctx context.Context, embedding []float32, limit int) ([]rag.RetrievedCase, error) {
	if limit <= 0 {
		limit = rag.TopK
	}

	vec := pgvector.NewVector(embedding)

	rows, err := r.db.Query(ctx, `
		SELECT case_story, result_of_case, duration_of_case
		FROM domestic_case
		ORDER BY embedding <-> $1
		LIMIT $2
	`, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("search cases: %w", err)
	}
	defer rows.Close()

	var cases []rag.RetrievedCase
	for rows.Next() {
		var c rag.RetrievedCase
		if err := rows.Scan(&c.CaseStory, &c.ResultOfCase, &c.DurationOfCase); err != nil {
			return nil, fmt.Errorf("scan case: %w", err)
		}
		cases = append(cases, c)
	}

	return cases, rows.Err()
}

// IndexCase inserts or replaces the case with the same ID.
func (r *PgRepository) IndexCase(ctx context.Context, c rag.IndexedCase, embedding []float32) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO domestic_case (id, case_story, result_of_case, duration_of_case, language, source, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			case_story = EXCLUDED.case_story,
			result_of_case = EXCLUDED.result_of_case,
			duration_of_case = EXCLUDED.duration_of_case,
			language = EXCLUDED.language,
			source = EXCLUDED.source,
			embedding = EXCLUDED.embedding,
			updated_at = now()
	`,
		c.ID,
		c.Case.CaseStory,
		c.Case.ResultOfCase,
		c.Case.DurationOfCase,
		c.Language,
		c.Source,
		pgvector.NewVector(embedding),
	)
	if err != nil {
		return fmt.Errorf("insert case %s: %w", c.ID, err)
	}
	return nil
}

var (
	_ rag.CaseRetriever = (*PgRepository)(nil)
	_ rag.CaseIndexer   = (*PgRepository)(nil)
)
