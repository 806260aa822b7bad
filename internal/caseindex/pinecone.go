// Package caseindex stores and searches historical cases in a vector index.
package caseindex

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ai-model4vda/lamp2-4.0/internal/rag"
	"github.com/pinecone-io/go-pinecone/pinecone"
	"google.golang.org/protobuf/types/known/structpb"
)

// Metadata fields stored with every case vector.
const (
	FieldCaseStory      = "case_story"
	FieldResultOfCase   = "result_of_case"
	FieldDurationOfCase = "duration_of_case"
	FieldLanguage       = "language"
	FieldSource         = "source"
)

type PineconeConfig struct {
	APIKey    string
	Host      string
	Namespace string
}

type indexConn interface {
	QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error)
	UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error)
}

var dialIndex = func(cfg PineconeConfig) (indexConn, error) {
	pc, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create pinecone client: %w", err)
	}
	conn, err := pc.Index(pinecone.NewIndexConnParams{Host: cfg.Host, Namespace: cfg.Namespace})
	if err != nil {
		return nil, fmt.Errorf("connect pinecone index %s: %w", cfg.Host, err)
	}
	return conn, nil
}

// PineconeIndex is a case store scoped to one namespace. The connection is opened on
// first use, so a missing key fails the first query.
type PineconeIndex struct {
	cfg PineconeConfig

	once    sync.Once
	conn    indexConn
	initErr error
}

func NewPineconeIndex(cfg PineconeConfig) *PineconeIndex {
	return &PineconeIndex{cfg: cfg}
}

func (x *PineconeIndex) connect() (indexConn, error) {
	x.once.Do(func() {
		if x.cfg.APIKey == "" {
			x.initErr = errors.New("missing PINECONE_API_KEY")
			return
		}
		x.conn, x.initErr = dialIndex(x.cfg)
	})
	return x.conn, x.initErr
}

// SearchCases runs a single top-k similarity query, values and metadata included.
func (x *PineconeIndex) SearchCases(ctx context.Context, embedding []float32, limit int) ([]rag.RetrievedCase, error) {
	conn, err := x.connect()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = rag.TopK
	}

	resp, err := conn.QueryByVectorValues(ctx, &pinecone.QueryByVectorValuesRequest{
		Vector:          embedding,
		TopK:            uint32(limit),
		IncludeValues:   true,
		IncludeMetadata: true,
	})
	if err != nil {
		return nil, fmt.Errorf("pinecone query: %w", err)
	}

	cases := make([]rag.RetrievedCase, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		c, err := caseFromMetadata(m.Vector.Id, m.Vector.Metadata)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, nil
}

// IndexCase upserts one case vector into the namespace.
func (x *PineconeIndex) IndexCase(ctx context.Context, c rag.IndexedCase, embedding []float32) error {
	conn, err := x.connect()
	if err != nil {
		return err
	}

	md, err := structpb.NewStruct(map[string]any{
		FieldCaseStory:      c.Case.CaseStory,
		FieldResultOfCase:   c.Case.ResultOfCase,
		FieldDurationOfCase: c.Case.DurationOfCase,
		FieldLanguage:       c.Language,
		FieldSource:         c.Source,
	})
	if err != nil {
		return fmt.Errorf("build metadata for %s: %w", c.ID, err)
	}

	_, err = conn.UpsertVectors(ctx, []*pinecone.Vector{{
		Id:       c.ID,
		Values:   embedding,
		Metadata: md,
	}})
	if err != nil {
		return fmt.Errorf("pinecone upsert %s: %w", c.ID, err)
	}
	return nil
}

func caseFromMetadata(id string, md *pinecone.Metadata) (rag.RetrievedCase, error) {
	fields := md.GetFields()

	get := func(name string) (string, error) {
		v, ok := fields[name]
		if !ok {
			return "", fmt.Errorf("match %s: missing metadata field %q", id, name)
		}
		s, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return "", fmt.Errorf("match %s: metadata field %q is not a string", id, name)
		}
		return s.StringValue, nil
	}

	story, err := get(FieldCaseStory)
	if err != nil {
		return rag.RetrievedCase{}, err
	}
	result, err := get(FieldResultOfCase)
	if err != nil {
		return rag.RetrievedCase{}, err
	}
	duration, err := get(FieldDurationOfCase)
	if err != nil {
		return rag.RetrievedCase{}, err
	}

	return rag.RetrievedCase{
		CaseStory:      story,
		ResultOfCase:   result,
		DurationOfCase: duration,
	}, nil
}

var (
	_ rag.CaseRetriever = (*PineconeIndex)(nil)
	_ rag.CaseIndexer   = (*PineconeIndex)(nil)
)
