package caseindex

import (
	"context"
	"errors"
	"testing"

	"github.com/ai-model4vda/lamp2-4.0/internal/rag"
	"github.com/pinecone-io/go-pinecone/pinecone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

type stubConn struct {
	resp     *pinecone.QueryVectorsResponse
	queryErr error
	gotQuery *pinecone.QueryByVectorValuesRequest

	upserted  []*pinecone.Vector
	upsertErr error
}

func (s *stubConn) QueryByVectorValues(ctx context.Context, in *pinecone.QueryByVectorValuesRequest) (*pinecone.QueryVectorsResponse, error) {
	s.gotQuery = in
	return s.resp, s.queryErr
}

func (s *stubConn) UpsertVectors(ctx context.Context, in []*pinecone.Vector) (uint32, error) {
	s.upserted = append(s.upserted, in...)
	return uint32(len(in)), s.upsertErr
}

func newTestIndex(stub *stubConn) *PineconeIndex {
	x := NewPineconeIndex(PineconeConfig{APIKey: "k", Host: "https://idx.test", Namespace: "ns1"})
	x.once.Do(func() { x.conn = stub })
	return x
}

func match(t *testing.T, id string, fields map[string]any) *pinecone.ScoredVector {
	t.Helper()
	md, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return &pinecone.ScoredVector{Vector: &pinecone.Vector{Id: id, Metadata: md}}
}

func caseFields(n string) map[string]any {
	return map[string]any{
		FieldCaseStory:      "story " + n,
		FieldResultOfCase:   "result " + n,
		FieldDurationOfCase: "duration " + n,
	}
}

func TestSearchCases_PreservesRankOrder(t *testing.T) {
	stub := &stubConn{resp: &pinecone.QueryVectorsResponse{Matches: []*pinecone.ScoredVector{
		match(t, "a", caseFields("1")),
		match(t, "b", caseFields("2")),
		match(t, "c", caseFields("3")),
	}}}
	x := newTestIndex(stub)

	cases, err := x.SearchCases(context.Background(), []float32{0.1, 0.2}, rag.TopK)
	require.NoError(t, err)
	require.Len(t, cases, 3)
	for i, n := range []string{"1", "2", "3"} {
		assert.Equal(t, rag.RetrievedCase{
			CaseStory:      "story " + n,
			ResultOfCase:   "result " + n,
			DurationOfCase: "duration " + n,
		}, cases[i])
	}

	require.NotNil(t, stub.gotQuery)
	assert.Equal(t, uint32(3), stub.gotQuery.TopK)
	assert.True(t, stub.gotQuery.IncludeValues)
	assert.True(t, stub.gotQuery.IncludeMetadata)
	assert.Nil(t, stub.gotQuery.MetadataFilter)
	assert.Equal(t, []float32{0.1, 0.2}, stub.gotQuery.Vector)
}

func TestSearchCases_MissingMetadataField(t *testing.T) {
	fields := caseFields("1")
	delete(fields, FieldDurationOfCase)
	stub := &stubConn{resp: &pinecone.QueryVectorsResponse{Matches: []*pinecone.ScoredVector{match(t, "a", fields)}}}

	_, err := newTestIndex(stub).SearchCases(context.Background(), []float32{1}, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), FieldDurationOfCase)
}

func TestSearchCases_NonStringMetadata(t *testing.T) {
	fields := caseFields("1")
	fields[FieldResultOfCase] = 42.0
	stub := &stubConn{resp: &pinecone.QueryVectorsResponse{Matches: []*pinecone.ScoredVector{match(t, "a", fields)}}}

	_, err := newTestIndex(stub).SearchCases(context.Background(), []float32{1}, 3)
	require.Error(t, err)
}

func TestSearchCases_QueryError(t *testing.T) {
	stub := &stubConn{queryErr: errors.New("unavailable")}
	_, err := newTestIndex(stub).SearchCases(context.Background(), []float32{1}, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
}

func TestSearchCases_EmptyResult(t *testing.T) {
	stub := &stubConn{resp: &pinecone.QueryVectorsResponse{}}
	cases, err := newTestIndex(stub).SearchCases(context.Background(), []float32{1}, 3)
	require.NoError(t, err)
	assert.Empty(t, cases)
}

func TestIndex_MissingKeyFailsOnUse(t *testing.T) {
	orig := dialIndex
	defer func() { dialIndex = orig }()
	dialed := false
	dialIndex = func(cfg PineconeConfig) (indexConn, error) {
		dialed = true
		return &stubConn{}, nil
	}

	x := NewPineconeIndex(PineconeConfig{Host: "https://idx.test", Namespace: "ns1"})
	_, err := x.SearchCases(context.Background(), []float32{1}, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PINECONE_API_KEY")
	assert.False(t, dialed)
}

func TestIndexCase_Upserts(t *testing.T) {
	stub := &stubConn{}
	x := newTestIndex(stub)

	err := x.IndexCase(context.Background(), rag.IndexedCase{
		ID:       "case-1",
		Case:     rag.RetrievedCase{CaseStory: "s", ResultOfCase: "r", DurationOfCase: "d"},
		Language: "en",
		Source:   "cases.jsonl",
	}, []float32{0.5})
	require.NoError(t, err)

	require.Len(t, stub.upserted, 1)
	v := stub.upserted[0]
	assert.Equal(t, "case-1", v.Id)
	assert.Equal(t, []float32{0.5}, v.Values)

	got, err := caseFromMetadata(v.Id, v.Metadata)
	require.NoError(t, err)
	assert.Equal(t, rag.RetrievedCase{CaseStory: "s", ResultOfCase: "r", DurationOfCase: "d"}, got)
	assert.Equal(t, "en", v.Metadata.GetFields()[FieldLanguage].GetStringValue())
}
