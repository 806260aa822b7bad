package caseindex

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ai-model4vda/lamp2-4.0/internal/rag"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRows struct {
	data [][]string
	pos  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.data) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.pos-1]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		*(d.(*string)) = row[i]
	}
	return nil
}

func (r *fakeRows) Values() ([]any, error) {
	row := r.data[r.pos-1]
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out, nil
}

type fakeConn struct {
	rows     *fakeRows
	queryErr error
	execErr  error

	gotSQL  string
	gotArgs []any
}

func (c *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	c.gotSQL = sql
	c.gotArgs = args
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	return c.rows, nil
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.gotSQL = sql
	c.gotArgs = args
	return pgconn.NewCommandTag("INSERT 0 1"), c.execErr
}

func TestPgRepository_SearchCases(t *testing.T) {
	conn := &fakeConn{rows: &fakeRows{data: [][]string{
		{"s1", "r1", "d1"},
		{"s2", "r2", "d2"},
	}}}
	repo := NewPgRepository(conn)

	cases, err := repo.SearchCases(context.Background(), []float32{1, 2}, 0)
	require.NoError(t, err)
	assert.Equal(t, []rag.RetrievedCase{
		{CaseStory: "s1", ResultOfCase: "r1", DurationOfCase: "d1"},
		{CaseStory: "s2", ResultOfCase: "r2", DurationOfCase: "d2"},
	}, cases)

	assert.Contains(t, conn.gotSQL, "ORDER BY embedding <-> $1")
	require.Len(t, conn.gotArgs, 2)
	assert.Equal(t, pgvector.NewVector([]float32{1, 2}), conn.gotArgs[0])
	assert.Equal(t, rag.TopK, conn.gotArgs[1])
}

func TestPgRepository_SearchCasesErrors(t *testing.T) {
	_, err := NewPgRepository(&fakeConn{queryErr: errors.New("conn refused")}).
		SearchCases(context.Background(), []float32{1}, 3)
	require.Error(t, err)

	_, err = NewPgRepository(&fakeConn{rows: &fakeRows{err: errors.New("broken stream")}}).
		SearchCases(context.Background(), []float32{1}, 3)
	require.Error(t, err)
}

func TestPgRepository_IndexCase(t *testing.T) {
	conn := &fakeConn{}
	repo := NewPgRepository(conn)

	err := repo.IndexCase(context.Background(), rag.IndexedCase{
		ID:       "id-1",
		Case:     rag.RetrievedCase{CaseStory: "s", ResultOfCase: "r", DurationOfCase: "d"},
		Language: "en",
		Source:   "a.pdf",
	}, []float32{0.25})
	require.NoError(t, err)

	assert.True(t, strings.Contains(conn.gotSQL, "ON CONFLICT (id) DO UPDATE"))
	require.Len(t, conn.gotArgs, 7)
	assert.Equal(t, []any{"id-1", "s", "r", "d", "en", "a.pdf"}, conn.gotArgs[:6])
	assert.Equal(t, pgvector.NewVector([]float32{0.25}), conn.gotArgs[6])
}

func TestPgRepository_IndexCaseError(t *testing.T) {
	err := NewPgRepository(&fakeConn{execErr: errors.New("duplicate")}).
		IndexCase(context.Background(), rag.IndexedCase{ID: "x"}, []float32{1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x")
}
