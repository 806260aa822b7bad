package rag

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssembleContext_Empty(t *testing.T) {
	assert.Equal(t, "Similar Past Cases:\n", AssembleContext(nil))
}

func TestAssembleContext_Format(t *testing.T) {
	got := AssembleContext([]RetrievedCase{
		{CaseStory: "Wife evicted from shared household.", ResultOfCase: "Residence order granted.", DurationOfCase: "14 months"},
	})

	want := "Similar Past Cases:\n" +
		"Case 1\n" +
		"Case Story: Wife evicted from shared household.\n\n" +
		"Case Outcome: Residence order granted.\n\n" +
		"Duration: 14 months\n\n"
	assert.Equal(t, want, got)
}

func TestAssembleContext_NumbersInInputOrder(t *testing.T) {
	var cases []RetrievedCase
	for i := 0; i < 5; i++ {
		cases = append(cases, RetrievedCase{
			CaseStory:      fmt.Sprintf("story-%c", 'a'+i),
			ResultOfCase:   fmt.Sprintf("outcome-%c", 'a'+i),
			DurationOfCase: fmt.Sprintf("duration-%c", 'a'+i),
		})
	}

	got := AssembleContext(cases)

	assert.Equal(t, len(cases), strings.Count(got, "Case Story: "))
	last := 0
	for i, c := range cases {
		header := fmt.Sprintf("Case %d\n", i+1)
		idx := strings.Index(got, header)
		assert.Greater(t, idx, last-1, "case %d out of order", i+1)
		last = idx

		block := got[idx:]
		assert.True(t, strings.HasPrefix(block, header+"Case Story: "+c.CaseStory+"\n\n"+
			"Case Outcome: "+c.ResultOfCase+"\n\n"+
			"Duration: "+c.DurationOfCase+"\n\n"))
	}
	assert.NotContains(t, got, "Case 6\n")
}

func TestAssembleContext_Deterministic(t *testing.T) {
	cases := []RetrievedCase{{CaseStory: "s", ResultOfCase: "r", DurationOfCase: "d"}}
	assert.Equal(t, AssembleContext(cases), AssembleContext(cases))
}
