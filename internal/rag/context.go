package rag

import (
	"strconv"
	"strings"
)

const contextHeader = "Similar Past Cases:\n"

// AssembleContext renders retrieved cases, in order, as the block appended to
// the RAG system prompt. No truncation is applied.
func AssembleContext(cases []RetrievedCase) string {
	var b strings.Builder
	b.WriteString(contextHeader)

	for i, c := range cases {
		b.WriteString("Case ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString("\n")
		b.WriteString("Case Story: ")
		b.WriteString(c.CaseStory)
		b.WriteString("\n\n")
		b.WriteString("Case Outcome: ")
		b.WriteString(c.ResultOfCase)
		b.WriteString("\n\n")
		b.WriteString("Duration: ")
		b.WriteString(c.DurationOfCase)
		b.WriteString("\n\n")
	}

	return b.String()
}
