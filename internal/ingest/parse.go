package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ai-model4vda/lamp2-4.0/internal/rag"
)

// Unknown fills outcome or duration when a document does not state them.
const Unknown = "Unknown"

const (
	labelStory    = "Case Story:"
	labelOutcome  = "Case Outcome:"
	labelDuration = "Duration:"
)

var caseHeader = regexp.MustCompile(`^Case \d+$`)

type textField int

const (
	fieldNone textField = iota
	fieldStory
	fieldOutcome
	fieldDuration
)

// ParseJSON decodes an array of case records.
func ParseJSON(data []byte) ([]rag.RetrievedCase, error) {
	var cases []rag.RetrievedCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("decode case array: %w", err)
	}
	return normalize(cases), nil
}

// ParseJSONL decodes one case record per non-blank line.
func ParseJSONL(data []byte) ([]rag.RetrievedCase, error) {
	var cases []rag.RetrievedCase

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var c rag.RetrievedCase
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("decode line %d: %w", line, err)
		}
		cases = append(cases, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	return normalize(cases), nil
}

// ParseText splits a labelled judgment into cases. Every "Case Story:" line
// opens a new case; unlabelled lines continue the current field. Text with no
// story label becomes a single case with unknown outcome and duration.
func ParseText(text string) []rag.RetrievedCase {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !strings.Contains(text, labelStory) {
		return normalize([]rag.RetrievedCase{{CaseStory: text}})
	}

	var (
		cases []rag.RetrievedCase
		field = fieldNone
	)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, labelStory):
			cases = append(cases, rag.RetrievedCase{})
			field = fieldStory
			trimmed = strings.TrimPrefix(trimmed, labelStory)
		case len(cases) > 0 && strings.HasPrefix(trimmed, labelOutcome):
			field = fieldOutcome
			trimmed = strings.TrimPrefix(trimmed, labelOutcome)
		case len(cases) > 0 && strings.HasPrefix(trimmed, labelDuration):
			field = fieldDuration
			trimmed = strings.TrimPrefix(trimmed, labelDuration)
		case caseHeader.MatchString(trimmed), trimmed == "Similar Past Cases:":
			continue
		}

		if field == fieldNone {
			continue
		}
		cur := &cases[len(cases)-1]
		switch field {
		case fieldStory:
			appendLine(&cur.CaseStory, strings.TrimSpace(trimmed))
		case fieldOutcome:
			appendLine(&cur.ResultOfCase, strings.TrimSpace(trimmed))
		case fieldDuration:
			appendLine(&cur.DurationOfCase, strings.TrimSpace(trimmed))
		}
	}

	return normalize(cases)
}

func appendLine(field *string, line string) {
	switch {
	case line == "":
		if *field != "" {
			*field += "\n"
		}
	case *field == "" || strings.HasSuffix(*field, "\n"):
		*field += line
	default:
		*field += " " + line
	}
}

// normalize trims fields, fills unknowns and drops cases without a story.
func normalize(in []rag.RetrievedCase) []rag.RetrievedCase {
	out := in[:0]
	for _, c := range in {
		c.CaseStory = sanitizeUTF8(strings.TrimSpace(c.CaseStory))
		c.ResultOfCase = sanitizeUTF8(strings.TrimSpace(c.ResultOfCase))
		c.DurationOfCase = sanitizeUTF8(strings.TrimSpace(c.DurationOfCase))
		if c.CaseStory == "" {
			continue
		}
		if c.ResultOfCase == "" {
			c.ResultOfCase = Unknown
		}
		if c.DurationOfCase == "" {
			c.DurationOfCase = Unknown
		}
		out = append(out, c)
	}
	return out
}
