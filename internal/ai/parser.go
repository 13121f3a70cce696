package ai

import (
	"strconv"
	"strings"

	"github.com/critique-dev/critique/internal/domain"
	"github.com/critique-dev/critique/internal/normalize"
)

// parsed holds the structured form of one response.
type parsed struct {
	Findings   []normalize.Raw
	Assessment string
}

// parseResponse applies the fixed response grammar: blocks separated by
// bare "---" lines, each block a set of "key: value" lines. A block with
// an "assessment" key carries the overall assessment; every other block
// needs at least "line" and "message" to become a finding. A response
// yielding neither findings nor an assessment is a *domain.ParseError.
func parseResponse(raw string) (parsed, error) {
	var out parsed

	text := strings.TrimSpace(stripFences(raw))
	if text == "" {
		return out, &domain.ParseError{Source: "ai", Raw: raw}
	}

	dirty := false
	for _, block := range splitBlocks(text) {
		fields := parseFields(block)
		if len(fields) == 0 {
			dirty = true
			continue
		}
		if a, ok := fields["assessment"]; ok {
			out.Assessment = a
			continue
		}

		lineField, hasLine := fields["line"]
		msg, hasMsg := fields["message"]
		if !hasLine || !hasMsg {
			dirty = true
			continue
		}
		start, end, ok := parseLineRange(lineField)
		if !ok {
			dirty = true
			continue
		}

		out.Findings = append(out.Findings, normalize.Raw{
			LineStart: start,
			LineEnd:   end,
			Severity:  fields["severity"],
			Category:  fields["category"],
			Message:   msg,
			Source:    domain.SourceAI,
			Fix:       fields["fix"],
		})
	}

	if len(out.Findings) == 0 && out.Assessment == "" && dirty {
		return parsed{}, &domain.ParseError{Source: "ai", Raw: raw}
	}
	return out, nil
}

// stripFences removes a surrounding markdown code fence if the model
// wrapped its answer in one.
func stripFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return s
	}
	t = strings.TrimPrefix(t, "```")
	if i := strings.Index(t, "\n"); i >= 0 {
		t = t[i+1:]
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return t
}

func splitBlocks(text string) []string {
	var blocks []string
	var cur []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "---" {
			if len(cur) > 0 {
				blocks = append(blocks, strings.Join(cur, "\n"))
				cur = nil
			}
			continue
		}
		cur = append(cur, line)
	}
	if len(cur) > 0 {
		blocks = append(blocks, strings.Join(cur, "\n"))
	}
	return blocks
}

// parseFields reads "key: value" lines. Lines without a key continue the
// previous value, so multi-line messages survive.
func parseFields(block string) map[string]string {
	fields := make(map[string]string)
	lastKey := ""
	for _, line := range strings.Split(block, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		key, value, found := strings.Cut(trimmed, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		if found && isGrammarKey(key) {
			fields[key] = strings.TrimSpace(value)
			lastKey = key
			continue
		}
		if lastKey != "" {
			fields[lastKey] += " " + trimmed
		}
	}
	return fields
}

func isGrammarKey(key string) bool {
	switch key {
	case "line", "severity", "category", "message", "fix", "assessment":
		return true
	}
	return false
}

// parseLineRange accepts "12" or "12-15".
func parseLineRange(s string) (start, end int, ok bool) {
	s = strings.TrimSpace(s)
	if from, to, found := strings.Cut(s, "-"); found {
		a, err1 := strconv.Atoi(strings.TrimSpace(from))
		b, err2 := strconv.Atoi(strings.TrimSpace(to))
		if err1 != nil || err2 != nil {
			return 0, 0, false
		}
		return a, b, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, false
	}
	return n, n, true
}
