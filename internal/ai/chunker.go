package ai

import "strings"

// defaultChunkBudget is the character budget above which a unit is split
// into independently reviewed chunks.
const defaultChunkBudget = 24000

// Chunk is a line-bounded slice of a unit's content. StartLine is the
// 1-based unit line the chunk begins at, so findings reported against a
// chunk land on the right unit lines.
type Chunk struct {
	Index     int
	StartLine int
	Content   string
}

// splitChunks cuts content into chunks of at most budget characters,
// always on line boundaries. A single line longer than the budget becomes
// its own chunk rather than being split mid-line.
func splitChunks(content string, budget int) []Chunk {
	if budget <= 0 {
		budget = defaultChunkBudget
	}
	if len(content) <= budget {
		return []Chunk{{Index: 0, StartLine: 1, Content: content}}
	}

	lines := strings.SplitAfter(content, "\n")
	var chunks []Chunk
	var b strings.Builder
	startLine := 1
	lineNo := 1

	flush := func() {
		if b.Len() == 0 {
			return
		}
		chunks = append(chunks, Chunk{
			Index:     len(chunks),
			StartLine: startLine,
			Content:   b.String(),
		})
		b.Reset()
		startLine = lineNo
	}

	for _, line := range lines {
		if line == "" {
			continue
		}
		if b.Len() > 0 && b.Len()+len(line) > budget {
			flush()
		}
		b.WriteString(line)
		lineNo++
	}
	flush()
	return chunks
}
