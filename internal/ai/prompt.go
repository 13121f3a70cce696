package ai

import (
	"fmt"
	"strings"
)

// promptTemplate fixes the instruction and response grammar. The grammar
// keeps parsing trivial: one finding per block, blocks separated by a
// bare "---" line, a final block carrying the overall assessment.
const promptTemplate = `You are a senior software engineer reviewing %s code.

CODE (line numbers added for reference):
%s

Report every real bug, security issue, style problem or best-practice
violation you find. Answer ONLY in the following format, nothing else.

One block per finding, blocks separated by a line containing only "---":

line: <line number, or <start>-<end> for a range>
severity: <info|warning|error>
category: <style|bug|security|semantic|best-practice>
message: <one-line description of the issue>
fix: <optional one-line suggested fix>

After the last finding block, add a final block:

assessment: <2-3 sentence overall assessment of the code>

If the code has no issues, output only the assessment block.`

// buildPrompt renders the deterministic prompt for one chunk. Content is
// embedded with 1-based line numbers offset by the chunk's start line so
// the model reports lines in unit coordinates.
func buildPrompt(language string, chunk Chunk) string {
	lines := strings.Split(strings.TrimRight(chunk.Content, "\n"), "\n")
	var b strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&b, "%4d | %s\n", chunk.StartLine+i, line)
	}
	return fmt.Sprintf(promptTemplate, language, b.String())
}
