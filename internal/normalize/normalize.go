// Package normalize converts raw adapter records into canonical findings.
package normalize

import (
	"strings"

	"github.com/critique-dev/critique/internal/domain"
)

// Raw is an adapter record before normalization. Severity and Category are
// tool-specific vocabulary; lines may be out of range.
type Raw struct {
	LineStart int
	LineEnd   int
	Severity  string
	Category  string
	Message   string
	Source    domain.Source
	Fix       string
}

// severityTable maps tool-specific severity vocabularies to the canonical
// enum. Keys are lowercase. Unmapped values default to warning.
var severityTable = map[string]domain.Severity{
	// canonical
	"info":    domain.SeverityInfo,
	"warning": domain.SeverityWarning,
	"error":   domain.SeverityError,
	// pylint message types
	"convention": domain.SeverityInfo,
	"refactor":   domain.SeverityInfo,
	"fatal":      domain.SeverityError,
	// eslint numeric severities
	"1": domain.SeverityWarning,
	"2": domain.SeverityError,
	// checkstyle / clang-tidy / generic tool words
	"note":     domain.SeverityInfo,
	"warn":     domain.SeverityWarning,
	"critical": domain.SeverityError,
	"high":     domain.SeverityError,
	"medium":   domain.SeverityWarning,
	"low":      domain.SeverityInfo,
}

// categoryTable maps loose category words to the canonical enum. Unmapped
// values default to best-practice.
var categoryTable = map[string]domain.Category{
	"style":                domain.CategoryStyle,
	"bug":                  domain.CategoryBug,
	"security":             domain.CategorySecurity,
	"semantic":             domain.CategorySemantic,
	"best-practice":        domain.CategoryBestPractice,
	"best practice":        domain.CategoryBestPractice,
	"convention":           domain.CategoryStyle,
	"correctness":          domain.CategoryBug,
	"performance":          domain.CategoryBestPractice,
	"tooling-error":        domain.CategoryToolingError,
	"ai-unavailable":       domain.CategoryAIDown,
	"unparsed-ai-response": domain.CategoryUnparsedAI,
}

// Severity maps a tool severity token to the canonical enum.
func Severity(token string) domain.Severity {
	if s, ok := severityTable[strings.ToLower(strings.TrimSpace(token))]; ok {
		return s
	}
	return domain.SeverityWarning
}

// CategoryOf maps a loose category word to the canonical enum.
func CategoryOf(word string) domain.Category {
	if c, ok := categoryTable[strings.ToLower(strings.TrimSpace(word))]; ok {
		return c
	}
	return domain.CategoryBestPractice
}

// Message collapses whitespace runs and trims the message text.
func Message(msg string) string {
	return strings.Join(strings.Fields(msg), " ")
}

// Finding maps a raw adapter record to a canonical Finding for the given
// unit. Line ranges are clamped to the unit's actual line count; an
// inverted range is swapped rather than rejected.
func Finding(unit domain.ReviewUnit, raw Raw) domain.Finding {
	start, end := clampRange(raw.LineStart, raw.LineEnd, unit.LineCount())
	return domain.Finding{
		Unit:      unit.Path,
		LineStart: start,
		LineEnd:   end,
		Severity:  Severity(raw.Severity),
		Category:  CategoryOf(raw.Category),
		Message:   Message(raw.Message),
		Source:    raw.Source,
		Fix:       strings.TrimSpace(raw.Fix),
	}
}

// clampRange clamps a 1-based inclusive line range to [1, lineCount].
// A zero or missing end collapses to a point range at start.
func clampRange(start, end, lineCount int) (int, int) {
	if lineCount < 1 {
		lineCount = 1
	}
	if end == 0 {
		end = start
	}
	if start > end {
		start, end = end, start
	}
	start = clamp(start, 1, lineCount)
	end = clamp(end, 1, lineCount)
	return start, end
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
