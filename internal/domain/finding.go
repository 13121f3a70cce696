// Package domain provides core types for the code reviewer.
package domain

import "strings"

// Severity is the canonical severity of a finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// SeverityRank returns a numeric rank for sorting (higher = more severe).
func SeverityRank(s Severity) int {
	switch s {
	case SeverityError:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Category classifies what kind of issue a finding describes.
type Category string

const (
	CategoryStyle        Category = "style"
	CategoryBug          Category = "bug"
	CategorySecurity     Category = "security"
	CategorySemantic     Category = "semantic"
	CategoryBestPractice Category = "best-practice"

	// Degradation categories. Findings with these categories mark
	// infrastructure failures, not issues in the reviewed code.
	CategoryToolingError Category = "tooling-error"
	CategoryAIDown       Category = "ai-unavailable"
	CategoryUnparsedAI   Category = "unparsed-ai-response"
)

// IsDegradation reports whether the category marks an infrastructure
// failure rather than a genuine review finding.
func (c Category) IsDegradation() bool {
	switch c {
	case CategoryToolingError, CategoryAIDown, CategoryUnparsedAI:
		return true
	}
	return false
}

// Source identifies which adapter produced a finding.
type Source string

const (
	SourceStatic Source = "static"
	SourceAI     Source = "ai"
	// SourceMerged marks a finding independently reported by both adapters
	// and collapsed into one representative during dedup.
	SourceMerged Source = "merged"
)

// SourceRank returns a numeric rank for stable ordering (static before ai).
func SourceRank(s Source) int {
	switch s {
	case SourceStatic:
		return 0
	case SourceAI:
		return 1
	case SourceMerged:
		return 2
	default:
		return 3
	}
}

// Finding is a single review issue attached to a ReviewUnit.
// Findings are immutable after merge except for severity reconciliation
// performed by the dedup pass itself.
type Finding struct {
	// Unit is the path of the ReviewUnit this finding belongs to.
	Unit string `json:"-"`
	// LineStart and LineEnd are 1-based and inclusive. A point finding
	// has LineStart == LineEnd.
	LineStart int      `json:"line_start"`
	LineEnd   int      `json:"line_end"`
	Severity  Severity `json:"severity"`
	Category  Category `json:"category"`
	Message   string   `json:"message"`
	Source    Source   `json:"source"`
	// Fix is an optional suggested replacement or remediation.
	Fix string `json:"fix,omitempty"`
}

// Overlaps reports whether the line ranges of two findings share at
// least one line.
func (f Finding) Overlaps(other Finding) bool {
	return f.LineStart <= other.LineEnd && other.LineStart <= f.LineEnd
}

// NormalizedMessage returns the message lowered with all whitespace runs
// collapsed to single spaces, for similarity comparison.
func (f Finding) NormalizedMessage() string {
	return strings.Join(strings.Fields(strings.ToLower(f.Message)), " ")
}
