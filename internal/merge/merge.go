// Package merge collapses near-duplicate findings from the static and AI
// adapters into one ordered list per unit and assembles review reports.
package merge

import (
	"sort"
	"strings"

	"github.com/critique-dev/critique/internal/domain"
)

// similarityRatio is the Levenshtein ceiling for two messages to count as
// duplicates, as a fraction of the longer message's length.
const similarityRatio = 0.4

// Findings dedups the union of one unit's normalized findings and returns
// them in final order. Callers pass static findings before AI findings so
// the surviving representative is stable across runs.
func Findings(findings []domain.Finding) []domain.Finding {
	var out []domain.Finding
	for _, f := range findings {
		merged := false
		for i := range out {
			if duplicate(out[i], f) {
				out[i] = collapse(out[i], f)
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, f)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LineStart != out[j].LineStart {
			return out[i].LineStart < out[j].LineStart
		}
		if out[i].Severity != out[j].Severity {
			return domain.SeverityRank(out[i].Severity) > domain.SeverityRank(out[j].Severity)
		}
		return domain.SourceRank(out[i].Source) < domain.SourceRank(out[j].Source)
	})
	return out
}

// duplicate is the dedup predicate: overlapping line ranges, same
// category, and similar normalized messages. Degradation markers never
// merge with genuine findings.
func duplicate(a, b domain.Finding) bool {
	if a.Category != b.Category {
		return false
	}
	if a.Category.IsDegradation() {
		return false
	}
	if !a.Overlaps(b) {
		return false
	}
	return similar(a.NormalizedMessage(), b.NormalizedMessage())
}

// similar accepts containment either way, or an edit distance within
// similarityRatio of the longer message.
func similar(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	return float64(levenshtein(a, b)) <= similarityRatio*float64(longest)
}

// collapse folds b into representative a: span union, max severity,
// distinct fixes concatenated. Source becomes merged when the inputs come
// from different adapters.
func collapse(a, b domain.Finding) domain.Finding {
	if b.LineStart < a.LineStart {
		a.LineStart = b.LineStart
	}
	if b.LineEnd > a.LineEnd {
		a.LineEnd = b.LineEnd
	}
	if domain.SeverityRank(b.Severity) > domain.SeverityRank(a.Severity) {
		a.Severity = b.Severity
		a.Message = b.Message
	}
	if b.Fix != "" && b.Fix != a.Fix {
		if a.Fix == "" {
			a.Fix = b.Fix
		} else {
			a.Fix = a.Fix + "; " + b.Fix
		}
	}
	if a.Source != b.Source {
		a.Source = domain.SourceMerged
	}
	return a
}

// Report assembles the final ReviewReport: results sorted into walker
// order, per-unit degraded flags set and the severity summary counted.
func Report(meta domain.RunMeta, results []domain.UnitResult) domain.ReviewReport {
	sorted := make([]domain.UnitResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Unit.Path < sorted[j].Unit.Path
	})

	var summary domain.SeverityCounts
	for i := range sorted {
		degraded := false
		for _, f := range sorted[i].Findings {
			summary.Add(f.Severity)
			if f.Category.IsDegradation() {
				degraded = true
			}
		}
		sorted[i].Degraded = degraded
	}

	return domain.ReviewReport{
		Meta:    meta,
		Results: sorted,
		Summary: summary,
	}
}
