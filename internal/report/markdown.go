package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/critique-dev/critique/internal/domain"
)

// MarkdownWriter renders a human-readable report: run metadata, a summary
// table, then one section per unit with findings in merge order.
type MarkdownWriter struct{}

func severityMarker(s domain.Severity) string {
	switch s {
	case domain.SeverityError:
		return "🔴"
	case domain.SeverityWarning:
		return "🟡"
	default:
		return "🔵"
	}
}

func (m *MarkdownWriter) Write(w io.Writer, report *domain.ReviewReport) error {
	fmt.Fprintf(w, "# Code Review Report\n\n")
	fmt.Fprintf(w, "Run `%s` at %s with %s %s.\n\n",
		report.Meta.RunID,
		report.Meta.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC"),
		report.Meta.Tool, report.Meta.Version)

	fmt.Fprintf(w, "| Severity | Count |\n")
	fmt.Fprintf(w, "|----------|-------|\n")
	fmt.Fprintf(w, "| Error    | %d |\n", report.Summary.Error)
	fmt.Fprintf(w, "| Warning  | %d |\n", report.Summary.Warning)
	fmt.Fprintf(w, "| Info     | %d |\n", report.Summary.Info)
	fmt.Fprintf(w, "| **Total** | **%d** |\n\n", report.Summary.Total())

	if len(report.Results) == 0 {
		fmt.Fprintln(w, "No reviewable files found.")
		return nil
	}

	for _, res := range report.Results {
		fmt.Fprintf(w, "## %s\n\n", res.Unit.Path)
		fmt.Fprintf(w, "Language: %s · Lines: %d · Quality: %d/10 · Complexity: %.1f · Maintainability: %.0f\n\n",
			res.Unit.Language, res.Unit.LineCount(),
			res.Metrics.QualityScore, res.Metrics.Complexity, res.Metrics.Maintainability)

		if res.Degraded {
			fmt.Fprintf(w, "> ⚠️ Some analyzers were unavailable for this file; results are partial.\n\n")
		}

		if res.Assessment != "" {
			fmt.Fprintf(w, "%s\n\n", res.Assessment)
		}

		if len(res.Findings) == 0 {
			fmt.Fprintf(w, "No issues found.\n\n")
			continue
		}

		for _, f := range res.Findings {
			loc := fmt.Sprintf("L%d", f.LineStart)
			if f.LineEnd > f.LineStart {
				loc = fmt.Sprintf("L%d-L%d", f.LineStart, f.LineEnd)
			}
			fmt.Fprintf(w, "- %s **%s** `%s` [%s/%s]: %s\n",
				severityMarker(f.Severity), f.Severity, loc, f.Category, f.Source, f.Message)
			if f.Fix != "" {
				fmt.Fprintf(w, "  - Suggested fix: %s\n", strings.ReplaceAll(f.Fix, "\n", " "))
			}
		}
		fmt.Fprintln(w)
	}
	return nil
}
