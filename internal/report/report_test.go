package report

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/critique-dev/critique/internal/domain"
)

func sampleReport() *domain.ReviewReport {
	unit := domain.NewReviewUnit("src/app.py", "python", []byte("import os\nx = 1\n"))
	clean := domain.NewReviewUnit("src/util.py", "python", []byte("y = 2\n"))

	return &domain.ReviewReport{
		Meta: domain.RunMeta{
			RunID:     "run-0001",
			Timestamp: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC),
			Tool:      "critique",
			Version:   "1.0.0",
			Analyzers: map[string]string{"python": "pylint"},
		},
		Results: []domain.UnitResult{
			{
				Unit: unit,
				Findings: []domain.Finding{
					{Unit: "src/app.py", LineStart: 1, LineEnd: 1, Severity: domain.SeverityWarning,
						Category: domain.CategoryStyle, Message: "unused import os", Source: domain.SourceStatic,
						Fix: "remove the import"},
					{Unit: "src/app.py", LineStart: 2, LineEnd: 2, Severity: domain.SeverityError,
						Category: domain.CategoryBug, Message: "x is never used", Source: domain.SourceMerged},
				},
				Assessment: "Short script with minor hygiene issues.",
				Metrics:    domain.UnitMetrics{Complexity: 1.0, Maintainability: 82, QualityScore: 7},
			},
			{
				Unit:    clean,
				Metrics: domain.UnitMetrics{Complexity: 1.0, Maintainability: 95, QualityScore: 10},
			},
		},
		Summary: domain.SeverityCounts{Warning: 1, Error: 1},
	}
}

func render(t *testing.T, format string, r *domain.ReviewReport) string {
	t.Helper()
	writer, err := GetWriter(format)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, writer.Write(&buf, r))
	return buf.String()
}

func TestRenderersAreDeterministic(t *testing.T) {
	for _, format := range []string{"json", "md"} {
		first := render(t, format, sampleReport())
		second := render(t, format, sampleReport())
		if diff := cmp.Diff(first, second); diff != "" {
			t.Fatalf("%s render not deterministic (-first +second):\n%s", format, diff)
		}
	}
}

func TestJSONSchema(t *testing.T) {
	out := render(t, "json", sampleReport())
	require.True(t, strings.HasSuffix(out, "\n"))

	var decoded struct {
		Units []struct {
			Path     string `json:"path"`
			Language string `json:"language"`
			Findings []struct {
				LineStart int    `json:"line_start"`
				LineEnd   int    `json:"line_end"`
				Severity  string `json:"severity"`
				Category  string `json:"category"`
				Message   string `json:"message"`
				Source    string `json:"source"`
				Fix       string `json:"fix"`
			} `json:"findings"`
		} `json:"units"`
		Summary struct {
			Info    int `json:"info"`
			Warning int `json:"warning"`
			Error   int `json:"error"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	require.Len(t, decoded.Units, 2)
	require.Equal(t, "src/app.py", decoded.Units[0].Path)
	require.Equal(t, "python", decoded.Units[0].Language)
	require.Len(t, decoded.Units[0].Findings, 2)
	require.Equal(t, 1, decoded.Units[0].Findings[0].LineStart)
	require.Equal(t, "warning", decoded.Units[0].Findings[0].Severity)
	require.Equal(t, "style", decoded.Units[0].Findings[0].Category)
	require.Equal(t, "static", decoded.Units[0].Findings[0].Source)
	require.Equal(t, "remove the import", decoded.Units[0].Findings[0].Fix)
	require.Equal(t, "merged", decoded.Units[0].Findings[1].Source)

	// Unit with no findings still renders an empty array, not null.
	require.NotNil(t, decoded.Units[1].Findings)
	require.Contains(t, out, `"findings": []`)

	require.Equal(t, 1, decoded.Summary.Warning)
	require.Equal(t, 1, decoded.Summary.Error)
}

func TestJSONOmitsEmptyFix(t *testing.T) {
	out := render(t, "json", sampleReport())
	require.Equal(t, 1, strings.Count(out, `"fix"`))
}

func TestMarkdownLayout(t *testing.T) {
	out := render(t, "md", sampleReport())

	require.Contains(t, out, "# Code Review Report")
	require.Contains(t, out, "| **Total** | **2** |")
	require.Contains(t, out, "## src/app.py")
	require.Contains(t, out, "## src/util.py")
	require.Contains(t, out, "Short script with minor hygiene issues.")
	require.Contains(t, out, "Suggested fix: remove the import")
	require.Contains(t, out, "No issues found.")
	require.Contains(t, out, "Quality: 7/10")

	// Findings appear in merge order within the unit section.
	warnIdx := strings.Index(out, "unused import os")
	errIdx := strings.Index(out, "x is never used")
	require.Greater(t, errIdx, warnIdx)
}

func TestMarkdownFlagsDegradedUnits(t *testing.T) {
	r := sampleReport()
	r.Results[0].Degraded = true
	out := render(t, "md", r)
	require.Contains(t, out, "results are partial")
}

func TestGetWriterUnknownFormat(t *testing.T) {
	_, err := GetWriter("yaml")
	var cerr *domain.ConfigError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "format", cerr.Field)
}

func TestWriteReportToFile(t *testing.T) {
	path := t.TempDir() + "/report.json"
	require.NoError(t, WriteReport(sampleReport(), "json", path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"src/app.py"`)
}
