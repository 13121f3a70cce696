package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/critique-dev/critique/internal/domain"
)

// JSONWriter renders the canonical machine-readable report shape.
type JSONWriter struct{}

// jsonReport is the persisted schema. Slices only, no maps, so encoding
// order is fixed.
type jsonReport struct {
	Meta    domain.RunMeta        `json:"meta"`
	Units   []jsonUnit            `json:"units"`
	Summary domain.SeverityCounts `json:"summary"`
}

type jsonUnit struct {
	Path       string             `json:"path"`
	Language   string             `json:"language"`
	Findings   []domain.Finding   `json:"findings"`
	Assessment string             `json:"assessment,omitempty"`
	Metrics    domain.UnitMetrics `json:"metrics"`
	Degraded   bool               `json:"degraded,omitempty"`
}

func (j *JSONWriter) Write(w io.Writer, report *domain.ReviewReport) error {
	out := jsonReport{
		Meta:    report.Meta,
		Units:   make([]jsonUnit, 0, len(report.Results)),
		Summary: report.Summary,
	}
	for _, res := range report.Results {
		findings := res.Findings
		if findings == nil {
			findings = []domain.Finding{}
		}
		out.Units = append(out.Units, jsonUnit{
			Path:       res.Unit.Path,
			Language:   res.Unit.Language,
			Findings:   findings,
			Assessment: res.Assessment,
			Metrics:    res.Metrics,
			Degraded:   res.Degraded,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}
