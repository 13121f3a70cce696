package domain

import "time"

// UnitMetrics holds the heuristic quality metrics computed for one unit.
type UnitMetrics struct {
	// Complexity approximates mean cyclomatic complexity from the branch
	// keyword count. Lower is better.
	Complexity float64 `json:"complexity"`
	// Maintainability is a 0-100 index. Higher is better.
	Maintainability float64 `json:"maintainability"`
	// QualityScore is a 1-10 grade derived from findings and metrics.
	QualityScore int `json:"quality_score"`
}

// UnitResult pairs a unit with its merged findings. A UnitResult is only
// committed to a report once both adapters for the unit have completed or
// failed.
type UnitResult struct {
	Unit ReviewUnit
	// Findings are in final merge order: line asc, severity desc, source.
	Findings []Finding
	// Assessment is the AI reviewer's overall prose assessment, empty if
	// AI review was disabled or unavailable.
	Assessment string
	Metrics    UnitMetrics
	// Degraded reports whether any finding is a degradation marker.
	Degraded bool
}

// SeverityCounts holds finding counts per canonical severity.
type SeverityCounts struct {
	Info    int `json:"info"`
	Warning int `json:"warning"`
	Error   int `json:"error"`
}

// Total returns the sum across all severities.
func (c SeverityCounts) Total() int {
	return c.Info + c.Warning + c.Error
}

// Add increments the counter for the given severity.
func (c *SeverityCounts) Add(s Severity) {
	switch s {
	case SeverityInfo:
		c.Info++
	case SeverityWarning:
		c.Warning++
	case SeverityError:
		c.Error++
	}
}

// RunMeta is the metadata recorded for one review run.
type RunMeta struct {
	RunID     string            `json:"run_id"`
	Timestamp time.Time         `json:"timestamp"`
	Tool      string            `json:"tool"`
	Version   string            `json:"version"`
	Analyzers map[string]string `json:"analyzers,omitempty"`
}

// ReviewReport is the full result of a run. It is built once by the merge
// engine and consumed read-only by the renderers.
type ReviewReport struct {
	Meta RunMeta
	// Results are in walker order (lexicographic by path), independent of
	// adapter completion order.
	Results []UnitResult
	Summary SeverityCounts
}

// HasFindings reports whether any unit produced at least one non-degradation
// finding.
func (r *ReviewReport) HasFindings() bool {
	for _, res := range r.Results {
		for _, f := range res.Findings {
			if !f.Category.IsDegradation() {
				return true
			}
		}
	}
	return false
}

// Validate checks the report invariant that every finding references a unit
// present in the unit list.
func (r *ReviewReport) Validate() error {
	for _, res := range r.Results {
		for _, f := range res.Findings {
			if f.Unit != res.Unit.Path {
				return &ReportInvariantError{Unit: res.Unit.Path, Finding: f}
			}
		}
	}
	return nil
}

// ReportInvariantError reports a finding attached to the wrong unit.
type ReportInvariantError struct {
	Unit    string
	Finding Finding
}

func (e *ReportInvariantError) Error() string {
	return "finding for " + e.Finding.Unit + " attached to unit " + e.Unit
}
