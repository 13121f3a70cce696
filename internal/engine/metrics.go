package engine

import (
	"strings"

	"github.com/critique-dev/critique/internal/domain"
)

// branchKeywords are the tokens counted as decision points.
var branchKeywords = map[string]bool{
	"if":     true,
	"elif":   true,
	"else":   true,
	"for":    true,
	"while":  true,
	"case":   true,
	"switch": true,
	"catch":  true,
	"except": true,
	"&&":     true,
	"||":     true,
	"and":    true,
	"or":     true,
}

// Metrics computes the heuristic quality metrics for a unit from its
// content and merged findings. Degradation findings do not count as
// issues.
func Metrics(unit domain.ReviewUnit, findings []domain.Finding) domain.UnitMetrics {
	nonEmpty := 0
	branches := 0
	for _, line := range unit.Lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmpty++
		for _, token := range strings.Fields(trimmed) {
			if branchKeywords[strings.Trim(token, "({:;")] {
				branches++
			}
		}
	}

	complexity := 1.0 + float64(branches)/10.0
	maintainability := clampFloat(100-float64(nonEmpty)/5, 0, 100)

	issues := 0
	for _, f := range findings {
		if !f.Category.IsDegradation() {
			issues++
		}
	}

	// 0-100 grade: deductions for issues and complexity, a bonus for
	// maintainability, scaled down to the 1-10 report scale.
	grade := 100.0
	grade -= minFloat(50, float64(issues)*3)
	grade -= minFloat(30, maxFloat(0, (complexity-5)*3))
	grade += minFloat(20, (maintainability-50)/2.5)
	grade = clampFloat(grade, 0, 100)

	score := int(grade/10 + 0.5)
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}

	return domain.UnitMetrics{
		Complexity:      complexity,
		Maintainability: maintainability,
		QualityScore:    score,
	}
}

func clampFloat(v, lo, hi float64) float64 {
	return maxFloat(lo, minFloat(hi, v))
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
