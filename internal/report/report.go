// Package report renders a ReviewReport into its output formats. Both
// renderers are deterministic: the same report always produces the same
// bytes.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/critique-dev/critique/internal/domain"
)

// Writer renders a report in one format.
type Writer interface {
	Write(w io.Writer, report *domain.ReviewReport) error
}

// GetWriter returns the renderer for a format name.
func GetWriter(format string) (Writer, error) {
	switch format {
	case "json":
		return &JSONWriter{}, nil
	case "md", "markdown":
		return &MarkdownWriter{}, nil
	default:
		return nil, &domain.ConfigError{Field: "format", Reason: fmt.Sprintf("unsupported output format %q", format)}
	}
}

// WriteReport renders the report to outPath, or stdout when outPath is
// empty.
func WriteReport(report *domain.ReviewReport, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		w = f
	}
	return writer.Write(w, report)
}
