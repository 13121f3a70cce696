// Package static invokes external per-language analysis tools and converts
// their output into findings.
package static

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/critique-dev/critique/internal/domain"
	"github.com/critique-dev/critique/internal/normalize"
)

// Adapter runs the configured static tool for a unit's language. Tool
// failures degrade to a single tooling-error finding; unparsable output
// lines are dropped with a logged count. The adapter never fails a unit.
type Adapter struct {
	tools    map[string]Tool
	timeout  time.Duration
	log      *zap.SugaredLogger
	lookPath func(string) (string, error)
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithTool overrides the analyzer for a language.
func WithTool(language string, tool Tool) Option {
	return func(a *Adapter) {
		a.tools[language] = tool
	}
}

// WithTimeout bounds each tool invocation.
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		a.timeout = d
	}
}

// NewAdapter builds an Adapter with the default tool table.
func NewAdapter(log *zap.SugaredLogger, opts ...Option) *Adapter {
	a := &Adapter{
		tools:    make(map[string]Tool, len(defaultTools)),
		timeout:  30 * time.Second,
		log:      log,
		lookPath: exec.LookPath,
	}
	for lang, tool := range defaultTools {
		a.tools[lang] = tool
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name identifies the adapter in report metadata.
func (a *Adapter) Name() string { return "static" }

// Tools returns the configured language→analyzer mapping for report
// metadata.
func (a *Adapter) Tools() map[string]string {
	out := make(map[string]string, len(a.tools))
	for lang, tool := range a.tools {
		out[lang] = tool.Name
	}
	return out
}

// Review runs the static tool for the unit's language and returns
// normalized findings. Units without a configured tool yield no findings.
// The only returned error is context cancellation.
func (a *Adapter) Review(ctx context.Context, unit domain.ReviewUnit) ([]domain.Finding, error) {
	tool, ok := a.tools[unit.Language]
	if !ok {
		a.log.Debugw("no static tool configured", "language", unit.Language, "unit", unit.Path)
		return nil, nil
	}

	if groupIndex(tool.Pattern, "line") < 0 || groupIndex(tool.Pattern, "msg") < 0 {
		a.log.Warnw("static tool pattern missing required groups", "tool", tool.Name)
		return []domain.Finding{a.toolingError(unit, &domain.ToolingError{
			Tool:   tool.Name,
			Reason: "output pattern missing line or msg group",
		})}, nil
	}

	if _, err := a.lookPath(tool.Command); err != nil {
		a.log.Warnw("static tool not found", "tool", tool.Command, "unit", unit.Path)
		return []domain.Finding{a.toolingError(unit, &domain.ToolingError{
			Tool:   tool.Name,
			Reason: "not found in PATH",
		})}, nil
	}

	tempPath, err := writeTempUnit(unit.Content(), tool.FileExt)
	if err != nil {
		return []domain.Finding{a.toolingError(unit, &domain.ToolingError{
			Tool:   tool.Name,
			Reason: err.Error(),
		})}, nil
	}
	defer cleanupTempFile(tempPath)

	toolCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	args := append(append([]string{}, tool.Args...), tempPath)
	output, timedOut, err := runTool(toolCtx, tool.Command, args)
	if timedOut {
		a.log.Warnw("static tool timed out", "tool", tool.Name, "unit", unit.Path, "timeout", a.timeout)
		return []domain.Finding{a.toolingError(unit, &domain.ToolingError{
			Tool:   tool.Name,
			Reason: fmt.Sprintf("timed out after %s", a.timeout),
		})}, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return []domain.Finding{a.toolingError(unit, &domain.ToolingError{
			Tool:   tool.Name,
			Reason: err.Error(),
		})}, nil
	}

	findings, dropped := a.parseOutput(unit, tool, output)
	if dropped > 0 {
		a.log.Infow("dropped unparsable tool output lines",
			"tool", tool.Name, "unit", unit.Path, "dropped", dropped)
	}
	return findings, nil
}

// parseOutput applies the tool's pattern line by line. Lines that do not
// match are counted and dropped, never fatal.
func (a *Adapter) parseOutput(unit domain.ReviewUnit, tool Tool, output []byte) ([]domain.Finding, int) {
	lineIdx := groupIndex(tool.Pattern, "line")
	sevIdx := groupIndex(tool.Pattern, "sev")
	msgIdx := groupIndex(tool.Pattern, "msg")
	endIdx := groupIndex(tool.Pattern, "endline")

	var findings []domain.Finding
	dropped := 0

	scanner := bufio.NewScanner(strings.NewReader(string(output)))
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		m := tool.Pattern.FindStringSubmatch(text)
		if m == nil {
			dropped++
			continue
		}

		line, err := strconv.Atoi(m[lineIdx])
		if err != nil {
			dropped++
			continue
		}
		end := line
		if endIdx >= 0 && m[endIdx] != "" {
			if v, err := strconv.Atoi(m[endIdx]); err == nil {
				end = v
			}
		}
		severity := ""
		if sevIdx >= 0 {
			severity = m[sevIdx]
		}

		findings = append(findings, normalize.Finding(unit, normalize.Raw{
			LineStart: line,
			LineEnd:   end,
			Severity:  severity,
			Category:  string(tool.Category),
			Message:   m[msgIdx],
			Source:    domain.SourceStatic,
		}))
	}

	return findings, dropped
}

// toolingError builds the synthetic finding emitted when a tool is missing,
// crashed, or timed out.
func (a *Adapter) toolingError(unit domain.ReviewUnit, terr *domain.ToolingError) domain.Finding {
	return normalize.Finding(unit, normalize.Raw{
		LineStart: 1,
		LineEnd:   1,
		Severity:  "warning",
		Category:  string(domain.CategoryToolingError),
		Message:   "static analysis unavailable: " + terr.Error(),
		Source:    domain.SourceStatic,
	})
}
