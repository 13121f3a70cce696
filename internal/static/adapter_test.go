package static

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/critique-dev/critique/internal/domain"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// fakeTool writes an executable shell script that emits the given output
// regardless of arguments, and returns its path.
func fakeTool(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "faketool")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

func pyUnit() domain.ReviewUnit {
	return domain.NewReviewUnit("main.py", "python", []byte("import os\nx = 1\nprint(x)\n"))
}

func TestReviewParsesToolOutput(t *testing.T) {
	tool := Tool{
		Name:     "faketool",
		Command:  fakeTool(t, `printf 'f.py:2:0: convention: variable name too short\nf.py:3:0: error: undefined name\ngarbage line\n'`),
		Pattern:  regexp.MustCompile(`^.*?:(?P<line>\d+):\d+:\s*(?P<sev>\w+):\s*(?P<msg>.+)$`),
		Category: domain.CategoryStyle,
		FileExt:  ".py",
	}

	a := NewAdapter(testLogger(), WithTool("python", tool))
	findings, err := a.Review(context.Background(), pyUnit())
	require.NoError(t, err)
	require.Len(t, findings, 2)

	require.Equal(t, 2, findings[0].LineStart)
	require.Equal(t, domain.SeverityInfo, findings[0].Severity) // convention
	require.Equal(t, "variable name too short", findings[0].Message)
	require.Equal(t, domain.SourceStatic, findings[0].Source)

	require.Equal(t, 3, findings[1].LineStart)
	require.Equal(t, domain.SeverityError, findings[1].Severity)
}

func TestReviewRejectsPatternWithoutRequiredGroups(t *testing.T) {
	tool := Tool{
		Name:     "badpattern",
		Command:  fakeTool(t, `printf 'f.py:2:0: warning: never reached\n'`),
		Pattern:  regexp.MustCompile(`^.*?:(\d+):\d+:\s*(\w+):\s*(.+)$`),
		Category: domain.CategoryStyle,
		FileExt:  ".py",
	}

	a := NewAdapter(testLogger(), WithTool("python", tool))
	findings, err := a.Review(context.Background(), pyUnit())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, domain.CategoryToolingError, findings[0].Category)
	require.Contains(t, findings[0].Message, "output pattern")
}

func TestReviewMissingToolYieldsToolingError(t *testing.T) {
	tool := Tool{
		Name:     "ghost",
		Command:  "definitely-not-installed-anywhere",
		Pattern:  regexp.MustCompile(`^(?P<line>\d+) (?P<sev>\w+) (?P<msg>.+)$`),
		Category: domain.CategoryStyle,
		FileExt:  ".py",
	}

	a := NewAdapter(testLogger(), WithTool("python", tool))
	findings, err := a.Review(context.Background(), pyUnit())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, domain.CategoryToolingError, findings[0].Category)
	require.Contains(t, findings[0].Message, "not found in PATH")
}

func TestReviewTimeoutYieldsToolingError(t *testing.T) {
	tool := Tool{
		Name:     "slowtool",
		Command:  fakeTool(t, "sleep 5\n"),
		Pattern:  regexp.MustCompile(`^(?P<line>\d+) (?P<sev>\w+) (?P<msg>.+)$`),
		Category: domain.CategoryStyle,
		FileExt:  ".py",
	}

	a := NewAdapter(testLogger(), WithTool("python", tool), WithTimeout(100*time.Millisecond))
	findings, err := a.Review(context.Background(), pyUnit())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, domain.CategoryToolingError, findings[0].Category)
	require.Contains(t, findings[0].Message, "timed out")
}

func TestReviewNoToolForLanguage(t *testing.T) {
	a := NewAdapter(testLogger())
	unit := domain.NewReviewUnit("x.rb", "ruby", []byte("puts 'hi'\n"))
	findings, err := a.Review(context.Background(), unit)
	require.NoError(t, err)
	require.Empty(t, findings)
}

func TestReviewNonZeroExitStillParsed(t *testing.T) {
	// Linters exit non-zero when they find issues; output must still parse.
	tool := Tool{
		Name:     "angrytool",
		Command:  fakeTool(t, `printf 'f.py:1:0: warning: something\n'; exit 4`),
		Pattern:  regexp.MustCompile(`^.*?:(?P<line>\d+):\d+:\s*(?P<sev>\w+):\s*(?P<msg>.+)$`),
		Category: domain.CategoryStyle,
		FileExt:  ".py",
	}

	a := NewAdapter(testLogger(), WithTool("python", tool))
	findings, err := a.Review(context.Background(), pyUnit())
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, domain.SeverityWarning, findings[0].Severity)
}

func TestReviewClampsOutOfRangeLines(t *testing.T) {
	tool := Tool{
		Name:     "wildtool",
		Command:  fakeTool(t, `printf 'f.py:999:0: error: beyond the end\n'`),
		Pattern:  regexp.MustCompile(`^.*?:(?P<line>\d+):\d+:\s*(?P<sev>\w+):\s*(?P<msg>.+)$`),
		Category: domain.CategoryStyle,
		FileExt:  ".py",
	}

	a := NewAdapter(testLogger(), WithTool("python", tool))
	unit := pyUnit() // 3 lines
	findings, err := a.Review(context.Background(), unit)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, unit.LineCount(), findings[0].LineStart)
}

func TestReviewCancellation(t *testing.T) {
	tool := Tool{
		Name:     "slowtool",
		Command:  fakeTool(t, "sleep 5\n"),
		Pattern:  regexp.MustCompile(`^(?P<line>\d+) (?P<sev>\w+) (?P<msg>.+)$`),
		Category: domain.CategoryStyle,
		FileExt:  ".py",
	}

	a := NewAdapter(testLogger(), WithTool("python", tool))
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err := a.Review(ctx, pyUnit())
	require.ErrorIs(t, err, context.Canceled)
}
