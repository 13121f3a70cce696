// Package integration provides end-to-end tests for the critique binary
// using mock static analyzer CLIs.
//
// These tests exercise the full binary (build → exec → assert output and
// exit code) with mock tool scripts on PATH instead of real analyzers, so
// they are fast and deterministic. The AI reviewer is disabled throughout;
// its behavior is covered by the package tests against an httptest server.
package integration

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// testEnv holds paths and state for integration test execution.
type testEnv struct {
	critiqueBin string // Path to built critique binary
	mockDir     string // Directory containing mock tool scripts
	treeDir     string // Temporary source tree under review
	origPath    string // Original PATH to restore
}

// setupTestEnv builds the critique binary and creates a temporary source tree.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	rootDir := findRepoRoot(t)
	critiqueBin := filepath.Join(t.TempDir(), "critique")
	build := exec.Command("go", "build", "-o", critiqueBin, "./cmd/critique")
	build.Dir = rootDir
	if out, err := build.CombinedOutput(); err != nil {
		t.Fatalf("failed to build critique: %v\n%s", err, out)
	}

	mockDir := filepath.Join(t.TempDir(), "mocks")
	if err := os.MkdirAll(mockDir, 0755); err != nil {
		t.Fatal(err)
	}

	return &testEnv{
		critiqueBin: critiqueBin,
		mockDir:     mockDir,
		treeDir:     t.TempDir(),
		origPath:    os.Getenv("PATH"),
	}
}

// writeFile adds a source file to the tree under review.
func (e *testEnv) writeFile(t *testing.T, name, content string) {
	t.Helper()
	path := filepath.Join(e.treeDir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

// mockTool installs an executable script under the given command name.
func (e *testEnv) mockTool(t *testing.T, name, script string) {
	t.Helper()
	path := filepath.Join(e.mockDir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatal(err)
	}
}

// withMockTools prepends the mock directory to PATH so mock CLIs are found
// first. When bare is true, PATH is the mock directory alone, which makes
// every tool not installed there unresolvable.
func (e *testEnv) withMockTools(bare bool) []string {
	newPath := e.mockDir + ":" + e.origPath
	if bare {
		newPath = e.mockDir
	}
	env := os.Environ()
	for i, v := range env {
		if strings.HasPrefix(v, "PATH=") {
			env[i] = "PATH=" + newPath
			return env
		}
	}
	return append(env, "PATH="+newPath)
}

// run executes critique with the given args and returns stdout, stderr,
// and exit code.
func (e *testEnv) run(env []string, args ...string) (stdout, stderr string, exitCode int) {
	cmd := exec.Command(e.critiqueBin, args...)
	cmd.Dir = e.treeDir
	cmd.Env = env

	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	exitCode = 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			exitCode = -1
		}
	}

	return outBuf.String(), errBuf.String(), exitCode
}

// findRepoRoot walks up to find the go.mod file.
func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find repo root (no go.mod)")
		}
		dir = parent
	}
}

// --- Mock tool scripts ---

// pylintTwoFindings reports a warning and an error against the file it is
// given (the last argument). The line shape matches pylint's text output.
const pylintTwoFindings = `for a; do f=$a; done
echo "$f:2:0: warning: Unused variable x"
echo "$f:4:0: error: Undefined name y"
exit 1
`

// pylintClean reports nothing.
const pylintClean = `exit 0
`

const pythonSample = `import os

x = 1

print(y)
`

// jsonReport mirrors the renderer's top-level JSON shape.
type jsonReport struct {
	Meta struct {
		Tool string `json:"tool"`
	} `json:"meta"`
	Units []struct {
		Path     string `json:"path"`
		Language string `json:"language"`
		Findings []struct {
			LineStart int    `json:"line_start"`
			Severity  string `json:"severity"`
			Category  string `json:"category"`
			Source    string `json:"source"`
			Message   string `json:"message"`
		} `json:"findings"`
		Degraded bool `json:"degraded,omitempty"`
	} `json:"units"`
	Summary struct {
		Info    int `json:"info"`
		Warning int `json:"warning"`
		Error   int `json:"error"`
	} `json:"summary"`
}

func decodeReport(t *testing.T, stdout string) jsonReport {
	t.Helper()
	var rep jsonReport
	if err := json.Unmarshal([]byte(stdout), &rep); err != nil {
		t.Fatalf("invalid report JSON: %v\n%s", err, stdout)
	}
	return rep
}

// --- Tests ---

func TestReviewWithFindings_JSONOutput(t *testing.T) {
	env := setupTestEnv(t)
	env.writeFile(t, "main.py", pythonSample)
	env.mockTool(t, "pylint", pylintTwoFindings)

	stdout, stderr, code := env.run(env.withMockTools(false),
		"--no-ai", "--format", "json", ".")

	if code != 0 {
		t.Fatalf("expected exit 0 for a completed review, got %d\nstderr: %s", code, stderr)
	}

	rep := decodeReport(t, stdout)
	if rep.Meta.Tool != "critique" {
		t.Errorf("expected tool critique, got %q", rep.Meta.Tool)
	}
	if len(rep.Units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(rep.Units))
	}
	unit := rep.Units[0]
	if unit.Language != "python" {
		t.Errorf("expected language python, got %q", unit.Language)
	}
	if len(unit.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %d\n%s", len(unit.Findings), stdout)
	}
	if unit.Findings[0].LineStart != 2 || unit.Findings[0].Severity != "warning" {
		t.Errorf("unexpected first finding: %+v", unit.Findings[0])
	}
	if unit.Findings[1].LineStart != 4 || unit.Findings[1].Severity != "error" {
		t.Errorf("unexpected second finding: %+v", unit.Findings[1])
	}
	if rep.Summary.Warning != 1 || rep.Summary.Error != 1 {
		t.Errorf("unexpected summary: %+v", rep.Summary)
	}
}

func TestExitCodeFlag_FindingsExitOne(t *testing.T) {
	env := setupTestEnv(t)
	env.writeFile(t, "main.py", pythonSample)
	env.mockTool(t, "pylint", pylintTwoFindings)

	_, stderr, code := env.run(env.withMockTools(false),
		"--no-ai", "--exit-code", "--format", "json", ".")

	if code != 1 {
		t.Fatalf("expected exit 1 with --exit-code and findings, got %d\nstderr: %s", code, stderr)
	}
}

func TestExitCodeFlag_CleanExitZero(t *testing.T) {
	env := setupTestEnv(t)
	env.writeFile(t, "main.py", pythonSample)
	env.mockTool(t, "pylint", pylintClean)

	_, stderr, code := env.run(env.withMockTools(false),
		"--no-ai", "--exit-code", "--format", "json", ".")

	if code != 0 {
		t.Fatalf("expected exit 0 with --exit-code and no findings, got %d\nstderr: %s", code, stderr)
	}
}

func TestCleanReview_ExitZero(t *testing.T) {
	env := setupTestEnv(t)
	env.writeFile(t, "main.py", pythonSample)
	env.mockTool(t, "pylint", pylintClean)

	stdout, stderr, code := env.run(env.withMockTools(false),
		"--no-ai", "--format", "json", ".")

	if code != 0 {
		t.Fatalf("expected exit 0 for clean review, got %d\nstderr: %s", code, stderr)
	}

	rep := decodeReport(t, stdout)
	if len(rep.Units) != 1 || len(rep.Units[0].Findings) != 0 {
		t.Errorf("expected one clean unit, got %s", stdout)
	}
	// The findings array must render as [], not null.
	if !strings.Contains(stdout, `"findings": []`) {
		t.Errorf("expected empty findings array in output:\n%s", stdout)
	}
}

func TestMissingTool_DegradesWithoutFailing(t *testing.T) {
	env := setupTestEnv(t)
	env.writeFile(t, "main.py", pythonSample)
	// Bare PATH: pylint is not resolvable.

	stdout, stderr, code := env.run(env.withMockTools(true),
		"--no-ai", "--format", "json", ".")

	if code != 0 {
		t.Fatalf("expected exit 0 when only degradations exist, got %d\nstderr: %s", code, stderr)
	}

	rep := decodeReport(t, stdout)
	if len(rep.Units) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(rep.Units))
	}
	unit := rep.Units[0]
	if !unit.Degraded {
		t.Errorf("expected unit flagged degraded:\n%s", stdout)
	}
	if len(unit.Findings) != 1 || unit.Findings[0].Category != "tooling-error" {
		t.Errorf("expected a single tooling-error finding, got %s", stdout)
	}
}

func TestMarkdownDefaultFormat(t *testing.T) {
	env := setupTestEnv(t)
	env.writeFile(t, "main.py", pythonSample)
	env.mockTool(t, "pylint", pylintTwoFindings)

	stdout, stderr, code := env.run(env.withMockTools(false), "--no-ai", ".")

	if code != 0 {
		t.Fatalf("expected exit 0, got %d\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "# Code Review Report") {
		t.Errorf("expected markdown header, got:\n%s", stdout)
	}
	if !strings.Contains(stdout, "main.py") {
		t.Errorf("expected unit section, got:\n%s", stdout)
	}
}

func TestOutFlag_WritesFile(t *testing.T) {
	env := setupTestEnv(t)
	env.writeFile(t, "main.py", pythonSample)
	env.mockTool(t, "pylint", pylintClean)

	outPath := filepath.Join(t.TempDir(), "report.json")
	stdout, stderr, code := env.run(env.withMockTools(false),
		"--no-ai", "--format", "json", "--out", outPath, ".")

	if code != 0 {
		t.Fatalf("expected exit 0, got %d\nstderr: %s", code, stderr)
	}
	if strings.Contains(stdout, `"units"`) {
		t.Errorf("report should go to the file, not stdout:\n%s", stdout)
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("report file not written: %v", err)
	}
	decodeReport(t, string(data))
}

func TestUnknownFormat_ExitTwo(t *testing.T) {
	env := setupTestEnv(t)
	env.writeFile(t, "main.py", pythonSample)

	_, stderr, code := env.run(env.withMockTools(false),
		"--no-ai", "--format", "xml", ".")

	if code != 2 {
		t.Fatalf("expected exit 2 for unknown format, got %d", code)
	}
	if !strings.Contains(stderr, "format") {
		t.Errorf("expected format error on stderr, got:\n%s", stderr)
	}
}

func TestMissingRoot_ExitTwo(t *testing.T) {
	env := setupTestEnv(t)

	_, stderr, code := env.run(env.withMockTools(false),
		"--no-ai", filepath.Join(env.treeDir, "does-not-exist"))

	if code != 2 {
		t.Fatalf("expected exit 2 for missing root, got %d\nstderr: %s", code, stderr)
	}
}

func TestAllReviewersDisabled_ExitTwo(t *testing.T) {
	env := setupTestEnv(t)
	env.writeFile(t, "main.py", pythonSample)

	_, stderr, code := env.run(env.withMockTools(false),
		"--no-ai", "--no-static", ".")

	if code != 2 {
		t.Fatalf("expected exit 2 when all reviewers are disabled, got %d", code)
	}
	if !strings.Contains(stderr, "disabled") {
		t.Errorf("expected explanation on stderr, got:\n%s", stderr)
	}
}

func TestConfigUnknownKey_Warns(t *testing.T) {
	env := setupTestEnv(t)
	env.writeFile(t, "main.py", pythonSample)
	env.writeFile(t, ".critique.yaml", "workres: 2\n")
	env.mockTool(t, "pylint", pylintClean)

	_, stderr, code := env.run(env.withMockTools(false),
		"--no-ai", "--format", "json", ".")

	if code != 0 {
		t.Fatalf("expected exit 0, got %d\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stderr, "workres") || !strings.Contains(stderr, "workers") {
		t.Errorf("expected did-you-mean warning on stderr, got:\n%s", stderr)
	}
}

func TestExcludePattern_SkipsFile(t *testing.T) {
	env := setupTestEnv(t)
	env.writeFile(t, "main.py", pythonSample)
	env.writeFile(t, "vendor/dep.py", pythonSample)
	env.mockTool(t, "pylint", pylintClean)

	stdout, stderr, code := env.run(env.withMockTools(false),
		"--no-ai", "--format", "json", "--exclude-pattern", "^vendor/", ".")

	if code != 0 {
		t.Fatalf("expected exit 0, got %d\nstderr: %s", code, stderr)
	}
	rep := decodeReport(t, stdout)
	if len(rep.Units) != 1 || rep.Units[0].Path != "main.py" {
		t.Errorf("expected vendor/ excluded, got %s", stdout)
	}
}

func TestLangFilter_RestrictsLanguages(t *testing.T) {
	env := setupTestEnv(t)
	env.writeFile(t, "main.py", pythonSample)
	env.writeFile(t, "app.js", "console.log('hi');\n")
	env.mockTool(t, "pylint", pylintClean)

	stdout, stderr, code := env.run(env.withMockTools(false),
		"--no-ai", "--format", "json", "--lang", "python", ".")

	if code != 0 {
		t.Fatalf("expected exit 0, got %d\nstderr: %s", code, stderr)
	}
	rep := decodeReport(t, stdout)
	if len(rep.Units) != 1 || rep.Units[0].Language != "python" {
		t.Errorf("expected only the python unit, got %s", stdout)
	}
}

func TestVersionFlag(t *testing.T) {
	env := setupTestEnv(t)

	stdout, _, code := env.run(env.withMockTools(false), "--version")

	if code != 0 {
		t.Fatalf("expected exit 0 for --version, got %d", code)
	}
	if strings.TrimSpace(stdout) == "" {
		t.Error("expected version string on stdout")
	}
}

func TestDeterministicOutput(t *testing.T) {
	env := setupTestEnv(t)
	env.writeFile(t, "a.py", pythonSample)
	env.writeFile(t, "b.py", pythonSample)
	env.mockTool(t, "pylint", pylintTwoFindings)

	args := []string{"--no-ai", "--format", "json", "--workers", "4", "."}
	first, _, _ := env.run(env.withMockTools(false), args...)
	second, _, _ := env.run(env.withMockTools(false), args...)

	// Strip run-scoped metadata before comparing.
	scrub := func(s string) string {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		delete(raw, "meta")
		out, _ := json.Marshal(raw)
		return string(out)
	}
	if scrub(first) != scrub(second) {
		t.Errorf("expected identical reports across runs:\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestReportSections_OrderedByPath(t *testing.T) {
	env := setupTestEnv(t)
	env.writeFile(t, "zeta.py", pythonSample)
	env.writeFile(t, "alpha.py", pythonSample)
	env.mockTool(t, "pylint", pylintClean)

	stdout, _, code := env.run(env.withMockTools(false),
		"--no-ai", "--format", "json", ".")

	if code != 0 {
		t.Fatalf("expected exit 0, got %d", code)
	}
	rep := decodeReport(t, stdout)
	if len(rep.Units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(rep.Units))
	}
	if rep.Units[0].Path != "alpha.py" || rep.Units[1].Path != "zeta.py" {
		t.Errorf("expected units in path order, got %s then %s",
			rep.Units[0].Path, rep.Units[1].Path)
	}
}

func TestSlowTool_TimesOutAndDegrades(t *testing.T) {
	env := setupTestEnv(t)
	env.writeFile(t, "main.py", pythonSample)
	env.mockTool(t, "pylint", "sleep 10\n")

	stdout, stderr, code := env.run(env.withMockTools(false),
		"--no-ai", "--format", "json", "--tool-timeout", "500ms", ".")

	if code != 0 {
		t.Fatalf("expected exit 0 for degraded-only review, got %d\nstderr: %s", code, stderr)
	}
	rep := decodeReport(t, stdout)
	if len(rep.Units) != 1 || len(rep.Units[0].Findings) != 1 {
		t.Fatalf("expected one degradation finding, got %s", stdout)
	}
	f := rep.Units[0].Findings[0]
	if f.Category != "tooling-error" || !strings.Contains(f.Message, "timed out") {
		t.Errorf("unexpected degradation finding: %+v", f)
	}
}

func TestEnvVarOverride(t *testing.T) {
	env := setupTestEnv(t)
	env.writeFile(t, "main.py", pythonSample)
	env.mockTool(t, "pylint", pylintClean)

	runEnv := append(env.withMockTools(false), "CRITIQUE_FORMAT=json")
	stdout, stderr, code := env.run(runEnv, "--no-ai", ".")

	if code != 0 {
		t.Fatalf("expected exit 0, got %d\nstderr: %s", code, stderr)
	}
	decodeReport(t, stdout)
	if strings.Contains(stdout, "# Code Review Report") {
		t.Errorf("expected JSON output via CRITIQUE_FORMAT, got markdown:\n%s", stdout)
	}
}
