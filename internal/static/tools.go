package static

import (
	"regexp"

	"github.com/critique-dev/critique/internal/domain"
)

// Tool describes one external static analyzer: how to invoke it and how to
// extract "line, severity token, message" from its output.
type Tool struct {
	// Name is the analyzer's identifier, used in diagnostics and report
	// metadata.
	Name string
	// Command is the executable looked up in PATH.
	Command string
	// Args are passed before the file path.
	Args []string
	// Pattern extracts diagnostics from output lines. It must define the
	// named groups "line", "sev" and "msg"; "endline" is optional.
	Pattern *regexp.Regexp
	// Category is the default category for this tool's findings.
	Category domain.Category
	// FileExt is the temp-file extension the tool expects.
	FileExt string
}

// defaultTools maps language tags to their default analyzer. Overridable
// via configuration.
var defaultTools = map[string]Tool{
	"python": {
		Name:    "pylint",
		Command: "pylint",
		Args:    []string{"--output-format=text", "--score=no", "--msg-template={path}:{line}:{column}: {category}: {msg}"},
		// main.py:3:0: convention: Missing module docstring
		Pattern:  regexp.MustCompile(`^.*?:(?P<line>\d+):\d+:\s*(?P<sev>\w+):\s*(?P<msg>.+)$`),
		Category: domain.CategoryStyle,
		FileExt:  ".py",
	},
	"javascript": {
		Name:    "eslint",
		Command: "eslint",
		Args:    []string{"--format", "unix", "--no-eslintrc"},
		// main.js:4:2: Unexpected console statement. [Warning/no-console]
		Pattern:  regexp.MustCompile(`^.*?:(?P<line>\d+):\d+:\s*(?P<msg>.+?)\s*\[(?P<sev>\w+)/.*\]$`),
		Category: domain.CategoryStyle,
		FileExt:  ".js",
	},
	"typescript": {
		Name:     "eslint",
		Command:  "eslint",
		Args:     []string{"--format", "unix", "--no-eslintrc"},
		Pattern:  regexp.MustCompile(`^.*?:(?P<line>\d+):\d+:\s*(?P<msg>.+?)\s*\[(?P<sev>\w+)/.*\]$`),
		Category: domain.CategoryStyle,
		FileExt:  ".ts",
	},
	"java": {
		Name:    "checkstyle",
		Command: "checkstyle",
		Args:    []string{"-f", "plain"},
		// [WARN] Main.java:7:5: Missing a Javadoc comment. [JavadocMethod]
		Pattern:  regexp.MustCompile(`^\[(?P<sev>\w+)\]\s+.*?:(?P<line>\d+)(?::\d+)?:\s*(?P<msg>.+)$`),
		Category: domain.CategoryStyle,
		FileExt:  ".java",
	},
	"cpp": {
		Name:    "clang-tidy",
		Command: "clang-tidy",
		Args:    []string{"--quiet"},
		// main.cpp:12:3: warning: variable 'x' is uninitialized [...]
		Pattern:  regexp.MustCompile(`^.*?:(?P<line>\d+):\d+:\s*(?P<sev>\w+):\s*(?P<msg>.+)$`),
		Category: domain.CategoryBug,
		FileExt:  ".cpp",
	},
	"c": {
		Name:     "clang-tidy",
		Command:  "clang-tidy",
		Args:     []string{"--quiet"},
		Pattern:  regexp.MustCompile(`^.*?:(?P<line>\d+):\d+:\s*(?P<sev>\w+):\s*(?P<msg>.+)$`),
		Category: domain.CategoryBug,
		FileExt:  ".c",
	},
	"go": {
		Name:    "go vet",
		Command: "go",
		Args:    []string{"vet"},
		// main.go:9:2: unreachable code
		Pattern:  regexp.MustCompile(`^.*?:(?P<line>\d+):\d+:\s*(?P<msg>.+)$`),
		Category: domain.CategoryBug,
		FileExt:  ".go",
	},
}

// DefaultTool returns the default analyzer for a language.
func DefaultTool(language string) (Tool, bool) {
	t, ok := defaultTools[language]
	return t, ok
}

// groupIndex returns the index of a named capture group, or -1.
func groupIndex(re *regexp.Regexp, name string) int {
	for i, n := range re.SubexpNames() {
		if n == name {
			return i
		}
	}
	return -1
}
