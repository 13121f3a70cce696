package walker

import (
	"path/filepath"
	"sort"
	"strings"
)

// languageForExt maps file extensions to canonical language tags.
var languageForExt = map[string]string{
	".py":    "python",
	".java":  "java",
	".cpp":   "cpp",
	".cc":    "cpp",
	".cxx":   "cpp",
	".c":     "c",
	".h":     "c",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".go":    "go",
	".rb":    "ruby",
	".rs":    "rust",
	".php":   "php",
	".swift": "swift",
	".kt":    "kotlin",
}

// SupportedLanguages returns the sorted set of language tags the walker
// recognizes.
func SupportedLanguages() []string {
	seen := make(map[string]bool)
	var out []string
	for _, lang := range languageForExt {
		if !seen[lang] {
			seen[lang] = true
			out = append(out, lang)
		}
	}
	sort.Strings(out)
	return out
}

// IsSupportedLanguage reports whether lang is a recognized language tag.
func IsSupportedLanguage(lang string) bool {
	for _, l := range languageForExt {
		if l == lang {
			return true
		}
	}
	return false
}

// DetectLanguage returns the language tag for a path, or "" if the
// extension is not recognized.
func DetectLanguage(path string) string {
	return languageForExt[strings.ToLower(filepath.Ext(path))]
}

// DetectLanguageFromContent applies a keyword heuristic for files whose
// extension is unknown. Returns "" when nothing matches.
func DetectLanguageFromContent(content string) string {
	switch {
	case strings.Contains(content, "def ") && strings.Contains(content, ":"),
		strings.Contains(content, "import ") && strings.Contains(content, "print("):
		return "python"
	case strings.Contains(content, "public class "),
		strings.Contains(content, "System.out.println"):
		return "java"
	case strings.Contains(content, "#include") &&
		(strings.Contains(content, "int main") || strings.Contains(content, "cout")):
		return "cpp"
	case strings.Contains(content, "func ") && strings.Contains(content, "package "):
		return "go"
	case strings.Contains(content, "console.log"),
		strings.Contains(content, "function "):
		return "javascript"
	}
	return ""
}
