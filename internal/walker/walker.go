// Package walker discovers reviewable source files under a root path.
package walker

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/critique-dev/critique/internal/domain"
)

// Options configures a Walker.
type Options struct {
	// Languages restricts discovery to the given language tags. Empty
	// means all supported languages.
	Languages []string
	// ExcludePatterns are regex patterns matched against slash-separated
	// relative paths; matching files are skipped.
	ExcludePatterns []string
	// DetectFromContent enables the keyword heuristic for files whose
	// extension is not recognized.
	DetectFromContent bool
}

// Walker produces ReviewUnits in lexicographic path order. The sequence is
// restartable: each call to Walk re-enumerates the tree.
type Walker struct {
	root      string
	languages map[string]bool
	exclude   []*regexp.Regexp
	detect    bool
	log       *zap.SugaredLogger
}

// New validates the root path and options and returns a Walker.
// A missing root or unknown language tag is a ConfigError.
func New(root string, opts Options, log *zap.SugaredLogger) (*Walker, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &domain.ConfigError{Field: "root", Reason: err.Error()}
	}
	if !info.IsDir() {
		return nil, &domain.ConfigError{Field: "root", Reason: root + " is not a directory"}
	}

	languages := make(map[string]bool, len(opts.Languages))
	for _, lang := range opts.Languages {
		if !IsSupportedLanguage(lang) {
			return nil, &domain.ConfigError{Field: "language", Reason: "unsupported language " + lang}
		}
		languages[lang] = true
	}

	exclude := make([]*regexp.Regexp, 0, len(opts.ExcludePatterns))
	for _, p := range opts.ExcludePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, &domain.ConfigError{Field: "exclude-pattern", Reason: err.Error()}
		}
		exclude = append(exclude, re)
	}

	return &Walker{
		root:      root,
		languages: languages,
		exclude:   exclude,
		detect:    opts.DetectFromContent,
		log:       log,
	}, nil
}

// Walk enumerates reviewable files under the root in lexicographic order and
// calls fn for each ReviewUnit. Unreadable paths are logged and skipped; only
// fn errors and context cancellation abort the walk.
func (w *Walker) Walk(ctx context.Context, fn func(domain.ReviewUnit) error) error {
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			w.log.Warnw("skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if isHiddenDir(d.Name()) && path != w.root {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if w.excluded(rel) {
			return nil
		}

		unit, ok := w.load(path, rel)
		if !ok {
			return nil
		}
		return fn(unit)
	})
}

// Collect runs Walk and returns all units as a slice.
func (w *Walker) Collect(ctx context.Context) ([]domain.ReviewUnit, error) {
	var units []domain.ReviewUnit
	err := w.Walk(ctx, func(u domain.ReviewUnit) error {
		units = append(units, u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	// WalkDir visits entries in lexical order per directory, which already
	// yields a deterministic order; the explicit sort pins the contract.
	sort.Slice(units, func(i, j int) bool { return units[i].Path < units[j].Path })
	return units, nil
}

// load reads a file and builds a ReviewUnit, returning ok=false when the
// file is unreadable, excluded by language, or unidentifiable.
func (w *Walker) load(path, rel string) (domain.ReviewUnit, bool) {
	lang := DetectLanguage(rel)

	var content []byte
	if lang == "" && w.detect {
		data, err := os.ReadFile(path)
		if err != nil {
			w.log.Warnw("skipping unreadable file", "path", rel, "error", err)
			return domain.ReviewUnit{}, false
		}
		content = data
		lang = DetectLanguageFromContent(string(data))
	}
	if lang == "" {
		return domain.ReviewUnit{}, false
	}
	if len(w.languages) > 0 && !w.languages[lang] {
		return domain.ReviewUnit{}, false
	}

	if content == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			w.log.Warnw("skipping unreadable file", "path", rel, "error", err)
			return domain.ReviewUnit{}, false
		}
		content = data
	}

	return domain.NewReviewUnit(rel, lang, content), true
}

// excluded reports whether any exclude pattern matches the relative path.
func (w *Walker) excluded(rel string) bool {
	for _, re := range w.exclude {
		if re.MatchString(rel) {
			return true
		}
	}
	return false
}

// isHiddenDir reports whether a directory name should be pruned from the
// walk (dotdirs, vendored trees, dependency caches).
func isHiddenDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	switch name {
	case "node_modules", "vendor", "__pycache__", "venv", "target":
		return true
	}
	return false
}
