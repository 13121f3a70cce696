package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ReviewUnit is one reviewable source file. Units are immutable after
// creation by the walker.
type ReviewUnit struct {
	// Path is relative to the review root, slash-separated.
	Path string
	// Language is the detected language tag (e.g. "python", "go").
	Language string
	// Hash is the hex SHA-256 of the file content, used for caching.
	Hash string
	// Lines holds the file content split on newlines, without terminators.
	Lines []string
}

// NewReviewUnit builds a unit from raw file content.
func NewReviewUnit(path, language string, content []byte) ReviewUnit {
	sum := sha256.Sum256(content)
	text := strings.TrimSuffix(string(content), "\n")
	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
	}
	return ReviewUnit{
		Path:     path,
		Language: language,
		Hash:     hex.EncodeToString(sum[:]),
		Lines:    lines,
	}
}

// LineCount returns the number of content lines in the unit.
func (u ReviewUnit) LineCount() int {
	return len(u.Lines)
}

// Content reconstructs the unit content as a single string.
func (u ReviewUnit) Content() string {
	return strings.Join(u.Lines, "\n")
}
