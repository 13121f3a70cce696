// Package config provides configuration file support for critique.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/critique-dev/critique/internal/walker"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = ".critique.yaml"

// supportedFormats are the accepted output format names.
var supportedFormats = []string{"md", "markdown", "json"}

// Duration is a custom type that handles YAML duration parsing.
// Supports both Go duration format ("30s", "5m") and numeric seconds.
type Duration time.Duration

// UnmarshalYAML implements the yaml.Unmarshaler interface.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(time.Duration(v) * time.Second)
	case float64:
		*d = Duration(time.Duration(v) * time.Second)
	default:
		return fmt.Errorf("invalid duration type: %T", v)
	}
	return nil
}

// AsDuration returns the underlying time.Duration.
func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}

// Config represents the critique configuration file.
type Config struct {
	Workers     *int         `yaml:"workers"`
	RPM         *int         `yaml:"rpm"`
	MaxAttempts *int         `yaml:"max_attempts"`
	Model       *string      `yaml:"model"`
	ToolTimeout *Duration    `yaml:"tool_timeout"`
	Format      *string      `yaml:"format"`
	Languages   []string     `yaml:"languages"`
	Cache       *bool        `yaml:"cache"`
	Filters     FilterConfig `yaml:"filters"`
}

// FilterConfig holds filter-related configuration.
type FilterConfig struct {
	ExcludePatterns []string `yaml:"exclude_patterns"`
}

// LoadResult contains the loaded config and any warnings encountered.
type LoadResult struct {
	Config   *Config
	Warnings []string
}

// LoadFromDirWithWarnings reads .critique.yaml from the specified directory
// and returns warnings. Returns an empty config (not error) if the file
// doesn't exist.
func LoadFromDirWithWarnings(dir string) (*LoadResult, error) {
	return LoadFromPathWithWarnings(filepath.Join(dir, ConfigFileName))
}

// LoadFromPathWithWarnings reads a config file and returns warnings for
// unknown keys. Returns an empty config (not error) if the file doesn't
// exist. Returns an error if the file exists but is invalid YAML or holds
// invalid values.
func LoadFromPathWithWarnings(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &LoadResult{Config: &Config{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	warnings := checkUnknownKeys(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ConfigFileName, err)
	}

	if err := cfg.validatePatterns(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", ConfigFileName, err)
	}

	return &LoadResult{Config: &cfg, Warnings: warnings}, nil
}

// validatePatterns checks that all exclude patterns are valid regex.
func (c *Config) validatePatterns() error {
	for _, pattern := range c.Filters.ExcludePatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("invalid regex pattern %q in %s: %w", pattern, ConfigFileName, err)
		}
	}
	return nil
}

// knownTopLevelKeys are the valid top-level keys in the config file.
var knownTopLevelKeys = []string{"workers", "rpm", "max_attempts", "model", "tool_timeout", "format", "languages", "cache", "filters"}

// knownFilterKeys are the valid keys under the "filters" section.
var knownFilterKeys = []string{"exclude_patterns"}

// checkUnknownKeys checks for unknown keys in the YAML data and returns warnings.
func checkUnknownKeys(data []byte) []string {
	var warnings []string

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		// If we can't parse, let the main parser handle the error
		return nil
	}

	for key := range raw {
		if !slices.Contains(knownTopLevelKeys, key) {
			warning := fmt.Sprintf("unknown key %q in %s", key, ConfigFileName)
			if suggestion := findSimilar(key, knownTopLevelKeys); suggestion != "" {
				warning += fmt.Sprintf(" (did you mean %q?)", suggestion)
			}
			warnings = append(warnings, warning)
		}
	}

	if filters, ok := raw["filters"].(map[string]any); ok {
		for key := range filters {
			if !slices.Contains(knownFilterKeys, key) {
				warning := fmt.Sprintf("unknown key %q in filters section of %s", key, ConfigFileName)
				if suggestion := findSimilar(key, knownFilterKeys); suggestion != "" {
					warning += fmt.Sprintf(" (did you mean %q?)", suggestion)
				}
				warnings = append(warnings, warning)
			}
		}
	}

	return warnings
}

// findSimilar finds the most similar string from candidates using Levenshtein
// distance. Returns empty string if no candidate is similar enough
// (threshold: 3 edits).
func findSimilar(input string, candidates []string) string {
	const maxDistance = 3
	bestMatch := ""
	bestDistance := maxDistance + 1

	for _, candidate := range candidates {
		dist := levenshtein(input, candidate)
		if dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate
		}
	}

	if bestDistance <= maxDistance {
		return bestMatch
	}
	return ""
}

// levenshtein calculates the Levenshtein distance between two strings.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	matrix := make([][]int, len(ra)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(rb)+1)
		matrix[i][0] = i
	}
	for j := range matrix[0] {
		matrix[0][j] = j
	}

	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,      // deletion
				matrix[i][j-1]+1,      // insertion
				matrix[i-1][j-1]+cost, // substitution
			)
		}
	}

	return matrix[len(ra)][len(rb)]
}

// MergePatterns combines config file patterns with CLI patterns.
// CLI patterns are appended after config patterns (both are applied).
func MergePatterns(cfg *Config, cliPatterns []string) []string {
	if cfg == nil {
		return cliPatterns
	}
	return append(cfg.Filters.ExcludePatterns, cliPatterns...)
}

// Validate checks that all config values are valid.
func (c *Config) Validate() error {
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", *c.Workers)
	}
	if c.RPM != nil && *c.RPM < 0 {
		return fmt.Errorf("rpm must be >= 0, got %d", *c.RPM)
	}
	if c.MaxAttempts != nil && *c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be >= 1, got %d", *c.MaxAttempts)
	}
	if c.ToolTimeout != nil && *c.ToolTimeout <= 0 {
		return fmt.Errorf("tool_timeout must be > 0, got %s", time.Duration(*c.ToolTimeout))
	}
	if c.Format != nil && !slices.Contains(supportedFormats, *c.Format) {
		return fmt.Errorf("format must be one of %v, got %q", supportedFormats, *c.Format)
	}
	for _, lang := range c.Languages {
		if !walker.IsSupportedLanguage(lang) {
			return fmt.Errorf("unsupported language %q (supported: %v)", lang, walker.SupportedLanguages())
		}
	}
	return nil
}

// Defaults holds the built-in default values.
var Defaults = ResolvedConfig{
	Workers:     4,
	RPM:         30,
	MaxAttempts: 3,
	Model:       "gemini-1.5-flash",
	ToolTimeout: 30 * time.Second,
	Format:      "md",
	Cache:       true,
}

// ResolvedConfig holds the final resolved configuration values.
type ResolvedConfig struct {
	Workers     int
	RPM         int
	MaxAttempts int
	Model       string
	ToolTimeout time.Duration
	Format      string
	Languages   []string
	Cache       bool
}

// FlagState tracks whether a flag was explicitly set.
type FlagState struct {
	WorkersSet     bool
	RPMSet         bool
	MaxAttemptsSet bool
	ModelSet       bool
	ToolTimeoutSet bool
	FormatSet      bool
	LanguagesSet   bool
	CacheSet       bool
}

// EnvState captures env var values and whether they were set.
type EnvState struct {
	Workers        int
	WorkersSet     bool
	RPM            int
	RPMSet         bool
	MaxAttempts    int
	MaxAttemptsSet bool
	Model          string
	ModelSet       bool
	ToolTimeout    time.Duration
	ToolTimeoutSet bool
	Format         string
	FormatSet      bool
}

// LoadEnvState reads environment variables and returns their state.
func LoadEnvState() EnvState {
	var state EnvState

	if v := os.Getenv("CRITIQUE_WORKERS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			state.Workers = i
			state.WorkersSet = true
		}
	}
	if v := os.Getenv("CRITIQUE_RPM"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			state.RPM = i
			state.RPMSet = true
		}
	}
	if v := os.Getenv("CRITIQUE_MAX_ATTEMPTS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			state.MaxAttempts = i
			state.MaxAttemptsSet = true
		}
	}
	if v := os.Getenv("CRITIQUE_MODEL"); v != "" {
		state.Model = v
		state.ModelSet = true
	}
	if v := os.Getenv("CRITIQUE_TOOL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			state.ToolTimeout = d
			state.ToolTimeoutSet = true
		} else if secs, err := strconv.Atoi(v); err == nil {
			state.ToolTimeout = time.Duration(secs) * time.Second
			state.ToolTimeoutSet = true
		}
	}
	if v := os.Getenv("CRITIQUE_FORMAT"); v != "" {
		state.Format = v
		state.FormatSet = true
	}

	return state
}

// Resolve merges config file values with env vars and flags.
// Precedence: flags > env vars > config file > defaults
func Resolve(cfg *Config, envState EnvState, flagState FlagState, flagValues ResolvedConfig) ResolvedConfig {
	result := Defaults

	if cfg != nil {
		if cfg.Workers != nil {
			result.Workers = *cfg.Workers
		}
		if cfg.RPM != nil {
			result.RPM = *cfg.RPM
		}
		if cfg.MaxAttempts != nil {
			result.MaxAttempts = *cfg.MaxAttempts
		}
		if cfg.Model != nil {
			result.Model = *cfg.Model
		}
		if cfg.ToolTimeout != nil {
			result.ToolTimeout = cfg.ToolTimeout.AsDuration()
		}
		if cfg.Format != nil {
			result.Format = *cfg.Format
		}
		if len(cfg.Languages) > 0 {
			result.Languages = cfg.Languages
		}
		if cfg.Cache != nil {
			result.Cache = *cfg.Cache
		}
	}

	if envState.WorkersSet {
		result.Workers = envState.Workers
	}
	if envState.RPMSet {
		result.RPM = envState.RPM
	}
	if envState.MaxAttemptsSet {
		result.MaxAttempts = envState.MaxAttempts
	}
	if envState.ModelSet {
		result.Model = envState.Model
	}
	if envState.ToolTimeoutSet {
		result.ToolTimeout = envState.ToolTimeout
	}
	if envState.FormatSet {
		result.Format = envState.Format
	}

	if flagState.WorkersSet {
		result.Workers = flagValues.Workers
	}
	if flagState.RPMSet {
		result.RPM = flagValues.RPM
	}
	if flagState.MaxAttemptsSet {
		result.MaxAttempts = flagValues.MaxAttempts
	}
	if flagState.ModelSet {
		result.Model = flagValues.Model
	}
	if flagState.ToolTimeoutSet {
		result.ToolTimeout = flagValues.ToolTimeout
	}
	if flagState.FormatSet {
		result.Format = flagValues.Format
	}
	if flagState.LanguagesSet {
		result.Languages = flagValues.Languages
	}
	if flagState.CacheSet {
		result.Cache = flagValues.Cache
	}

	return result
}
