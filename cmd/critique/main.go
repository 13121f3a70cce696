// Package main provides the CLI entry point for critique.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/critique-dev/critique/internal/domain"
)

var (
	languages       []string
	format          string
	outPath         string
	workers         int
	toolTimeout     time.Duration
	rpm             int
	maxAttempts     int
	model           string
	noAI            bool
	noStatic        bool
	noCache         bool
	excludePatterns []string
	noConfig        bool
	findingsExit    bool
	debug           bool
	verbose         bool
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := &cobra.Command{
		Use:   "critique [path]",
		Short: "Critique - static and AI code review for a directory tree",
		Long: `Walk a directory tree, review each source file with static tools and an
AI model, merge and deduplicate the findings, and render a report.

Exit codes:
  0 - Review completed (degraded units included)
  1 - Findings found, with --exit-code
  2 - Error
  130 - Interrupted`,
		Args:          cobra.MaximumNArgs(1),
		RunE:          runReview,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       buildVersionString(),
	}

	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Configuration flags (defaults are resolved via config.Resolve with precedence: flag > env > config > default)
	rootCmd.Flags().StringSliceVarP(&languages, "lang", "l", nil,
		"Restrict review to these languages (repeatable, default: all supported)")
	rootCmd.Flags().StringVarP(&format, "format", "f", "",
		"Report format: md or json (default: md, env: CRITIQUE_FORMAT)")
	rootCmd.Flags().StringVarP(&outPath, "out", "o", "",
		"Write report to file instead of stdout")
	rootCmd.Flags().IntVarP(&workers, "workers", "w", 0,
		"Number of files reviewed concurrently (default: 4, env: CRITIQUE_WORKERS)")
	rootCmd.Flags().DurationVarP(&toolTimeout, "tool-timeout", "t", 0,
		"Timeout per static tool invocation (default: 30s, env: CRITIQUE_TOOL_TIMEOUT)")
	rootCmd.Flags().IntVar(&rpm, "rpm", 0,
		"Max AI requests per minute, 0 disables throttling (default: 30, env: CRITIQUE_RPM)")
	rootCmd.Flags().IntVar(&maxAttempts, "max-attempts", 0,
		"Max attempts per AI request (default: 3, env: CRITIQUE_MAX_ATTEMPTS)")
	rootCmd.Flags().StringVarP(&model, "model", "m", "",
		"AI model name (default: gemini-1.5-flash, env: CRITIQUE_MODEL)")
	rootCmd.Flags().BoolVar(&noAI, "no-ai", false,
		"Skip the AI reviewer")
	rootCmd.Flags().BoolVar(&noStatic, "no-static", false,
		"Skip static analysis tools")
	rootCmd.Flags().BoolVar(&noCache, "no-cache", false,
		"Disable the AI response cache")

	// Filtering options
	rootCmd.Flags().StringArrayVar(&excludePatterns, "exclude-pattern", nil,
		"Exclude files matching regex pattern (repeatable)")
	rootCmd.Flags().BoolVar(&noConfig, "no-config", false,
		"Skip loading .critique.yaml config file")

	rootCmd.Flags().BoolVar(&findingsExit, "exit-code", false,
		"Exit 1 when the review reports findings")

	rootCmd.Flags().BoolVar(&debug, "debug", false,
		"Enable debug diagnostics")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Print progress details as the review runs")

	if err := rootCmd.Execute(); err != nil {
		// Check if this is an exit code wrapper (not a real error)
		if exitErr, ok := err.(exitCodeError); ok {
			return exitErr.code.Int()
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return domain.ExitError.Int()
	}

	return 0
}
