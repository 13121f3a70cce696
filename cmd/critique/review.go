package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/critique-dev/critique/internal/ai"
	"github.com/critique-dev/critique/internal/config"
	"github.com/critique-dev/critique/internal/domain"
	"github.com/critique-dev/critique/internal/engine"
	"github.com/critique-dev/critique/internal/logging"
	"github.com/critique-dev/critique/internal/report"
	"github.com/critique-dev/critique/internal/static"
	"github.com/critique-dev/critique/internal/terminal"
	"github.com/critique-dev/critique/internal/walker"
)

const cacheTTL = 24 * time.Hour

func runReview(cmd *cobra.Command, args []string) error {
	// Disable colors if stdout is not a TTY
	if !terminal.IsStdoutTTY() {
		terminal.DisableColors()
	}

	ui := terminal.NewLogger()

	log, err := logging.New(debug, verbose)
	if err != nil {
		ui.Logf(terminal.StyleError, "Failed to set up logging: %v", err)
		return exitCode(domain.ExitError)
	}
	defer func() { _ = log.Sync() }()

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	var interrupted atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr)
		ui.Log("Interrupted, shutting down...", terminal.StyleWarning)
		interrupted.Store(true)
		cancel()
	}()

	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	// Load config file unless suppressed
	cfg := &config.Config{}
	if !noConfig {
		result, err := config.LoadFromDirWithWarnings(root)
		if err != nil {
			ui.Logf(terminal.StyleError, "%v", err)
			return exitCode(domain.ExitError)
		}
		cfg = result.Config
		for _, warning := range result.Warnings {
			ui.Log(warning, terminal.StyleWarning)
		}
	}

	flagState := config.FlagState{
		WorkersSet:     cmd.Flags().Changed("workers"),
		RPMSet:         cmd.Flags().Changed("rpm"),
		MaxAttemptsSet: cmd.Flags().Changed("max-attempts"),
		ModelSet:       cmd.Flags().Changed("model"),
		ToolTimeoutSet: cmd.Flags().Changed("tool-timeout"),
		FormatSet:      cmd.Flags().Changed("format"),
		LanguagesSet:   cmd.Flags().Changed("lang"),
		CacheSet:       cmd.Flags().Changed("no-cache"),
	}
	flagValues := config.ResolvedConfig{
		Workers:     workers,
		RPM:         rpm,
		MaxAttempts: maxAttempts,
		Model:       model,
		ToolTimeout: toolTimeout,
		Format:      format,
		Languages:   languages,
		Cache:       !noCache,
	}
	resolved := config.Resolve(cfg, config.LoadEnvState(), flagState, flagValues)

	// Fail on an unknown format before any review work happens.
	if _, err := report.GetWriter(resolved.Format); err != nil {
		ui.Logf(terminal.StyleError, "%v", err)
		return exitCode(domain.ExitError)
	}

	patterns := config.MergePatterns(cfg, excludePatterns)

	w, err := walker.New(root, walker.Options{
		Languages:         resolved.Languages,
		ExcludePatterns:   patterns,
		DetectFromContent: true,
	}, log)
	if err != nil {
		ui.Logf(terminal.StyleError, "%v", err)
		return exitCode(domain.ExitError)
	}

	var analyzers []engine.Analyzer
	analyzerMeta := make(map[string]string)

	if !noStatic {
		sa := static.NewAdapter(log, static.WithTimeout(resolved.ToolTimeout))
		analyzers = append(analyzers, sa)
		analyzerMeta["static"] = describeTools(sa.Tools())
	}

	if !noAI {
		client, err := ai.NewClient(resolved.Model)
		if err != nil {
			ui.Logf(terminal.StyleWarning, "AI reviewer disabled: %v", err)
		} else {
			opts := []ai.AdapterOption{
				ai.WithLimiter(ai.NewLimiter(resolved.RPM, time.Minute)),
				ai.WithRetryer(ai.NewRetryer(resolved.MaxAttempts, time.Second)),
			}
			cache, err := ai.NewCache(resolved.Cache, "", cacheTTL)
			if err != nil {
				ui.Logf(terminal.StyleWarning, "Response cache disabled: %v", err)
			} else {
				opts = append(opts, ai.WithCache(cache))
			}
			analyzers = append(analyzers, ai.NewAdapter(client, log, opts...))
			analyzerMeta["ai"] = resolved.Model
		}
	}

	if len(analyzers) == 0 {
		ui.Log("Nothing to do: all reviewers are disabled", terminal.StyleError)
		return exitCode(domain.ExitError)
	}

	ui.Logf(terminal.StyleInfo, "Starting review %s(%d workers, format=%s)%s",
		terminal.Color(terminal.Dim), resolved.Workers, resolved.Format, terminal.Color(terminal.Reset))

	// The spinner starts on the first progress callback, once the unit
	// total is known.
	spinCtx, spinCancel := context.WithCancel(context.Background())
	defer spinCancel()
	var (
		spinOnce sync.Once
		spin     *terminal.Spinner
		spinDone chan struct{}
	)
	progress := func(done, total int) {
		spinOnce.Do(func() {
			spin = terminal.NewSpinner(total)
			spinDone = make(chan struct{})
			go func() {
				spin.Run(spinCtx)
				close(spinDone)
			}()
		})
		spin.Completed().Store(int32(done))
	}

	eng := engine.New(w, analyzers, engine.Config{
		Workers: resolved.Workers,
		Meta: domain.RunMeta{
			Tool:      "critique",
			Version:   buildVersionString(),
			Analyzers: analyzerMeta,
		},
	}, log, engine.WithProgress(progress))

	start := time.Now()
	rep, runErr := eng.Run(ctx)

	spinCancel()
	if spinDone != nil {
		<-spinDone
	}

	if runErr != nil {
		if interrupted.Load() || errors.Is(runErr, context.Canceled) {
			return exitCode(domain.ExitInterrupted)
		}
		ui.Logf(terminal.StyleError, "Review failed: %v", runErr)
		return exitCode(domain.ExitError)
	}

	if err := report.WriteReport(rep, resolved.Format, outPath); err != nil {
		ui.Logf(terminal.StyleError, "Failed to write report: %v", err)
		return exitCode(domain.ExitError)
	}

	ui.Logf(terminal.StyleSuccess, "Reviewed %d files in %s %s(%d findings)%s",
		len(rep.Results), terminal.FormatDuration(time.Since(start)),
		terminal.Color(terminal.Dim), rep.Summary.Total(), terminal.Color(terminal.Reset))

	// A completed run exits 0 regardless of what it found; --exit-code
	// opts in to a findings-aware status for scripting.
	if findingsExit && rep.HasFindings() {
		return exitCode(domain.ExitFindings)
	}
	return nil
}

// describeTools renders a static tool table as "lang:tool" pairs in a
// stable order.
func describeTools(tools map[string]string) string {
	if len(tools) == 0 {
		return "enabled"
	}
	langs := make([]string, 0, len(tools))
	for lang := range tools {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	parts := make([]string, 0, len(langs))
	for _, lang := range langs {
		parts = append(parts, lang+":"+tools[lang])
	}
	return strings.Join(parts, ",")
}
