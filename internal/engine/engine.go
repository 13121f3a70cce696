// Package engine orchestrates the review pipeline: it walks the source
// tree, fans units out to the analyzers across a bounded worker pool and
// assembles the merged report.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/critique-dev/critique/internal/domain"
	"github.com/critique-dev/critique/internal/merge"
	"github.com/critique-dev/critique/internal/walker"
)

// Analyzer produces findings for one unit. Implementations must degrade
// internal failures to synthetic findings; the only error they may return
// is context cancellation.
type Analyzer interface {
	Name() string
	Review(ctx context.Context, unit domain.ReviewUnit) ([]domain.Finding, error)
}

// Assessor is implemented by analyzers that record a prose assessment per
// unit alongside their findings.
type Assessor interface {
	Assessment(path string) (string, bool)
}

// Config holds the engine settings.
type Config struct {
	// Workers bounds concurrent unit reviews. Zero or less means 4.
	Workers int
	// Meta seeds the report metadata. RunID and Timestamp are filled in
	// at run time when empty.
	Meta domain.RunMeta
}

// Engine runs the review pipeline.
type Engine struct {
	walker    *walker.Walker
	analyzers []Analyzer
	config    Config
	log       *zap.SugaredLogger
	progress  func(done, total int)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithProgress installs a callback invoked after each unit completes.
func WithProgress(fn func(done, total int)) EngineOption {
	return func(e *Engine) { e.progress = fn }
}

// New builds an Engine. Analyzer order matters: findings are merged in
// registration order, so register the static adapter before the AI one
// for a stable dedup representative.
func New(w *walker.Walker, analyzers []Analyzer, config Config, log *zap.SugaredLogger, opts ...EngineOption) *Engine {
	if config.Workers <= 0 {
		config.Workers = 4
	}
	e := &Engine{
		walker:    w,
		analyzers: analyzers,
		config:    config,
		log:       log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run walks the tree and reviews every unit. Cancellation stops new
// dispatch and lets in-flight reviews finish or time out; a unit's result
// is only committed once all its analyzers have completed, so a report is
// never built from half-reviewed units.
func (e *Engine) Run(ctx context.Context) (*domain.ReviewReport, error) {
	units, err := e.walker.Collect(ctx)
	if err != nil {
		return nil, err
	}
	e.log.Infow("starting review", "units", len(units), "workers", e.config.Workers)

	var (
		mu    sync.Mutex
		slots = make(map[string]domain.UnitResult, len(units))
		done  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.Workers)

	for _, unit := range units {
		if gctx.Err() != nil {
			break
		}
		unit := unit
		g.Go(func() error {
			result, err := e.reviewUnit(gctx, unit)
			if err != nil {
				return err
			}
			mu.Lock()
			slots[unit.Path] = result
			done++
			n := done
			mu.Unlock()
			if e.progress != nil {
				e.progress(n, len(units))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	results := make([]domain.UnitResult, 0, len(slots))
	for _, unit := range units {
		if res, ok := slots[unit.Path]; ok {
			results = append(results, res)
		}
	}

	report := merge.Report(e.meta(), results)
	e.log.Infow("review complete",
		"units", len(report.Results),
		"errors", report.Summary.Error,
		"warnings", report.Summary.Warning,
		"info", report.Summary.Info)
	return &report, nil
}

// reviewUnit runs every analyzer for one unit concurrently and merges
// their findings. Findings are assembled in analyzer registration order
// regardless of completion order.
func (e *Engine) reviewUnit(ctx context.Context, unit domain.ReviewUnit) (domain.UnitResult, error) {
	type slot struct {
		findings []domain.Finding
		err      error
	}
	slots := make([]slot, len(e.analyzers))

	var wg sync.WaitGroup
	for i, a := range e.analyzers {
		wg.Add(1)
		go func(i int, a Analyzer) {
			defer wg.Done()
			findings, err := a.Review(ctx, unit)
			slots[i] = slot{findings: findings, err: err}
		}(i, a)
	}
	wg.Wait()

	var all []domain.Finding
	for _, s := range slots {
		if s.err != nil {
			return domain.UnitResult{}, s.err
		}
		all = append(all, s.findings...)
	}

	merged := merge.Findings(all)
	result := domain.UnitResult{
		Unit:     unit,
		Findings: merged,
		Metrics:  Metrics(unit, merged),
	}
	for _, a := range e.analyzers {
		if assessor, ok := a.(Assessor); ok {
			if text, found := assessor.Assessment(unit.Path); found {
				result.Assessment = text
				break
			}
		}
	}
	return result, nil
}

func (e *Engine) meta() domain.RunMeta {
	meta := e.config.Meta
	if meta.RunID == "" {
		meta.RunID = uuid.New().String()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now().UTC()
	}
	if meta.Analyzers == nil {
		meta.Analyzers = make(map[string]string, len(e.analyzers))
	}
	for _, a := range e.analyzers {
		if _, ok := meta.Analyzers[a.Name()]; !ok {
			meta.Analyzers[a.Name()] = "enabled"
		}
	}
	return meta
}
