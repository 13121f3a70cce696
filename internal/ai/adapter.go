package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/critique-dev/critique/internal/domain"
	"github.com/critique-dev/critique/internal/normalize"
)

// maxRawMessage caps the raw text embedded in an unparsed-ai-response
// finding so one bad response cannot dominate a report.
const maxRawMessage = 2000

// generator abstracts the remote service for tests.
type generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Adapter reviews units through the remote AI service. Service failures
// and unparsable responses degrade to synthetic findings; the only error
// Review returns is context cancellation.
type Adapter struct {
	client  generator
	limiter *Limiter
	retryer *Retryer
	cache   *Cache
	budget  int
	log     *zap.SugaredLogger

	mu          sync.Mutex
	assessments map[string]string
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithLimiter shares a rate limiter across the adapter's calls.
func WithLimiter(l *Limiter) AdapterOption {
	return func(a *Adapter) { a.limiter = l }
}

// WithRetryer overrides the retry policy.
func WithRetryer(r *Retryer) AdapterOption {
	return func(a *Adapter) { a.retryer = r }
}

// WithCache enables the response cache.
func WithCache(c *Cache) AdapterOption {
	return func(a *Adapter) { a.cache = c }
}

// WithChunkBudget overrides the per-chunk character budget.
func WithChunkBudget(n int) AdapterOption {
	return func(a *Adapter) { a.budget = n }
}

// NewAdapter builds an Adapter around a client.
func NewAdapter(client generator, log *zap.SugaredLogger, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		client:      client,
		limiter:     NewLimiter(0, 0),
		retryer:     NewRetryer(3, 0),
		budget:      defaultChunkBudget,
		log:         log,
		assessments: make(map[string]string),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.cache == nil {
		a.cache, _ = NewCache(false, "", 0)
	}
	return a
}

// Name identifies the adapter in report metadata.
func (a *Adapter) Name() string { return "ai" }

// Assessment returns the overall assessment recorded for a unit path.
func (a *Adapter) Assessment(path string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.assessments[path]
	return s, ok
}

// Review sends the unit (chunked when above the character budget) to the
// service and parses the responses into findings. Retry exhaustion yields
// a single ai-unavailable finding for the whole unit; an unparsable
// response yields one unparsed-ai-response finding per chunk.
func (a *Adapter) Review(ctx context.Context, unit domain.ReviewUnit) ([]domain.Finding, error) {
	chunks := splitChunks(unit.Content(), a.budget)
	if len(chunks) > 1 {
		a.log.Debugw("chunking large unit", "unit", unit.Path, "chunks", len(chunks))
	}

	var findings []domain.Finding
	for _, chunk := range chunks {
		raw, err := a.complete(ctx, unit, chunk)
		if err != nil {
			var svcErr *domain.ServiceError
			if errors.As(err, &svcErr) {
				a.log.Warnw("ai service unavailable", "unit", unit.Path, "attempts", svcErr.Attempts, "err", svcErr.Last)
				return []domain.Finding{a.degraded(unit, domain.CategoryAIDown,
					"warning", "ai review unavailable: "+svcErr.Error())}, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.log.Warnw("ai call failed", "unit", unit.Path, "err", err)
			return []domain.Finding{a.degraded(unit, domain.CategoryAIDown,
				"warning", "ai review unavailable: "+err.Error())}, nil
		}

		result, err := parseResponse(raw)
		if err != nil {
			a.log.Infow("unparsable ai response", "unit", unit.Path, "chunk", chunk.Index)
			findings = append(findings, a.degraded(unit, domain.CategoryUnparsedAI,
				"info", "unparsed ai response: "+truncate(raw, maxRawMessage)))
			continue
		}

		for _, r := range result.Findings {
			findings = append(findings, normalize.Finding(unit, r))
		}
		if result.Assessment != "" {
			a.mu.Lock()
			if _, ok := a.assessments[unit.Path]; !ok {
				a.assessments[unit.Path] = result.Assessment
			}
			a.mu.Unlock()
		}
	}
	return findings, nil
}

// complete resolves one chunk's raw response, consulting the cache before
// spending a rate-limit slot on the network.
func (a *Adapter) complete(ctx context.Context, unit domain.ReviewUnit, chunk Chunk) (string, error) {
	key := a.cache.Key(a.client.Model(), fmt.Sprintf("%s:%d", unit.Hash, chunk.Index))
	if cached, ok := a.cache.Get(key); ok {
		a.log.Debugw("ai cache hit", "unit", unit.Path, "chunk", chunk.Index)
		return cached, nil
	}

	prompt := buildPrompt(unit.Language, chunk)
	var raw string
	err := a.retryer.Do(ctx, func(ctx context.Context) error {
		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}
		var genErr error
		raw, genErr = a.client.Generate(ctx, prompt)
		return genErr
	})
	if err != nil {
		return "", err
	}

	if err := a.cache.Put(key, raw); err != nil {
		a.log.Warnw("ai cache write failed", "err", err)
	}
	return raw, nil
}

func (a *Adapter) degraded(unit domain.ReviewUnit, category domain.Category, severity, msg string) domain.Finding {
	return normalize.Finding(unit, normalize.Raw{
		LineStart: 1,
		LineEnd:   1,
		Severity:  severity,
		Category:  string(category),
		Message:   msg,
		Source:    domain.SourceAI,
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Back up to a rune boundary so the cut never leaves invalid UTF-8.
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
