// Package pipeline sequences verification, fingerprinting and scoring
// over a batch of candidates. One candidate's failure never aborts the
// batch, and the audit trail always comes back in input order no matter
// how workers interleave.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/amosroger91/prospector/internal/domain/chainfilter"
	"github.com/amosroger91/prospector/internal/domain/model"
	"github.com/amosroger91/prospector/pkg/logger"
	"github.com/amosroger91/prospector/pkg/metrics"
)

// Default coordinator configuration constants.
const (
	defaultWorkers         = 4
	defaultProbesPerSecond = 2.0
)

// Verifier resolves and probes one candidate domain.
type Verifier interface {
	Verify(ctx context.Context, domainHint, businessName string) model.VerificationVerdict
}

// Fingerprinter extracts technology signals from a reachable site.
type Fingerprinter interface {
	Fingerprint(ctx context.Context, verdict model.VerificationVerdict) model.FingerprintRecord
}

// Scorer maps a fingerprint to a score record.
type Scorer interface {
	Score(fp model.FingerprintRecord) model.ScoreRecord
}

// Option applies a configuration option to the Coordinator.
type Option func(*Coordinator)

// WithWorkers sets the fixed size of the worker pool.
func WithWorkers(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithRateLimit sets the cross-worker probe rate in candidates per second.
func WithRateLimit(perSecond float64) Option {
	return func(c *Coordinator) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithRunBudget bounds the whole run. Candidates not yet started when
// the budget expires are marked SKIPPED; in-flight probes finish under
// their own per-call timeouts.
func WithRunBudget(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.runBudget = d
		}
	}
}

// WithChainFilter sets the franchise pre-filter.
func WithChainFilter(f *chainfilter.Filter) Option {
	return func(c *Coordinator) {
		if f != nil {
			c.filter = f
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.log = l
		}
	}
}

// Coordinator runs the verify -> fingerprint -> score sequence over a
// candidate batch with per-candidate isolation.
type Coordinator struct {
	verifier      Verifier
	fingerprinter Fingerprinter
	scorer        Scorer
	filter        *chainfilter.Filter
	workers       int
	limiter       *rate.Limiter
	runBudget     time.Duration
	log           logger.Logger
}

// New creates a Coordinator with defaults, then applies options.
func New(verifier Verifier, fingerprinter Fingerprinter, scorer Scorer, opts ...Option) *Coordinator {
	c := &Coordinator{
		verifier:      verifier,
		fingerprinter: fingerprinter,
		scorer:        scorer,
		filter:        chainfilter.New(),
		workers:       defaultWorkers,
		limiter:       rate.NewLimiter(rate.Limit(defaultProbesPerSecond), 1),
		log:           logger.Named("pipeline"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes the batch and returns the ordered audit trail. The
// trail partitions candidates three ways: filtered (chain match, never
// probed), failed (with a reason code) and scored. No candidate ever
// vanishes without an explicit entry.
func (c *Coordinator) Run(ctx context.Context, candidates []model.Candidate) model.PipelineResult {
	result := model.PipelineResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Trail:     make([]model.AuditEntry, len(candidates)),
	}

	// The budget context only gates *starting* candidates; probes run
	// off the parent so in-flight work can finish on its own timeouts.
	budgetCtx := ctx
	if c.runBudget > 0 {
		var cancel context.CancelFunc
		budgetCtx, cancel = context.WithTimeout(ctx, c.runBudget)
		defer cancel()
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < c.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				result.Trail[idx] = c.processCandidate(ctx, budgetCtx, idx, candidates[idx])
			}
		}()
	}
	for idx := range candidates {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	c.recordRunMetrics(result)
	return result
}

// processCandidate handles one candidate end to end. Panics are
// contained here so a single bad candidate cannot take down the batch.
func (c *Coordinator) processCandidate(ctx, budgetCtx context.Context, idx int, cand model.Candidate) (entry model.AuditEntry) {
	entry = model.AuditEntry{
		ID:        uuid.NewString(),
		Index:     idx,
		Candidate: cand,
	}
	defer func() {
		if rec := recover(); rec != nil {
			c.log.Error(ctx, "candidate processing panicked",
				logger.String("name", cand.Name),
				logger.Any("panic", rec),
			)
			entry.Outcome = model.OutcomeFailed
			entry.Verdict = &model.VerificationVerdict{FailureReason: model.ConnectTimeout}
		}
	}()

	metrics.RecordCandidate()

	// Chain pre-filter: no network touch, no rate token.
	if kw, ok := c.filter.Match(cand.Name, cand.Address); ok {
		entry.Outcome = model.OutcomeFiltered
		entry.MatchedKeyword = kw
		c.log.Info(ctx, "candidate filtered",
			logger.String("name", cand.Name),
			logger.String("keyword", kw),
		)
		return entry
	}

	// Rate discipline and run budget both apply before any probing.
	if err := c.limiter.Wait(budgetCtx); err != nil {
		entry.Outcome = model.OutcomeFailed
		entry.Verdict = &model.VerificationVerdict{FailureReason: model.Skipped}
		c.log.Warn(ctx, "run budget exhausted, candidate skipped",
			logger.String("name", cand.Name),
		)
		return entry
	}

	verdict := c.verifier.Verify(ctx, cand.Website, cand.Name)
	entry.Verdict = &verdict
	if !verdict.HTTPReachable {
		entry.Outcome = model.OutcomeFailed
		c.log.Info(ctx, "verification failed",
			logger.String("name", cand.Name),
			logger.String("domain", verdict.Domain),
			logger.String("reason", string(verdict.FailureReason)),
		)
		return entry
	}

	fp := c.fingerprinter.Fingerprint(ctx, verdict)
	score := c.scorer.Score(fp)
	entry.Fingerprint = &fp
	entry.Score = &score
	entry.Outcome = model.OutcomeScored

	c.log.Info(ctx, "candidate scored",
		logger.String("name", cand.Name),
		logger.String("domain", verdict.Domain),
		logger.Int("score", score.TotalScore),
		logger.String("recommendation", string(score.Recommendation)),
	)
	return entry
}

func (c *Coordinator) recordRunMetrics(result model.PipelineResult) {
	for _, e := range result.Trail {
		metrics.RecordOutcome(string(e.Outcome))
		if e.Outcome == model.OutcomeFailed && e.Verdict != nil {
			metrics.RecordFailure(string(e.Verdict.FailureReason))
		}
		if e.Score != nil {
			metrics.RecordScore(e.Score.TotalScore)
			metrics.RecordRecommendation(string(e.Score.Recommendation))
		}
	}
}
