// Package app wires configuration into pipeline components and runs a
// full batch: ingest -> verify -> fingerprint -> score -> report.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/amosroger91/prospector/internal/adapters/fingerprint"
	"github.com/amosroger91/prospector/internal/adapters/probe"
	"github.com/amosroger91/prospector/internal/config"
	"github.com/amosroger91/prospector/internal/domain/chainfilter"
	"github.com/amosroger91/prospector/internal/domain/scoring"
	"github.com/amosroger91/prospector/internal/ingest"
	"github.com/amosroger91/prospector/internal/pipeline"
	"github.com/amosroger91/prospector/internal/report"
	"github.com/amosroger91/prospector/pkg/logger"
	"github.com/amosroger91/prospector/pkg/metrics"
)

const topProspectCount = 10

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithConfig sets the service configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.cfg = cfg
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// Service runs the prospect pipeline end to end.
type Service struct {
	cfg *config.Config
	log logger.Logger
}

// New constructs a Service with defaults, then applies options.
func New(opts ...Option) *Service {
	s := &Service{
		cfg: config.New(),
		log: logger.Named("app"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewResolver builds the Resolver from configuration.
func NewResolver(cfg *config.Config) *probe.Resolver {
	opts := []probe.Option{
		probe.WithTimeout(time.Duration(cfg.ProbeTimeoutMS) * time.Millisecond),
		probe.WithMaxRedirects(cfg.MaxRedirects),
		probe.WithTLDs(cfg.DerivedTLDs),
	}
	if cfg.DNSServer != "" {
		opts = append(opts, probe.WithDNSServer(cfg.DNSServer))
	}
	return probe.NewResolver(opts...)
}

// NewFingerprinter builds the Fingerprinter from configuration.
func NewFingerprinter(cfg *config.Config) *fingerprint.Fingerprinter {
	opts := []fingerprint.Option{
		fingerprint.WithTimeout(time.Duration(cfg.ProbeTimeoutMS) * time.Millisecond),
		fingerprint.WithMaxBodyBytes(cfg.MaxBodyBytes),
		fingerprint.WithSecurityHeaders(cfg.SecurityHeaders),
	}
	if cfg.PluginProbe {
		opts = append(opts, fingerprint.WithPluginProbe(cfg.VulnerablePlugins))
	}
	return fingerprint.New(opts...)
}

// NewEngine builds the scoring engine from configuration.
func NewEngine(cfg *config.Config) *scoring.Engine {
	return scoring.NewEngine(
		scoring.WithBaseScore(cfg.BaseScore),
		scoring.WithDeltas(
			cfg.WordPressDelta,
			cfg.ServerBannerDelta,
			cfg.VulnerablePluginDelta,
			cfg.OutdatedVersionDelta,
			cfg.NoSecurityHeadersDelta,
		),
		scoring.WithThresholds(cfg.ContactThreshold, cfg.MaybeThreshold),
		scoring.WithCurrentWordPressVersion(cfg.WordPressCurrentVersion),
	)
}

// Run executes one batch and returns its summary.
func (s *Service) Run(ctx context.Context) (report.Summary, error) {
	candidates, err := ingest.LoadCSV(s.cfg.InputCSV)
	if err != nil {
		return report.Summary{}, fmt.Errorf("load candidates: %w", err)
	}
	s.log.Info(ctx, "candidates loaded",
		logger.String("path", s.cfg.InputCSV),
		logger.Int("count", len(candidates)),
	)

	filter := chainfilter.New(
		chainfilter.WithKeywords(s.cfg.ChainKeywords),
		chainfilter.WithAddressMatching(s.cfg.ChainMatchAddress),
	)
	coordinator := pipeline.New(
		NewResolver(s.cfg),
		NewFingerprinter(s.cfg),
		NewEngine(s.cfg),
		pipeline.WithWorkers(s.cfg.WorkerCount),
		pipeline.WithRateLimit(s.cfg.ProbesPerSecond),
		pipeline.WithRunBudget(time.Duration(s.cfg.RunBudgetMS)*time.Millisecond),
		pipeline.WithChainFilter(filter),
	)

	result := coordinator.Run(ctx, candidates)

	if err := report.WriteCSV(s.cfg.OutputCSV, result); err != nil {
		return report.Summary{}, fmt.Errorf("write report: %w", err)
	}
	if s.cfg.OutputWorkbook != "" {
		if err := report.WriteWorkbook(s.cfg.OutputWorkbook, result); err != nil {
			return report.Summary{}, fmt.Errorf("write workbook: %w", err)
		}
	}
	if s.cfg.OutreachCSV != "" {
		sender := report.Sender{Name: s.cfg.SenderName, Phone: s.cfg.SenderPhone, Email: s.cfg.SenderEmail}
		if err := report.WriteOutreachCSV(s.cfg.OutreachCSV, result, sender); err != nil {
			return report.Summary{}, fmt.Errorf("write outreach: %w", err)
		}
	}
	if s.cfg.MetricsFile != "" {
		if err := metrics.WriteSnapshot(s.cfg.MetricsFile); err != nil {
			s.log.Warn(ctx, "metrics snapshot failed", logger.Error(err))
		}
	}

	summary := report.Summarize(result)
	s.log.Info(ctx, "run complete",
		logger.String("run_id", result.RunID),
		logger.Int("total", summary.Total),
		logger.Int("filtered", summary.Filtered),
		logger.Int("failed", summary.Failed),
		logger.Int("scored", summary.Scored),
		logger.Int("contact", summary.Contact),
	)
	for i, e := range report.TopProspects(result, topProspectCount) {
		s.log.Info(ctx, "top prospect",
			logger.Int("rank", i+1),
			logger.String("name", e.Candidate.Name),
			logger.String("domain", e.Verdict.Domain),
			logger.Int("score", e.Score.TotalScore),
		)
	}
	return summary, nil
}
