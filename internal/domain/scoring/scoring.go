// Package scoring turns a fingerprint record into a deterministic
// prospect score. The engine is a pure function over its input: no I/O,
// no clock, no randomness. Identical fingerprints always produce
// identical score records.
package scoring

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"

	"github.com/amosroger91/prospector/internal/domain/model"
)

// Default scoring constants. All of them can be overridden through
// options so the rule table stays data-driven.
const (
	defaultBaseScore              = 50
	defaultWordPressDelta         = 20
	defaultServerBannerDelta      = 15
	defaultVulnerablePluginDelta  = 25
	defaultOutdatedVersionDelta   = 15
	defaultNoSecurityHeadersDelta = 10
	defaultContactThreshold       = 70
	defaultMaybeThreshold         = 50
	defaultCurrentWordPress       = "6.0"
	minScore                      = 0
	maxScore                      = 100
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithBaseScore overrides the base score every candidate starts from.
func WithBaseScore(base int) Option {
	return func(e *Engine) {
		if base >= minScore && base <= maxScore {
			e.baseScore = base
		}
	}
}

// WithDeltas overrides the per-rule deltas. Zero values keep defaults.
func WithDeltas(wordpress, serverBanner, vulnerablePlugins, outdatedVersion, noSecurityHeaders int) Option {
	return func(e *Engine) {
		if wordpress != 0 {
			e.wordPressDelta = wordpress
		}
		if serverBanner != 0 {
			e.serverBannerDelta = serverBanner
		}
		if vulnerablePlugins != 0 {
			e.vulnerablePluginDelta = vulnerablePlugins
		}
		if outdatedVersion != 0 {
			e.outdatedVersionDelta = outdatedVersion
		}
		if noSecurityHeaders != 0 {
			e.noSecurityHeadersDelta = noSecurityHeaders
		}
	}
}

// WithThresholds overrides the recommendation thresholds.
// contact must stay above maybe for the tiers to be well-formed.
func WithThresholds(contact, maybe int) Option {
	return func(e *Engine) {
		if contact > maybe && maybe > minScore {
			e.contactThreshold = contact
			e.maybeThreshold = maybe
		}
	}
}

// WithCurrentWordPressVersion sets the version below which a detected
// WordPress core counts as outdated.
func WithCurrentWordPressVersion(version string) Option {
	return func(e *Engine) {
		if version != "" {
			e.currentWordPress = version
		}
	}
}

// Engine evaluates the fixed rule table against a fingerprint.
type Engine struct {
	baseScore              int
	wordPressDelta         int
	serverBannerDelta      int
	vulnerablePluginDelta  int
	outdatedVersionDelta   int
	noSecurityHeadersDelta int
	contactThreshold       int
	maybeThreshold         int
	currentWordPress       string
}

// NewEngine creates an Engine with default constants, then applies options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		baseScore:              defaultBaseScore,
		wordPressDelta:         defaultWordPressDelta,
		serverBannerDelta:      defaultServerBannerDelta,
		vulnerablePluginDelta:  defaultVulnerablePluginDelta,
		outdatedVersionDelta:   defaultOutdatedVersionDelta,
		noSecurityHeadersDelta: defaultNoSecurityHeadersDelta,
		contactThreshold:       defaultContactThreshold,
		maybeThreshold:         defaultMaybeThreshold,
		currentWordPress:       defaultCurrentWordPress,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score maps a fingerprint to a score record. All applicable rules fire
// independently; there is no early exit. Scoring never fails: the
// all-sentinel degraded fingerprint yields the bare base score, since a
// degraded probe observed nothing the rules could attach to, not even
// the absence of security headers.
func (e *Engine) Score(fp model.FingerprintRecord) model.ScoreRecord {
	if fp.Degraded {
		return model.ScoreRecord{
			BaseScore:      e.baseScore,
			TotalScore:     clamp(e.baseScore, minScore, maxScore),
			Recommendation: e.recommend(e.baseScore),
		}
	}

	var adjustments []model.Adjustment

	if fp.DetectedCMS == model.CMSWordPress {
		adjustments = append(adjustments, model.Adjustment{
			Reason: "WordPress detected",
			Delta:  e.wordPressDelta,
		})
	}
	if fp.ServerBanner != "" {
		adjustments = append(adjustments, model.Adjustment{
			Reason: fmt.Sprintf("server banner present: %s", fp.ServerBanner),
			Delta:  e.serverBannerDelta,
		})
	}
	if fp.VulnerablePluginCount > 0 {
		adjustments = append(adjustments, model.Adjustment{
			Reason: fmt.Sprintf("%d vulnerable plugins observed", fp.VulnerablePluginCount),
			Delta:  e.vulnerablePluginDelta,
		})
	}
	if fp.CMSVersion != "" && versionBelow(fp.CMSVersion, e.currentWordPress) {
		adjustments = append(adjustments, model.Adjustment{
			Reason: fmt.Sprintf("outdated core version %s (current %s)", fp.CMSVersion, e.currentWordPress),
			Delta:  e.outdatedVersionDelta,
		})
	}
	if len(fp.SecurityHeaders) == 0 {
		adjustments = append(adjustments, model.Adjustment{
			Reason: "no recognized security headers",
			Delta:  e.noSecurityHeadersDelta,
		})
	}

	total := e.baseScore
	for _, a := range adjustments {
		total += a.Delta
	}
	total = clamp(total, minScore, maxScore)

	return model.ScoreRecord{
		BaseScore:      e.baseScore,
		Adjustments:    adjustments,
		TotalScore:     total,
		Recommendation: e.recommend(total),
	}
}

func (e *Engine) recommend(total int) model.Recommendation {
	switch {
	case total >= e.contactThreshold:
		return model.Contact
	case total >= e.maybeThreshold:
		return model.Maybe
	default:
		return model.Exclude
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// versionBelow compares two dotted version strings. Unparseable
// versions never count as outdated, so a garbled generator tag cannot
// inflate a score.
func versionBelow(version, threshold string) bool {
	v := canonicalVersion(version)
	t := canonicalVersion(threshold)
	if !semver.IsValid(v) || !semver.IsValid(t) {
		return false
	}
	return semver.Compare(v, t) < 0
}

func canonicalVersion(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	return "v" + s
}
