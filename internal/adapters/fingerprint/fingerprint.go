// Package fingerprint extracts technology signals from a verified-live
// site. Every recorded field traces to a literal value observed in an
// HTTP response; anything that cannot be observed stays at its
// NONE/UNKNOWN/zero sentinel.
package fingerprint

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/amosroger91/prospector/internal/domain/model"
	"github.com/amosroger91/prospector/pkg/logger"
	"github.com/amosroger91/prospector/pkg/metrics"
)

// Default fingerprint configuration constants.
const (
	defaultTimeout  = 5 * time.Second
	defaultMaxBody  = 1 << 20 // 1 MiB body cap
	maxPluginProbes = 10
)

// DefaultSecurityHeaders is the fixed checklist recorded per site.
var DefaultSecurityHeaders = []string{
	"Strict-Transport-Security",
	"Content-Security-Policy",
	"X-Content-Type-Options",
	"X-Frame-Options",
	"X-XSS-Protection",
}

// wordPressMarkers are the literal body markers that positively
// identify WordPress. The server banner alone is never sufficient.
var wordPressMarkers = []string{
	"wp-content",
	"wp-includes",
	"/wp-json/",
	"wp-login.php",
}

var generatorVersionRe = regexp.MustCompile(`(?i)wordpress\s+([0-9][0-9.]*)`)

// secondaryCMSMarkers maps other common CMS names to their literal markers.
var secondaryCMSMarkers = map[string][]string{
	"drupal":  {"drupal", "sites/all/modules"},
	"joomla":  {"joomla", "/administrator/index.php"},
	"magento": {"magento"},
}

// Option applies a configuration option to the Fingerprinter.
type Option func(*Fingerprinter)

// WithTimeout bounds the fingerprint GET request.
func WithTimeout(d time.Duration) Option {
	return func(f *Fingerprinter) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxBodyBytes caps how much of the page body is read.
func WithMaxBodyBytes(n int64) Option {
	return func(f *Fingerprinter) {
		if n > 0 {
			f.maxBody = n
		}
	}
}

// WithSecurityHeaders replaces the header checklist.
func WithSecurityHeaders(headers []string) Option {
	return func(f *Fingerprinter) {
		if len(headers) > 0 {
			f.securityHeaders = headers
		}
	}
}

// WithPluginProbe enables the bounded plugin-enumeration pass against
// the given plugin slugs. Without it the vulnerable-plugin count stays 0.
func WithPluginProbe(slugs []string) Option {
	return func(f *Fingerprinter) {
		f.pluginProbe = true
		f.pluginSlugs = slugs
	}
}

// WithHTTPClient substitutes the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fingerprinter) {
		if c != nil {
			f.client = c
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(f *Fingerprinter) {
		if l != nil {
			f.log = l
		}
	}
}

// Fingerprinter issues one bounded GET against a verified domain and
// extracts structural technology signals. Safe for concurrent use.
type Fingerprinter struct {
	client          *http.Client
	timeout         time.Duration
	maxBody         int64
	securityHeaders []string
	pluginProbe     bool
	pluginSlugs     []string
	log             logger.Logger
}

// New creates a Fingerprinter with defaults, then applies options.
func New(opts ...Option) *Fingerprinter {
	f := &Fingerprinter{
		timeout:         defaultTimeout,
		maxBody:         defaultMaxBody,
		securityHeaders: DefaultSecurityHeaders,
		log:             logger.Named("fingerprint"),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = &http.Client{
			Timeout: f.timeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // liveness already proven; cert hygiene is a scoring signal elsewhere
			},
		}
	}
	return f
}

// Fingerprint probes the verified site and returns its technology
// record. Any failure degrades to sentinel values rather than erroring:
// verification already established the site is real, so the candidate
// still gets scored on whatever was actually observed.
func (f *Fingerprinter) Fingerprint(ctx context.Context, verdict model.VerificationVerdict) model.FingerprintRecord {
	start := time.Now()
	defer func() {
		metrics.RecordFingerprintLatency(time.Since(start).Seconds())
	}()

	rec := model.FingerprintRecord{DetectedCMS: model.CMSUnknown}
	if !verdict.HTTPReachable {
		rec.Degraded = true
		return rec
	}

	pageURL := verdict.ProbeURL
	if pageURL == "" {
		pageURL = "https://" + verdict.Domain + "/"
	}

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, pageURL, nil)
	if err != nil {
		return f.degrade(ctx, rec, verdict.Domain, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return f.degrade(ctx, rec, verdict.Domain, err)
	}
	defer resp.Body.Close()

	rec.ResponseStatus = resp.StatusCode
	rec.ServerBanner = resp.Header.Get("Server")
	rec.SecurityHeaders = f.observedHeaders(resp.Header)

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody))
	if err != nil {
		// Headers were observed; only markup inspection is lost.
		rec.Degraded = true
		metrics.RecordDegraded()
		f.log.Warn(ctx, "body read failed, fingerprint degraded",
			logger.String("domain", verdict.Domain),
			logger.Error(err),
		)
		return rec
	}

	f.inspectMarkup(&rec, body)
	metrics.RecordCMS(string(rec.DetectedCMS))

	if f.pluginProbe && rec.DetectedCMS == model.CMSWordPress {
		rec.VulnerablePluginCount = f.enumeratePlugins(ctx, pageURL)
		rec.PluginProbeRan = true
	}
	return rec
}

func (f *Fingerprinter) degrade(ctx context.Context, rec model.FingerprintRecord, domain string, err error) model.FingerprintRecord {
	rec.Degraded = true
	rec.DetectedCMS = model.CMSUnknown
	metrics.RecordDegraded()
	f.log.Warn(ctx, "fingerprint probe failed, degrading to sentinels",
		logger.String("domain", domain),
		logger.Error(err),
	)
	return rec
}

// observedHeaders returns checklist headers actually present, in
// checklist order.
func (f *Fingerprinter) observedHeaders(h http.Header) []string {
	var present []string
	for _, name := range f.securityHeaders {
		if h.Get(name) != "" {
			present = append(present, name)
		}
	}
	return present
}

// inspectMarkup applies the literal CMS markers to the page body.
func (f *Fingerprinter) inspectMarkup(rec *model.FingerprintRecord, body []byte) {
	content := strings.ToLower(string(body))

	for _, marker := range wordPressMarkers {
		if strings.Contains(content, marker) {
			rec.DetectedCMS = model.CMSWordPress
			break
		}
	}

	// The generator meta both confirms WordPress and carries the core
	// version. goquery failures leave the marker-based verdict intact.
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		generator, _ := doc.Find(`meta[name="generator"]`).Attr("content")
		if m := generatorVersionRe.FindStringSubmatch(generator); m != nil {
			rec.DetectedCMS = model.CMSWordPress
			rec.CMSVersion = m[1]
		}
	}

	if rec.DetectedCMS == model.CMSWordPress {
		return
	}
	for _, markers := range secondaryCMSMarkers {
		for _, marker := range markers {
			if strings.Contains(content, marker) {
				rec.DetectedCMS = model.CMSOther
				return
			}
		}
	}
	rec.DetectedCMS = model.CMSNone
}

// enumeratePlugins probes a bounded list of known-vulnerable plugin
// slugs for their readme files and counts the ones actually present.
func (f *Fingerprinter) enumeratePlugins(ctx context.Context, pageURL string) int {
	base := strings.TrimSuffix(pageURL, "/")
	slugs := f.pluginSlugs
	if len(slugs) > maxPluginProbes {
		slugs = slugs[:maxPluginProbes]
	}

	count := 0
	for _, slug := range slugs {
		reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
		readme := base + "/wp-content/plugins/" + slug + "/readme.txt"
		req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, readme, nil)
		if err != nil {
			cancel()
			continue
		}
		resp, err := f.client.Do(req)
		cancel()
		if err != nil {
			continue
		}
		_ = resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			count++
		}
	}
	return count
}
