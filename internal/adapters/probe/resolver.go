// Package probe performs name-resolution and liveness checks for
// candidate domains. A verdict is terminal: one DNS attempt and one
// HTTP attempt per domain, no retries within a run.
package probe

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/net/publicsuffix"

	"github.com/amosroger91/prospector/internal/domain/model"
	"github.com/amosroger91/prospector/pkg/logger"
	"github.com/amosroger91/prospector/pkg/metrics"
)

// Default probe configuration constants.
const (
	defaultTimeout      = 5 * time.Second
	defaultMaxRedirects = 5
	fallbackDNSServer   = "8.8.8.8:53"
)

var defaultTLDs = []string{"com", "net", "org", "biz"}

var errTooManyRedirects = errors.New("too many redirects")

// Exchanger issues a DNS query. *dns.Client satisfies it; tests may
// substitute a stub.
type Exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, addr string) (*dns.Msg, time.Duration, error)
}

// Option applies a configuration option to the Resolver.
type Option func(*Resolver)

// WithTimeout bounds each DNS lookup and each HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMaxRedirects caps redirect following before REDIRECT_LOOP.
func WithMaxRedirects(n int) Option {
	return func(r *Resolver) {
		if n >= 0 {
			r.maxRedirects = n
		}
	}
}

// WithTLDs sets the TLDs tried when deriving domains from a business name.
func WithTLDs(tlds []string) Option {
	return func(r *Resolver) {
		if len(tlds) > 0 {
			r.tlds = tlds
		}
	}
}

// WithDNSServer sets the resolver address (host:port).
func WithDNSServer(addr string) Option {
	return func(r *Resolver) {
		if addr != "" {
			r.dnsServer = addr
		}
	}
}

// WithExchanger substitutes the DNS transport.
func WithExchanger(e Exchanger) Option {
	return func(r *Resolver) {
		if e != nil {
			r.dns = e
		}
	}
}

// WithHTTPClient substitutes the HTTP client. The caller owns redirect
// policy when this is used.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) {
		if c != nil {
			r.client = c
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// Resolver verifies candidate domains. Safe for concurrent use; the
// verdict cache guarantees a domain shared by several candidates is
// probed at most once per run.
type Resolver struct {
	client       *http.Client
	dns          Exchanger
	dnsServer    string
	timeout      time.Duration
	maxRedirects int
	tlds         []string
	log          logger.Logger

	mu    sync.Mutex
	cache map[string]model.VerificationVerdict
}

// NewResolver creates a Resolver with defaults, then applies options.
// The DNS server defaults to the system resolver configuration.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		timeout:      defaultTimeout,
		maxRedirects: defaultMaxRedirects,
		tlds:         defaultTLDs,
		dnsServer:    systemDNSServer(),
		dns:          &dns.Client{},
		log:          logger.Named("resolver"),
		cache:        make(map[string]model.VerificationVerdict),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = &http.Client{
			Timeout: r.timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= r.maxRedirects {
					return errTooManyRedirects
				}
				return nil
			},
			Transport: &http.Transport{
				// Small-business sites routinely carry self-signed or
				// expired certificates; verification checks liveness,
				// not certificate hygiene.
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
		}
	}
	return r
}

// Verify resolves and probes the candidate's domain. When the hint is
// empty a fixed deterministic set of domains derived from the business
// name is tried; if none answers the verdict is NO_DOMAIN.
func (r *Resolver) Verify(ctx context.Context, domainHint, businessName string) model.VerificationVerdict {
	if domainHint != "" {
		t, ok := parseTarget(domainHint)
		if !ok {
			return model.VerificationVerdict{FailureReason: model.NoDomain}
		}
		return r.verifyTarget(ctx, t)
	}

	for _, t := range r.deriveTargets(businessName) {
		v := r.verifyTarget(ctx, t)
		if v.HTTPReachable {
			return v
		}
	}
	return model.VerificationVerdict{FailureReason: model.NoDomain}
}

// verifyTarget runs the DNS and HTTP steps against one target, caching
// the verdict per host.
func (r *Resolver) verifyTarget(ctx context.Context, t target) model.VerificationVerdict {
	r.mu.Lock()
	if v, ok := r.cache[t.hostPort]; ok {
		r.mu.Unlock()
		return v
	}
	r.mu.Unlock()

	v := r.probe(ctx, t)

	r.mu.Lock()
	r.cache[t.hostPort] = v
	r.mu.Unlock()
	return v
}

func (r *Resolver) probe(ctx context.Context, t target) model.VerificationVerdict {
	start := time.Now()
	v := model.VerificationVerdict{Domain: t.host}

	// Step 1: DNS. IP literals need no resolution.
	if net.ParseIP(t.host) == nil {
		if !r.resolveDNS(ctx, t.host) {
			v.Latency = time.Since(start)
			v.FailureReason = model.DNSFailure
			r.log.Debug(ctx, "dns resolution failed", logger.String("domain", t.host))
			return v
		}
	}
	v.DNSResolved = true

	// Step 2: HTTP. HEAD first, GET on methods-not-allowed.
	status, finalURL, err := r.probeHTTP(ctx, t)
	v.Latency = time.Since(start)
	metrics.RecordProbeLatency(v.Latency.Seconds())

	if err != nil {
		if errors.Is(err, errTooManyRedirects) {
			v.FailureReason = model.RedirectLoop
		} else {
			v.FailureReason = model.ConnectTimeout
		}
		r.log.Debug(ctx, "http probe failed",
			logger.String("domain", t.host),
			logger.Error(err),
		)
		return v
	}

	v.HTTPStatus = status
	if reachableStatus(status) {
		v.HTTPReachable = true
		v.ProbeURL = finalURL
		return v
	}
	// The server answered but with a status that does not qualify as a
	// live site; 5xx and unlisted 4xx both land here.
	v.FailureReason = model.HTTPError
	return v
}

func (r *Resolver) resolveDNS(ctx context.Context, host string) bool {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), dns.TypeA)

	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, _, err := r.dns.ExchangeContext(lookupCtx, m, r.dnsServer)
	if err != nil || resp == nil {
		return false
	}
	return resp.Rcode == dns.RcodeSuccess && len(resp.Answer) > 0
}

func (r *Resolver) probeHTTP(ctx context.Context, t target) (int, string, error) {
	probeURL := t.scheme + "://" + t.hostPort + "/"

	reqCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	resp, err := r.do(reqCtx, http.MethodHead, probeURL)
	if err == nil && resp.StatusCode == http.StatusMethodNotAllowed {
		closeBody(resp)
		resp, err = r.do(reqCtx, http.MethodGet, probeURL)
	}
	if err != nil {
		return 0, "", err
	}
	defer closeBody(resp)
	return resp.StatusCode, resp.Request.URL.String(), nil
}

func (r *Resolver) do(ctx context.Context, method, rawurl string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawurl, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		// The redirect-cap sentinel arrives wrapped in *url.Error.
		var uerr *url.Error
		if errors.As(err, &uerr) && errors.Is(uerr.Err, errTooManyRedirects) {
			return nil, errTooManyRedirects
		}
		return nil, err
	}
	return resp, nil
}

func closeBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}

// reachableStatus implements the fixed status-class policy: 2xx, 3xx,
// 401 and 403 all mean the site exists and answered.
func reachableStatus(code int) bool {
	if code >= 200 && code < 400 {
		return true
	}
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// target is a normalized probe destination.
type target struct {
	host     string // hostname, no port
	hostPort string // host[:port] as dialed
	scheme   string // https unless the hint says otherwise
}

// parseTarget normalizes a raw domain hint: trims whitespace, lowers
// case, strips scheme and path, and validates the hostname carries a
// registrable domain (IP literals pass as-is).
func parseTarget(raw string) (target, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return target{}, false
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return target{}, false
	}
	scheme := u.Scheme
	if scheme != "http" && scheme != "https" {
		scheme = "https"
	}
	host := strings.TrimSuffix(u.Hostname(), ".")
	if host == "" {
		return target{}, false
	}
	if net.ParseIP(host) == nil {
		if _, err := publicsuffix.EffectiveTLDPlusOne(host); err != nil {
			return target{}, false
		}
	}
	return target{host: host, hostPort: u.Host, scheme: scheme}, true
}

// deriveTargets builds the fixed candidate list for a business with no
// domain hint: collapsed name, hyphenated name and first word, each
// across the configured TLDs.
func (r *Resolver) deriveTargets(businessName string) []target {
	words := slugWords(businessName)
	if len(words) == 0 {
		return nil
	}

	patterns := []string{strings.Join(words, "")}
	if len(words) > 1 {
		patterns = append(patterns, strings.Join(words, "-"), words[0])
	}

	var targets []target
	seen := make(map[string]struct{})
	for _, p := range patterns {
		for _, tld := range r.tlds {
			host := p + "." + strings.TrimPrefix(tld, ".")
			if _, ok := seen[host]; ok {
				continue
			}
			seen[host] = struct{}{}
			targets = append(targets, target{host: host, hostPort: host, scheme: "https"})
		}
	}
	return targets
}

// slugWords lowercases the name and keeps alphanumeric runs, dropping
// punctuation like apostrophes and commas.
func slugWords(name string) []string {
	var words []string
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			if b.Len() > 0 {
				words = append(words, b.String())
				b.Reset()
			}
		}
	}
	if b.Len() > 0 {
		words = append(words, b.String())
	}
	return words
}

// systemDNSServer reads the resolver from /etc/resolv.conf, falling
// back to a public resolver when unavailable.
func systemDNSServer() string {
	cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(cfg.Servers) == 0 {
		return fallbackDNSServer
	}
	return net.JoinHostPort(cfg.Servers[0], cfg.Port)
}
