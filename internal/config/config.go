// Package config defines process configuration and loading.
//
// Conventions follow the rest of the codebase: defaults come from
// New, Load layers an optional YAML file and environment variables on
// top, and koanf tags name every externally overridable knob.
package config

import "runtime"

// Config contains every tunable the pipeline consumes. All network
// bounds, marker lists and scoring constants are overridable without
// code changes.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// WorkerCount sets the fixed size of the probing worker pool.
	WorkerCount int `koanf:"worker_count"`

	// ProbeTimeoutMS bounds each DNS lookup and HTTP request.
	ProbeTimeoutMS int `koanf:"probe_timeout_ms"`

	// RunBudgetMS bounds the whole run; unstarted candidates are marked
	// SKIPPED once it expires. Zero disables the budget.
	RunBudgetMS int `koanf:"run_budget_ms"`

	// MaxRedirects caps redirect following before REDIRECT_LOOP.
	MaxRedirects int `koanf:"max_redirects"`

	// ProbesPerSecond rate-limits network-touching candidates across
	// all workers.
	ProbesPerSecond float64 `koanf:"probes_per_second"`

	// MaxBodyBytes caps the fingerprint body read.
	MaxBodyBytes int64 `koanf:"max_body_bytes"`

	// DNSServer is the resolver address (host:port). Empty means use
	// the system resolver configuration.
	DNSServer string `koanf:"dns_server"`

	// DerivedTLDs are tried when a candidate has no domain hint.
	DerivedTLDs []string `koanf:"derived_tlds"`

	// ChainKeywords drive the franchise pre-filter. Empty keeps the
	// built-in list.
	ChainKeywords []string `koanf:"chain_keywords"`

	// ChainMatchAddress also matches keywords against the address.
	ChainMatchAddress bool `koanf:"chain_match_address"`

	// SecurityHeaders is the fixed checklist recorded per site.
	SecurityHeaders []string `koanf:"security_headers"`

	// VulnerablePlugins are the plugin slugs the optional enumeration
	// probe checks for.
	VulnerablePlugins []string `koanf:"vulnerable_plugins"`

	// PluginProbe enables the plugin-enumeration pass.
	PluginProbe bool `koanf:"plugin_probe"`

	// Scoring constants. Zero deltas fall back to the engine defaults.
	BaseScore               int    `koanf:"base_score"`
	WordPressDelta          int    `koanf:"wordpress_delta"`
	ServerBannerDelta       int    `koanf:"server_banner_delta"`
	VulnerablePluginDelta   int    `koanf:"vulnerable_plugin_delta"`
	OutdatedVersionDelta    int    `koanf:"outdated_version_delta"`
	NoSecurityHeadersDelta  int    `koanf:"no_security_headers_delta"`
	ContactThreshold        int    `koanf:"contact_threshold"`
	MaybeThreshold          int    `koanf:"maybe_threshold"`
	WordPressCurrentVersion string `koanf:"wordpress_current_version"`

	// Input and output surfaces.
	InputCSV       string `koanf:"input_csv"`
	OutputCSV      string `koanf:"output_csv"`
	OutputWorkbook string `koanf:"output_workbook"`
	OutreachCSV    string `koanf:"outreach_csv"`
	MetricsFile    string `koanf:"metrics_file"`

	// Outreach sender identity substituted into email templates.
	SenderName  string `koanf:"sender_name"`
	SenderPhone string `koanf:"sender_phone"`
	SenderEmail string `koanf:"sender_email"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		WorkerCount:     runtime.NumCPU(),
		ProbeTimeoutMS:  5000,
		RunBudgetMS:     0,
		MaxRedirects:    5,
		ProbesPerSecond: 2,
		MaxBodyBytes:    1 << 20,
		DerivedTLDs:     []string{"com", "net", "org", "biz"},
		SecurityHeaders: []string{
			"Strict-Transport-Security",
			"Content-Security-Policy",
			"X-Content-Type-Options",
			"X-Frame-Options",
			"X-XSS-Protection",
		},
		VulnerablePlugins: []string{
			"contact-form-7",
			"wp-file-manager",
			"elementor",
			"duplicator",
			"wp-fastest-cache",
		},
		PluginProbe:             false,
		BaseScore:               50,
		WordPressDelta:          20,
		ServerBannerDelta:       15,
		VulnerablePluginDelta:   25,
		OutdatedVersionDelta:    15,
		NoSecurityHeadersDelta:  10,
		ContactThreshold:        70,
		MaybeThreshold:          50,
		WordPressCurrentVersion: "6.0",
		InputCSV:                "business_data/candidates.csv",
		OutputCSV:               "verified_results.csv",
		OutputWorkbook:          "",
		OutreachCSV:             "",
		MetricsFile:             "",
		SenderName:              "Roger",
		SenderPhone:             "(555) 123-4567",
		SenderEmail:             "roger@example.com",
	}
}
