// Package model contains domain models passed between pipeline stages.
package model

import "time"

// Candidate is one prospective business pending verification. It is
// created by the ingestion layer and read-only to the pipeline.
type Candidate struct {
	Name    string // required, non-empty
	Address string
	Phone   string
	Website string // raw domain hint, may be empty
}

// FailureReason classifies why a candidate never reached scoring.
type FailureReason string

const (
	// NoDomain means no usable hostname could be derived for the candidate.
	NoDomain FailureReason = "NO_DOMAIN"
	// DNSFailure means the hostname did not resolve.
	DNSFailure FailureReason = "DNS_FAILURE"
	// ConnectTimeout means the host was unreachable or the probe timed out.
	ConnectTimeout FailureReason = "CONNECT_TIMEOUT"
	// HTTPError means the server answered with a non-qualifying status.
	HTTPError FailureReason = "HTTP_ERROR"
	// RedirectLoop means the probe exceeded the redirect bound.
	RedirectLoop FailureReason = "REDIRECT_LOOP"
	// Skipped means the run budget expired before the candidate was probed.
	Skipped FailureReason = "SKIPPED"
)

// VerificationVerdict is the terminal outcome of DNS and HTTP liveness
// checking for one domain. A verdict is immutable once produced; it is
// never retried within a run.
type VerificationVerdict struct {
	Domain        string // normalized hostname, lower-case, scheme-stripped
	ProbeURL      string // final URL that answered, used by fingerprinting
	DNSResolved   bool
	HTTPReachable bool
	HTTPStatus    int // 0 when no response was received
	Latency       time.Duration
	FailureReason FailureReason // empty on success
}

// CMS identifies a content-management system detected from literal markers.
type CMS string

const (
	CMSWordPress CMS = "WORDPRESS"
	CMSOther     CMS = "OTHER_CMS"
	CMSNone      CMS = "NONE"
	CMSUnknown   CMS = "UNKNOWN"
)

// FingerprintRecord holds technology signals extracted from a reachable
// site. Every field traces to a literal value observed in an HTTP
// response; absence is expressed with the NONE/UNKNOWN/zero sentinels.
type FingerprintRecord struct {
	ServerBanner          string   // verbatim Server header, empty when absent
	DetectedCMS           CMS
	CMSVersion            string   // literal generator version, empty when absent
	VulnerablePluginCount int
	PluginProbeRan        bool     // distinguishes "measured 0" from "not measured"
	SecurityHeaders       []string // checklist headers actually observed, checklist order
	ResponseStatus        int
	Degraded              bool     // extraction partially failed, sentinel values in effect
}

// HasSecurityHeaders reports whether any checklist header was observed.
func (f FingerprintRecord) HasSecurityHeaders() bool {
	return len(f.SecurityHeaders) > 0
}

// IsWordPress reports whether the site was positively identified as WordPress.
func (f FingerprintRecord) IsWordPress() bool {
	return f.DetectedCMS == CMSWordPress
}

// Adjustment is one scoring rule application: a reason tied to one
// observed fingerprint fact and the delta it contributed.
type Adjustment struct {
	Reason string
	Delta  int
}

// Recommendation is the three-tier outreach priority.
type Recommendation string

const (
	Contact Recommendation = "CONTACT"
	Maybe   Recommendation = "MAYBE"
	Exclude Recommendation = "EXCLUDE"
)

// ScoreRecord is the deterministic scoring output. TotalScore is always
// reproducible as BaseScore plus the sum of Adjustments, clamped.
type ScoreRecord struct {
	BaseScore      int
	Adjustments    []Adjustment
	TotalScore     int
	Recommendation Recommendation
}

// Outcome is the three-way audit partition for a candidate.
type Outcome string

const (
	// OutcomeFiltered marks a chain/franchise match excluded before probing.
	OutcomeFiltered Outcome = "FILTERED"
	// OutcomeFailed marks a candidate whose verification failed.
	OutcomeFailed Outcome = "FAILED"
	// OutcomeScored marks a verified, fingerprinted, scored candidate.
	OutcomeScored Outcome = "SCORED"
)

// AuditEntry records the fate of one candidate. Exactly one of the
// optional records is populated per outcome: filtered entries carry the
// matched keyword, failed entries a verdict, scored entries all three.
type AuditEntry struct {
	ID             string
	Index          int // position in the input batch
	Candidate      Candidate
	Outcome        Outcome
	MatchedKeyword string // set only for OutcomeFiltered
	Verdict        *VerificationVerdict
	Fingerprint    *FingerprintRecord
	Score          *ScoreRecord
}

// PipelineResult is the batch output: the full audit trail in input
// order plus the run identity.
type PipelineResult struct {
	RunID     string
	StartedAt time.Time
	Trail     []AuditEntry
}

// Scored returns the scored partition in input order.
func (r PipelineResult) Scored() []AuditEntry {
	return r.partition(OutcomeScored)
}

// Failed returns the verification-failed partition in input order.
func (r PipelineResult) Failed() []AuditEntry {
	return r.partition(OutcomeFailed)
}

// Filtered returns the chain-filtered partition in input order.
func (r PipelineResult) Filtered() []AuditEntry {
	return r.partition(OutcomeFiltered)
}

func (r PipelineResult) partition(o Outcome) []AuditEntry {
	var out []AuditEntry
	for _, e := range r.Trail {
		if e.Outcome == o {
			out = append(out, e)
		}
	}
	return out
}
