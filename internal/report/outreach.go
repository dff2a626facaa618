package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/amosroger91/prospector/internal/domain/model"
)

// Template keys, chosen per fingerprint.
const (
	TemplateWordPressVulnerability = "wordpress_vulnerability"
	TemplateWordPressGeneral       = "wordpress_general"
	TemplateGeneralAutomation      = "general_automation"
)

// Sender identifies who the outreach emails come from.
type Sender struct {
	Name  string
	Phone string
	Email string
}

// Email is one generated outreach draft.
type Email struct {
	Company  string
	Domain   string
	Subject  string
	Body     string
	Template string
}

type templateData struct {
	Company     string
	Domain      string
	Server      string
	CMSVersion  string
	VulnCount   int
	SenderName  string
	SenderPhone string
	SenderEmail string
}

var wordpressVulnerabilityTmpl = template.Must(template.New(TemplateWordPressVulnerability).Parse(
	`Hi {{.Company}} team,

While reviewing local business websites I noticed {{.Domain}} runs WordPress{{if .CMSVersion}} {{.CMSVersion}}{{end}} with {{.VulnCount}} plugin(s) that have known security issues. These are straightforward to patch, and left alone they are a common entry point for site takeovers.

I help small businesses keep their sites secure and automate the busywork around them. Happy to walk you through what I found, no strings attached.

{{.SenderName}}
{{.SenderPhone}} | {{.SenderEmail}}
`))

var wordpressGeneralTmpl = template.Must(template.New(TemplateWordPressGeneral).Parse(
	`Hi {{.Company}} team,

I came across {{.Domain}} and noticed it runs on WordPress{{if .CMSVersion}} (version {{.CMSVersion}}){{end}}. There are a few quick wins available for sites on your setup, from performance tuning to automating appointment and inquiry handling.

If that sounds useful I'd be glad to share specifics for your site.

{{.SenderName}}
{{.SenderPhone}} | {{.SenderEmail}}
`))

var generalAutomationTmpl = template.Must(template.New(TemplateGeneralAutomation).Parse(
	`Hi {{.Company}} team,

I work with local businesses on automating the repetitive parts of running a website: inquiries, bookings, follow-ups. Looking at {{.Domain}}{{if .Server}} (served by {{.Server}}){{end}}, I think there are a couple of places where automation could save you real time each week.

Would a short call be worthwhile?

{{.SenderName}}
{{.SenderPhone}} | {{.SenderEmail}}
`))

var templatesByKey = map[string]*template.Template{
	TemplateWordPressVulnerability: wordpressVulnerabilityTmpl,
	TemplateWordPressGeneral:       wordpressGeneralTmpl,
	TemplateGeneralAutomation:      generalAutomationTmpl,
}

// SelectTemplate picks the best email template for a fingerprint.
func SelectTemplate(fp *model.FingerprintRecord) string {
	switch {
	case fp == nil:
		return TemplateGeneralAutomation
	case fp.IsWordPress() && fp.VulnerablePluginCount > 0:
		return TemplateWordPressVulnerability
	case fp.IsWordPress():
		return TemplateWordPressGeneral
	default:
		return TemplateGeneralAutomation
	}
}

// Generate renders an outreach draft for one scored entry.
func Generate(e model.AuditEntry, s Sender) (Email, error) {
	if e.Outcome != model.OutcomeScored {
		return Email{}, fmt.Errorf("outreach requires a scored entry, got %s", e.Outcome)
	}

	key := SelectTemplate(e.Fingerprint)
	data := templateData{
		Company:     e.Candidate.Name,
		Domain:      e.Verdict.Domain,
		Server:      e.Fingerprint.ServerBanner,
		CMSVersion:  e.Fingerprint.CMSVersion,
		VulnCount:   e.Fingerprint.VulnerablePluginCount,
		SenderName:  s.Name,
		SenderPhone: s.Phone,
		SenderEmail: s.Email,
	}

	var body strings.Builder
	if err := templatesByKey[key].Execute(&body, data); err != nil {
		return Email{}, fmt.Errorf("render template %s: %w", key, err)
	}

	subject := fmt.Sprintf("Quick note about %s", e.Verdict.Domain)
	if key == TemplateWordPressVulnerability {
		subject = fmt.Sprintf("Security findings on %s", e.Verdict.Domain)
	}

	return Email{
		Company:  e.Candidate.Name,
		Domain:   e.Verdict.Domain,
		Subject:  subject,
		Body:     body.String(),
		Template: key,
	}, nil
}

// WriteOutreachCSV renders drafts for every scored entry and writes
// them to path.
func WriteOutreachCSV(path string, result model.PipelineResult, s Sender) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create outreach file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Company", "Domain", "Template", "Subject", "Body"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range result.Scored() {
		email, err := Generate(e, s)
		if err != nil {
			return err
		}
		row := []string{email.Company, email.Domain, email.Template, email.Subject, email.Body}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
