package report_test

import (
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/amosroger91/prospector/internal/domain/model"
	"github.com/amosroger91/prospector/internal/report"
)

var testSender = report.Sender{
	Name:  "Amos Roger",
	Phone: "479-555-0100",
	Email: "amos@example.com",
}

func TestSelectTemplate(t *testing.T) {
	Convey("Given fingerprints of varying shape", t, func() {
		Convey("Then WordPress with vulnerable plugins gets the vulnerability pitch", func() {
			key := report.SelectTemplate(&model.FingerprintRecord{
				DetectedCMS:           model.CMSWordPress,
				VulnerablePluginCount: 2,
			})
			So(key, ShouldEqual, report.TemplateWordPressVulnerability)
		})

		Convey("Then clean WordPress gets the general WordPress pitch", func() {
			key := report.SelectTemplate(&model.FingerprintRecord{DetectedCMS: model.CMSWordPress})
			So(key, ShouldEqual, report.TemplateWordPressGeneral)
		})

		Convey("Then everything else gets the automation pitch", func() {
			So(report.SelectTemplate(&model.FingerprintRecord{DetectedCMS: model.CMSNone}), ShouldEqual, report.TemplateGeneralAutomation)
			So(report.SelectTemplate(&model.FingerprintRecord{DetectedCMS: model.CMSOther}), ShouldEqual, report.TemplateGeneralAutomation)
			So(report.SelectTemplate(nil), ShouldEqual, report.TemplateGeneralAutomation)
		})
	})
}

func TestGenerate(t *testing.T) {
	Convey("Given a scored WordPress entry with vulnerable plugins", t, func() {
		entry := scoredEntry(0, "Corner Bakery", "cornerbakery.net", 100, model.FingerprintRecord{
			DetectedCMS:           model.CMSWordPress,
			CMSVersion:            "4.9.8",
			VulnerablePluginCount: 2,
			PluginProbeRan:        true,
		})

		Convey("When a draft is generated", func() {
			email, err := report.Generate(entry, testSender)

			Convey("Then the vulnerability template renders with the findings", func() {
				So(err, ShouldBeNil)
				So(email.Template, ShouldEqual, report.TemplateWordPressVulnerability)
				So(email.Subject, ShouldEqual, "Security findings on cornerbakery.net")
				So(email.Body, ShouldContainSubstring, "Corner Bakery")
				So(email.Body, ShouldContainSubstring, "WordPress 4.9.8")
				So(email.Body, ShouldContainSubstring, "2 plugin(s)")
				So(email.Body, ShouldContainSubstring, "Amos Roger")
			})
		})
	})

	Convey("Given a scored non-CMS entry", t, func() {
		entry := scoredEntry(0, "Smith Brothers Auto", "smithbrothers.com", 75, model.FingerprintRecord{
			ServerBanner: "nginx",
			DetectedCMS:  model.CMSNone,
		})

		Convey("When a draft is generated", func() {
			email, err := report.Generate(entry, testSender)

			Convey("Then the automation template mentions the server", func() {
				So(err, ShouldBeNil)
				So(email.Template, ShouldEqual, report.TemplateGeneralAutomation)
				So(email.Subject, ShouldEqual, "Quick note about smithbrothers.com")
				So(email.Body, ShouldContainSubstring, "served by nginx")
			})
		})
	})

	Convey("Given a non-scored entry", t, func() {
		entry := model.AuditEntry{
			Candidate: model.Candidate{Name: "Dead Diner"},
			Outcome:   model.OutcomeFailed,
		}

		Convey("When a draft is requested", func() {
			_, err := report.Generate(entry, testSender)

			So(err, ShouldNotBeNil)
		})
	})
}

func TestWriteOutreachCSV(t *testing.T) {
	Convey("Given a mixed pipeline result", t, func() {
		result := sampleResult()
		path := filepath.Join(t.TempDir(), "outreach.csv")

		Convey("When outreach drafts are written", func() {
			So(report.WriteOutreachCSV(path, result, testSender), ShouldBeNil)
			rows := readCSV(t, path)

			Convey("Then one draft per scored entry, none for the rest", func() {
				So(len(rows), ShouldEqual, 4)
				So(rows[0], ShouldResemble, []string{"Company", "Domain", "Template", "Subject", "Body"})
				So(rows[1][0], ShouldEqual, "Smith Brothers Auto")
				So(rows[2][2], ShouldEqual, report.TemplateWordPressVulnerability)
				So(rows[3][2], ShouldEqual, report.TemplateGeneralAutomation)
			})
		})
	})
}
