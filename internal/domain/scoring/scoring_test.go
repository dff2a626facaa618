package scoring_test

import (
	"reflect"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/amosroger91/prospector/internal/domain/model"
	"github.com/amosroger91/prospector/internal/domain/scoring"
)

func TestScoreRuleTable(t *testing.T) {
	Convey("Given a default scoring engine", t, func() {
		engine := scoring.NewEngine()

		Convey("When scoring a plain nginx site with no CMS and no security headers", func() {
			fp := model.FingerprintRecord{
				ServerBanner:   "nginx",
				DetectedCMS:    model.CMSNone,
				ResponseStatus: 200,
			}
			rec := engine.Score(fp)

			Convey("Then banner and missing-header rules fire for 75 and CONTACT", func() {
				So(rec.BaseScore, ShouldEqual, 50)
				So(rec.TotalScore, ShouldEqual, 75)
				So(rec.Recommendation, ShouldEqual, model.Contact)
				So(len(rec.Adjustments), ShouldEqual, 2)
			})
		})

		Convey("When scoring an outdated WordPress site with vulnerable plugins and a CSP header", func() {
			fp := model.FingerprintRecord{
				DetectedCMS:           model.CMSWordPress,
				CMSVersion:            "4.9.8",
				VulnerablePluginCount: 2,
				PluginProbeRan:        true,
				SecurityHeaders:       []string{"Content-Security-Policy"},
				ResponseStatus:        200,
			}
			rec := engine.Score(fp)

			Convey("Then the sum exceeds 100 and clamps to 100", func() {
				// 50 + 20 (WP) + 25 (plugins) + 15 (outdated) = 110
				So(rec.TotalScore, ShouldEqual, 100)
				So(rec.Recommendation, ShouldEqual, model.Contact)
			})

			Convey("Then no missing-header adjustment is present", func() {
				for _, adj := range rec.Adjustments {
					So(adj.Reason, ShouldNotEqual, "no recognized security headers")
				}
			})
		})

		Convey("When scoring the all-sentinel degraded fingerprint", func() {
			fp := model.FingerprintRecord{
				DetectedCMS: model.CMSUnknown,
				Degraded:    true,
			}
			rec := engine.Score(fp)

			Convey("Then the result is exactly the base score and MAYBE", func() {
				So(rec.TotalScore, ShouldEqual, 50)
				So(rec.Recommendation, ShouldEqual, model.Maybe)
				So(rec.Adjustments, ShouldBeEmpty)
			})
		})

		Convey("When scoring a non-degraded empty fingerprint", func() {
			fp := model.FingerprintRecord{DetectedCMS: model.CMSNone}
			rec := engine.Score(fp)

			Convey("Then only the missing-header rule fires", func() {
				So(rec.TotalScore, ShouldEqual, 60)
				So(rec.Recommendation, ShouldEqual, model.Maybe)
				So(len(rec.Adjustments), ShouldEqual, 1)
			})
		})

		Convey("When the total is reproducible from base plus adjustments", func() {
			fp := model.FingerprintRecord{
				ServerBanner: "Apache/2.2.34",
				DetectedCMS:  model.CMSWordPress,
				CMSVersion:   "5.2",
			}
			rec := engine.Score(fp)

			sum := rec.BaseScore
			for _, adj := range rec.Adjustments {
				sum += adj.Delta
			}
			So(rec.TotalScore, ShouldEqual, sum)
		})
	})
}

func TestScoreDeterminism(t *testing.T) {
	Convey("Given two equal fingerprints", t, func() {
		engine := scoring.NewEngine()
		fp := model.FingerprintRecord{
			ServerBanner:          "nginx/1.18.0",
			DetectedCMS:           model.CMSWordPress,
			CMSVersion:            "5.8.1",
			VulnerablePluginCount: 1,
			PluginProbeRan:        true,
			ResponseStatus:        200,
		}

		Convey("When scored twice", func() {
			first := engine.Score(fp)
			second := engine.Score(fp)

			Convey("Then the records are identical", func() {
				So(reflect.DeepEqual(first, second), ShouldBeTrue)
			})
		})
	})
}

func TestVersionThreshold(t *testing.T) {
	Convey("Given an engine with current WordPress 6.0", t, func() {
		engine := scoring.NewEngine(scoring.WithCurrentWordPressVersion("6.0"))

		outdated := func(version string) bool {
			rec := engine.Score(model.FingerprintRecord{
				DetectedCMS: model.CMSWordPress,
				CMSVersion:  version,
			})
			for _, adj := range rec.Adjustments {
				if adj.Delta == 15 {
					return true
				}
			}
			return false
		}

		Convey("Then versions below the threshold count as outdated", func() {
			So(outdated("5.9.3"), ShouldBeTrue)
			So(outdated("4.9"), ShouldBeTrue)
		})

		Convey("Then the threshold itself and newer versions do not", func() {
			So(outdated("6.0"), ShouldBeFalse)
			So(outdated("6.4.2"), ShouldBeFalse)
		})

		Convey("Then garbage versions never count as outdated", func() {
			So(outdated("not-a-version"), ShouldBeFalse)
		})
	})
}

func TestThresholds(t *testing.T) {
	Convey("Given the fixed recommendation thresholds", t, func() {
		engine := scoring.NewEngine()

		recommendationFor := func(fp model.FingerprintRecord) model.Recommendation {
			return engine.Score(fp).Recommendation
		}

		Convey("Then 70 and above is CONTACT", func() {
			// 50 + 20 = 70
			So(recommendationFor(model.FingerprintRecord{
				DetectedCMS:     model.CMSWordPress,
				SecurityHeaders: []string{"X-Frame-Options"},
			}), ShouldEqual, model.Contact)
		})

		Convey("Then 50 to 69 is MAYBE", func() {
			So(recommendationFor(model.FingerprintRecord{
				DetectedCMS:     model.CMSNone,
				SecurityHeaders: []string{"X-Frame-Options"},
			}), ShouldEqual, model.Maybe)
		})
	})

	Convey("Given custom thresholds", t, func() {
		engine := scoring.NewEngine(scoring.WithThresholds(90, 60))

		Convey("Then the tiers move with them", func() {
			rec := engine.Score(model.FingerprintRecord{
				ServerBanner: "nginx",
				DetectedCMS:  model.CMSNone,
			})
			// 75 with default deltas, below the raised CONTACT bar.
			So(rec.TotalScore, ShouldEqual, 75)
			So(rec.Recommendation, ShouldEqual, model.Maybe)
		})
	})
}

func TestCustomConstants(t *testing.T) {
	Convey("Given overridden base and deltas", t, func() {
		engine := scoring.NewEngine(
			scoring.WithBaseScore(40),
			scoring.WithDeltas(30, 0, 0, 0, 0),
		)

		Convey("Then the overrides apply and unset deltas keep defaults", func() {
			rec := engine.Score(model.FingerprintRecord{
				DetectedCMS:     model.CMSWordPress,
				SecurityHeaders: []string{"X-Frame-Options"},
			})
			So(rec.BaseScore, ShouldEqual, 40)
			So(rec.TotalScore, ShouldEqual, 70)
		})
	})
}
