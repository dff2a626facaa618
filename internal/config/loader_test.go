package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/amosroger91/prospector/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	Convey("Given no file and no environment overrides", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then the defaults come through", func() {
			So(err, ShouldBeNil)
			So(cfg.LogLevel, ShouldEqual, "info")
			So(cfg.ProbeTimeoutMS, ShouldEqual, 5000)
			So(cfg.ProbesPerSecond, ShouldEqual, 2)
			So(cfg.MaxRedirects, ShouldEqual, 5)
			So(cfg.ContactThreshold, ShouldEqual, 70)
			So(cfg.MaybeThreshold, ShouldEqual, 50)
			So(cfg.InputCSV, ShouldEqual, "business_data/candidates.csv")
			So(len(cfg.SecurityHeaders), ShouldEqual, 5)
		})
	})
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PROSPECTOR_WORKER_COUNT", "3")
	t.Setenv("PROSPECTOR_PROBE_TIMEOUT_MS", "1500")
	t.Setenv("PROSPECTOR_LOG_LEVEL", "debug")
	t.Setenv("PROSPECTOR_PLUGIN_PROBE", "true")

	Convey("Given environment overrides", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then only the named knobs change", func() {
			So(err, ShouldBeNil)
			So(cfg.WorkerCount, ShouldEqual, 3)
			So(cfg.ProbeTimeoutMS, ShouldEqual, 1500)
			So(cfg.LogLevel, ShouldEqual, "debug")
			So(cfg.PluginProbe, ShouldBeTrue)
			So(cfg.MaxRedirects, ShouldEqual, 5)
		})
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prospector.yaml")
	yaml := `log_level: warn
worker_count: 2
output_csv: out.csv
chain_keywords:
  - subway
  - starbucks
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PROSPECTOR_CONFIG", path)

	Convey("Given a YAML config file", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then file values layer over defaults", func() {
			So(err, ShouldBeNil)
			So(cfg.LogLevel, ShouldEqual, "warn")
			So(cfg.WorkerCount, ShouldEqual, 2)
			So(cfg.OutputCSV, ShouldEqual, "out.csv")
			So(cfg.ChainKeywords, ShouldResemble, []string{"subway", "starbucks"})
		})
	})
}

func TestLoadFileEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prospector.yaml")
	if err := os.WriteFile(path, []byte("log_level: warn\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PROSPECTOR_CONFIG", path)
	t.Setenv("PROSPECTOR_LOG_LEVEL", "error")

	Convey("Given both a file value and an env override", t, func() {
		cfg, err := config.Load(context.Background())

		Convey("Then env beats the file", func() {
			So(err, ShouldBeNil)
			So(cfg.LogLevel, ShouldEqual, "error")
		})
	})
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("PROSPECTOR_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	Convey("Given a config path that does not exist", t, func() {
		_, err := config.Load(context.Background())

		So(err, ShouldWrap, config.ErrLoadConfig)
	})
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("PROSPECTOR_WORKER_COUNT", "0")

	Convey("Given a worker count of zero", t, func() {
		_, err := config.Load(context.Background())

		So(err, ShouldWrap, config.ErrInvalidConfig)
	})
}

func TestLoadThresholdValidation(t *testing.T) {
	t.Setenv("PROSPECTOR_CONTACT_THRESHOLD", "40")

	Convey("Given inverted recommendation thresholds", t, func() {
		_, err := config.Load(context.Background())

		So(err, ShouldWrap, config.ErrInvalidConfig)
	})
}

func TestNewDefaults(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		cfg := config.New()

		Convey("Then the scoring constants match the rule table", func() {
			So(cfg.WorkerCount, ShouldBeGreaterThanOrEqualTo, 1)
			So(cfg.ContactThreshold, ShouldBeGreaterThan, cfg.MaybeThreshold)
			So(cfg.BaseScore, ShouldEqual, 50)
			So(cfg.WordPressDelta, ShouldEqual, 20)
			So(cfg.ServerBannerDelta, ShouldEqual, 15)
			So(cfg.VulnerablePluginDelta, ShouldEqual, 25)
			So(cfg.OutdatedVersionDelta, ShouldEqual, 15)
			So(cfg.NoSecurityHeadersDelta, ShouldEqual, 10)
		})

		Convey("Then the plugin probe is opt-in", func() {
			So(cfg.PluginProbe, ShouldBeFalse)
		})
	})
}
