package logger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/amosroger91/prospector/pkg/logger"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("When fetching and naming loggers", func() {
			log := logger.Get()
			So(log, ShouldNotBeNil)

			named := logger.Named("pipeline")
			So(named, ShouldNotBeNil)

			Convey("Then logging at every level does not panic", func() {
				ctx := context.Background()
				So(func() {
					named.Debug(ctx, "debug message", logger.String("k", "v"))
					named.Info(ctx, "info message", logger.Int("count", 3))
					named.Warn(ctx, "warn message", logger.Duration("took", time.Second))
					named.Error(ctx, "error message", logger.Error(errors.New("boom")))
				}, ShouldNotPanic)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("Then known names parse", func() {
			for _, level := range []string{"debug", "info", "warn", "warning", "error", "INFO", " Error ", ""} {
				So(logger.SetLevelString(level), ShouldBeNil)
			}
		})

		Convey("Then unknown names error", func() {
			So(logger.SetLevelString("loud"), ShouldNotBeNil)
		})
	})
}

func TestFieldConstructors(t *testing.T) {
	Convey("Given the field helpers", t, func() {
		Convey("Then each carries its key and value", func() {
			So(logger.String("a", "b"), ShouldResemble, logger.Field{Key: "a", Value: "b"})
			So(logger.Int("n", 7).Value, ShouldEqual, 7)
			So(logger.Float64("f", 1.5).Value, ShouldEqual, 1.5)
			So(logger.Any("x", []int{1}).Key, ShouldEqual, "x")

			err := errors.New("boom")
			f := logger.Error(err)
			So(f.Key, ShouldEqual, "error")
			So(f.Value, ShouldEqual, err)
		})
	})
}
