package logger

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(Init(), ShouldBeNil)
		defer func() { So(Sync(), ShouldBeNil) }()

		Convey("Then the global logger is available", func() {
			So(Get(), ShouldNotBeNil)
			So(Named("test"), ShouldNotBeNil)
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithOutput(&buf)), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with typed fields", func() {
			Named("trainer").Info(ctx, "fit finished",
				String("target", "Survived"),
				Int("rows", 891),
				Bool("holdout", false),
				Duration("took", 1500*time.Millisecond),
				Error(errors.New("none")))

			Convey("Then the fields, group and caller are written", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "fit finished")
				So(out, ShouldContainSubstring, "trainer.target=Survived")
				So(out, ShouldContainSubstring, "trainer.rows=891")
				So(out, ShouldContainSubstring, "trainer.took=1.5s")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(ctx, "hidden")
			Get().Warn(ctx, "shown")
			So(buf.String(), ShouldNotContainSubstring, "hidden")
			So(buf.String(), ShouldContainSubstring, "shown")
			So(SetLevelString("info"), ShouldBeNil)
		})

		Convey("When the level name is unknown", func() {
			err := SetLevelString("loud")
			So(errors.Is(err, ErrUnknownLevel), ShouldBeTrue)
		})
	})
}
