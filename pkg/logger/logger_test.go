package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given a text logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf)), ShouldBeNil)
		defer func() { So(Sync(), ShouldBeNil) }()

		Convey("When logging an info message", func() {
			Get().Info(context.Background(), "participant scored", String("player", "alice"), Float64("score", 7.5))

			Convey("Then the fields and the caller should be rendered", func() {
				out := buf.String()
				So(out, ShouldContainSubstring, "participant scored")
				So(out, ShouldContainSubstring, "player=alice")
				So(out, ShouldContainSubstring, "score=7.5")
				So(out, ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised to warn", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(context.Background(), "hidden")
			Get().Warn(context.Background(), "visible")

			Convey("Then info messages should be dropped", func() {
				So(buf.String(), ShouldNotContainSubstring, "hidden")
				So(buf.String(), ShouldContainSubstring, "visible")
			})
		})

		Convey("When using a named logger", func() {
			Named("matcher").Info(context.Background(), "anchor sampled", Int("candidates", 6))

			Convey("Then fields should be grouped under the name", func() {
				So(buf.String(), ShouldContainSubstring, "matcher.candidates=6")
			})
		})
	})
}

func TestLoggerJSON(t *testing.T) {
	Convey("Given a json logger without source", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf), WithFormat("json"), WithSource(false)), ShouldBeNil)

		Get().With(String("run", "r1")).Error(context.Background(), "boom", Strings("pool", []string{"a", "b"}))

		Convey("Then every line should be valid json", func() {
			var line map[string]any
			So(json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &line), ShouldBeNil)
			So(line["msg"], ShouldEqual, "boom")
			So(line["run"], ShouldEqual, "r1")
			So(line, ShouldNotContainKey, "source")
		})
	})

	Convey("Given an unknown format", t, func() {
		So(Init(WithFormat("xml")), ShouldNotBeNil)
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		for _, lvl := range []string{"debug", "info", "", "warn", "WARNING", "error"} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
		So(SetLevelString("info"), ShouldBeNil)
	})
}

func TestNop(t *testing.T) {
	Convey("Nop should accept every call without output or panic", t, func() {
		l := Nop().Named("x").With(Int("k", 1))
		So(func() {
			l.Debug(context.Background(), "d")
			l.Info(context.Background(), "i")
			l.Warn(context.Background(), "w")
			l.Error(context.Background(), "e")
		}, ShouldNotPanic)
	})
}
