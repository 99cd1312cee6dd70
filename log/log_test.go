package log

import (
	"bytes"
	"testing"

	"github.com/feedcast/feedcast/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func TestLog(t *testing.T) {
	Convey("Given logging is disabled", t, func() {
		enabled = false

		Convey("When emitting an entry", func() {
			var buf bytes.Buffer
			configure(&buf)
			Infof("hidden %d", 1)

			Convey("Then nothing should be written", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})
	})

	Convey("Given logging to a buffer", t, func() {
		viper.Set(key.LogsLevel, "debug")
		var buf bytes.Buffer
		SetOutput(&buf)

		Convey("When emitting an entry with fields", func() {
			WithFields(Fields{"feed": "news"}).Warnf("feed %s skipped", "dup")

			Convey("Then the message and the fields should be written", func() {
				So(buf.String(), ShouldContainSubstring, "feed dup skipped")
				So(buf.String(), ShouldContainSubstring, "feed=news")
			})
		})

		Reset(func() {
			enabled = false
		})
	})
}
