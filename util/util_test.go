package util

import (
	"math"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSlug(t *testing.T) {
	Convey("Slug", t, func() {
		Convey("Should lowercase and dash separate words", func() {
			So(Slug("The Daily Show"), ShouldEqual, "the-daily-show")
		})
		Convey("Should collapse punctuation runs", func() {
			So(Slug("Ep. 12: Pilot!!"), ShouldEqual, "ep-12-pilot")
		})
		Convey("Should trim separators", func() {
			So(Slug("--news--"), ShouldEqual, "news")
		})
	})
}

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "feed", "feeds"), ShouldEqual, "1 feed")
		So(Quantify(2, "feed", "feeds"), ShouldEqual, "2 feeds")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("hello"), ShouldEqual, "Hello")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestFileStem(t *testing.T) {
	Convey("FileStem", t, func() {
		So(FileStem("path/to/file.txt"), ShouldEqual, "file")
		So(FileStem("file"), ShouldEqual, "file")
	})
}

func TestMaxMin(t *testing.T) {
	Convey("Max/Min", t, func() {
		So(Max(1, 5, 2), ShouldEqual, 5)
		So(Min(1, 5, 2), ShouldEqual, 1)
	})
}

func TestStack(t *testing.T) {
	Convey("Stack", t, func() {
		var s Stack[int]
		s.Push(1)
		s.Push(2)
		So(s.Len(), ShouldEqual, 2)
		So(s.Peek(), ShouldEqual, 2)
		So(s.Pop(), ShouldEqual, 2)
		So(s.Pop(), ShouldEqual, 1)
		So(s.Pop(), ShouldEqual, 0)
	})
}

func TestFormatTime(t *testing.T) {
	Convey("FormatTime", t, func() {
		Convey("Should pad seconds to two digits", func() {
			So(FormatTime(0), ShouldEqual, "0:00")
			So(FormatTime(5), ShouldEqual, "0:05")
			So(FormatTime(65.9), ShouldEqual, "1:05")
		})
		Convey("Should not wrap minutes into hours", func() {
			So(FormatTime(3725), ShouldEqual, "62:05")
		})
		Convey("Should treat invalid input as zero", func() {
			So(FormatTime(-4), ShouldEqual, "0:00")
			So(FormatTime(math.NaN()), ShouldEqual, "0:00")
			So(FormatTime(math.Inf(1)), ShouldEqual, "0:00")
		})
	})

	Convey("FormatDuration", t, func() {
		So(FormatDuration(0), ShouldEqual, UnknownDuration)
		So(FormatDuration(math.NaN()), ShouldEqual, UnknownDuration)
		So(FormatDuration(125), ShouldEqual, "2:05")
	})

	Convey("Percent", t, func() {
		So(Percent(30, 120), ShouldEqual, 25)
		So(Percent(30, 0), ShouldEqual, 0)
		So(Percent(200, 100), ShouldEqual, 100)
	})
}
