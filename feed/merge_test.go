package feed

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMerge(t *testing.T) {
	Convey("Given an existing catalog", t, func() {
		show := &Feed{ID: "f1", Title: "Show"}
		existing := []*Feed{show}

		Convey("When merging a colliding feed", func() {
			result := Merge(existing, []*Feed{{ID: "f1", Title: "Impostor"}}, "https://example.com/x.json")

			Convey("Then nothing should be added", func() {
				So(result.Added, ShouldBeEmpty)
				So(result.Skipped, ShouldResemble, []string{"f1"})
				So(result.Feeds, ShouldHaveLength, 1)
				So(result.Feeds[0].Title, ShouldEqual, "Show")
			})
		})

		Convey("When merging new feeds from a url", func() {
			result := Merge(existing, []*Feed{{ID: "f2"}, {ID: "f3"}, {ID: "f2"}}, "https://example.com/x.json")

			Convey("Then they should be appended in order and tagged", func() {
				So(result.Added, ShouldResemble, []string{"f2", "f3"})
				So(result.Skipped, ShouldResemble, []string{"f2"})
				So(result.Feeds[1].SourceURL, ShouldEqual, "https://example.com/x.json")
				So(result.Feeds[2].ID, ShouldEqual, "f3")
			})

			Convey("Then the existing slice should be untouched", func() {
				So(existing, ShouldHaveLength, 1)
			})
		})

		Convey("When merging default feeds without a source url", func() {
			result := Merge(nil, []*Feed{{ID: "d1"}}, "")

			Convey("Then no source url should be set", func() {
				So(result.Feeds[0].SourceURL, ShouldBeEmpty)
			})
		})
	})
}

func TestImport(t *testing.T) {
	Convey("Given a target document with one feed", t, func() {
		target := &Document{Feeds: []*Feed{
			{ID: "f1", Title: "Show", Tracks: []*Track{{ID: "t1"}}},
		}}
		source := &Document{Feeds: []*Feed{
			{ID: "f1", Title: "Show v2", Tracks: []*Track{{ID: "t1"}, {ID: "t2"}, {ID: ""}}},
			{ID: "", Title: "Nameless"},
			{ID: "f2", Title: "Other"},
		}}

		Convey("When importing without replace", func() {
			entries := Import(target, source, false)

			Convey("Then new tracks should be merged into the existing feed", func() {
				So(target.Feeds[0].Title, ShouldEqual, "Show")
				So(target.Feeds[0].Tracks, ShouldHaveLength, 2)
				So(entries[0].Action, ShouldEqual, ImportMerged)
				So(entries[0].AddedTracks, ShouldResemble, []string{"t2"})
				So(entries[0].ExistedTracks, ShouldResemble, []string{"t1"})
				So(entries[0].SkippedTracks, ShouldEqual, 1)
			})

			Convey("Then feeds without an id should be skipped", func() {
				So(entries[1].Action, ShouldEqual, ImportSkipped)
			})

			Convey("Then new feeds should be appended", func() {
				So(target.Feeds, ShouldHaveLength, 2)
				So(target.Feeds[1].ID, ShouldEqual, "f2")
				So(target.Feeds[1].Tracks, ShouldNotBeNil)
				So(entries[2].Action, ShouldEqual, ImportAdded)
			})
		})

		Convey("When importing with replace", func() {
			entries := Import(target, source, true)

			Convey("Then the existing feed should be replaced", func() {
				So(target.Feeds[0].Title, ShouldEqual, "Show v2")
				So(entries[0].Action, ShouldEqual, ImportReplaced)
			})
		})
	})
}
