package history

import (
	"errors"
	"testing"

	"github.com/feedcast/feedcast/filesystem"
	"github.com/feedcast/feedcast/storage"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestCustomFeedURLs(t *testing.T) {
	Convey("Given an empty store", t, func() {
		backend := storage.NewMemory()
		store := New(backend)

		Convey("Then no custom urls should be returned", func() {
			So(store.CustomFeedURLs(), ShouldBeEmpty)
		})

		Convey("When saving urls", func() {
			err := store.SaveCustomFeedURLs([]string{"https://a.example/feed.json", "https://b.example/feed.json"})

			Convey("Then they should be returned in order", func() {
				So(err, ShouldBeNil)
				So(store.CustomFeedURLs(), ShouldResemble, []string{"https://a.example/feed.json", "https://b.example/feed.json"})
			})
		})

		Convey("When saving a list with an empty entry", func() {
			So(store.SaveCustomFeedURLs([]string{"https://a.example/feed.json"}), ShouldBeNil)
			err := store.SaveCustomFeedURLs([]string{"https://b.example/feed.json", "  "})

			Convey("Then it should be rejected without writing", func() {
				So(errors.Is(err, ErrInvalidFeedURLs), ShouldBeTrue)
				So(store.CustomFeedURLs(), ShouldResemble, []string{"https://a.example/feed.json"})
			})
		})

		Convey("When the stored value is corrupted", func() {
			So(backend.Set(KeyCustomFeedURLs, "{not json"), ShouldBeNil)

			Convey("Then an empty list should be returned", func() {
				So(store.CustomFeedURLs(), ShouldBeEmpty)
			})

			Convey("Then the corrupted key should be cleared", func() {
				store.CustomFeedURLs()
				_, ok := backend.Get(KeyCustomFeedURLs)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the stored value is json but not a list", func() {
			So(backend.Set(KeyCustomFeedURLs, "null"), ShouldBeNil)

			Convey("Then it should be treated as corrupted", func() {
				So(store.CustomFeedURLs(), ShouldBeEmpty)
				_, ok := backend.Get(KeyCustomFeedURLs)
				So(ok, ShouldBeFalse)
			})
		})
	})
}

func TestPlaybackState(t *testing.T) {
	Convey("Given a store", t, func() {
		backend := storage.NewMemory()
		store := New(backend)

		Convey("When nothing has been selected", func() {
			Convey("Then the last feed should be absent", func() {
				So(store.LastFeedID().IsPresent(), ShouldBeFalse)
			})

			Convey("Then the scope should be the default sentinel", func() {
				So(store.Scope(""), ShouldEqual, DefaultScope)
			})

			Convey("Then the playback rate should default to 1", func() {
				So(store.PlaybackRate(), ShouldEqual, 1)
			})
		})

		Convey("When saving a position", func() {
			So(store.SetPosition("f1", "t1", 42.5), ShouldBeNil)

			Convey("Then it should round-trip", func() {
				So(store.Position("f1", "t1"), ShouldEqual, 42.5)
				So(store.HasPosition("f1", "t1"), ShouldBeTrue)
			})

			Convey("Then it should use the feed-scoped key", func() {
				v, ok := backend.Get("audio_pos_f1_t1")
				So(ok, ShouldBeTrue)
				So(v, ShouldEqual, "42.5")
			})

			Convey("Then the same track id in another feed should be independent", func() {
				So(store.Position("f2", "t1"), ShouldEqual, 0)
				So(store.HasPosition("f2", "t1"), ShouldBeFalse)
			})
		})

		Convey("When the last feed is known", func() {
			So(store.SetLastFeedID("f9"), ShouldBeNil)
			So(store.SetLastTrackID("", "t3"), ShouldBeNil)

			Convey("Then unscoped keys should fall back to it", func() {
				So(store.Scope(""), ShouldEqual, "f9")
				So(store.LastTrackID("f9").MustGet(), ShouldEqual, "t3")
			})
		})

		Convey("When saving a playback rate", func() {
			So(store.SetPlaybackRate(1.5), ShouldBeNil)

			Convey("Then it should be returned", func() {
				So(store.PlaybackRate(), ShouldEqual, 1.5)
			})

			Convey("Then an invalid rate should be rejected", func() {
				So(store.SetPlaybackRate(0), ShouldNotBeNil)
				So(store.PlaybackRate(), ShouldEqual, 1.5)
			})
		})

		Convey("When a stored position is garbage", func() {
			So(backend.Set("audio_pos_f1_t1", "abc"), ShouldBeNil)

			Convey("Then the position should be zero", func() {
				So(store.Position("f1", "t1"), ShouldEqual, 0)
			})
		})

		Convey("When clearing the store", func() {
			So(store.SetLastFeedID("f1"), ShouldBeNil)
			So(store.Clear(), ShouldBeNil)

			Convey("Then everything should be forgotten", func() {
				So(store.LastFeedID().IsPresent(), ShouldBeFalse)
			})
		})
	})
}

func TestFileBackedRoundTrip(t *testing.T) {
	Convey("Given a file backed store with a saved position", t, func() {
		filesystem.SetMemMapFs()
		store := New(storage.NewFile("/state.json"))
		So(store.SetLastFeedID("f1"), ShouldBeNil)
		So(store.SetLastTrackID("f1", "t2"), ShouldBeNil)
		So(store.SetPosition("f1", "t2", 73.25), ShouldBeNil)

		Convey("When the application restarts", func() {
			reopened := New(storage.NewFile("/state.json"))

			Convey("Then the last track and position should be restored", func() {
				So(reopened.LastFeedID().MustGet(), ShouldEqual, "f1")
				So(reopened.LastTrackID("f1").MustGet(), ShouldEqual, "t2")
				So(reopened.Position("f1", "t2"), ShouldEqual, 73.25)
			})
		})
	})
}
