package filesystem

import (
	"os"
	"testing"

	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func TestApi(t *testing.T) {
	Convey("Filesystem API", t, func() {
		Convey("Should default to OsFs", func() {
			SetOsFs()
			fs := API()
			So(fs, ShouldNotBeNil)
			So(fs.Name(), ShouldEqual, "OsFs")
		})

		Convey("Should switch to MemMapFs", func() {
			SetMemMapFs()
			fs := API()
			So(fs, ShouldNotBeNil)
			So(fs.Name(), ShouldEqual, "MemMapFS")
		})
	})
}

func TestWriteFileAtomic(t *testing.T) {
	Convey("Given an in-memory filesystem", t, func() {
		SetMemMapFs()

		Convey("When writing a file in a missing directory", func() {
			err := WriteFileAtomic("/data/feeds/feed.json", []byte(`{"feeds":[]}`), 0644)

			Convey("Then the error should be nil", func() {
				So(err, ShouldBeNil)
			})

			Convey("Then the file should hold the data", func() {
				So(string(lo.Must(API().ReadFile("/data/feeds/feed.json"))), ShouldEqual, `{"feeds":[]}`)
			})

			Convey("Then no temporary file should remain", func() {
				entries := lo.Must(API().ReadDir("/data/feeds"))
				So(entries, ShouldHaveLength, 1)
			})
		})

		Convey("When overwriting an existing file", func() {
			So(API().WriteFile("/feed.json", []byte("old"), os.ModePerm), ShouldBeNil)
			So(WriteFileAtomic("/feed.json", []byte("new"), 0644), ShouldBeNil)

			Convey("Then the new content should replace the old", func() {
				So(string(lo.Must(API().ReadFile("/feed.json"))), ShouldEqual, "new")
			})
		})
	})
}
