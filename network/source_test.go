package network

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/feedcast/feedcast/constant"
	"github.com/feedcast/feedcast/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSources(t *testing.T) {
	Convey("Source classification", t, func() {
		So(IsRemote("https://example.com/feed.json"), ShouldBeTrue)
		So(IsRemote("/home/me/feed.json"), ShouldBeFalse)

		path, ok := LocalPath("file:///srv/feed.json")
		So(ok, ShouldBeTrue)
		So(path, ShouldEqual, "/srv/feed.json")

		_, ok = LocalPath("https://example.com/feed.json")
		So(ok, ShouldBeFalse)

		_, ok = LocalPath("ftp://example.com/feed.json")
		So(ok, ShouldBeFalse)
	})
}

func TestRead(t *testing.T) {
	Convey("Given a feed server", t, func() {
		var agent string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			agent = r.UserAgent()
			switch r.URL.Path {
			case "/feed.json":
				_, _ = w.Write([]byte(`{"feeds":[]}`))
			case "/huge.json":
				_, _ = w.Write([]byte(strings.Repeat("x", MaxDocumentSize+10)))
			default:
				http.NotFound(w, r)
			}
		}))
		defer server.Close()

		Convey("When reading an existing document", func() {
			data, err := Read(context.Background(), server.URL+"/feed.json")

			Convey("Then the body should be returned", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, `{"feeds":[]}`)
			})

			Convey("Then the user agent should be set", func() {
				So(agent, ShouldEqual, constant.UserAgent)
			})
		})

		Convey("When the server answers 404", func() {
			_, err := Read(context.Background(), server.URL+"/missing.json")

			Convey("Then a status error should be returned", func() {
				var status *StatusError
				So(errors.As(err, &status), ShouldBeTrue)
				So(status.Status, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the document is too large", func() {
			_, err := Read(context.Background(), server.URL+"/huge.json")

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, ErrTooLarge), ShouldBeTrue)
			})
		})
	})

	Convey("Given a local document", t, func() {
		So(filesystem.API().WriteFile("/feeds/local.json", []byte(`{"feeds":[]}`), 0644), ShouldBeNil)

		Convey("When reading it by path", func() {
			data, err := Read(context.Background(), "/feeds/local.json")

			Convey("Then its content should be returned", func() {
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, `{"feeds":[]}`)
			})
		})

		Convey("When reading a missing path", func() {
			_, err := Read(context.Background(), "/feeds/none.json")

			Convey("Then an error should be returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
