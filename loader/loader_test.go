package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/feedcast/feedcast/feed"
	"github.com/feedcast/feedcast/filesystem"
	"github.com/feedcast/feedcast/network"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

const showDocument = `{"feeds":[{"id":"f1","title":"Show","tracks":[{"id":"t1","title":"Ep1","audioUrl":"a.mp3"},{"id":"t2","title":"Ep2","audioUrl":"b.mp3"}]}]}`

func newServer(documents map[string]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		doc, ok := documents[r.URL.Path]
		if !ok {
			http.Error(w, "gone", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(doc))
	}))
}

func ids(feeds []*feed.Feed) []string {
	out := make([]string, len(feeds))
	for i, f := range feeds {
		out[i] = f.ID
	}
	return out
}

func TestLoadAll(t *testing.T) {
	Convey("Given a default feed and no custom feeds", t, func() {
		server := newServer(map[string]string{"/feed.json": showDocument})
		defer server.Close()

		result := New().LoadAll(context.Background(), server.URL+"/feed.json", nil)

		Convey("Then the catalog should hold one feed with two tracks", func() {
			So(result.Feeds, ShouldHaveLength, 1)
			So(result.Feeds[0].Title, ShouldEqual, "Show")
			So(result.Feeds[0].Tracks, ShouldHaveLength, 2)
			So(result.UsedFallback, ShouldBeFalse)
			So(result.Failures, ShouldBeEmpty)
		})

		Convey("Then default feeds should not carry a source url", func() {
			So(result.Feeds[0].SourceURL, ShouldBeEmpty)
		})
	})

	Convey("Given several custom feeds where some fail", t, func() {
		server := newServer(map[string]string{
			"/feed.json": showDocument,
			"/a.json":    `{"feeds":[{"id":"a1","title":"A1","tracks":[]},{"id":"a2","title":"A2","tracks":[]}]}`,
			"/b.json":    `{"feeds":[{"id":"b1","title":"B1","tracks":[]}]}`,
			"/bad.json":  `{"items":[]}`,
			"/junk.json": `{not json`,
		})
		defer server.Close()

		custom := []string{
			server.URL + "/b.json",
			server.URL + "/down.json",
			server.URL + "/a.json",
			server.URL + "/bad.json",
			server.URL + "/junk.json",
		}
		result := New().LoadAll(context.Background(), server.URL+"/feed.json", custom)

		Convey("Then the order should be default feeds then custom feeds in url order", func() {
			So(ids(result.Feeds), ShouldResemble, []string{"f1", "b1", "a1", "a2"})
		})

		Convey("Then every failing url should be reported once", func() {
			So(result.Failures, ShouldHaveLength, 3)
			So(result.Failures[0].URL, ShouldEqual, server.URL+"/down.json")
			So(errors.Is(result.Failures[1].Err, feed.ErrMissingFeeds), ShouldBeTrue)
			So(errors.Is(result.Failures[2].Err, feed.ErrMalformed), ShouldBeTrue)
		})

		Convey("Then custom feeds should be tagged with their url", func() {
			So(result.Feeds[1].SourceURL, ShouldEqual, server.URL+"/b.json")
			So(result.Feeds[3].SourceURL, ShouldEqual, server.URL+"/a.json")
		})
	})

	Convey("Given a custom feed colliding with the default feed", t, func() {
		server := newServer(map[string]string{
			"/feed.json": showDocument,
			"/dupe.json": `{"feeds":[{"id":"f1","title":"Impostor","tracks":[]},{"id":"n1","title":"New","tracks":[]}]}`,
		})
		defer server.Close()

		result := New().LoadAll(context.Background(), server.URL+"/feed.json", []string{server.URL + "/dupe.json"})

		Convey("Then only the colliding feed should be skipped", func() {
			So(ids(result.Feeds), ShouldResemble, []string{"f1", "n1"})
			So(result.Feeds[0].Title, ShouldEqual, "Show")
			So(result.Skipped, ShouldResemble, []string{"f1"})
		})
	})

	Convey("Given an unreachable default feed", t, func() {
		server := newServer(map[string]string{})
		defer server.Close()

		result := New().LoadAll(context.Background(), server.URL+"/feed.json", nil)

		Convey("Then the built-in feeds should be used", func() {
			So(result.UsedFallback, ShouldBeTrue)
			So(result.DefaultErr, ShouldNotBeNil)
			So(result.Feeds, ShouldNotBeEmpty)
			So(result.Feeds[0].Tracks, ShouldNotBeEmpty)
		})
	})

	Convey("Given custom sources that respond slowly", t, func() {
		var inFlight, peak int32
		read := func(ctx context.Context, source string) ([]byte, error) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(50 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return []byte(`{"feeds":[{"id":"` + source + `","title":"x","tracks":[]}]}`), nil
		}

		result := NewWithReader(read).LoadAll(context.Background(), "default", []string{"c1", "c2", "c3"})

		Convey("Then they should be fetched concurrently", func() {
			So(atomic.LoadInt32(&peak), ShouldBeGreaterThan, 1)
		})

		Convey("Then the merge order should still follow url order", func() {
			So(ids(result.Feeds), ShouldResemble, []string{"default", "c1", "c2", "c3"})
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given sources for an interactive add", t, func() {
		server := newServer(map[string]string{
			"/good.json":    showDocument,
			"/partial.json": `{"feeds":[{"id":"f1","title":"Show","tracks":[{"id":"t1","title":"Ep1"}]}]}`,
		})
		defer server.Close()
		l := New()

		Convey("When the document is complete", func() {
			feeds, err := l.Validate(context.Background(), server.URL+"/good.json")

			Convey("Then its feeds should be returned", func() {
				So(err, ShouldBeNil)
				So(feeds, ShouldHaveLength, 1)
			})
		})

		Convey("When the first track misses its media url", func() {
			_, err := l.Validate(context.Background(), server.URL+"/partial.json")

			Convey("Then the whole source should be rejected", func() {
				var verr *feed.ValidationError
				So(errors.As(err, &verr), ShouldBeTrue)
			})
		})

		Convey("When the source is unreachable", func() {
			_, err := l.Validate(context.Background(), server.URL+"/missing.json")

			Convey("Then a status error should be returned", func() {
				var status *network.StatusError
				So(errors.As(err, &status), ShouldBeTrue)
			})
		})
	})
}

func TestFetchSyndication(t *testing.T) {
	Convey("Given a podcast RSS source", t, func() {
		server := newServer(map[string]string{
			"/podcast.xml": `<?xml version="1.0"?><rss version="2.0"><channel><title>Pod</title>` +
				`<item><title>One</title><guid>one</guid><enclosure url="https://cdn.example.com/1.mp3" type="audio/mpeg" length="1"/></item>` +
				`</channel></rss>`,
		})
		defer server.Close()

		feeds, err := New().Fetch(context.Background(), server.URL+"/podcast.xml")

		Convey("Then it should be converted into a single feed", func() {
			So(err, ShouldBeNil)
			So(feeds, ShouldHaveLength, 1)
			So(feeds[0].ID, ShouldEqual, "pod")
			So(feeds[0].Tracks[0].AudioURL, ShouldEqual, "https://cdn.example.com/1.mp3")
		})
	})
}
