package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/feedcast/feedcast/catalog"
	"github.com/feedcast/feedcast/history"
	"github.com/feedcast/feedcast/loader"
	"github.com/feedcast/feedcast/player"
	"github.com/feedcast/feedcast/storage"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	defaultURL = "https://feeds.example.com/feed.json"
	customURL  = "https://custom.example.com/more.json"
	brokenURL  = "https://broken.example.com/feed.json"

	defaultDoc = `{"feeds":[
		{"id":"a","title":"A","tracks":[
			{"id":"t1","title":"One","audioUrl":"https://x/1.mp3"},
			{"id":"t2","title":"Two","audioUrl":"https://x/2.mp3"}]},
		{"id":"b","title":"B","tracks":[
			{"id":"t1","title":"B One","audioUrl":"https://x/b1.mp3"},
			{"id":"t2","title":"B Two","audioUrl":"https://x/b2.mp3"}]}]}`

	customDoc = `{"feeds":[
		{"id":"c","title":"C","tracks":[{"id":"c1","title":"C One","audioUrl":"https://x/c1.mp3"}]},
		{"id":"a","title":"Impostor","tracks":[{"id":"z","title":"Z","audioUrl":"https://x/z.mp3"}]}]}`
)

type fakePlayer struct {
	mu        sync.Mutex
	loaded    []string
	pos       float64
	closed    bool
	observers []player.Observer
}

func (p *fakePlayer) Load(url, _ string, start float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded = append(p.loaded, url)
	p.pos = start
	return nil
}

func (p *fakePlayer) Play() error {
	p.emit(func(o player.Observer) { o.OnPlaybackStateChanged(true) })
	return nil
}

func (p *fakePlayer) Pause() error {
	p.emit(func(o player.Observer) { o.OnPlaybackStateChanged(false) })
	return nil
}

func (p *fakePlayer) Stop() error                { return nil }
func (p *fakePlayer) Seek(seconds float64) error { p.setPos(seconds); return nil }
func (p *fakePlayer) SetRate(float64) error      { return nil }

func (p *fakePlayer) TimePos() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos, nil
}

func (p *fakePlayer) Subscribe(o player.Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, o)
}

func (p *fakePlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePlayer) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePlayer) setPos(seconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pos = seconds
}

func (p *fakePlayer) emit(f func(player.Observer)) {
	p.mu.Lock()
	observers := append([]player.Observer(nil), p.observers...)
	p.mu.Unlock()
	for _, o := range observers {
		f(o)
	}
}

func (p *fakePlayer) lastLoaded() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.loaded) == 0 {
		return ""
	}
	return p.loaded[len(p.loaded)-1]
}

type documents struct {
	mu    sync.Mutex
	docs  map[string]string
	gates map[string]chan struct{}
}

func (d *documents) read(ctx context.Context, source string) ([]byte, error) {
	d.mu.Lock()
	gate := d.gates[source]
	delete(d.gates, source)
	doc, ok := d.docs[source]
	d.mu.Unlock()

	if gate != nil {
		gate <- struct{}{}
		<-gate
	}

	if !ok {
		return nil, errors.New("404 Not Found")
	}
	return []byte(doc), nil
}

func (d *documents) gate(source string) chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	gate := make(chan struct{})
	d.gates[source] = gate
	return gate
}

func (d *documents) set(source, doc string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.docs[source] = doc
}

type fixture struct {
	docs    *documents
	store   *history.Store
	primary *fakePlayer
	s       *Session
	cancel  context.CancelFunc
}

func newFixture() *fixture {
	fx := &fixture{
		docs: &documents{
			docs:  map[string]string{defaultURL: defaultDoc, customURL: customDoc},
			gates: map[string]chan struct{}{},
		},
		store:   history.New(storage.NewMemory()),
		primary: &fakePlayer{},
	}
	return fx
}

func (fx *fixture) start() {
	fx.s = New(Options{
		DefaultURL: defaultURL,
		Loader:     loader.NewWithReader(fx.docs.read),
		Store:      fx.store,
		Primary:    fx.primary,
	})

	var ctx context.Context
	ctx, fx.cancel = context.WithCancel(context.Background())
	go func() { _ = fx.s.Run(ctx) }()
}

func (fx *fixture) stop() {
	_ = fx.s.Close()
	fx.cancel()
}

func (fx *fixture) view() View {
	v, err := fx.s.View()
	So(err, ShouldBeNil)
	return v
}

func eventually(check func(View) bool, s *Session) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if v, err := s.View(); err == nil && check(v) {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return false
}

func drain(notices <-chan string) []string {
	var out []string
	for {
		select {
		case n := <-notices:
			out = append(out, n)
		default:
			return out
		}
	}
}

func TestStart(t *testing.T) {
	Convey("Given a default document and a stored custom url", t, func() {
		fx := newFixture()
		So(fx.store.SaveCustomFeedURLs([]string{customURL}), ShouldBeNil)
		fx.start()
		defer fx.stop()

		So(fx.s.Start(context.Background()), ShouldBeNil)
		v := fx.view()

		Convey("Then default feeds should come first and colliding custom feeds be dropped", func() {
			So(v.Feeds, ShouldHaveLength, 3)
			So(v.Feeds[0].ID, ShouldEqual, "a")
			So(v.Feeds[0].Title, ShouldEqual, "A")
			So(v.Feeds[1].ID, ShouldEqual, "b")
			So(v.Feeds[2].ID, ShouldEqual, "c")
			So(v.Feeds[2].SourceURL, ShouldEqual, customURL)
		})

		Convey("Then the first feed should be selected with nothing loaded", func() {
			So(v.CurrentFeedID, ShouldEqual, "a")
			So(v.Tracks, ShouldHaveLength, 2)
			So(v.Playback.Loaded(), ShouldBeFalse)
			So(v.Loading, ShouldBeFalse)
		})
	})

	Convey("Given a previous session on feed b track t2", t, func() {
		fx := newFixture()
		So(fx.store.SetLastFeedID("b"), ShouldBeNil)
		So(fx.store.SetLastTrackID("b", "t2"), ShouldBeNil)
		So(fx.store.SetPosition("b", "t2", 12), ShouldBeNil)
		So(fx.store.SetPlaybackRate(1.25), ShouldBeNil)
		fx.start()
		defer fx.stop()

		So(fx.s.Start(context.Background()), ShouldBeNil)
		v := fx.view()

		Convey("Then the track should be restored paused at its position", func() {
			So(v.CurrentFeedID, ShouldEqual, "b")
			So(v.Playback.TrackID, ShouldEqual, "t2")
			So(v.Playback.Playing, ShouldBeFalse)
			So(v.Playback.Elapsed, ShouldEqual, "0:12")
			So(v.Playback.Rate, ShouldEqual, 1.25)
			So(fx.primary.lastLoaded(), ShouldEqual, "https://x/b2.mp3")
		})
	})

	Convey("Given an unreachable default source and a broken custom url", t, func() {
		fx := newFixture()
		fx.docs.set(defaultURL, "{not json")
		So(fx.store.SaveCustomFeedURLs([]string{brokenURL}), ShouldBeNil)
		fx.start()
		defer fx.stop()

		So(fx.s.Start(context.Background()), ShouldBeNil)
		v := fx.view()

		Convey("Then the built-in feeds should be shown and both failures reported", func() {
			So(v.UsedFallback, ShouldBeTrue)
			So(v.Feeds, ShouldNotBeEmpty)
			So(v.Failures, ShouldHaveLength, 1)
			So(v.Failures[0].URL, ShouldEqual, brokenURL)
			So(drain(fx.s.Notices()), ShouldHaveLength, 2)
		})
	})
}

func TestReloadGeneration(t *testing.T) {
	Convey("Given a reload overtaken by a newer one", t, func() {
		fx := newFixture()
		gate := make(chan struct{})
		fx.docs.gates[defaultURL] = gate
		fx.start()
		defer fx.stop()

		first := make(chan error, 1)
		go func() { first <- fx.s.ReloadAll(context.Background()) }()
		<-gate

		fx.docs.set(defaultURL, `{"feeds":[{"id":"new","title":"New","tracks":[]}]}`)
		So(fx.s.ReloadAll(context.Background()), ShouldBeNil)

		gate <- struct{}{}
		So(<-first, ShouldBeNil)

		Convey("Then the stale result should be discarded", func() {
			v := fx.view()
			So(v.Feeds, ShouldHaveLength, 1)
			So(v.Feeds[0].ID, ShouldEqual, "new")
		})
	})
}

func TestEditDuringReload(t *testing.T) {
	Convey("Given a reload waiting on the default document", t, func() {
		fx := newFixture()
		fx.start()
		defer fx.stop()

		gate := fx.docs.gate(defaultURL)

		reload := make(chan error, 1)
		go func() { reload <- fx.s.ReloadAll(context.Background()) }()
		<-gate

		Convey("When a url is added before it finishes", func() {
			_, err := fx.s.AddFeedByURL(context.Background(), customURL)
			So(err, ShouldBeNil)

			gate <- struct{}{}
			So(<-reload, ShouldBeNil)

			Convey("Then the added feeds should survive the reload", func() {
				v := fx.view()
				So(v.Feeds, ShouldHaveLength, 3)
				So(v.Feeds[2].ID, ShouldEqual, "c")
				So(v.Feeds[2].SourceURL, ShouldEqual, customURL)
				So(v.CustomURLs, ShouldResemble, []string{customURL})
			})
		})
	})

	Convey("Given a stored url and a reload waiting on the default document", t, func() {
		fx := newFixture()
		So(fx.store.SaveCustomFeedURLs([]string{customURL}), ShouldBeNil)
		fx.start()
		defer fx.stop()
		So(fx.s.Start(context.Background()), ShouldBeNil)

		gate := fx.docs.gate(defaultURL)

		reload := make(chan error, 1)
		go func() { reload <- fx.s.ReloadAll(context.Background()) }()
		<-gate

		Convey("When the url is removed before it finishes", func() {
			_, err := fx.s.RemoveFeedByURL(customURL)
			So(err, ShouldBeNil)

			gate <- struct{}{}
			So(<-reload, ShouldBeNil)

			Convey("Then its feeds should not come back", func() {
				v := fx.view()
				So(v.Feeds, ShouldHaveLength, 2)
				So(lo.ContainsBy(v.Feeds, func(f catalog.FeedSummary) bool { return f.ID == "c" }), ShouldBeFalse)
				So(v.CustomURLs, ShouldBeEmpty)
			})
		})
	})
}

func TestAddAndRemoveFeed(t *testing.T) {
	Convey("Given a started session", t, func() {
		fx := newFixture()
		fx.start()
		defer fx.stop()
		So(fx.s.Start(context.Background()), ShouldBeNil)
		drain(fx.s.Notices())

		Convey("When adding malformed input", func() {
			_, emptyErr := fx.s.AddFeedByURL(context.Background(), "   ")
			_, invalidErr := fx.s.AddFeedByURL(context.Background(), "not a url")

			Convey("Then it should be rejected before fetching", func() {
				So(errors.Is(emptyErr, ErrEmptyURL), ShouldBeTrue)
				So(errors.Is(invalidErr, ErrInvalidURL), ShouldBeTrue)
				So(fx.store.CustomFeedURLs(), ShouldBeEmpty)
			})
		})

		Convey("When adding a url that does not validate", func() {
			_, err := fx.s.AddFeedByURL(context.Background(), brokenURL)

			Convey("Then nothing should be stored", func() {
				So(err, ShouldNotBeNil)
				So(fx.store.CustomFeedURLs(), ShouldBeEmpty)
				So(fx.view().Feeds, ShouldHaveLength, 2)
			})
		})

		Convey("When adding a valid url", func() {
			result, err := fx.s.AddFeedByURL(context.Background(), "  "+customURL+" ")

			Convey("Then new feeds should be appended and collisions skipped", func() {
				So(err, ShouldBeNil)
				So(result.AddedIDs, ShouldResemble, []string{"c"})
				So(result.SkippedDuplicateIDs, ShouldResemble, []string{"a"})
				So(fx.store.CustomFeedURLs(), ShouldResemble, []string{customURL})
				So(fx.view().Feeds, ShouldHaveLength, 3)
				So(drain(fx.s.Notices()), ShouldResemble, []string{"Feed added successfully, 1 new feed, 1 duplicate skipped"})
			})

			Convey("When adding it again", func() {
				_, err = fx.s.AddFeedByURL(context.Background(), customURL)

				Convey("Then it should be rejected as a duplicate", func() {
					So(errors.Is(err, ErrDuplicateURL), ShouldBeTrue)
				})
			})

			Convey("When removing it while its feed is selected", func() {
				So(fx.s.SelectFeed("c"), ShouldBeNil)
				removed, err := fx.s.RemoveFeedByURL(customURL)

				Convey("Then its feeds should be gone and the selection moved", func() {
					So(err, ShouldBeNil)
					So(removed, ShouldEqual, 1)
					v := fx.view()
					So(v.Feeds, ShouldHaveLength, 2)
					So(v.CurrentFeedID, ShouldEqual, "a")
					So(v.CustomURLs, ShouldBeEmpty)
				})
			})
		})

		Convey("When removing an unknown url", func() {
			_, err := fx.s.RemoveFeedByURL(customURL)

			Convey("Then it should be reported", func() {
				So(errors.Is(err, ErrUnknownURL), ShouldBeTrue)
			})
		})
	})
}

func TestPlaybackCommands(t *testing.T) {
	Convey("Given a started session", t, func() {
		fx := newFixture()
		fx.start()
		defer fx.stop()
		So(fx.s.Start(context.Background()), ShouldBeNil)

		Convey("When selecting a track", func() {
			So(fx.s.SelectTrack("t2"), ShouldBeNil)

			Convey("Then the engine's play event should reach the read model", func() {
				So(fx.primary.lastLoaded(), ShouldEqual, "https://x/2.mp3")
				So(eventually(func(v View) bool { return v.Playback.Playing }, fx.s), ShouldBeTrue)
			})

			Convey("When switching feeds", func() {
				So(fx.s.SelectFeed("b"), ShouldBeNil)

				Convey("Then playback should stop", func() {
					So(fx.view().Playback.Loaded(), ShouldBeFalse)
				})
			})

			Convey("When selecting an unknown feed", func() {
				err := fx.s.SelectFeed("zzz")

				Convey("Then the selection should be reset", func() {
					So(err, ShouldNotBeNil)
					So(fx.view().CurrentFeedID, ShouldBeEmpty)
				})
			})

			Convey("When moving to the next track", func() {
				So(fx.s.Next(), ShouldBeNil)

				Convey("Then it should wrap around", func() {
					So(fx.view().Playback.TrackID, ShouldEqual, "t1")
				})
			})

			Convey("When changing the rate", func() {
				So(fx.s.SetRate(1.75), ShouldBeNil)

				Convey("Then it should be persisted", func() {
					So(fx.store.PlaybackRate(), ShouldEqual, 1.75)
				})
			})
		})

		Convey("When the session closes with a track loaded", func() {
			So(fx.s.SelectTrack("t1"), ShouldBeNil)
			fx.primary.setPos(33)
			So(fx.s.Close(), ShouldBeNil)

			Convey("Then the position should be flushed and the player closed", func() {
				So(fx.store.Position("a", "t1"), ShouldEqual, 33)
				So(fx.primary.isClosed(), ShouldBeTrue)
			})

			Convey("Then further commands should fail", func() {
				So(errors.Is(fx.s.TogglePlayPause(), ErrClosed), ShouldBeTrue)
			})
		})
	})
}

func TestClearState(t *testing.T) {
	Convey("Given a session with a custom feed and saved progress", t, func() {
		fx := newFixture()
		So(fx.store.SaveCustomFeedURLs([]string{customURL}), ShouldBeNil)
		fx.start()
		defer fx.stop()
		So(fx.s.Start(context.Background()), ShouldBeNil)
		So(fx.s.SelectTrack("t1"), ShouldBeNil)

		Convey("When clearing the state", func() {
			So(fx.s.ClearState(context.Background()), ShouldBeNil)
			v := fx.view()

			Convey("Then only the default feeds should remain and nothing be persisted", func() {
				So(v.Feeds, ShouldHaveLength, 2)
				So(v.CustomURLs, ShouldBeEmpty)
				So(v.Playback.Loaded(), ShouldBeFalse)
				So(fx.store.LastTrackID("a").IsPresent(), ShouldBeFalse)
			})
		})
	})
}
