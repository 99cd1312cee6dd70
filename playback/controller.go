// Package playback drives the media transports through track changes, seeks,
// speed changes and end-of-track transitions while keeping persisted progress in sync.
package playback

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/feedcast/feedcast/feed"
	"github.com/feedcast/feedcast/history"
	"github.com/feedcast/feedcast/log"
	"github.com/feedcast/feedcast/player"
	"github.com/feedcast/feedcast/storage"
)

const (
	// SettleDelay is the pause between the end of a track and loading the next one.
	SettleDelay = 500 * time.Millisecond

	// DriftThreshold is how far, in seconds, the video transport may lag before it is re-seeked.
	DriftThreshold = 0.2
)

var (
	// ErrTrackNotFound is returned when a track id is not in the current feed.
	ErrTrackNotFound = errors.New("track not found")

	// ErrInvalidRate is returned for non-positive or non-finite playback rates.
	ErrInvalidRate = errors.New("playback rate must be a positive number")
)

// TrackSource exposes the current feed selection.
type TrackSource interface {
	CurrentFeedID() string
	CurrentTracks() []*feed.Track
}

// Scheduler runs f after d. The returned function cancels a pending run.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (cancel func())
}

// Options configures a Controller.
type Options struct {
	Source TrackSource
	Store  *history.Store

	// Primary is the audio transport and the timing authority.
	Primary player.Player

	// Secondary, when set, shows video tracks and follows the primary.
	Secondary player.Player

	// Dispatch moves player events and timers onto the goroutine owning the controller.
	// When nil they are delivered in place.
	Dispatch func(func())

	// Scheduler defaults to time.AfterFunc routed through Dispatch.
	Scheduler Scheduler

	// OnChange is called after every state change.
	OnChange func()

	// OnNotice receives transient user-facing messages.
	OnNotice func(message string)
}

type progress struct {
	position float64
	duration float64
}

// Controller owns the playback state. It is not safe for concurrent use,
// every method and player event must run on one goroutine.
type Controller struct {
	opts Options

	feedID  string
	track   *feed.Track
	kind    feed.MediaKind
	playing bool

	position float64
	duration float64
	rate     float64

	seeking   bool
	seekValue float64

	video bool

	// unloaded is set once the engine dropped the media, at its end or on failure.
	unloaded bool

	generation    int
	cancelAdvance func()

	// media is bumped around every transport load so queued events of replaced media are dropped.
	media player.Generation

	seen map[string]progress
}

// New returns a controller subscribed to the transports in opts.
func New(opts Options) *Controller {
	c := &Controller{
		opts: opts,
		rate: 1,
		seen: make(map[string]progress),
	}

	if c.opts.Scheduler == nil {
		c.opts.Scheduler = timerScheduler{dispatch: opts.Dispatch}
	}
	if c.opts.Store == nil {
		c.opts.Store = history.New(storage.NewMemory())
	}
	c.rate = c.opts.Store.PlaybackRate()

	var primary player.Observer = c
	var secondary player.Observer = (*videoEvents)(c)
	if opts.Dispatch != nil {
		primary = player.Dispatch(primary, opts.Dispatch, &c.media)
		secondary = player.Dispatch(secondary, opts.Dispatch, &c.media)
	}

	opts.Primary.Subscribe(primary)
	if opts.Secondary != nil {
		opts.Secondary.Subscribe(secondary)
	}

	return c
}

type timerScheduler struct {
	dispatch func(func())
}

func (s timerScheduler) AfterFunc(d time.Duration, f func()) func() {
	run := f
	if s.dispatch != nil {
		run = func() { s.dispatch(f) }
	}
	t := time.AfterFunc(d, run)
	return func() { t.Stop() }
}

func (c *Controller) changed() {
	if c.opts.OnChange != nil {
		c.opts.OnChange()
	}
}

func (c *Controller) notice(format string, args ...any) {
	if c.opts.OnNotice != nil {
		c.opts.OnNotice(fmt.Sprintf(format, args...))
	}
}

func (c *Controller) progressKey(feedID, trackID string) string {
	return feedID + "\x00" + trackID
}

// LoadTrack makes trackID of the current feed the loaded track.
// Loading the already-loaded track only resumes it when autoplay is set.
// An unknown id is logged and returns ErrTrackNotFound without touching playback.
func (c *Controller) LoadTrack(trackID string, autoplay bool) error {
	feedID := c.opts.Source.CurrentFeedID()
	track, ok := findTrack(c.opts.Source.CurrentTracks(), trackID)
	if !ok {
		log.WithFields(log.Fields{"feed": feedID, "track": trackID}).Errorf("track not found")
		return ErrTrackNotFound
	}

	if c.track != nil && c.track.ID == trackID && c.feedID == feedID && !c.unloaded {
		if autoplay && !c.playing {
			c.play()
		}
		return nil
	}

	c.remember()
	c.cancelPendingAdvance()
	c.generation++

	wasVideo := c.video
	start := c.store().Position(feedID, trackID)
	rate := c.store().PlaybackRate()

	c.feedID = feedID
	c.track = track
	c.kind = track.Kind()
	c.position = start
	c.duration = 0
	c.rate = rate
	c.playing = false
	c.seeking = false
	c.unloaded = false
	c.video = false

	if err := c.store().SetLastTrackID(feedID, trackID); err != nil {
		log.Errorf("persist last track: %s", err)
	}

	if err := c.load(c.opts.Primary, track, start); err != nil {
		c.unloaded = true
		log.WithFields(log.Fields{"feed": feedID, "track": trackID}).Errorf("load failed: %s", err)
		c.notice("Cannot play %q: %s", track.Title, err)
		c.changed()
		return fmt.Errorf("load %s: %w", trackID, err)
	}

	if err := c.opts.Primary.SetRate(rate); err != nil {
		log.Warnf("apply playback rate: %s", err)
	}

	switch {
	case c.kind == feed.Video && c.opts.Secondary != nil:
		c.loadVideo(track, start, rate)
	case wasVideo && c.opts.Secondary != nil:
		if err := c.opts.Secondary.Stop(); err != nil {
			log.Warnf("stop video: %s", err)
		}
	}

	log.WithFields(log.Fields{"feed": feedID, "track": trackID, "start": start}).Infof("track loaded")

	if autoplay {
		c.play()
	}

	c.changed()
	return nil
}

func (c *Controller) loadVideo(track *feed.Track, start, rate float64) {
	if err := c.load(c.opts.Secondary, track, start); err != nil {
		log.Errorf("video load failed, continuing with audio only: %s", err)
		c.notice("Video unavailable, playing audio only")
		return
	}
	if err := c.opts.Secondary.SetRate(rate); err != nil {
		log.Warnf("apply video rate: %s", err)
	}

	c.video = true
}

func (c *Controller) load(p player.Player, track *feed.Track, start float64) error {
	return c.media.Load(func() error {
		return p.Load(track.AudioURL, track.Title, start)
	})
}

// play asks the primary to play. The playing flag follows the engine's own state event.
func (c *Controller) play() {
	if err := c.opts.Primary.Play(); err != nil {
		log.Warnf("play rejected: %s", err)
		c.playing = false
	}
}

// reload loads the current track again at position, used after the engine dropped it.
func (c *Controller) reload(position float64) error {
	c.unloaded = false
	if err := c.load(c.opts.Primary, c.track, position); err != nil {
		c.unloaded = true
		c.notice("Cannot play %q: %s", c.track.Title, err)
		return err
	}
	if err := c.opts.Primary.SetRate(c.rate); err != nil {
		log.Warnf("apply playback rate: %s", err)
	}
	if c.kind == feed.Video && c.opts.Secondary != nil {
		c.loadVideo(c.track, position, c.rate)
	}
	c.position = position
	return nil
}

// TogglePlayPause loads and plays the first track when nothing is loaded,
// otherwise asks the engine to flip its state.
func (c *Controller) TogglePlayPause() error {
	if c.track == nil {
		tracks := c.opts.Source.CurrentTracks()
		if len(tracks) == 0 {
			return nil
		}
		return c.LoadTrack(tracks[0].ID, true)
	}

	if c.unloaded {
		if err := c.reload(c.position); err != nil {
			return err
		}
		c.play()
		c.changed()
		return nil
	}

	if c.playing {
		if err := c.opts.Primary.Pause(); err != nil {
			log.Warnf("pause: %s", err)
			return err
		}
		return nil
	}

	c.play()
	return nil
}

// SeekDrag updates the pending seek target while the user drags. The transports are untouched.
func (c *Controller) SeekDrag(seconds float64) {
	if c.track == nil {
		return
	}

	c.seeking = true
	c.seekValue = c.clamp(seconds)
	c.changed()
}

// SeekCommit moves both transports to seconds and resumes a paused track
// when the target lies before its end.
func (c *Controller) SeekCommit(seconds float64) error {
	c.seeking = false
	if c.track == nil {
		return nil
	}

	target := c.clamp(seconds)

	if c.unloaded {
		if err := c.reload(target); err != nil {
			c.changed()
			return err
		}
	} else if err := c.opts.Primary.Seek(target); err != nil {
		log.Warnf("seek: %s", err)
		c.changed()
		return err
	}

	if c.video {
		if err := c.opts.Secondary.Seek(target); err != nil {
			log.Warnf("seek video: %s", err)
		}
	}

	c.position = target
	c.persistPosition(target)

	if !c.playing && c.duration > 0 && target < c.duration {
		c.play()
	}

	c.changed()
	return nil
}

// SeekBy commits a seek relative to the current position.
func (c *Controller) SeekBy(delta float64) error {
	if c.track == nil {
		return nil
	}
	return c.SeekCommit(c.position + delta)
}

func (c *Controller) clamp(seconds float64) float64 {
	if math.IsNaN(seconds) || seconds < 0 {
		return 0
	}
	if c.duration > 0 && seconds > c.duration {
		return c.duration
	}
	return seconds
}

// SetPlaybackRate applies rate to both transports and makes it the default for future loads.
func (c *Controller) SetPlaybackRate(rate float64) error {
	if math.IsNaN(rate) || math.IsInf(rate, 0) || rate <= 0 {
		return ErrInvalidRate
	}

	c.rate = rate

	if c.track != nil && !c.unloaded {
		if err := c.opts.Primary.SetRate(rate); err != nil {
			log.Warnf("apply playback rate: %s", err)
		}
		if c.video {
			if err := c.opts.Secondary.SetRate(rate); err != nil {
				log.Warnf("apply video rate: %s", err)
			}
		}
	}

	if err := c.store().SetPlaybackRate(rate); err != nil {
		log.Errorf("persist playback rate: %s", err)
	}

	c.changed()
	return nil
}

// Next loads the following track, wrapping to the first. It is a no-op unless a track
// is loaded and the feed has more than one track.
func (c *Controller) Next() error {
	return c.step(1)
}

// Previous loads the preceding track, wrapping to the last.
func (c *Controller) Previous() error {
	return c.step(-1)
}

func (c *Controller) step(delta int) error {
	tracks := c.opts.Source.CurrentTracks()
	if c.track == nil || len(tracks) < 2 {
		return nil
	}

	i := indexOf(tracks, c.track.ID)
	if i < 0 {
		return nil
	}

	n := len(tracks)
	return c.LoadTrack(tracks[((i+delta)%n+n)%n].ID, true)
}

// Reset stops both transports and forgets the loaded track. Called on every feed switch.
func (c *Controller) Reset() {
	c.cancelPendingAdvance()
	c.generation++

	if c.track != nil {
		c.remember()
		if err := c.opts.Primary.Stop(); err != nil {
			log.Warnf("stop: %s", err)
		}
		if c.video {
			if err := c.opts.Secondary.Stop(); err != nil {
				log.Warnf("stop video: %s", err)
			}
		}
	}

	c.feedID = ""
	c.track = nil
	c.kind = feed.Audio
	c.playing = false
	c.position = 0
	c.duration = 0
	c.seeking = false
	c.video = false
	c.unloaded = false

	c.changed()
}

// Flush persists the loaded track and its exact position, used before exiting.
func (c *Controller) Flush() {
	if c.track == nil {
		return
	}

	position := c.position
	if !c.unloaded {
		if pos, err := c.opts.Primary.TimePos(); err == nil {
			position = pos
		}
	}

	c.persistPosition(position)
	if err := c.store().SetLastFeedID(c.feedID); err != nil {
		log.Errorf("persist last feed: %s", err)
	}
}

func (c *Controller) persistPosition(position float64) {
	if err := c.store().SetPosition(c.feedID, c.track.ID, position); err != nil {
		log.Errorf("persist position: %s", err)
	}
	if err := c.store().SetLastTrackID(c.feedID, c.track.ID); err != nil {
		log.Errorf("persist last track: %s", err)
	}
}

// remember snapshots the loaded track's progress for the track list.
func (c *Controller) remember() {
	if c.track == nil {
		return
	}
	c.seen[c.progressKey(c.feedID, c.track.ID)] = progress{position: c.position, duration: c.duration}
}

func (c *Controller) cancelPendingAdvance() {
	if c.cancelAdvance != nil {
		c.cancelAdvance()
		c.cancelAdvance = nil
	}
}

func (c *Controller) store() *history.Store {
	return c.opts.Store
}

func findTrack(tracks []*feed.Track, id string) (*feed.Track, bool) {
	i := indexOf(tracks, id)
	if i < 0 {
		return nil, false
	}
	return tracks[i], true
}

func indexOf(tracks []*feed.Track, id string) int {
	for i, t := range tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
