package playback

import (
	"errors"
	"math"

	"github.com/feedcast/feedcast/log"
	"github.com/feedcast/feedcast/player"
)

// OnPositionTick persists the position of the loaded track on every tick
// and pulls the video transport back in line when it drifted.
func (c *Controller) OnPositionTick(position float64) {
	if c.track == nil || c.unloaded || c.seeking {
		return
	}

	c.position = position
	c.persistPosition(position)

	if c.video {
		c.correctDrift(position)
	}

	c.changed()
}

func (c *Controller) correctDrift(position float64) {
	videoPos, err := c.opts.Secondary.TimePos()
	if err != nil || math.Abs(videoPos-position) <= DriftThreshold {
		return
	}

	if err = c.opts.Secondary.Seek(position); err != nil {
		log.Debugf("video drift correction: %s", err)
	}
}

// OnMetadataReady records the duration of the loaded track.
func (c *Controller) OnMetadataReady(duration float64) {
	if c.track == nil || duration <= 0 {
		return
	}

	c.duration = duration
	c.changed()
}

// OnPlaybackStateChanged mirrors the engine's play state and forwards it to the video transport.
func (c *Controller) OnPlaybackStateChanged(playing bool) {
	if c.track == nil {
		c.playing = false
		return
	}
	if c.playing == playing {
		return
	}

	c.playing = playing

	if c.video {
		var err error
		if playing {
			err = c.opts.Secondary.Play()
		} else {
			err = c.opts.Secondary.Pause()
		}
		if err != nil {
			log.Debugf("mirror play state to video: %s", err)
		}
	}

	c.changed()
}

// OnEnded resets the finished track to zero and schedules the next one after SettleDelay.
// Feeds with a single track stop instead of looping.
func (c *Controller) OnEnded() {
	if c.track == nil {
		return
	}

	c.position = 0
	c.playing = false
	c.unloaded = true
	c.persistPosition(0)
	c.changed()

	if len(c.opts.Source.CurrentTracks()) < 2 {
		return
	}

	generation := c.generation
	c.cancelPendingAdvance()
	c.cancelAdvance = c.opts.Scheduler.AfterFunc(SettleDelay, func() {
		if c.generation != generation {
			return
		}
		c.cancelAdvance = nil
		if err := c.Next(); err != nil {
			log.Errorf("advance to next track: %s", err)
		}
	})
}

// OnError reports a primary transport failure and leaves the track paused.
func (c *Controller) OnError(err error) {
	log.Errorf("playback error: %s", err)

	c.playing = false
	if errors.Is(err, player.ErrExited) {
		c.unloaded = true
		c.notice("Player closed")
	} else if c.track != nil {
		c.unloaded = true
		c.notice("Cannot play %q: %s", c.track.Title, err)
	}

	c.changed()
}

// videoEvents observes the secondary transport. Only its failures matter,
// its position and play state never flow back into the primary.
type videoEvents Controller

func (v *videoEvents) OnPositionTick(float64) {}

func (v *videoEvents) OnMetadataReady(float64) {}

func (v *videoEvents) OnPlaybackStateChanged(bool) {}

func (v *videoEvents) OnEnded() {}

func (v *videoEvents) OnError(err error) {
	c := (*Controller)(v)
	if !c.video {
		return
	}

	log.Errorf("video transport failed, continuing with audio only: %s", err)
	c.video = false
	c.notice("Video unavailable, playing audio only")
	c.changed()
}
