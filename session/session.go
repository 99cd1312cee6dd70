// Package session wires the catalog, the loader and the playback controller
// behind a single event loop and exposes the commands the interfaces call.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/feedcast/feedcast/catalog"
	"github.com/feedcast/feedcast/history"
	"github.com/feedcast/feedcast/loader"
	"github.com/feedcast/feedcast/log"
	"github.com/feedcast/feedcast/playback"
	"github.com/feedcast/feedcast/player"
	"github.com/feedcast/feedcast/storage"
)

// ErrClosed is returned by commands issued after the session stopped.
var ErrClosed = errors.New("session closed")

// Options configures a Session.
type Options struct {
	// DefaultURL is the source of the default feed document.
	DefaultURL string

	Loader *loader.Loader
	Store  *history.Store

	Primary   player.Player
	Secondary player.Player

	// Scheduler overrides the timers used for end-of-track advancement.
	Scheduler playback.Scheduler
}

// Session owns every piece of mutable state. Commands are executed one at a time
// on the goroutine running Run, player events are queued onto the same goroutine.
type Session struct {
	opts Options

	catalog    *catalog.Manager
	controller *playback.Controller

	commands chan func()
	events   chan func()
	quit     chan struct{}
	done     chan struct{}
	quitOnce sync.Once

	changes chan struct{}
	notices chan string

	loading      bool
	generation   int
	failures     []loader.Failure
	usedFallback bool
}

// New returns a session. Nothing happens until Run is started.
func New(opts Options) *Session {
	if opts.Store == nil {
		opts.Store = history.New(storage.NewMemory())
	}
	if opts.Loader == nil {
		opts.Loader = loader.New()
	}

	s := &Session{
		opts:     opts,
		commands: make(chan func()),
		events:   make(chan func(), 256),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		changes:  make(chan struct{}, 1),
		notices:  make(chan string, 16),
	}

	s.catalog = catalog.New(opts.Store)
	s.controller = playback.New(playback.Options{
		Source:    s.catalog,
		Store:     opts.Store,
		Primary:   opts.Primary,
		Secondary: opts.Secondary,
		Dispatch:  s.post,
		Scheduler: opts.Scheduler,
		OnChange:  s.changed,
		OnNotice:  s.notice,
	})

	s.catalog.OnSwitch(func(string) {
		s.controller.Reset()
	})

	return s
}

// Run executes commands and player events until ctx is done or Close is called.
// The loaded track is flushed and the players are closed before it returns.
func (s *Session) Run(ctx context.Context) error {
	defer close(s.done)
	defer s.shutdown()

	for {
		select {
		case <-ctx.Done():
			s.controller.Flush()
			return ctx.Err()
		case <-s.quit:
			return nil
		case f := <-s.commands:
			f()
		case f := <-s.events:
			f()
		}
	}
}

func (s *Session) shutdown() {
	for _, p := range []player.Player{s.opts.Primary, s.opts.Secondary} {
		if p == nil {
			continue
		}
		if err := p.Close(); err != nil {
			log.Warnf("close player: %s", err)
		}
	}
}

// Close persists the loaded track and stops the loop.
func (s *Session) Close() error {
	err := s.do(func() error {
		s.controller.Flush()
		return nil
	})

	s.quitOnce.Do(func() { close(s.quit) })
	<-s.done

	if errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

// Done is closed once the loop has stopped.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// do runs f on the loop and waits for its result.
func (s *Session) do(f func() error) error {
	result := make(chan error, 1)

	select {
	case s.commands <- func() { result <- f() }:
	case <-s.done:
		return ErrClosed
	}

	select {
	case err := <-result:
		return err
	case <-s.done:
		return ErrClosed
	}
}

// post queues f onto the loop without waiting for it.
func (s *Session) post(f func()) {
	select {
	case s.events <- f:
	case <-s.done:
	}
}

func (s *Session) changed() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *Session) notice(message string) {
	select {
	case s.notices <- message:
	default:
		log.Debugf("notice dropped: %s", message)
	}
	s.changed()
}

// Changes signals that the read model changed. Signals are coalesced.
func (s *Session) Changes() <-chan struct{} {
	return s.changes
}

// Notices delivers transient messages for the user.
func (s *Session) Notices() <-chan string {
	return s.notices
}
