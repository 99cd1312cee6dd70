package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/feedcast/feedcast/log"
)

// TickInterval is the minimum spacing between position ticks.
const TickInterval = 250 * time.Millisecond

// observed are the mpv properties the listener subscribes to.
var observed = []string{"time-pos", "pause", "duration"}

type ipcEvent struct {
	Event     string          `json:"event"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	Reason    string          `json:"reason"`
	FileError string          `json:"file_error"`
}

// EventListener translates mpv property changes and file events into Observer callbacks.
type EventListener struct {
	socketPath string
	observers  []Observer
	conn       net.Conn

	mu        sync.Mutex
	listening bool

	// read loop state
	loaded   bool
	paused   bool
	lastTick time.Time
	now      func() time.Time
}

// NewEventListener creates a listener for the given socket.
func NewEventListener(socketPath string, observers []Observer) *EventListener {
	return &EventListener{
		socketPath: socketPath,
		observers:  observers,
		paused:     true,
		now:        time.Now,
	}
}

// Start subscribes to property changes on a dedicated connection and starts the read loop.
func (el *EventListener) Start() error {
	el.mu.Lock()
	defer el.mu.Unlock()

	if el.listening {
		return nil
	}

	conn, err := net.Dial("unix", el.socketPath)
	if err != nil {
		return fmt.Errorf("event listener connect: %w", err)
	}

	// observe_property must be issued on the connection that reads the events.
	for id, name := range observed {
		payload, _ := json.Marshal(ipcCommand{Command: []any{"observe_property", id + 1, name}})
		if _, err = conn.Write(append(payload, '\n')); err != nil {
			conn.Close()
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}

	el.conn = conn
	el.listening = true

	go el.readLoop(conn)

	log.Debugf("mpv event listener started on %s", el.socketPath)
	return nil
}

// Stop closes the event connection. It reports whether the listener was running.
func (el *EventListener) Stop() bool {
	el.mu.Lock()
	defer el.mu.Unlock()

	if !el.listening {
		return false
	}

	el.listening = false
	if el.conn != nil {
		el.conn.Close()
	}
	return true
}

func (el *EventListener) readLoop(conn net.Conn) {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), 1024*1024)

	for scanner.Scan() {
		el.processEvent(scanner.Bytes())
	}

	if err := scanner.Err(); err != nil {
		el.mu.Lock()
		listening := el.listening
		el.mu.Unlock()
		if listening {
			log.Warnf("event listener read error: %v", err)
		}
	}
}

// processEvent handles a single newline-delimited JSON message.
// Command replies carry no "event" field and are ignored.
func (el *EventListener) processEvent(line []byte) {
	var ev ipcEvent
	if err := json.Unmarshal(line, &ev); err != nil || ev.Event == "" {
		return
	}

	switch ev.Event {
	case "property-change":
		el.propertyChanged(ev.Name, ev.Data)
	case "file-loaded":
		el.loaded = true
		el.lastTick = time.Time{}
		if !el.paused {
			el.emit(func(o Observer) { o.OnPlaybackStateChanged(true) })
		}
	case "end-file":
		wasLoaded := el.loaded
		el.loaded = false
		if wasLoaded {
			el.emit(func(o Observer) { o.OnPlaybackStateChanged(false) })
		}

		switch ev.Reason {
		case "eof":
			el.emit(func(o Observer) { o.OnEnded() })
		case "error":
			err := fmt.Errorf("playback failed: %s", ev.FileError)
			el.emit(func(o Observer) { o.OnError(err) })
		}
	}
}

func (el *EventListener) propertyChanged(name string, data json.RawMessage) {
	switch name {
	case "time-pos":
		var pos float64
		if err := json.Unmarshal(data, &pos); err != nil || !el.loaded {
			return
		}
		now := el.now()
		if !el.lastTick.IsZero() && now.Sub(el.lastTick) < TickInterval {
			return
		}
		el.lastTick = now
		el.emit(func(o Observer) { o.OnPositionTick(pos) })

	case "duration":
		var dur float64
		if err := json.Unmarshal(data, &dur); err != nil || dur <= 0 {
			return
		}
		el.emit(func(o Observer) { o.OnMetadataReady(dur) })

	case "pause":
		var paused bool
		if err := json.Unmarshal(data, &paused); err != nil {
			return
		}
		changed := paused != el.paused
		el.paused = paused
		if changed && el.loaded {
			el.emit(func(o Observer) { o.OnPlaybackStateChanged(!paused) })
		}
	}
}

func (el *EventListener) emit(f func(o Observer)) {
	for _, o := range el.observers {
		f(o)
	}
}
