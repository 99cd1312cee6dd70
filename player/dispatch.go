package player

import "sync/atomic"

// Generation counts media loads on a transport. Dispatch stamps every event with
// the generation it was emitted in, so events of replaced media can be told apart.
type Generation struct {
	n atomic.Uint64
}

// Load runs load as a new generation. Events emitted while load runs belong to
// neither the old nor the new media and are treated as stale.
func (g *Generation) Load(load func() error) error {
	g.n.Add(1)
	defer g.n.Add(1)
	return load()
}

func (g *Generation) current() uint64 {
	if g == nil {
		return 0
	}
	return g.n.Load()
}

// Dispatch wraps o so that every callback is handed to post instead of running in place.
// post is expected to run the function on the goroutine that owns o.
// When gen is set, position, end and error events are dropped if media was
// loaded between the event and its delivery.
func Dispatch(o Observer, post func(func()), gen *Generation) Observer {
	return &dispatched{o: o, post: post, gen: gen}
}

type dispatched struct {
	o    Observer
	post func(func())
	gen  *Generation
}

// guarded posts f unless the generation changed before it runs.
func (d *dispatched) guarded(f func()) {
	stamp := d.gen.current()
	d.post(func() {
		if d.gen.current() != stamp {
			return
		}
		f()
	})
}

func (d *dispatched) OnPositionTick(position float64) {
	d.guarded(func() { d.o.OnPositionTick(position) })
}

func (d *dispatched) OnMetadataReady(duration float64) {
	d.post(func() { d.o.OnMetadataReady(duration) })
}

func (d *dispatched) OnPlaybackStateChanged(playing bool) {
	d.post(func() { d.o.OnPlaybackStateChanged(playing) })
}

func (d *dispatched) OnEnded() {
	d.guarded(d.o.OnEnded)
}

func (d *dispatched) OnError(err error) {
	d.guarded(func() { d.o.OnError(err) })
}
