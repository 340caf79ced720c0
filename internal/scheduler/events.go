package scheduler

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonathan/writing-coach/internal/types"
)

// EventType identifies what happened to a session.
type EventType string

// Event types.
const (
	// EventAnalyzing is emitted when detector work starts for a generation.
	EventAnalyzing EventType = "analyzing"
	// EventDelivered carries a new current result.
	EventDelivered EventType = "delivered"
	// EventFailed carries the error of a failed run. Result is the previous,
	// still current result and may be nil.
	EventFailed EventType = "failed"
)

// Event is one session notification.
type Event struct {
	Type       EventType             `json:"type"`
	Generation uint64                `json:"generation"`
	Result     *types.AnalysisResult `json:"result,omitempty"`
	Err        error                 `json:"-"`
	Error      string                `json:"error,omitempty"`
	FromCache  bool                  `json:"from_cache,omitempty"`
	At         time.Time             `json:"at"`
}

// dispatcher delivers events to subscribers on a single goroutine, in the order
// they were enqueued. Subscribers may call back into the session.
type dispatcher struct {
	logger *slog.Logger

	mu     sync.Mutex
	queue  []Event
	subs   map[uint64]func(Event)
	nextID uint64

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func newDispatcher(logger *slog.Logger) *dispatcher {
	d := &dispatcher{
		logger: logger,
		subs:   make(map[uint64]func(Event)),
		wake:   make(chan struct{}, 1),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *dispatcher) subscribe(fn func(Event)) func() {
	d.mu.Lock()
	id := d.nextID
	d.nextID++
	d.subs[id] = fn
	d.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			delete(d.subs, id)
			d.mu.Unlock()
		})
	}
}

func (d *dispatcher) enqueue(ev Event) {
	if ev.Err != nil {
		ev.Error = ev.Err.Error()
	}
	d.mu.Lock()
	d.queue = append(d.queue, ev)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// close stops the loop after the queue drains. It does not wait, so it is safe
// to call from a subscriber.
func (d *dispatcher) close() {
	d.once.Do(func() { close(d.stop) })
}

func (d *dispatcher) loop() {
	defer close(d.done)
	for {
		select {
		case <-d.wake:
			d.drain()
		case <-d.stop:
			d.drain()
			return
		}
	}
}

func (d *dispatcher) drain() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		ev := d.queue[0]
		d.queue[0] = Event{}
		d.queue = d.queue[1:]
		subs := make([]func(Event), 0, len(d.subs))
		for _, fn := range d.subs {
			subs = append(subs, fn)
		}
		d.mu.Unlock()

		for _, fn := range subs {
			d.notify(fn, ev)
		}
	}
}

func (d *dispatcher) notify(fn func(Event), ev Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Warn("Session subscriber panicked", "event", ev.Type, "panic", r)
		}
	}()
	fn(ev)
}
