package selection

import "sync"

// EventType names what changed.
type EventType string

const (
	EventSnapshot  EventType = "snapshot"
	EventFocus     EventType = "focus"
	EventExchanges EventType = "exchanges"
)

// Event is delivered to subscribers after every observable change.
type Event struct {
	Type  EventType `json:"type" msgpack:"type"`
	Seq   uint64    `json:"seq" msgpack:"seq"`     // Snapshot seq at the time of the change
	Focus string    `json:"focus" msgpack:"focus"` // Focus at the time of the change
}

type subscriber struct {
	id uint64
	fn func(Event)
}

// dispatcher delivers events from a single goroutine in publish order, so
// callbacks may freely call back into the view model.
type dispatcher struct {
	mu     sync.Mutex
	queue  []Event
	subs   []subscriber
	nextID uint64
	closed bool

	wake chan struct{}
	done chan struct{}
}

func newDispatcher() *dispatcher {
	d := &dispatcher{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *dispatcher) subscribe(fn func(Event)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := d.nextID
	d.subs = append(d.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			defer d.mu.Unlock()
			for i, s := range d.subs {
				if s.id == id {
					d.subs = append(d.subs[:i:i], d.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (d *dispatcher) publish(e Event) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, e)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *dispatcher) run() {
	defer close(d.done)
	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			d.mu.Unlock()
			<-d.wake
			d.mu.Lock()
		}
		if len(d.queue) == 0 {
			d.mu.Unlock()
			return
		}
		batch := d.queue
		d.queue = nil
		d.mu.Unlock()

		for _, e := range batch {
			for _, s := range d.current() {
				s.fn(e)
			}
		}
	}
}

func (d *dispatcher) current() []subscriber {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]subscriber(nil), d.subs...)
}

// close delivers queued events and stops the dispatcher.
func (d *dispatcher) close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		<-d.done
		return
	}
	d.closed = true
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
	<-d.done
}
