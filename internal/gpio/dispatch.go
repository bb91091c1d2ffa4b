package gpio

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// dispatchQueue is the number of edges buffered between the kernel event
// reader and the handler goroutine. A remote frame is well under this.
const dispatchQueue = 512

// dispatcher serializes edge events and idle timeouts onto one goroutine.
// push never blocks, so it is safe to call from the line event handler.
type dispatcher struct {
	idle    time.Duration
	handler Handler
	edges   chan Event
	done    chan struct{}
	wg      sync.WaitGroup

	closeOnce sync.Once
	dropped   atomic.Uint64
}

func newDispatcher(idle time.Duration, h Handler) *dispatcher {
	d := &dispatcher{
		idle:    idle,
		handler: h,
		edges:   make(chan Event, dispatchQueue),
		done:    make(chan struct{}),
	}
	d.wg.Add(1)
	go d.run()
	return d
}

// push queues an edge. Edges arriving after close or while the queue is
// full are dropped.
func (d *dispatcher) push(e Event) {
	select {
	case <-d.done:
		return
	default:
	}
	select {
	case d.edges <- e:
	default:
		if d.dropped.Add(1) == 1 {
			log.Printf("gpio: edge queue full (%d), dropping edges", dispatchQueue)
		}
	}
}

func (d *dispatcher) run() {
	defer d.wg.Done()

	var timer *time.Timer
	var timeout <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-d.done:
			return
		case e := <-d.edges:
			d.handler(e)
			if d.idle <= 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(d.idle)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(d.idle)
			}
			timeout = timer.C
		case <-timeout:
			// Disarm until the next edge.
			timeout = nil
			d.handler(Event{Kind: EventTimeout})
		}
	}
}

// close stops the dispatch goroutine and waits for any running handler
// call to return. It is idempotent.
func (d *dispatcher) close() {
	d.closeOnce.Do(func() {
		close(d.done)
	})
	d.wg.Wait()
}
