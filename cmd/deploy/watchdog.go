package deploy

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// watchdog calls `onExpire` if it stays armed for longer than `timeout`.
// Re-arming restarts the countdown.
type watchdog struct {
	clock    clockwork.Clock
	timeout  time.Duration
	onExpire func()

	kick     chan bool
	quit     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
	fired    int32
}

// startWatchdog starts an armed watchdog.
func startWatchdog(clock clockwork.Clock, timeout time.Duration, onExpire func()) *watchdog {
	w := &watchdog{
		clock:    clock,
		timeout:  timeout,
		onExpire: onExpire,
		kick:     make(chan bool),
		quit:     make(chan struct{}),
		exited:   make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *watchdog) run() {
	defer close(w.exited)

	timer := w.clock.After(w.timeout)
	for {
		select {
		case armed := <-w.kick:
			if armed {
				timer = w.clock.After(w.timeout)
			} else {
				timer = nil
			}
		case <-timer:
			atomic.StoreInt32(&w.fired, 1)
			w.onExpire()
			return
		case <-w.quit:
			return
		}
	}
}

func (w *watchdog) arm() {
	w.send(true)
}

func (w *watchdog) disarm() {
	w.send(false)
}

func (w *watchdog) send(armed bool) {
	select {
	case w.kick <- armed:
	case <-w.exited:
	}
}

func (w *watchdog) expired() bool {
	return atomic.LoadInt32(&w.fired) == 1
}

func (w *watchdog) stop() {
	w.stopOnce.Do(func() {
		close(w.quit)
	})
	<-w.exited
}
