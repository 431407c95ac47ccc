package clock

import (
	"sync"
	"time"
)

// SystemClock reads the wall clock.
type SystemClock struct {
	timezone int
	loc      *time.Location
}

// NewSystemClock returns a wall clock for the given UTC offset in hours.
func NewSystemClock(timezone int) *SystemClock {
	return &SystemClock{timezone: timezone, loc: Location(timezone)}
}

// SystemFactory vends SystemClocks.
type SystemFactory struct{}

func (SystemFactory) InstantiateClock(timezone int) Clock { return NewSystemClock(timezone) }

func (c *SystemClock) Now() time.Time { return time.Now().In(c.loc) }

func (c *SystemClock) Timezone() int { return c.timezone }

func (c *SystemClock) InstantiateAlarm(frequency time.Duration) Alarm {
	a := &tickerAlarm{stop: make(chan struct{})}
	go a.run(time.NewTicker(frequency))
	return a
}

type tickerAlarm struct {
	mu       sync.Mutex
	handlers []func()
	stop     chan struct{}
	once     sync.Once
}

func (a *tickerAlarm) OnRing(handler func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handlers = append(a.handlers, handler)
}

func (a *tickerAlarm) Stop() {
	a.once.Do(func() { close(a.stop) })
}

func (a *tickerAlarm) run(t *time.Ticker) {
	defer t.Stop()
	for {
		select {
		case <-a.stop:
			return
		case <-t.C:
			a.ring()
		}
	}
}

func (a *tickerAlarm) ring() {
	a.mu.Lock()
	handlers := append([]func(){}, a.handlers...)
	a.mu.Unlock()

	for _, h := range handlers {
		h()
	}
}
