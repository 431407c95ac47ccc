package clock

import (
	"sync"
	"time"
)

// ManualClock is a Clock whose time only moves when told to. Alarms ring
// synchronously inside Advance, once per elapsed interval.
type ManualClock struct {
	mu       sync.Mutex
	timezone int
	now      time.Time
	alarms   []*manualAlarm
}

// NewManualClock starts at now, expressed in the timezone's fixed zone.
func NewManualClock(timezone int, now time.Time) *ManualClock {
	return &ManualClock{timezone: timezone, now: now.In(Location(timezone))}
}

// ManualFactory hands out one ManualClock per timezone, all starting at
// Start and all sharing the same instant thereafter via Advance.
type ManualFactory struct {
	mu     sync.Mutex
	Start  time.Time
	clocks map[int]*ManualClock
	// Skew, when set, makes the returned clock report a different timezone
	// than requested. Tests use it to simulate misconfigured clocks.
	Skew int
}

func (f *ManualFactory) InstantiateClock(timezone int) Clock {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clocks == nil {
		f.clocks = make(map[int]*ManualClock)
	}
	if c, ok := f.clocks[timezone]; ok {
		return c
	}
	c := NewManualClock(timezone+f.Skew, f.Start)
	f.clocks[timezone] = c
	return c
}

// Advance moves every clock created so far by d.
func (f *ManualFactory) Advance(d time.Duration) {
	f.mu.Lock()
	clocks := make([]*ManualClock, 0, len(f.clocks))
	for _, c := range f.clocks {
		clocks = append(clocks, c)
	}
	f.mu.Unlock()

	for _, c := range clocks {
		c.Advance(d)
	}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Timezone() int { return c.timezone }

func (c *ManualClock) InstantiateAlarm(frequency time.Duration) Alarm {
	c.mu.Lock()
	defer c.mu.Unlock()
	a := &manualAlarm{frequency: frequency}
	c.alarms = append(c.alarms, a)
	return a
}

// Alarms returns the number of alarms ever instantiated on this clock.
func (c *ManualClock) Alarms() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.alarms)
}

// Set jumps to t without ringing alarms.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.In(c.now.Location())
}

// Advance moves time forward by d and rings each live alarm once for every
// full interval that elapsed.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	alarms := append([]*manualAlarm{}, c.alarms...)
	c.mu.Unlock()

	for _, a := range alarms {
		a.elapse(d)
	}
}

type manualAlarm struct {
	mu        sync.Mutex
	frequency time.Duration
	pending   time.Duration
	handlers  []func()
	stopped   bool
}

func (a *manualAlarm) OnRing(handler func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handlers = append(a.handlers, handler)
}

func (a *manualAlarm) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
}

// Ring fires the handlers immediately, regardless of the interval.
func (a *manualAlarm) Ring() {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	handlers := append([]func(){}, a.handlers...)
	a.mu.Unlock()

	for _, h := range handlers {
		h()
	}
}

func (a *manualAlarm) elapse(d time.Duration) {
	a.mu.Lock()
	if a.stopped || a.frequency <= 0 {
		a.mu.Unlock()
		return
	}
	a.pending += d
	rings := int(a.pending / a.frequency)
	a.pending %= a.frequency
	a.mu.Unlock()

	for i := 0; i < rings; i++ {
		a.Ring()
	}
}
