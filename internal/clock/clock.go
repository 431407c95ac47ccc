// Package clock supplies per-timezone time and recurring alarms to sites.
//
// A Clock is bound to a whole-hour UTC offset. Alarms fire their handlers
// every interval until stopped; SystemClock drives them from time.Ticker and
// ManualClock from explicit Advance calls, which is what the tests use.
package clock

import (
	"fmt"
	"time"
)

// Clock reports the current time in its timezone and creates alarms.
type Clock interface {
	// Now returns the current time in the clock's timezone.
	Now() time.Time
	// Timezone is the UTC offset, in hours, the clock was created for.
	Timezone() int
	// InstantiateAlarm returns a repeating alarm ringing every frequency.
	InstantiateAlarm(frequency time.Duration) Alarm
}

// Alarm is a repeatable timer.
type Alarm interface {
	// OnRing subscribes handler; it runs on every ring.
	OnRing(handler func())
	// Stop disarms the alarm. Stopping twice is a no-op.
	Stop()
}

// Factory creates clocks for a given timezone.
type Factory interface {
	InstantiateClock(timezone int) Clock
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(timezone int) Clock

func (f FactoryFunc) InstantiateClock(timezone int) Clock { return f(timezone) }

// Location returns the fixed zone used for offset hours.
func Location(timezone int) *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", timezone), timezone*3600)
}
