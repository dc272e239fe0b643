package testutil

import (
	"time"

	"github.com/juju/clock/testclock"
)

// Epoch is the instant every NewClock starts at.
var Epoch = time.Date(2026, time.October, 15, 8, 0, 0, 0, time.Local)

// NewClock returns a test clock frozen at Epoch.
//
// Change log timestamps taken from it are stable across runs, so log files
// can be compared byte for byte. Advance it with Advance to produce distinct
// timestamps.
func NewClock() *testclock.Clock {
	return testclock.NewClock(Epoch)
}
