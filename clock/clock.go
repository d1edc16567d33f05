// Package clock tracks simulated time for the scheduler's fixed-rate tick
// loop. It holds no wall-clock state: every tick advances simulated time by
// exactly DT, so a sequence of ticks is reproducible regardless of how long
// each one actually took to compute.
package clock

import "fmt"

// Clock advances simulated time by a fixed step every tick.
type Clock struct {
	DT   float64 // seconds per tick, 1/UpdateTickRate
	Step int64   // tick counter, starts at 0
	T    float64 // current simulated time in seconds
}

// New creates a clock ticking at rateHz.
func New(rateHz float64) *Clock {
	return &Clock{DT: 1 / rateHz}
}

// Advance moves the clock forward by one tick.
func (c *Clock) Advance() {
	c.Step++
	c.T = float64(c.Step) * c.DT
}

// GetHourMinuteSecond splits the current simulated time into h/m/s.
func (c Clock) GetHourMinuteSecond() (int, int, float64) {
	hour := int(c.T) / 3600
	minute := int(c.T) % 3600 / 60
	second := c.T - float64(hour*3600+minute*60)
	return hour, minute, second
}

// String renders the current time as HH:MM:SS, matching the format used in
// heartbeat log lines.
func (c Clock) String() string {
	h, m, s := c.GetHourMinuteSecond()
	return fmt.Sprintf("%02d:%02d:%05.2f", h, m, s)
}
