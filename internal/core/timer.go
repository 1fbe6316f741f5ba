package core

// Periodic is an explicit timer for a process that waits a period, runs,
// and waits again. The period is read when each wait starts, so a process
// whose interval changes picks up the new value on its next wait.
type Periodic struct {
	next    float64
	started bool
}

// Start arms the timer so the first fire happens at now+period.
func (p *Periodic) Start(now, period float64) {
	p.next = now + period
	p.started = true
}

// Due reports whether the timer has reached its fire time.
func (p *Periodic) Due(now float64) bool {
	return p.started && now >= p.next
}

// Rearm schedules the next fire one period after now.
func (p *Periodic) Rearm(now, period float64) {
	p.next = now + period
}

// Stop disarms the timer; Due reports false until Start is called again.
func (p *Periodic) Stop() {
	p.started = false
}

// Next returns the scheduled fire time.
func (p *Periodic) Next() float64 {
	return p.next
}

// Active reports whether the timer is armed.
func (p *Periodic) Active() bool {
	return p.started
}

// Countdown is a one-shot timer.
type Countdown struct {
	deadline float64
	running  bool
}

// Begin starts the countdown so it expires at now+duration.
func (c *Countdown) Begin(now, duration float64) {
	c.deadline = now + duration
	c.running = true
}

// Running reports whether the countdown has been started and not yet consumed.
func (c *Countdown) Running() bool {
	return c.running
}

// Expired reports true exactly once, on the first call at or after the deadline.
func (c *Countdown) Expired(now float64) bool {
	if !c.running || now < c.deadline {
		return false
	}
	c.running = false
	return true
}

// Deadline returns the expiry time of the current countdown.
func (c *Countdown) Deadline() float64 {
	return c.deadline
}
