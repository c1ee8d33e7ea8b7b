package admission

import (
	"sync"
	"time"
)

type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Breaker is a consecutive-failure circuit breaker. After threshold failures
// without a success it opens for cooldown; the first call after that is a
// single probe whose outcome closes or reopens the circuit.
//
// Every state change starts a new generation. Outcomes of calls admitted in
// an earlier generation are ignored.
type Breaker struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	state      State
	generation uint64
	failures   int
	resumeAt   time.Time
	probing    bool
}

// Permit identifies an admitted call to the breaker.
type Permit struct {
	generation uint64
	probe      bool
}

// Probe reports whether the permit belongs to the half-open trial call.
func (p Permit) Probe() bool { return p.probe }

func NewBreaker(threshold int, cooldown time.Duration, now func() time.Time) *Breaker {
	if threshold <= 0 {
		threshold = 5
	}
	if now == nil {
		now = time.Now
	}
	return &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       now,
	}
}

// Allow admits one call or returns ErrCircuitOpen. An admitted caller must
// hand the permit back through Record or Cancel.
func (b *Breaker) Allow() (Permit, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Before(b.resumeAt) {
			return Permit{}, ErrCircuitOpen
		}
		b.setState(StateHalfOpen)
		b.probing = true
		return Permit{generation: b.generation, probe: true}, nil
	case StateHalfOpen:
		if b.probing {
			return Permit{}, ErrCircuitOpen
		}
		b.probing = true
		return Permit{generation: b.generation, probe: true}, nil
	}
	return Permit{generation: b.generation}, nil
}

// Record reports the outcome of an admitted call.
func (b *Breaker) Record(p Permit, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p.generation != b.generation {
		return
	}
	if p.probe {
		b.probing = false
	}
	if err == nil {
		b.failures = 0
		if b.state != StateClosed {
			b.setState(StateClosed)
		}
		return
	}

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.threshold {
		b.setState(StateOpen)
		b.resumeAt = b.now().Add(b.cooldown)
	}
}

// Cancel releases an admitted call without counting it either way.
func (b *Breaker) Cancel(p Permit) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p.probe && p.generation == b.generation {
		b.probing = false
	}
}

// Reset forces the breaker closed with no recorded failures.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.setState(StateClosed)
	b.failures = 0
	b.probing = false
	b.resumeAt = time.Time{}
}

// setState must be called with mu held.
func (b *Breaker) setState(s State) {
	b.state = s
	b.generation++
}

// Rejecting reports whether a call made now would be refused outright.
func (b *Breaker) Rejecting() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		return b.now().Before(b.resumeAt)
	case StateHalfOpen:
		return b.probing
	}
	return false
}

func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Execute runs fn through the breaker.
func (b *Breaker) Execute(fn func() error) error {
	p, err := b.Allow()
	if err != nil {
		return err
	}
	err = fn()
	b.Record(p, err)
	return err
}
