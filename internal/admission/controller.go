// Package admission decides whether a unit of work may run, based on memory
// pressure, in-flight concurrency and a circuit breaker.
package admission

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/semaphore"
)

const (
	DefaultMaxConcurrent    = 10
	DefaultMemoryThreshold  = 450 * 1024 * 1024
	DefaultTimeout          = 30 * time.Second
	DefaultFailureThreshold = 5
	DefaultCooldown         = 60 * time.Second
)

// Config holds admission limits. Zero values select the defaults; a negative
// MemoryThreshold disables the memory gate.
type Config struct {
	MaxConcurrent    int
	MemoryThreshold  int64
	Timeout          time.Duration
	FailureThreshold int
	Cooldown         time.Duration

	// Now and HeapUsage are overridable for tests.
	Now       func() time.Time
	HeapUsage func() uint64
}

type guard struct {
	name    string
	acquire func() error
	release func()
}

type Controller struct {
	cfg     Config
	breaker *Breaker
	slots   *semaphore.Weighted
	guards  []guard

	inFlight atomic.Int64

	memMu     sync.Mutex
	memWarned bool
}

func NewController(cfg Config) *Controller {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.MemoryThreshold == 0 {
		cfg.MemoryThreshold = DefaultMemoryThreshold
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	if cfg.HeapUsage == nil {
		cfg.HeapUsage = heapInUse
	}

	c := &Controller{
		cfg:     cfg,
		breaker: NewBreaker(cfg.FailureThreshold, cfg.Cooldown, cfg.Now),
		slots:   semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}

	// Order matters: the first failing guard names the rejection. The
	// circuit breaker is consulted last, in Admit.
	c.guards = []guard{
		{name: "memory", acquire: c.checkMemory, release: func() {}},
		{name: "concurrency", acquire: c.acquireSlot, release: c.releaseSlot},
	}
	return c
}

func heapInUse() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc
}

func (c *Controller) checkMemory() error {
	if c.cfg.MemoryThreshold < 0 {
		return nil
	}
	used := c.cfg.HeapUsage()
	limit := uint64(c.cfg.MemoryThreshold)

	c.memMu.Lock()
	defer c.memMu.Unlock()

	if used > limit {
		if !c.memWarned {
			log.Printf("admission: heap usage %s above threshold %s, shedding new work",
				humanize.IBytes(used), humanize.IBytes(limit))
			c.memWarned = true
		}
		return ErrMemoryPressure
	}
	if c.memWarned && used < limit/10*8 {
		log.Printf("admission: heap usage back to %s", humanize.IBytes(used))
		c.memWarned = false
	}
	return nil
}

func (c *Controller) acquireSlot() error {
	if !c.slots.TryAcquire(1) {
		return ErrCapacityExceeded
	}
	c.inFlight.Add(1)
	return nil
}

func (c *Controller) releaseSlot() {
	c.inFlight.Add(-1)
	c.slots.Release(1)
}

// Ticket is an admitted unit of work. Exactly one of Run or Abort must be
// called to give the slot back.
type Ticket struct {
	c      *Controller
	permit Permit
	once   sync.Once
}

// Admit evaluates every guard in order. On rejection nothing stays reserved.
func (c *Controller) Admit() (*Ticket, error) {
	for i, g := range c.guards {
		if err := g.acquire(); err != nil {
			c.releaseGuards(i)
			log.Printf("admission: rejected by %s guard: %v", g.name, err)
			return nil, err
		}
	}
	permit, err := c.breaker.Allow()
	if err != nil {
		c.releaseGuards(len(c.guards))
		log.Printf("admission: rejected by circuit guard: %v", err)
		return nil, err
	}
	return &Ticket{c: c, permit: permit}, nil
}

// releaseGuards undoes the first n acquired guards in reverse order.
func (c *Controller) releaseGuards(n int) {
	for j := n - 1; j >= 0; j-- {
		c.guards[j].release()
	}
}

// Precheck reports whether new sessions should be accepted, without
// reserving anything.
func (c *Controller) Precheck() error {
	if err := c.checkMemory(); err != nil {
		return err
	}
	if c.breaker.Rejecting() {
		return ErrCircuitOpen
	}
	return nil
}

// Run executes fn racing the configured timeout. When the timer wins the
// caller gets ErrTimeout immediately; fn keeps running and its result is
// discarded.
func (t *Ticket) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.c.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- fn(ctx)
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
		if errors.Is(err, context.DeadlineExceeded) {
			err = ErrTimeout
		}
	}

	t.finish(err)
	return err
}

// Abort gives the ticket back without running anything.
func (t *Ticket) Abort() {
	t.once.Do(func() {
		t.c.breaker.Cancel(t.permit)
		t.c.releaseSlot()
	})
}

func (t *Ticket) finish(err error) {
	t.once.Do(func() {
		if isCanceled(err) {
			t.c.breaker.Cancel(t.permit)
		} else {
			t.c.breaker.Record(t.permit, err)
		}
		t.c.releaseSlot()
	})
}

// Execute admits and runs fn. Rejected work is never invoked.
func (c *Controller) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	t, err := c.Admit()
	if err != nil {
		return err
	}
	return t.Run(ctx, fn)
}

// ResetBreaker is the administrative override forcing the circuit closed.
func (c *Controller) ResetBreaker() {
	prev := c.breaker.State()
	c.breaker.Reset()
	if prev != StateClosed {
		log.Printf("admission: circuit breaker reset from %s", prev)
	}
}

type Status struct {
	HeapBytes     uint64 `json:"heap_bytes"`
	HeapHuman     string `json:"heap"`
	InFlight      int64  `json:"in_flight"`
	MaxConcurrent int    `json:"max_concurrent"`
	Circuit       string `json:"circuit"`
	Failures      int    `json:"failures"`
}

func (c *Controller) Status() Status {
	heap := c.cfg.HeapUsage()
	return Status{
		HeapBytes:     heap,
		HeapHuman:     humanize.IBytes(heap),
		InFlight:      c.inFlight.Load(),
		MaxConcurrent: c.cfg.MaxConcurrent,
		Circuit:       c.breaker.State().String(),
		Failures:      c.breaker.Failures(),
	}
}

func (c *Controller) Breaker() *Breaker { return c.breaker }

func (c *Controller) Timeout() time.Duration { return c.cfg.Timeout }
