// Package worker runs admitted operation requests off the HTTP goroutines and
// pushes each result to the caller's session.
package worker

import (
	"context"
	"errors"
	"log"
	"sync"

	"podcast-kb/internal/admission"
	"podcast-kb/internal/models"
	"podcast-kb/internal/services"
)

var (
	ErrQueueFull   = errors.New("worker queue is full")
	ErrPoolStopped = errors.New("worker pool is stopped")

	errOperationFailed = errors.New("operation failed")
)

// Dispatcher executes a named operation.
type Dispatcher interface {
	Dispatch(ctx context.Context, method string, args map[string]any) services.Result
}

// Publisher delivers a message to a session.
type Publisher interface {
	Send(sessionID string, msg interface{}) error
}

// Job is one admitted request. The pool owns Ticket once Submit succeeds.
type Job struct {
	SessionID string
	Request   models.OperationRequest
	Ticket    *admission.Ticket
}

type Pool struct {
	ops         Dispatcher
	hub         Publisher
	jobs        chan Job
	workerCount int
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewPool(ops Dispatcher, hub Publisher, workerCount, queueSize int) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	return &Pool{
		ops:         ops,
		hub:         hub,
		jobs:        make(chan Job, queueSize),
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

// Stop waits for in-progress jobs and releases the tickets of queued ones.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopChan)
		p.wg.Wait()

		for {
			select {
			case job := <-p.jobs:
				job.Ticket.Abort()
			default:
				return
			}
		}
	})
}

// Submit queues a job without blocking.
func (p *Pool) Submit(job Job) error {
	select {
	case <-p.stopChan:
		return ErrPoolStopped
	default:
	}

	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		case job := <-p.jobs:
			p.process(id, job)
		}
	}
}

func (p *Pool) process(id int, job Job) {
	var result services.Result
	err := job.Ticket.Run(context.Background(), func(ctx context.Context) error {
		result = p.ops.Dispatch(ctx, job.Request.Method, job.Request.Params)
		if result.IsError && result.Code == services.CodeInternal {
			return errOperationFailed
		}
		return nil
	})

	switch {
	case admission.IsRejection(err):
		log.Printf("Worker %d: %s %v rejected: %v", id, job.Request.Method, job.Request.ID, err)
		result = services.Result{Text: err.Error(), IsError: true, Code: admission.Code(err)}
	case err != nil && !errors.Is(err, errOperationFailed):
		log.Printf("Worker %d: %s %v failed: %v", id, job.Request.Method, job.Request.ID, err)
		result = services.Result{Text: "An unexpected error occurred", IsError: true, Code: services.CodeInternal}
	}

	msg := models.WSMessage{
		Type: models.WSTypeResult,
		Payload: models.OperationResult{
			ID:      job.Request.ID,
			Text:    result.Text,
			IsError: result.IsError,
			Code:    result.Code,
		},
	}
	if err := p.hub.Send(job.SessionID, msg); err != nil {
		log.Printf("Worker %d: failed to deliver %v to session %s: %v", id, job.Request.ID, job.SessionID, err)
	}
}
