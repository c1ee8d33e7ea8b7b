// Package scheduler runs the server's periodic housekeeping.
package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Job runs Run every Every. Intervals under a second are rounded up to one.
type Job struct {
	Name  string
	Every time.Duration
	Run   func()
}

type Scheduler struct {
	c *cron.Cron
}

func New(jobs ...Job) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
	for _, job := range jobs {
		if job.Every <= 0 {
			return nil, fmt.Errorf("job %s: interval must be positive", job.Name)
		}
		if _, err := c.AddFunc("@every "+job.Every.String(), job.Run); err != nil {
			return nil, fmt.Errorf("could not schedule %s: %w", job.Name, err)
		}
		log.Printf("Scheduled %s every %s", job.Name, job.Every)
	}
	return &Scheduler{c: c}, nil
}

func (s *Scheduler) Start() {
	s.c.Start()
}

// Stop prevents new runs and waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.c.Stop().Done()
}

func (s *Scheduler) Len() int {
	return len(s.c.Entries())
}
