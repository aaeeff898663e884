// Package scheduler binds the ingestion and screening jobs to cron
// triggers, per spec.md §6.
package scheduler

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"
)

// Scheduler wraps a robfig/cron runner. Each registered job runs with its
// own background context and logs its own start/finish/error, since cron
// jobs fire independently of any request lifecycle.
type Scheduler struct {
	cron *cron.Cron
}

// New constructs a Scheduler. Jobs must be registered with AddIngestion
// and AddScreening before Start is called.
func New() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// AddIngestion registers fn to run on the given cron expression
// (spec.md §6's ingestion.schedule.cron, default "21 */6 * * *").
func (s *Scheduler) AddIngestion(expr string, fn func(ctx context.Context) error) error {
	return s.addJob("ingestion", expr, fn)
}

// AddScreening registers fn to run on the given cron expression. A blank
// expression disables scheduled screening; it can still be triggered
// manually through the HTTP surface.
func (s *Scheduler) AddScreening(expr string, fn func(ctx context.Context) error) error {
	if expr == "" {
		log.Printf("scheduler: no screening cron expression configured, manual trigger only")
		return nil
	}
	return s.addJob("screening", expr, fn)
}

func (s *Scheduler) addJob(name, expr string, fn func(ctx context.Context) error) error {
	_, err := s.cron.AddFunc(expr, func() {
		log.Printf("scheduler: starting %s job", name)
		if err := fn(context.Background()); err != nil {
			log.Printf("scheduler: %s job failed: %v", name, err)
			return
		}
		log.Printf("scheduler: %s job finished", name)
	})
	return err
}

// Start begins running registered jobs on their schedules. Non-blocking.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish and stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
