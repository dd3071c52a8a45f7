package application

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Job names
const (
	JobReconcilePayments = "reconcile-payments"
	JobCloseExpired      = "close-expired"
)

// Job is a named unit of background work run on a cron schedule
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Scheduler runs background jobs. A run that is still going when its next tick
// arrives makes that tick a no-op.
type Scheduler struct {
	cron    *cron.Cron
	metrics Metrics
	jobs    []Job
}

// NewScheduler creates an empty scheduler
func NewScheduler(metrics Metrics) *Scheduler {
	logger := cron.PrintfLogger(log.StandardLogger())
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		metrics: metricsOrNoop(metrics),
	}
}

// Add registers a job; the schedule uses the standard cron spec or @every descriptors
func (s *Scheduler) Add(ctx context.Context, job Job) error {
	_, err := s.cron.AddFunc(job.Schedule, func() {
		s.runJob(ctx, job)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", job.Name, err)
	}
	s.jobs = append(s.jobs, job)

	log.WithFields(log.Fields{
		"job":      job.Name,
		"schedule": job.Schedule,
	}).Info("Scheduled background job")
	return nil
}

// Start begins running jobs and returns a function that stops the scheduler and
// waits for running jobs to finish
func (s *Scheduler) Start() func() {
	s.cron.Start()
	log.WithField("jobs", len(s.jobs)).Info("Background scheduler started")

	return func() {
		<-s.cron.Stop().Done()
		log.Info("Background scheduler stopped")
	}
}

func (s *Scheduler) runJob(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}

	start := time.Now()
	err := job.Run(ctx)
	duration := time.Since(start)
	s.metrics.RecordJobRun(job.Name, err, duration)

	fields := log.Fields{
		"job":      job.Name,
		"duration": duration,
	}
	if err != nil {
		fields["error"] = err
		log.WithFields(fields).Error("Background job failed")
		return
	}
	log.WithFields(fields).Debug("Background job finished")
}

// ReconcilePaymentsJob polls payment sessions left pending for longer than olderThan
func ReconcilePaymentsJob(schedule string, payments *PaymentHandler, olderThan time.Duration) Job {
	return Job{
		Name:     JobReconcilePayments,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			_, err := payments.Reconcile(ctx, olderThan)
			return err
		},
	}
}

// CloseExpiredJob ends active competitions that are past their end date
func CloseExpiredJob(schedule string, catalogue *CatalogueHandler) Job {
	return Job{
		Name:     JobCloseExpired,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			closed, err := catalogue.CloseExpired(ctx, time.Now())
			if err != nil {
				return err
			}
			for _, c := range closed {
				log.WithFields(log.Fields{
					"competitionID": c.ID,
					"soldTickets":   c.SoldTickets,
				}).Info("Closed expired competition")
			}
			return nil
		},
	}
}
