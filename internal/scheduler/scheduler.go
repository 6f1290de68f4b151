// Package scheduler runs the periodic jobs of the rewards backend.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/mathurkanhaiya/star-rewards-hub-sub000/internal/model"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

type ContestDistributor interface {
	DistributeDue(ctx context.Context) (int, error)
}

type SettingsReloader interface {
	Reload(ctx context.Context) error
}

type LedgerVerifier interface {
	VerifyLedger(ctx context.Context) ([]model.LedgerMismatch, error)
}

type Specs struct {
	Contests string
	Settings string
	Ledger   string
}

type Scheduler struct {
	cron    *cron.Cron
	log     *logrus.Logger
	timeout time.Duration
}

// New registers the jobs whose spec is non-empty. Jobs never overlap with
// their own previous run.
func New(specs Specs, contests ContestDistributor, settings SettingsReloader, ledger LedgerVerifier, log *logrus.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
			cron.SkipIfStillRunning(cron.DefaultLogger),
		)),
		log:     log,
		timeout: 5 * time.Minute,
	}

	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) error
	}{
		{"distribute_contests", specs.Contests, func(ctx context.Context) error {
			paid, err := contests.DistributeDue(ctx)
			if paid > 0 {
				log.WithField("contests", paid).Info("distributed ended contests")
			}
			return err
		}},
		{"reload_settings", specs.Settings, settings.Reload},
		{"verify_ledger", specs.Ledger, func(ctx context.Context) error {
			mismatches, err := ledger.VerifyLedger(ctx)
			if err == nil && len(mismatches) > 0 {
				log.WithField("users", len(mismatches)).Error("ledger verification found mismatches")
			}
			return err
		}},
	}

	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		if _, err := s.cron.AddFunc(job.spec, s.wrap(job.name, job.run)); err != nil {
			return nil, fmt.Errorf("invalid schedule %q for %s: %w", job.spec, job.name, err)
		}
	}

	return s, nil
}

func (s *Scheduler) wrap(name string, run func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		if err := run(ctx); err != nil {
			s.log.WithError(err).WithField("job", name).Error("scheduled job failed")
			return
		}
		s.log.WithFields(logrus.Fields{"job": name, "took": time.Since(start)}).Debug("scheduled job finished")
	}
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}
