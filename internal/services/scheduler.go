package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"vehicle-auction/internal/domain"
	"vehicle-auction/pkg/logger"
	"vehicle-auction/pkg/utils"
)

// CronScheduler drives all periodic work from one explicit tick: it
// executes due lifecycle jobs (publish/end) and runs the proxy bid
// pass. Ticks are gated on Redis leader election so a fleet of
// instances runs scheduled work exactly once. It also implements
// domain.AuctionScheduler by persisting jobs to the scheduler table.
type CronScheduler struct {
	cron       *cron.Cron
	repo       domain.SchedulerRepository
	lifecycle  *AuctionLifecycle
	proxyBids  *ProxyBidScheduler
	leader     domain.LeaderElection
	instanceID string
	tickSpec   string
	log        logger.Logger
}

func NewCronScheduler(
	repo domain.SchedulerRepository,
	lifecycle *AuctionLifecycle,
	proxyBids *ProxyBidScheduler,
	leader domain.LeaderElection,
	instanceID string,
	tickSpec string,
	log logger.Logger,
) *CronScheduler {
	return &CronScheduler{
		cron:       cron.New(cron.WithSeconds()),
		repo:       repo,
		lifecycle:  lifecycle,
		proxyBids:  proxyBids,
		leader:     leader,
		instanceID: instanceID,
		tickSpec:   tickSpec,
		log:        log,
	}
}

func (s *CronScheduler) Start(ctx context.Context) error {
	s.log.Info("Starting scheduler", "tick_spec", s.tickSpec)

	_, err := s.cron.AddFunc(s.tickSpec, func() {
		s.tick(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *CronScheduler) Stop() error {
	s.log.Info("Stopping scheduler")
	s.cron.Stop()
	return nil
}

func (s *CronScheduler) tick(ctx context.Context) {
	isLeader, err := s.leader.IsLeader(ctx, s.instanceID)
	if err != nil {
		s.log.Error("Failed to check leadership", "error", err)
		return
	}
	if !isLeader {
		return
	}

	s.processPendingJobs(ctx)
	s.proxyBids.Tick(ctx)
}

func (s *CronScheduler) SchedulePublish(ctx context.Context, auctionID string, startAt time.Time) error {
	return s.repo.CreateJob(ctx, &domain.ScheduledJob{
		ID:        utils.GenerateID("job"),
		AuctionID: auctionID,
		JobType:   domain.JobPublishAuction,
		RunAt:     startAt,
		Status:    domain.JobPending,
		CreatedAt: time.Now(),
	})
}

func (s *CronScheduler) ScheduleEnd(ctx context.Context, auctionID string, endAt time.Time) error {
	return s.repo.CreateJob(ctx, &domain.ScheduledJob{
		ID:        utils.GenerateID("job"),
		AuctionID: auctionID,
		JobType:   domain.JobEndAuction,
		RunAt:     endAt,
		Status:    domain.JobPending,
		CreatedAt: time.Now(),
	})
}

// RescheduleEnd replaces the pending end job after a soft-close
// extension moved the clock.
func (s *CronScheduler) RescheduleEnd(ctx context.Context, auctionID string, newEndAt time.Time) error {
	if err := s.repo.CancelJobsForAuction(ctx, auctionID); err != nil {
		return err
	}
	return s.ScheduleEnd(ctx, auctionID, newEndAt)
}

func (s *CronScheduler) CancelSchedule(ctx context.Context, auctionID string) error {
	return s.repo.CancelJobsForAuction(ctx, auctionID)
}

func (s *CronScheduler) processPendingJobs(ctx context.Context) {
	jobs, err := s.repo.GetPendingJobs(ctx, time.Now())
	if err != nil {
		s.log.Error("Failed to get pending jobs", "error", err)
		return
	}

	for _, job := range jobs {
		s.log.Info("Processing job", "job_id", job.ID, "type", job.JobType, "auction_id", job.AuctionID)

		var err error
		switch job.JobType {
		case domain.JobPublishAuction:
			err = s.lifecycle.PublishAuction(ctx, job.AuctionID)
		case domain.JobEndAuction:
			err = s.lifecycle.EndAuction(ctx, job.AuctionID)
		}

		if err != nil {
			// Left pending; the next tick retries without blocking
			// work for other auctions.
			s.log.Error("Failed to execute job", "job_id", job.ID, "error", err)
			continue
		}

		if err := s.repo.UpdateJobStatus(ctx, job.ID, domain.JobExecuted); err != nil {
			s.log.Error("Failed to update job status", "job_id", job.ID, "error", err)
		}
	}
}
