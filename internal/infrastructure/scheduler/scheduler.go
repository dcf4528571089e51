package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds scheduler configuration
type Config struct {
	Enabled       bool
	PollInterval  time.Duration
	MaxConcurrent int
	JobTimeout    time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		PollInterval:  30 * time.Second,
		MaxConcurrent: 3,
		JobTimeout:    5 * time.Minute,
		RetryAttempts: 3,
		RetryDelay:    5 * time.Minute,
	}
}

// Validate checks the configuration
func (c Config) Validate() error {
	if c.PollInterval <= 0 || c.MaxConcurrent <= 0 || c.JobTimeout <= 0 {
		return ErrInvalidConfig
	}
	return nil
}

// Scheduler polls the job store for due deferred jobs and dispatches them
// to registered handlers through a bounded worker pool.
type Scheduler struct {
	config   Config
	repo     JobRepository
	registry *Registry
	logger   *zap.Logger

	jobs      chan *Job
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler instance
func NewScheduler(config Config, repo JobRepository, registry *Registry, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		config:   config,
		repo:     repo,
		registry: registry,
		logger:   logger,
		jobs:     make(chan *Job, 100),
	}
}

// Start starts the poll loop and the worker pool
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for i := 0; i < s.config.MaxConcurrent; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}

	s.wg.Add(1)
	go s.pollLoop(ctx)

	s.logger.Info("Deferred job scheduler started",
		zap.Int("workers", s.config.MaxConcurrent),
		zap.Duration("poll_interval", s.config.PollInterval),
	)

	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Deferred job scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Deferred job scheduler stop timed out")
		return ctx.Err()
	}
}

// pollLoop periodically claims due jobs and feeds them to the workers
func (s *Scheduler) pollLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.dispatchDue(ctx)
		}
	}
}

// dispatchDue claims a batch of due jobs and queues them
func (s *Scheduler) dispatchDue(ctx context.Context) {
	claimed, err := s.repo.ClaimDue(ctx, time.Now(), cap(s.jobs)-len(s.jobs))
	if err != nil {
		s.logger.Error("Failed to claim due jobs", zap.Error(err))
		return
	}

	for _, job := range claimed {
		select {
		case s.jobs <- job:
		case <-ctx.Done():
			return
		}
	}
}

// worker processes jobs from the queue
func (s *Scheduler) worker(ctx context.Context, workerID int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-s.jobs:
			if !ok {
				return
			}
			s.processJob(ctx, job, workerID)
		}
	}
}

// processJob executes a single job through its registered handler
func (s *Scheduler) processJob(ctx context.Context, job *Job, workerID int) {
	job.Start()
	s.logger.Info("Processing deferred job",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("deal_id", job.DealID.String()),
		zap.String("kind", job.Kind),
	)

	jobCtx, cancel := context.WithTimeout(ctx, s.config.JobTimeout)
	defer cancel()

	err := s.execute(jobCtx, job)
	if err != nil {
		job.Fail(err.Error())
		s.logger.Error("Deferred job failed",
			zap.Int("worker_id", workerID),
			zap.String("job_id", job.ID.String()),
			zap.String("kind", job.Kind),
			zap.Error(err),
		)

		if job.ShouldRetry() {
			job.ScheduleRetry(s.config.RetryDelay)
			s.logger.Info("Deferred job scheduled for retry",
				zap.String("job_id", job.ID.String()),
				zap.Int("retry_count", job.RetryCount),
				zap.Int("max_retries", job.MaxRetries),
			)
		}
		if uerr := s.repo.Update(jobCtx, job); uerr != nil {
			s.logger.Error("Failed to persist job state", zap.Error(uerr))
		}
		return
	}

	job.Complete()
	if uerr := s.repo.Update(jobCtx, job); uerr != nil {
		s.logger.Error("Failed to persist job state", zap.Error(uerr))
	}

	s.logger.Info("Deferred job completed",
		zap.Int("worker_id", workerID),
		zap.String("job_id", job.ID.String()),
		zap.String("kind", job.Kind),
	)
}

func (s *Scheduler) execute(ctx context.Context, job *Job) error {
	handler, err := s.registry.Lookup(job.Kind)
	if err != nil {
		return err
	}
	return handler.Handle(ctx, job)
}
