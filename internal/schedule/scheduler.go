package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// dispatchTimeout bounds the gateway calls of one due job.
const dispatchTimeout = 30 * time.Second

type pendingJob struct {
	job   Job
	timer *time.Timer
}

// Scheduler arms one timer per pending job and dispatches the job when it
// fires.
//
// Thread Safety: all methods are safe for concurrent use. Repository writes
// happen under the scheduler lock so a firing job never removes the row of a
// job that replaced it.
type Scheduler struct {
	repo       Repository
	dispatcher Dispatcher
	logger     Logger
	now        func() time.Time

	mu      sync.Mutex
	pending map[string]*pendingJob
	stopped bool
	running sync.WaitGroup
}

// New creates a Scheduler. A nil logger discards log output.
func New(repo Repository, dispatcher Dispatcher, logger Logger) *Scheduler {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Scheduler{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
		pending:    make(map[string]*pendingJob),
	}
}

// Schedule arranges for command to be sent to items after delay.
//
// A pending job for the same command and items is replaced.
//
// Parameters:
//   - ctx: Context for the repository write
//   - command: openHAB command token, e.g. "ON"
//   - items: Item names to receive the command
//   - delay: Time until the command is sent, zero fires immediately
//   - siteID: Voice satellite that asked for the job, may be empty
//
// Returns:
//   - *Job: The persisted job
//   - error: ErrInvalidJob, ErrStopped or a repository failure
func (s *Scheduler) Schedule(ctx context.Context, command string, items []string, delay time.Duration, siteID string) (*Job, error) {
	if command == "" || len(items) == 0 || delay < 0 {
		return nil, fmt.Errorf("%w: command %q, %d items, delay %s", ErrInvalidJob, command, len(items), delay)
	}

	now := s.now().UTC()
	job := Job{
		ID:        JobID(command, items),
		Command:   command,
		Items:     uniqueItems(items),
		DueAt:     now.Add(delay),
		SiteID:    siteID,
		CreatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil, ErrStopped
	}
	if err := s.repo.Save(ctx, &job); err != nil {
		return nil, err
	}
	_, replaced := s.pending[job.ID]
	s.arm(job)

	s.logger.Info("command scheduled",
		"job_id", job.ID,
		"command", command,
		"items", len(job.Items),
		"due_at", job.DueAt,
		"replaced", replaced,
	)
	return &job, nil
}

// Cancel removes a pending job.
//
// Returns ErrJobNotFound if no job with that ID is pending.
func (s *Scheduler) Cancel(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[id]
	if !ok {
		return ErrJobNotFound
	}
	p.timer.Stop()
	delete(s.pending, id)

	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, ErrJobNotFound) {
		return err
	}
	s.logger.Info("scheduled command cancelled", "job_id", id)
	return nil
}

// List returns the pending jobs, earliest due first.
func (s *Scheduler) List(ctx context.Context) ([]Job, error) {
	return s.repo.List(ctx)
}

// Restore arms timers for every persisted job. Overdue jobs fire at once.
//
// Returns the number of jobs armed.
func (s *Scheduler) Restore(ctx context.Context) (int, error) {
	jobs, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("restoring jobs: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return 0, ErrStopped
	}
	for _, job := range jobs {
		s.arm(job)
	}
	if len(jobs) > 0 {
		s.logger.Info("scheduled commands restored", "count", len(jobs))
	}
	return len(jobs), nil
}

// Stop disarms all timers and waits for running dispatches to finish.
// Persisted jobs are kept for the next Restore.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, p := range s.pending {
		p.timer.Stop()
		delete(s.pending, id)
	}
	s.mu.Unlock()

	s.running.Wait()
}

// arm replaces any timer for job.ID. Caller holds s.mu.
func (s *Scheduler) arm(job Job) {
	if old, ok := s.pending[job.ID]; ok {
		old.timer.Stop()
	}

	delay := max(job.DueAt.Sub(s.now()), 0)
	p := &pendingJob{job: job}
	p.timer = time.AfterFunc(delay, func() { s.fire(p) })
	s.pending[job.ID] = p
}

func (s *Scheduler) fire(p *pendingJob) {
	ctx, cancel := context.WithTimeout(context.Background(), dispatchTimeout)
	defer cancel()

	s.mu.Lock()
	if s.stopped || s.pending[p.job.ID] != p {
		s.mu.Unlock()
		return
	}
	delete(s.pending, p.job.ID)
	if err := s.repo.Delete(ctx, p.job.ID); err != nil && !errors.Is(err, ErrJobNotFound) {
		s.logger.Warn("failed to remove fired job", "job_id", p.job.ID, "error", err)
	}
	s.running.Add(1)
	s.mu.Unlock()
	defer s.running.Done()

	if err := s.dispatcher.Dispatch(ctx, p.job.Command, p.job.Items); err != nil {
		s.logger.Error("scheduled command failed",
			"job_id", p.job.ID,
			"command", p.job.Command,
			"error", err,
		)
		return
	}
	s.logger.Info("scheduled command sent", "job_id", p.job.ID, "command", p.job.Command)
}
