package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/erp/stockledger/internal/domain/shared"
	"go.uber.org/zap"
)

// RunStatus is the outcome of one task run
type RunStatus string

const (
	RunStatusSuccess RunStatus = "SUCCESS"
	RunStatusFailed  RunStatus = "FAILED"
	RunStatusSkipped RunStatus = "SKIPPED"
)

// TaskFunc is the body of a periodic task. now is the tick time.
type TaskFunc func(ctx context.Context, now time.Time) error

// Task is a named periodic job
type Task struct {
	Name     string
	Interval time.Duration
	Run      TaskFunc
}

func (t Task) validate() error {
	if t.Name == "" || t.Interval <= 0 || t.Run == nil {
		return fmt.Errorf("%w: %q", ErrInvalidTask, t.Name)
	}
	return nil
}

// TaskStats counts runs of one task
type TaskStats struct {
	Runs       int
	Failures   int
	Skipped    int
	LastStatus RunStatus
	LastRunAt  time.Time
	LastError  string
}

// Config holds scheduler configuration
type Config struct {
	Enabled bool
	// LockTTL bounds how long one replica holds a task's leader lock
	LockTTL time.Duration
	// TaskTimeout bounds a single run
	TaskTimeout time.Duration
	// RunOnStart triggers every task once right after Start
	RunOnStart bool
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		Enabled:     true,
		LockTTL:     10 * time.Minute,
		TaskTimeout: 5 * time.Minute,
	}
}

// Scheduler runs periodic tasks on tickers. Each run first obtains a leader
// lock named after the task, so across replicas only one runs a given tick.
type Scheduler struct {
	config Config
	locker shared.Locker
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	tasks     []Task
	stats     map[string]*TaskStats
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	isRunning bool
}

// New creates a scheduler. locker may be nil for a single replica deployment.
func New(config Config, locker shared.Locker, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.LockTTL <= 0 {
		config.LockTTL = DefaultConfig().LockTTL
	}
	return &Scheduler{
		config: config,
		locker: locker,
		logger: logger,
		now:    time.Now,
		stats:  make(map[string]*TaskStats),
	}
}

// Register adds a task. Tasks must be registered before Start.
func (s *Scheduler) Register(task Task) error {
	if err := task.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerRunning
	}
	if _, ok := s.stats[task.Name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTask, task.Name)
	}
	s.tasks = append(s.tasks, task)
	s.stats[task.Name] = &TaskStats{}
	return nil
}

// Start launches one ticker loop per task. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.config.Enabled {
		s.logger.Info("Scheduler disabled")
		return nil
	}
	if s.isRunning {
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, task := range s.tasks {
		s.wg.Add(1)
		go s.loop(ctx, task)
	}

	s.logger.Info("Scheduler started",
		zap.Int("tasks", len(s.tasks)),
		zap.Duration("lock_ttl", s.config.LockTTL),
	)
	return nil
}

// Stop cancels the loops and waits for in-flight runs, bounded by ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// Running reports whether the loops are active
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Stats returns a copy of the counters for a task
func (s *Scheduler) Stats(name string) (TaskStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[name]
	if !ok {
		return TaskStats{}, false
	}
	return *st, true
}

// RunNow runs a registered task once, outside its ticker, under the same
// leader lock.
func (s *Scheduler) RunNow(ctx context.Context, name string) (RunStatus, error) {
	s.mu.Lock()
	var (
		task  Task
		found bool
	)
	for _, t := range s.tasks {
		if t.Name == name {
			task, found = t, true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return "", fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}
	return s.runOnce(ctx, task)
}

func (s *Scheduler) loop(ctx context.Context, task Task) {
	defer s.wg.Done()

	s.logger.Debug("Task loop started",
		zap.String("task", task.Name),
		zap.Duration("interval", task.Interval),
	)

	if s.config.RunOnStart {
		_, _ = s.runOnce(ctx, task)
	}

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Task loop stopping", zap.String("task", task.Name))
			return
		case <-ticker.C:
			_, _ = s.runOnce(ctx, task)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, task Task) (RunStatus, error) {
	if ctx.Err() != nil {
		return RunStatusSkipped, ctx.Err()
	}

	if s.locker != nil {
		lock, err := s.locker.Obtain(ctx, "scheduler:"+task.Name, s.config.LockTTL)
		if err != nil {
			if errors.Is(err, shared.ErrLockNotObtained) {
				s.logger.Debug("Task skipped, another replica holds the lock",
					zap.String("task", task.Name),
				)
				s.record(task.Name, RunStatusSkipped, nil)
				return RunStatusSkipped, nil
			}
			s.logger.Error("Failed to obtain task lock",
				zap.String("task", task.Name),
				zap.Error(err),
			)
			s.record(task.Name, RunStatusFailed, err)
			return RunStatusFailed, err
		}
		defer func() {
			// the run may have outlived ctx
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			if err := lock.Release(releaseCtx); err != nil {
				s.logger.Warn("Failed to release task lock",
					zap.String("task", task.Name),
					zap.Error(err),
				)
			}
		}()
	}

	runCtx := ctx
	if s.config.TaskTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.config.TaskTimeout)
		defer cancel()
	}

	started := s.now()
	err := s.safeRun(runCtx, task, started)
	if err != nil {
		s.logger.Error("Task failed",
			zap.String("task", task.Name),
			zap.Duration("duration", time.Since(started)),
			zap.Error(err),
		)
		s.record(task.Name, RunStatusFailed, err)
		return RunStatusFailed, err
	}

	s.logger.Info("Task completed",
		zap.String("task", task.Name),
		zap.Duration("duration", time.Since(started)),
	)
	s.record(task.Name, RunStatusSuccess, nil)
	return RunStatusSuccess, nil
}

func (s *Scheduler) safeRun(ctx context.Context, task Task, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", task.Name, r)
		}
	}()
	return task.Run(ctx, now)
}

func (s *Scheduler) record(name string, status RunStatus, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stats[name]
	if !ok {
		return
	}
	st.LastStatus = status
	st.LastRunAt = s.now()
	switch status {
	case RunStatusSkipped:
		st.Skipped++
		return
	case RunStatusFailed:
		st.Failures++
		st.LastError = err.Error()
	default:
		st.LastError = ""
	}
	st.Runs++
}
