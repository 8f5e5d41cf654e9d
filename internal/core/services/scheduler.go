package services

import (
	"context"
	"sync"
	"time"

	"github.com/fieldwork-labs/centralsync/internal/core/domain"
	"github.com/fieldwork-labs/centralsync/internal/core/ports/driven"
	"github.com/fieldwork-labs/centralsync/internal/core/ports/driving"
	"github.com/fieldwork-labs/centralsync/internal/logger"
)

// historyRetention is how many results are kept per task.
const historyRetention = 100

// Scheduler manages the two recurring sweeps: the faster submission
// synchronization and the slower form upgrade. Task state and execution
// history are persisted through the scheduler store so restarts resume
// the cadence. The two sweeps may overlap each other, never themselves;
// they share no mutable state beyond the store and the remote service.
type Scheduler struct {
	config     domain.SchedulerConfig
	store      driven.SchedulerStore
	dispatcher driving.SyncDispatcher

	mu      sync.Mutex
	running bool
	active  map[string]bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	dispatcher driving.SyncDispatcher,
) *Scheduler {
	return &Scheduler{
		config:     config,
		store:      store,
		dispatcher: dispatcher,
		active:     make(map[string]bool),
	}
}

// Start begins the scheduler loop. This method blocks until Stop is
// called or the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Error("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx)
}

// Stop gracefully shuts down the scheduler and waits for running sweeps.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// initialiseTasks ensures the built-in tasks exist in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	if cfg := s.config.GetTaskConfig(domain.TaskIDSubmissionSync); cfg.Enabled {
		if err := s.ensureTask(ctx, domain.TaskIDSubmissionSync, "Submission Sync", cfg); err != nil {
			return err
		}
	}
	if cfg := s.config.GetTaskConfig(domain.TaskIDFormUpgrade); cfg.Enabled {
		if err := s.ensureTask(ctx, domain.TaskIDFormUpgrade, "Form Upgrade", cfg); err != nil {
			return err
		}
	}
	return nil
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  time.Now().Add(cfg.Interval),
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = time.Now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.SaveTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context) error {
	// Check for due tasks immediately on startup
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.ListTasks(ctx)
	if err != nil {
		logger.Error("scheduler: failed to list tasks: %v", err)
		return
	}

	now := time.Now()
	for i := range tasks {
		task := &tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			s.runTask(ctx, task)
		}
	}
}

// runTask executes a single sweep task in its own goroutine, so the
// synchronize and upgrade cadences never block each other. A task whose
// sweep outlasts the tick is still running when the next due check
// fires; it must not be dispatched a second time.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.mu.Lock()
	if s.active[task.ID] {
		s.mu.Unlock()
		return
	}
	s.active[task.ID] = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.active, task.ID)
			s.mu.Unlock()
		}()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: time.Now(),
		}

		var err error
		switch task.ID {
		case domain.TaskIDSubmissionSync:
			result.ItemsProcessed, err = s.runSweep(ctx, domain.IntentSynchronize)
		case domain.TaskIDFormUpgrade:
			result.ItemsProcessed, err = s.runSweep(ctx, domain.IntentUpgrade)
		default:
			logger.Warn("scheduler: unknown task ID: %s", task.ID)
			return
		}

		result.EndedAt = time.Now()
		if err != nil {
			result.Success = false
			result.Error = err.Error()
			task.LastError = err.Error()
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
		}

		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		if saveErr := s.store.SaveTask(ctx, task); saveErr != nil {
			logger.Error("scheduler: failed to save task %s: %v", task.ID, saveErr)
		}
		if recordErr := s.store.RecordResult(ctx, result); recordErr != nil {
			logger.Error("scheduler: failed to record result for %s: %v", task.ID, recordErr)
		}
		if pruneErr := s.store.PruneHistory(ctx, historyRetention); pruneErr != nil {
			logger.Error("scheduler: failed to prune history: %v", pruneErr)
		}
	}()
}

// runSweep dispatches one full sweep for the intent.
func (s *Scheduler) runSweep(ctx context.Context, intent domain.SyncIntent) (int, error) {
	if s.dispatcher == nil {
		logger.Warn("scheduler: no dispatcher configured, skipping %s sweep", intent)
		return 0, nil
	}
	report, err := s.dispatcher.Sweep(ctx, intent)
	if err != nil {
		return 0, err
	}
	return report.Processed, nil
}
