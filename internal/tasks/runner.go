// Package tasks runs long jobs in the background and records their outcome
// in the task_status table.
package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"gorm.io/gorm"

	"itemsclassification/internal/metrics"
	"itemsclassification/models"
)

// Func is the body of a task. The returned string is stored as the task's
// info on success.
type Func func(ctx context.Context) (string, error)

type Runner struct {
	DB     *gorm.DB
	Logger *zap.SugaredLogger

	sem    *semaphore.Weighted
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRunner creates a runner executing at most maxConcurrent tasks at once.
func NewRunner(db *gorm.DB, maxConcurrent int, logger *zap.SugaredLogger) *Runner {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Runner{
		DB:     db,
		Logger: logger.With("service", "tasks"),
		sem:    semaphore.NewWeighted(int64(maxConcurrent)),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start records a new in_progress task and runs fn in the background. It
// returns the task's UUID without waiting for fn.
//
// fn's context is cancelled when ctx is or when Wait gives up. Callers
// starting a task from a request should detach it with
// context.WithoutCancel.
func (r *Runner) Start(ctx context.Context, kind models.TaskKind, fn Func) (string, error) {
	taskUUID := uuid.NewString()

	if _, err := models.CreateTaskStatus(r.DB.WithContext(ctx), taskUUID, kind); err != nil {
		return "", fmt.Errorf("cannot record task: %w", err)
	}

	taskCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(r.ctx, cancel)

	r.wg.Add(1)
	go func() {
		defer cancel()
		defer stop()
		r.run(taskCtx, taskUUID, kind, fn)
	}()

	return taskUUID, nil
}

func (r *Runner) run(ctx context.Context, taskUUID string, kind models.TaskKind, fn Func) {
	defer r.wg.Done()

	logger := r.Logger.With("task_uuid", taskUUID, "task", kind)

	if err := r.sem.Acquire(ctx, 1); err != nil {
		r.finish(logger, taskUUID, kind, "", fmt.Errorf("task cancelled before start: %w", err))
		return
	}
	defer r.sem.Release(1)

	active := metrics.TasksActive.WithLabelValues(string(kind))
	active.Inc()
	defer active.Dec()

	logger.Infow("Task started")

	info, err := r.call(ctx, fn)
	r.finish(logger, taskUUID, kind, info, err)
}

func (r *Runner) call(ctx context.Context, fn Func) (info string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()

	return fn(ctx)
}

func (r *Runner) finish(logger *zap.SugaredLogger, taskUUID string, kind models.TaskKind, info string, err error) {
	state := models.TaskSuccess
	if err != nil {
		state = models.TaskError
		info = err.Error()
		logger.Errorw("Task failed", "error", err)
	} else {
		logger.Infow("Task finished", "info", info)
	}

	metrics.TasksTotal.WithLabelValues(string(kind), string(state)).Inc()

	if err := models.UpdateTaskStatus(r.DB, taskUUID, state, info); err != nil {
		logger.Errorw("Cannot update task status", "error", err)
	}
}

// Wait blocks until every started task has finished or ctx is done. Tasks
// still running when ctx is done are cancelled.
func (r *Runner) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}
