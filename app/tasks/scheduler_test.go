package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/guideops/activity-comb/app/cfg"
)

type explodingTask struct {
	Task
	executions chan struct{}
}

func newExplodingTask() *explodingTask {
	return &explodingTask{
		Task:       NewTask(TaskTypeReconcile),
		executions: make(chan struct{}, 8),
	}
}

func (t *explodingTask) Execute(ctx context.Context) error {
	t.executions <- struct{}{}
	return errors.New("boom")
}

func newTestScheduler(t *testing.T) TaskSchedulerInterface {
	t.Helper()
	cfg.Set(&cfg.Cfg{WorkerCount: 1, SchedulerInterval: 0})
	return NewScheduler(nil)
}

func TestScheduler_StopWithPendingRetry(t *testing.T) {
	scheduler := newTestScheduler(t)
	scheduler.Start()

	task := newExplodingTask()
	if err := scheduler.EnqueueTask(task); err != nil {
		t.Fatalf("EnqueueTask failed: %v", err)
	}

	// Wait for the first execution to fail, which schedules a delayed retry
	select {
	case <-task.executions:
	case <-time.After(5 * time.Second):
		t.Fatal("Task was never executed")
	}

	// Stop must wait out (or cancel) the pending retry instead of closing
	// the queue underneath it
	done := make(chan struct{})
	go func() {
		scheduler.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return with a retry pending")
	}
}

func TestScheduler_RetriesFailedTask(t *testing.T) {
	scheduler := newTestScheduler(t)
	scheduler.Start()
	defer scheduler.Stop()

	task := newExplodingTask()
	if err := scheduler.EnqueueTask(task); err != nil {
		t.Fatalf("EnqueueTask failed: %v", err)
	}

	// First attempt plus at least one retry after the backoff delay
	for i := 0; i < 2; i++ {
		select {
		case <-task.executions:
		case <-time.After(10 * time.Second):
			t.Fatalf("Expected execution %d, timed out", i+1)
		}
	}
}
