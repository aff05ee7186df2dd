// Package scheduler drives named, time-offset tasks with
// at-most-one-concurrent-run-per-name semantics.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/Doot-Foundation/doot-oracle/pkg/logging"
	"github.com/Doot-Foundation/doot-oracle/pkg/metrics"
)

// Status is the outcome of one task execution.
type Status string

const (
	// StatusCompleted means the task ran; Failed may still list tokens that
	// failed individually (partial success).
	StatusCompleted Status = "completed"
	// StatusFailed means the task as a whole failed.
	StatusFailed Status = "failed"
	// StatusSkipped means the task name was already running. Not an error.
	StatusSkipped Status = "skipped"
)

// Report is what a task execution returns to its trigger.
type Report struct {
	Task   string   `json:"task"`
	Status Status   `json:"status"`
	Failed []string `json:"failed,omitempty"`
	Err    error    `json:"-"`
}

// TaskFunc is a task body. It loops over its own work items and collects
// per-item failures rather than aborting on the first one.
type TaskFunc func(ctx context.Context) Report

// cycleEntry is one named task at a fixed offset within the cycle.
type cycleEntry struct {
	offset time.Duration
	name   string
	fn     TaskFunc
}

// Orchestrator owns the running-task registry and the cycle schedule. Tasks
// are not cancellable once started; the skip-if-running registry is the only
// guard against pile-up when a task hangs.
type Orchestrator struct {
	clock  Clock
	logger *logging.Logger

	mu      sync.Mutex
	running map[string]struct{}

	entries []cycleEntry
}

// New creates an orchestrator around a clock.
func New(clock Clock, logger *logging.Logger) *Orchestrator {
	return &Orchestrator{
		clock:   clock,
		logger:  logger,
		running: make(map[string]struct{}),
	}
}

// Execute runs fn under name unless an execution of the same name is still in
// flight, in which case it returns a skipped report without invoking fn.
// Deregistration is guaranteed regardless of how fn ends.
func (o *Orchestrator) Execute(ctx context.Context, name string, fn TaskFunc) Report {
	if !o.acquire(name) {
		o.logger.Info("Task already running, skipping", "task", name)
		metrics.RecordTaskRun(name, string(StatusSkipped), 0)
		return Report{Task: name, Status: StatusSkipped}
	}

	start := o.clock.Now()
	defer o.release(name)

	report := fn(ctx)
	report.Task = name
	if report.Status == "" {
		report.Status = StatusCompleted
	}

	elapsed := o.clock.Now().Sub(start)
	metrics.RecordTaskRun(name, string(report.Status), elapsed)

	switch report.Status {
	case StatusFailed:
		o.logger.Error("Task failed", "task", name, "error", errString(report.Err))
	default:
		o.logger.Info("Task finished",
			"task", name,
			"status", string(report.Status),
			"failed", report.Failed,
			"duration", elapsed.String())
	}

	return report
}

// Schedule arranges for one execution of name after delay. Each scheduled
// task gets its own timer; there is no shared tick.
func (o *Orchestrator) Schedule(delay time.Duration, name string, fn TaskFunc) {
	o.clock.AfterFunc(delay, func() {
		o.Execute(context.Background(), name, fn)
	})
}

// Register adds a named task at a fixed offset to the cycle schedule.
func (o *Orchestrator) Register(offset time.Duration, name string, fn TaskFunc) {
	o.entries = append(o.entries, cycleEntry{offset: offset, name: name, fn: fn})
}

// RunCycle schedules every registered task at its offset and returns
// immediately; the trigger is never blocked on task execution.
func (o *Orchestrator) RunCycle() {
	for _, e := range o.entries {
		o.Schedule(e.offset, e.name, e.fn)
	}
	o.logger.Debug("Cycle scheduled", "tasks", len(o.entries))
}

// Running returns the names currently executing.
func (o *Orchestrator) Running() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	names := make([]string, 0, len(o.running))
	for name := range o.running {
		names = append(names, name)
	}
	return names
}

func (o *Orchestrator) acquire(name string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.running[name]; ok {
		return false
	}
	o.running[name] = struct{}{}
	return true
}

func (o *Orchestrator) release(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.running, name)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
