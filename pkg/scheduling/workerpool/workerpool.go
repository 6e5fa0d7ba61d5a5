package workerpool

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/vnykmshr/wakeflow/pkg/channel/mpsc"
	"github.com/vnykmshr/wakeflow/pkg/channel/oneshot"
	wfcontext "github.com/vnykmshr/wakeflow/pkg/common/context"
	wferrors "github.com/vnykmshr/wakeflow/pkg/common/errors"
	"github.com/vnykmshr/wakeflow/pkg/common/validation"
)

// Submit adds a task to the pool for execution.
// The task will be executed with context.Background().
// Use SubmitWithContext to provide a custom context.
func (p *Pool) Submit(task Task) error {
	return p.SubmitWithContext(context.Background(), task)
}

// SubmitWithTimeout is SubmitWithContext bounded by timeout while waiting
// for queue space. The task itself runs with context.Background().
func (p *Pool) SubmitWithTimeout(task Task, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return p.enqueue(ctx, context.Background(), task, nil)
}

// SubmitWithContext adds a task to the pool for execution with the given context.
// The context bounds waiting for queue space and is passed to the task's
// Execute method. If the pool has a TaskTimeout configured, the effective
// deadline is the earlier of the two.
func (p *Pool) SubmitWithContext(ctx context.Context, task Task) error {
	return p.enqueue(ctx, ctx, task, nil)
}

// SubmitAwait submits a task and returns a receiver that yields exactly its
// Result. The result is also delivered on the Results stream. If the task
// is never run, the receiver reports errors.ErrSenderDropped.
func (p *Pool) SubmitAwait(ctx context.Context, task Task) (*oneshot.Receiver[Result], error) {
	tx, rx := oneshot.New[Result]()
	done := func(res Result) {
		// The caller may have stopped waiting.
		_ = tx.Send(res)
	}
	if err := p.enqueue(ctx, ctx, task, done); err != nil {
		tx.Close()
		rx.Close()
		return nil, err
	}
	return rx, nil
}

func (p *Pool) enqueue(waitCtx, taskCtx context.Context, task Task, done func(Result)) error {
	if err := validation.ValidateNotNil("workerpool", "task", task); err != nil {
		return err
	}

	p.mu.RLock()
	if p.isShutdown {
		p.mu.RUnlock()
		return ErrPoolShutdown
	}
	p.submitting.Add(1)
	p.mu.RUnlock()
	defer p.submitting.Done()

	// A pre-canceled context never queues, even if there is room.
	if err := waitCtx.Err(); err != nil {
		return fmt.Errorf("cannot submit task: %w", err)
	}

	j := job{id: p.nextID.Add(1), task: task, ctx: taskCtx, done: done}
	select {
	case <-p.shutdownCh:
		return ErrPoolShutdown
	default:
	}

	select {
	case p.taskQueue <- j:
	case <-p.shutdownCh:
		return ErrPoolShutdown
	case <-waitCtx.Done():
		return fmt.Errorf("cannot submit task: %w", waitCtx.Err())
	}

	p.submitted.Add(1)
	if m := p.config.Metrics; m != nil {
		m.TasksSubmitted.WithLabelValues(p.config.Name).Inc()
	}
	return nil
}

// worker executes jobs until the task queue is closed and drained.
type worker struct {
	id      int
	pool    *Pool
	results *mpsc.Sender[Result]
}

func (w *worker) run() {
	defer w.pool.workerWg.Done()
	defer w.results.Close()

	for j := range w.pool.taskQueue {
		w.execute(j)
	}
}

func (w *worker) execute(j job) {
	p := w.pool
	name := p.config.Name

	p.active.Add(1)
	if m := p.config.Metrics; m != nil {
		m.WorkerPoolActive.WithLabelValues(name).Inc()
	}

	start := time.Now()
	err := w.runTask(j)
	res := Result{
		TaskID:   j.id,
		Task:     j.task,
		Error:    err,
		Duration: time.Since(start),
		WorkerID: w.id,
	}

	p.active.Add(-1)
	p.completed.Add(1)
	if m := p.config.Metrics; m != nil {
		m.WorkerPoolActive.WithLabelValues(name).Dec()
		m.TaskExecutionDuration.WithLabelValues(name).Observe(res.Duration.Seconds())
		if err != nil {
			m.TasksFailed.WithLabelValues(name).Inc()
		} else {
			m.TasksCompleted.WithLabelValues(name).Inc()
		}
	}

	if j.done != nil {
		j.done(res)
	}
	if err := w.results.Send(res); err != nil && !wferrors.IsDisconnected(err) {
		p.logger.Warn("dropping task result", "task_id", res.TaskID, "error", err)
	}
}

func (w *worker) runTask(j job) (err error) {
	p := w.pool

	defer func() {
		if r := recover(); r != nil {
			if p.config.PanicHandler != nil {
				p.config.PanicHandler(j.task, r)
			}
			p.logger.Error("task panicked", "task_id", j.id, "worker", w.id, "panic", r)
			err = fmt.Errorf("%w: %v\nStack trace:\n%s", ErrTaskPanicked, r, debug.Stack())
		}
	}()

	ctx, cancel := wfcontext.WithTimeoutOrCancel(j.ctx, p.config.TaskTimeout)
	defer cancel()

	err = j.task.Execute(ctx)
	if err != nil && wfcontext.IsTimedOut(ctx) {
		p.logger.Warn("task timed out", "task_id", j.id, "worker", w.id, "timeout", p.config.TaskTimeout)
	}
	return err
}
