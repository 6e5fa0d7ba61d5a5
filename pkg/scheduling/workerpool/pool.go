package workerpool

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vnykmshr/wakeflow/pkg/channel"
	"github.com/vnykmshr/wakeflow/pkg/channel/mpsc"
	wferrors "github.com/vnykmshr/wakeflow/pkg/common/errors"
	"github.com/vnykmshr/wakeflow/pkg/common/validation"
	"github.com/vnykmshr/wakeflow/pkg/metrics"
)

var (
	// ErrPoolShutdown is returned when submitting to a pool that is shutting down.
	ErrPoolShutdown = errors.New("worker pool has been shut down")

	// ErrTaskPanicked marks a Result whose task panicked.
	ErrTaskPanicked = errors.New("task panicked")
)

// Task represents a unit of work that can be executed by a worker.
type Task interface {
	// Execute runs the task with the given context.
	// It should respect context cancellation and return any error encountered.
	Execute(ctx context.Context) error
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func(ctx context.Context) error

// Execute implements the Task interface for TaskFunc.
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Result represents the result of a task execution.
type Result struct {
	// TaskID is the submission sequence number, starting at 1.
	TaskID uint64

	// Task is the original task that was executed
	Task Task

	// Error is any error that occurred during task execution
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration

	// WorkerID identifies which worker executed the task
	WorkerID int
}

// Config holds configuration options for creating a worker pool.
type Config struct {
	// Name labels the pool in logs and metrics.
	Name string

	// WorkerCount is the number of workers in the pool.
	// Must be greater than 0.
	WorkerCount int

	// QueueSize is the maximum number of tasks that can wait for a worker.
	// Zero hands each task directly to an idle worker.
	QueueSize int

	// TaskTimeout bounds each task execution. Zero means no timeout.
	TaskTimeout time.Duration

	// PanicHandler is called when a task panics. The panic is always
	// recovered and reported as a Result wrapping ErrTaskPanicked.
	PanicHandler func(task Task, recovered any)

	// Logger receives pool lifecycle and failure logs. Nil uses slog.Default().
	Logger *slog.Logger

	// Metrics records task and worker activity, and is passed on to the
	// results channel. Nil disables metrics.
	Metrics *metrics.Registry
}

// DefaultConfig returns a configuration with four workers and a queue of 64.
func DefaultConfig() Config {
	return Config{
		Name:        "default",
		WorkerCount: 4,
		QueueSize:   64,
		Logger:      slog.Default(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validation.ValidateNotEmpty("workerpool", "Name", c.Name); err != nil {
		return err
	}
	if err := validation.ValidatePositive("workerpool", "WorkerCount", c.WorkerCount); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("workerpool", "QueueSize", c.QueueSize); err != nil {
		return err
	}
	if c.TaskTimeout < 0 {
		return wferrors.NewValidationError("workerpool", "TaskTimeout", c.TaskTimeout, "cannot be negative").
			WithHint("use 0 to disable the timeout")
	}
	return nil
}

// job is a queued task with everything a worker needs to report on it.
type job struct {
	id   uint64
	task Task
	ctx  context.Context
	done func(Result)
}

// Pool executes tasks on a fixed set of workers. Every result is delivered on
// the MPSC stream returned by Results; SubmitAwait additionally delivers the
// result of one task through a oneshot channel.
type Pool struct {
	config Config
	logger *slog.Logger

	taskQueue chan job
	results   *mpsc.Receiver[Result]

	// mu guards isShutdown; submitting counts Submit calls that passed the
	// shutdown check and may still write to taskQueue.
	mu         sync.RWMutex
	isShutdown bool
	submitting sync.WaitGroup
	shutdownCh chan struct{}
	done       chan struct{}
	once       sync.Once

	workerWg sync.WaitGroup

	nextID    atomic.Uint64
	submitted atomic.Int64
	active    atomic.Int64
	completed atomic.Int64
}

// New creates a pool with the given number of workers and queue size.
func New(workerCount, queueSize int) (*Pool, error) {
	cfg := DefaultConfig()
	cfg.WorkerCount = workerCount
	cfg.QueueSize = queueSize
	return NewWithConfig(cfg)
}

// NewWithConfig creates a pool and starts its workers.
func NewWithConfig(config Config) (*Pool, error) {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	tx, rx := mpsc.NewWithConfig[Result](channel.Config{
		Name:    config.Name + ".results",
		Logger:  config.Logger,
		Metrics: config.Metrics,
	})

	p := &Pool{
		config:     config,
		logger:     config.Logger.With("pool", config.Name),
		taskQueue:  make(chan job, config.QueueSize),
		results:    rx,
		shutdownCh: make(chan struct{}),
		done:       make(chan struct{}),
	}

	for i := 0; i < config.WorkerCount; i++ {
		w := &worker{id: i, pool: p, results: tx.Clone()}
		p.workerWg.Add(1)
		go w.run()
	}
	// Workers own the remaining senders; the stream ends when the last exits.
	tx.Close()

	if m := config.Metrics; m != nil {
		m.WorkerPoolSize.WithLabelValues(config.Name).Set(float64(config.WorkerCount))
		m.WorkerPoolActive.WithLabelValues(config.Name).Set(0)
	}
	p.logger.Debug("worker pool started", "workers", config.WorkerCount, "queue_size", config.QueueSize)
	return p, nil
}

// Results returns the stream of task results. The stream ends after
// Shutdown once every queued task has finished. Results are buffered until
// read; close the receiver if results are not needed.
func (p *Pool) Results() *mpsc.Receiver[Result] {
	return p.results
}

// Shutdown stops accepting tasks and lets workers finish everything already
// queued. The returned channel closes once all workers have exited. Calling
// Shutdown again returns the same channel.
func (p *Pool) Shutdown() <-chan struct{} {
	p.once.Do(func() {
		p.mu.Lock()
		p.isShutdown = true
		p.mu.Unlock()
		close(p.shutdownCh)

		go func() {
			p.submitting.Wait()
			close(p.taskQueue)
			p.workerWg.Wait()
			p.logger.Debug("worker pool stopped", "completed", p.completed.Load())
			close(p.done)
		}()
	})
	return p.done
}

// ShutdownContext calls Shutdown and waits for it to complete or for ctx to
// end, whichever comes first.
func (p *Pool) ShutdownContext(ctx context.Context) error {
	select {
	case <-p.Shutdown():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return p.config.WorkerCount
}

// QueueSize returns the number of tasks waiting for a worker.
func (p *Pool) QueueSize() int {
	return len(p.taskQueue)
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (p *Pool) ActiveWorkers() int {
	return int(p.active.Load())
}

// TotalSubmitted returns the number of tasks accepted by the pool.
func (p *Pool) TotalSubmitted() int64 {
	return p.submitted.Load()
}

// TotalCompleted returns the number of tasks that finished, successfully or not.
func (p *Pool) TotalCompleted() int64 {
	return p.completed.Load()
}
