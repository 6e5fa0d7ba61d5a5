package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/vnykmshr/wakeflow/pkg/channel"
	"github.com/vnykmshr/wakeflow/pkg/channel/broadcast"
	wferrors "github.com/vnykmshr/wakeflow/pkg/common/errors"
	"github.com/vnykmshr/wakeflow/pkg/common/validation"
	"github.com/vnykmshr/wakeflow/pkg/metrics"
	"github.com/vnykmshr/wakeflow/pkg/scheduling/workerpool"
)

var (
	// ErrTaskExists is returned when scheduling an id that is already scheduled.
	ErrTaskExists = errors.New("task already scheduled")

	// ErrTooManyTasks is returned when Config.MaxTasks is reached.
	ErrTooManyTasks = errors.New("maximum number of tasks reached")

	// ErrRunning is returned by Start on a running scheduler.
	ErrRunning = errors.New("scheduler already running")

	// ErrStopped is returned by operations on a stopped scheduler.
	ErrStopped = errors.New("scheduler stopped")
)

const maxIDLength = 255

// Clock supplies the current time. *testutil.MockClock satisfies it.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Task describes a scheduled entry as returned by List.
type Task struct {
	ID       string
	RunAt    time.Time
	Interval time.Duration // Zero for one-time and cron tasks
	CronExpr string
	Created  time.Time
}

// Fire is published to every subscriber each time a scheduled entry comes due.
type Fire struct {
	// ID uniquely identifies this firing.
	ID uuid.UUID

	// TaskID is the id the entry was scheduled under.
	TaskID string

	// ScheduledAt is when the entry was due; FiredAt is when it was processed.
	ScheduledAt time.Time
	FiredAt     time.Time

	// Err is set when the entry's task could not be handed to the worker pool.
	Err error
}

// Config holds scheduler configuration.
type Config struct {
	// Name labels the scheduler in logs and metrics.
	Name string

	// WorkerPool runs scheduled tasks. Nil creates a private pool that is
	// shut down by Stop.
	WorkerPool *workerpool.Pool

	// Location is used to evaluate cron expressions. Nil means time.Local.
	Location *time.Location

	// TickInterval is how often the running scheduler checks for due entries.
	TickInterval time.Duration

	// MaxTasks bounds the number of scheduled entries.
	MaxTasks int

	// Clock supplies the current time. Nil uses the wall clock.
	Clock Clock

	// Logger receives scheduler logs. Nil uses slog.Default().
	Logger *slog.Logger

	// Metrics records fires and scheduled entries. Nil disables metrics.
	Metrics *metrics.Registry
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		Name:         "default",
		Location:     time.Local,
		TickInterval: 50 * time.Millisecond,
		MaxTasks:     10000,
		Clock:        realClock{},
		Logger:       slog.Default(),
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validation.ValidateNotEmpty("scheduler", "Name", c.Name); err != nil {
		return err
	}
	if err := validation.ValidatePositiveDuration("scheduler", "TickInterval", c.TickInterval); err != nil {
		return err
	}
	return validation.ValidatePositive("scheduler", "MaxTasks", c.MaxTasks)
}

type scheduledTask struct {
	id           string
	task         workerpool.Task
	runAt        time.Time
	interval     time.Duration
	cronExpr     string
	cronSchedule cron.Schedule
	created      time.Time
}

// Scheduler fires one-time, interval and cron entries. Each fire submits
// the entry's task, if any, to a worker pool and is published to every
// subscriber through a broadcast channel.
type Scheduler struct {
	config  Config
	logger  *slog.Logger
	pool    *workerpool.Pool
	ownPool bool
	parser  cron.Parser

	fires *broadcast.Sender[Fire]

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	tasks   map[string]*scheduledTask
	running bool
	stopped bool
	loopWg  sync.WaitGroup
	stopCh  chan struct{}
	done    chan struct{}
	once    sync.Once
}

// New creates a scheduler with default configuration.
func New() (*Scheduler, error) {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a scheduler with custom configuration. Zero fields
// take their defaults.
func NewWithConfig(cfg Config) (*Scheduler, error) {
	def := DefaultConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if cfg.TickInterval == 0 {
		cfg.TickInterval = def.TickInterval
	}
	if cfg.MaxTasks == 0 {
		cfg.MaxTasks = def.MaxTasks
	}
	if cfg.Clock == nil {
		cfg.Clock = def.Clock
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool := cfg.WorkerPool
	ownPool := false
	if pool == nil {
		pcfg := workerpool.DefaultConfig()
		pcfg.Name = cfg.Name + ".tasks"
		pcfg.Logger = cfg.Logger
		pcfg.Metrics = cfg.Metrics
		var err error
		if pool, err = workerpool.NewWithConfig(pcfg); err != nil {
			return nil, err
		}
		// Fires carry the outcome callers care about.
		pool.Results().Close()
		ownPool = true
	}

	tx, rx := broadcast.NewWithConfig[Fire](channel.Config{
		Name:    cfg.Name + ".fires",
		Logger:  cfg.Logger,
		Metrics: cfg.Metrics,
	})
	// Subscribers join through Subscribe; an unread receiver would pin
	// every fire.
	rx.Close()

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		config:  cfg,
		logger:  cfg.Logger.With("scheduler", cfg.Name),
		pool:    pool,
		ownPool: ownPool,
		parser:  newCronParser(),
		fires:   tx,
		ctx:     ctx,
		cancel:  cancel,
		tasks:   make(map[string]*scheduledTask),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Subscribe returns a receiver of every fire that happens after the call.
// The stream ends when the scheduler stops. Close the receiver when done.
func (s *Scheduler) Subscribe() *broadcast.Receiver[Fire] {
	return s.fires.Subscribe()
}

// Schedule runs task once at runAt. task may be nil, in which case the
// entry only produces a Fire.
func (s *Scheduler) Schedule(id string, task workerpool.Task, runAt time.Time) error {
	if err := validateID(id); err != nil {
		return err
	}
	if runAt.IsZero() {
		return wferrors.NewValidationError("scheduler", "runAt", runAt, "cannot be zero")
	}
	return s.add(&scheduledTask{id: id, task: task, runAt: runAt})
}

// ScheduleAfter runs task once after delay.
func (s *Scheduler) ScheduleAfter(id string, task workerpool.Task, delay time.Duration) error {
	return s.Schedule(id, task, s.config.Clock.Now().Add(delay))
}

// ScheduleEvery runs task immediately and then every interval, measured
// from the previous fire.
func (s *Scheduler) ScheduleEvery(id string, task workerpool.Task, interval time.Duration) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := validation.ValidatePositiveDuration("scheduler", "interval", interval); err != nil {
		return err
	}
	return s.add(&scheduledTask{
		id:       id,
		task:     task,
		runAt:    s.config.Clock.Now(),
		interval: interval,
	})
}

// ScheduleCron runs task whenever the cron expression matches. Expressions
// have six fields, the first being seconds, and descriptors such as
// "@hourly" or "@every 5m" are accepted.
func (s *Scheduler) ScheduleCron(id string, cronExpr string, task workerpool.Task) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := validation.ValidateNotEmpty("scheduler", "cronExpr", cronExpr); err != nil {
		return err
	}

	schedule, err := s.parser.Parse(cronExpr)
	if err != nil {
		return wferrors.NewOperationError("scheduler", "ScheduleCron", err).
			WithContext(fmt.Sprintf("id=%s expr=%q", id, cronExpr))
	}

	now := s.config.Clock.Now().In(s.config.Location)
	return s.add(&scheduledTask{
		id:           id,
		task:         task,
		runAt:        schedule.Next(now),
		cronExpr:     cronExpr,
		cronSchedule: schedule,
	})
}

func (s *Scheduler) add(t *scheduledTask) error {
	t.created = s.config.Clock.Now()

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	if _, exists := s.tasks[t.id]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrTaskExists, t.id)
	}
	if len(s.tasks) >= s.config.MaxTasks {
		s.mu.Unlock()
		return fmt.Errorf("%w (%d)", ErrTooManyTasks, s.config.MaxTasks)
	}
	s.tasks[t.id] = t
	n := len(s.tasks)
	s.mu.Unlock()

	s.setTaskGauge(n)
	s.logger.Debug("task scheduled", "task_id", t.id, "run_at", t.runAt)
	return nil
}

// Cancel removes a scheduled entry. It reports whether the entry existed.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	_, exists := s.tasks[id]
	delete(s.tasks, id)
	n := len(s.tasks)
	s.mu.Unlock()

	s.setTaskGauge(n)
	return exists
}

// CancelAll removes every scheduled entry.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	s.tasks = make(map[string]*scheduledTask)
	s.mu.Unlock()

	s.setTaskGauge(0)
}

// List returns the scheduled entries ordered by next run time.
func (s *Scheduler) List() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, Task{
			ID:       t.id,
			RunAt:    t.runAt,
			Interval: t.interval,
			CronExpr: t.cronExpr,
			Created:  t.created,
		})
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].RunAt.Before(tasks[j].RunAt)
	})
	return tasks
}

// Start begins checking for due entries every TickInterval.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.stopped:
		return ErrStopped
	case s.running:
		return ErrRunning
	}
	s.running = true

	s.loopWg.Add(1)
	go s.run()
	return nil
}

// Stop halts the scheduler and ends every subscriber's stream. If the
// scheduler created its own worker pool, the pool is shut down too. The
// returned channel closes once everything has stopped. Calling Stop again
// returns the same channel.
func (s *Scheduler) Stop() <-chan struct{} {
	s.once.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.running = false
		s.mu.Unlock()

		close(s.stopCh)
		s.cancel()

		go func() {
			defer close(s.done)
			s.loopWg.Wait()
			s.fires.Close()
			if s.ownPool {
				<-s.pool.Shutdown()
			}
			s.logger.Debug("scheduler stopped")
		}()
	})
	return s.done
}

func (s *Scheduler) run() {
	defer s.loopWg.Done()

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.RunPending()
		}
	}
}

// RunPending fires every entry that is due at the current clock time and
// returns how many fired. The running scheduler calls it on every tick;
// it may also be called directly, which is useful with a manual Clock.
func (s *Scheduler) RunPending() int {
	now := s.config.Clock.Now()

	type due struct {
		id    string
		task  workerpool.Task
		runAt time.Time
	}

	s.mu.Lock()
	if s.stopped || len(s.tasks) == 0 {
		s.mu.Unlock()
		return 0
	}

	ready := make([]due, 0, len(s.tasks))
	for id, t := range s.tasks {
		if t.runAt.After(now) {
			continue
		}
		ready = append(ready, due{id: id, task: t.task, runAt: t.runAt})

		switch {
		case t.interval > 0:
			t.runAt = now.Add(t.interval)
		case t.cronSchedule != nil:
			t.runAt = t.cronSchedule.Next(now.In(s.config.Location))
		default:
			delete(s.tasks, id)
		}
	}
	n := len(s.tasks)
	s.mu.Unlock()

	// Fire in due order so subscribers see a stable sequence.
	sort.Slice(ready, func(i, j int) bool {
		if ready[i].runAt.Equal(ready[j].runAt) {
			return ready[i].id < ready[j].id
		}
		return ready[i].runAt.Before(ready[j].runAt)
	})

	for _, d := range ready {
		fire := Fire{
			ID:          uuid.New(),
			TaskID:      d.id,
			ScheduledAt: d.runAt,
			FiredAt:     now,
		}
		if d.task != nil {
			if err := s.pool.SubmitWithContext(s.ctx, d.task); err != nil {
				fire.Err = err
				s.logger.Warn("scheduled task not submitted", "task_id", d.id, "error", err)
			}
		}
		if m := s.config.Metrics; m != nil {
			m.SchedulerFires.WithLabelValues(s.config.Name, d.id).Inc()
		}
		// No subscribers is not an error.
		_ = s.fires.Send(fire)
	}

	s.setTaskGauge(n)
	return len(ready)
}

func (s *Scheduler) setTaskGauge(n int) {
	if m := s.config.Metrics; m != nil {
		m.SchedulerTasks.WithLabelValues(s.config.Name).Set(float64(n))
	}
}

func validateID(id string) error {
	if err := validation.ValidateNotEmpty("scheduler", "id", id); err != nil {
		return err
	}
	if len(id) > maxIDLength {
		return wferrors.NewValidationError("scheduler", "id", id[:16]+"...", "too long").
			WithHint(fmt.Sprintf("use at most %d characters", maxIDLength))
	}
	return nil
}
