package scheduler

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/Abigail99216/audio/cases"
	"github.com/Abigail99216/audio/tasks"
)

// Common errors.
var (
	// ErrClosed indicates the scheduler has been shut down.
	ErrClosed = errors.New("scheduler closed")
)

// Config configures a Scheduler.
type Config struct {
	// Workers is the number of worker goroutines.
	// Default: 2
	Workers int

	// QueueSize is the inbound and outbound channel capacity. Submission
	// blocks only when the inbound buffer is full; there is no other
	// bound on backlog.
	// Default: 64
	QueueSize int

	// ProcessDelay is the fixed simulated processing latency per task.
	// Default: 2 seconds
	ProcessDelay time.Duration

	// ShutdownWait bounds how long Shutdown waits for workers to drain
	// after the stop sentinels are queued.
	// Default: 5 seconds
	ShutdownWait time.Duration

	// LoaderFactory supplies each worker with its own dataset snapshot,
	// loaded once at worker startup. A factory error is non-fatal: the
	// worker falls back to an empty dataset and reports not-found for
	// every case. If the dataset file changes after workers start, they
	// keep serving the stale snapshot.
	LoaderFactory func() (cases.Loader, error)

	// Logger for scheduler and worker events. Defaults to a no-op logger.
	Logger *zap.Logger
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.ProcessDelay <= 0 {
		c.ProcessDelay = 2 * time.Second
	}
	if c.ShutdownWait <= 0 {
		c.ShutdownWait = 5 * time.Second
	}
	if c.LoaderFactory == nil {
		c.LoaderFactory = func() (cases.Loader, error) { return cases.Unavailable{}, nil }
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	return c
}

// Status is a read-only snapshot of scheduler state, used for display only.
type Status struct {
	Workers   int       `json:"workers"`
	Pending   int       `json:"pending"`
	Completed int       `json:"completed"`
	Time      time.Time `json:"time"`
}

// Scheduler owns a pool of workers and the channels connecting them, and
// exposes submit, result retrieval, status, and shutdown.
//
// Completed results are retained for the life of the process; there is no
// eviction. That is acceptable for a bounded experiment session but grows
// without bound under sustained load.
type Scheduler struct {
	cfg Config
	log *zap.Logger

	inbound  chan *tasks.Task
	outbound chan *tasks.Result

	workers       sync.WaitGroup
	collectorDone chan struct{}

	mu        sync.RWMutex
	pending   map[string]*tasks.Task
	completed map[string]*tasks.Result
	waiters   map[string][]chan *tasks.Result

	closed       atomic.Bool
	shutdownOnce sync.Once
}

// New creates a scheduler and starts its workers and result collector.
// The caller owns the instance and must call Shutdown when done.
func New(cfg Config) *Scheduler {
	cfg = cfg.withDefaults()

	s := &Scheduler{
		cfg:           cfg,
		log:           cfg.Logger.Named("scheduler"),
		inbound:       make(chan *tasks.Task, cfg.QueueSize),
		outbound:      make(chan *tasks.Result, cfg.QueueSize),
		collectorDone: make(chan struct{}),
		pending:       make(map[string]*tasks.Task),
		completed:     make(map[string]*tasks.Result),
		waiters:       make(map[string][]chan *tasks.Result),
	}

	for i := 0; i < cfg.Workers; i++ {
		w := newWorker(i+1, cfg, s.log)
		s.workers.Add(1)
		go func() {
			defer s.workers.Done()
			w.run(s.inbound, s.outbound)
		}()
	}
	go s.collect()

	s.log.Info("scheduler started",
		zap.Int("workers", cfg.Workers),
		zap.Duration("process_delay", cfg.ProcessDelay))

	return s
}

// Submit constructs a task, records it as pending, and enqueues it.
// It returns the new task ID without waiting for a worker to be free.
func (s *Scheduler) Submit(typ tasks.TaskType, payload, submitterID, caseHint string) (string, error) {
	if s.closed.Load() {
		return "", ErrClosed
	}

	task, err := tasks.New(typ, payload, submitterID, caseHint)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.pending[task.ID] = task
	s.mu.Unlock()

	s.inbound <- task

	s.log.Info("task submitted",
		zap.String("task_id", task.ID),
		zap.String("type", typ.String()),
		zap.String("case_hint", caseHint))

	return task.ID, nil
}

// Result returns the completed result for a task ID, if any. It never
// blocks. A missing result means the task is still pending or was never
// submitted; the two are deliberately indistinguishable here, matching
// the polling contract callers already rely on.
func (s *Scheduler) Result(taskID string) (*tasks.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res, ok := s.completed[taskID]
	return res, ok
}

// Await blocks until the task's result is available or the timeout
// passes, and returns the result if one arrived. A non-positive timeout
// degenerates to the non-blocking snapshot. Timing out abandons the wait
// only; the task keeps running and its result can be fetched later.
func (s *Scheduler) Await(taskID string, timeout time.Duration) (*tasks.Result, bool) {
	if res, ok := s.Result(taskID); ok {
		return res, true
	}
	if timeout <= 0 {
		return nil, false
	}

	ch, res := s.addWaiter(taskID)
	if res != nil {
		// Completed between the snapshot and waiter registration.
		return res, true
	}
	defer s.removeWaiter(taskID, ch)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		if res != nil {
			return res, true
		}
	case <-timer.C:
	}

	// One final check at the deadline, so a completion in the gap
	// between notification and expiry is not missed.
	return s.Result(taskID)
}

// addWaiter registers a completion channel for a task ID. If the result
// already exists it is returned instead and no waiter is registered.
func (s *Scheduler) addWaiter(taskID string) (chan *tasks.Result, *tasks.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res, ok := s.completed[taskID]; ok {
		return nil, res
	}

	ch := make(chan *tasks.Result, 1)
	s.waiters[taskID] = append(s.waiters[taskID], ch)
	return ch, nil
}

// removeWaiter drops a completion channel registered by addWaiter.
func (s *Scheduler) removeWaiter(taskID string, ch chan *tasks.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.waiters[taskID]
	for i, sub := range subs {
		if sub == ch {
			s.waiters[taskID] = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(s.waiters[taskID]) == 0 {
		delete(s.waiters, taskID)
	}
}

// Status returns read-only counters for display.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		Workers:   s.cfg.Workers,
		Pending:   len(s.pending),
		Completed: len(s.completed),
		Time:      time.Now(),
	}
}

// Running reports whether the scheduler still accepts submissions.
func (s *Scheduler) Running() bool {
	return !s.closed.Load()
}

// Shutdown stops the scheduler: it queues one stop sentinel per worker,
// waits up to ShutdownWait for the pool to drain, then stops the result
// collector. Safe to call more than once and from a signal handler;
// later calls return immediately.
func (s *Scheduler) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.closed.Store(true)
		s.log.Info("scheduler shutting down")

		// One sentinel per worker; each worker exits after consuming one.
		for i := 0; i < s.cfg.Workers; i++ {
			s.inbound <- nil
		}

		drained := make(chan struct{})
		go func() {
			s.workers.Wait()
			close(drained)
		}()

		select {
		case <-drained:
			close(s.outbound)
			<-s.collectorDone
			s.log.Info("scheduler stopped")
		case <-time.After(s.cfg.ShutdownWait):
			// Workers are still mid-task. Goroutines cannot be killed,
			// so close the outbound channel once the last one exits.
			s.log.Warn("workers did not drain in time",
				zap.Duration("waited", s.cfg.ShutdownWait))
			go func() {
				<-drained
				close(s.outbound)
			}()
		}
	})
}
