package scheduler

import (
	"time"

	"go.uber.org/zap"

	"github.com/Abigail99216/audio/tasks"
)

// errBackoff is how long the collector pauses after an internal failure
// before resuming the drain.
const errBackoff = time.Second

// collect drains worker results and publishes them until the outbound
// channel is closed at shutdown. The loop itself must outlive any single
// publication failure.
func (s *Scheduler) collect() {
	defer close(s.collectorDone)

	for res := range s.outbound {
		if !s.safePublish(res) {
			time.Sleep(errBackoff)
		}
	}
}

// safePublish publishes one result, containing any panic from waiter
// notification or map handling. Returns false if publication failed.
func (s *Scheduler) safePublish(res *tasks.Result) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("result collection failed", zap.Any("panic", r))
			ok = false
		}
	}()

	s.publish(res)
	return true
}

// publish moves a task from the pending map to the completed map and
// wakes any waiters. Insertion overwrites: if the same task ID is ever
// collected twice, the last write wins. The two maps are only ever
// touched under the scheduler mutex, so readers never observe a task in
// both.
func (s *Scheduler) publish(res *tasks.Result) {
	s.mu.Lock()
	delete(s.pending, res.TaskID)
	s.completed[res.TaskID] = res
	subs := s.waiters[res.TaskID]
	delete(s.waiters, res.TaskID)
	s.mu.Unlock()

	for _, ch := range subs {
		// Waiter channels hold one result; a waiter that already gave
		// up is skipped rather than blocked on.
		select {
		case ch <- res:
		default:
		}
	}

	s.log.Info("task completed",
		zap.String("task_id", res.TaskID),
		zap.String("status", res.Status.String()))
}
