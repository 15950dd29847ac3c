package scheduler

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Abigail99216/audio/cases"
	"github.com/Abigail99216/audio/tasks"
)

// worker is a long-lived execution unit. Each worker holds its own
// dataset snapshot, loaded once at startup and never refreshed.
type worker struct {
	id     int
	delay  time.Duration
	loader cases.Loader
	log    *zap.Logger
}

func newWorker(id int, cfg Config, log *zap.Logger) *worker {
	w := &worker{
		id:    id,
		delay: cfg.ProcessDelay,
		log:   log.Named(fmt.Sprintf("worker-%d", id)),
	}

	loader, err := cfg.LoaderFactory()
	if err != nil {
		// Non-fatal: the worker keeps running and reports not-found
		// for every case until restart.
		w.log.Error("dataset load failed", zap.Error(err))
		loader = cases.Unavailable{}
	}
	w.loader = loader
	w.log.Info("worker started", zap.Int("cases", len(loader.Names())))

	return w
}

// run consumes tasks until it receives a nil sentinel. A single task's
// failure never ends the loop; it becomes an error result instead.
func (w *worker) run(inbound <-chan *tasks.Task, outbound chan<- *tasks.Result) {
	for task := range inbound {
		if task == nil {
			break
		}

		w.log.Info("processing task",
			zap.String("task_id", task.ID),
			zap.String("type", task.Type.String()))

		res := w.process(task)
		outbound <- res

		w.log.Info("task done",
			zap.String("task_id", res.TaskID),
			zap.String("status", res.Status.String()))
	}

	w.log.Info("worker exiting")
}

// process converts one task into a result, recovering any panic into an
// error result so the loop survives.
func (w *worker) process(task *tasks.Task) (res *tasks.Result) {
	defer func() {
		if r := recover(); r != nil {
			taskID := "unknown"
			if task != nil {
				taskID = task.ID
			}
			w.log.Error("task processing panicked",
				zap.String("task_id", taskID),
				zap.Any("panic", r))
			res = tasks.Failure(taskID, fmt.Sprintf("processing failed: %v", r))
		}
	}()

	// Fixed artificial latency standing in for real compute cost.
	time.Sleep(w.delay)

	switch task.Type {
	case tasks.TypeTranscription:
		return w.transcribe(task)
	case tasks.TypeReasoning:
		return w.reason(task)
	default:
		return tasks.Failure(task.ID, fmt.Sprintf("unknown task type: %s", task.Type))
	}
}

// transcribe resolves the case from the audio reference and returns its
// scripted dialogue.
func (w *worker) transcribe(task *tasks.Task) *tasks.Result {
	name, ok := cases.Infer(filepath.Base(task.Payload), w.loader.Names())
	if !ok {
		// The base name alone may not carry the case; try the full reference.
		name, ok = cases.Infer(task.Payload, w.loader.Names())
	}
	if !ok {
		return tasks.Failure(task.ID,
			fmt.Sprintf("cannot identify case from payload: %s", filepath.Base(task.Payload)))
	}

	rec, err := w.loader.Lookup(name)
	if err != nil {
		return tasks.Failure(task.ID, fmt.Sprintf("no data found for case %s", name))
	}

	return tasks.Success(task.ID, cases.DialogueText(name, rec.Dialogue))
}

// reason resolves the case from the hint or the text and returns its
// pre-authored clinical reasoning.
func (w *worker) reason(task *tasks.Task) *tasks.Result {
	name := task.CaseHint
	if name == "" {
		name, _ = cases.Infer(task.Payload, w.loader.Names())
	}
	if name == "" {
		return tasks.Failure(task.ID, "cannot determine case; run transcription first")
	}

	rec, err := w.loader.Lookup(name)
	if err != nil {
		return tasks.Failure(task.ID, fmt.Sprintf("no data found for case %s", name))
	}

	return tasks.Success(task.ID, cases.ReasoningText(name, rec.Reasoning))
}
