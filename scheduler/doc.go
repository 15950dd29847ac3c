// Package scheduler offloads simulated long-running work (speech
// transcription, clinical reasoning) to a pool of workers and returns
// results to callers with bounded wait semantics.
//
// Control flow:
//
//	caller → Submit → inbound channel → worker → outbound channel
//	       → collector → completed map → Await/Result → caller
//
// Each worker loads its own snapshot of the case dataset at startup,
// sleeps a fixed simulated latency per task, performs the dataset
// lookup, and pushes a Result. Failures of any kind are converted into
// error results; nothing crosses a channel boundary as a raised error.
//
// # Waiting for results
//
// Result is a non-blocking snapshot. Await blocks on a per-task
// completion channel with a deadline, and performs one final snapshot
// check when the deadline passes:
//
//	id, _ := sched.Submit(tasks.TypeTranscription, "audio/ms-wu.mp3", "session-7", "")
//	if res, ok := sched.Await(id, 30*time.Second); ok {
//	    fmt.Println(res.Payload)
//	}
//
// Timing out abandons only the wait. The task runs to completion and its
// result remains retrievable afterwards. Tasks are never cancelled.
//
// # Ordering
//
// Workers pull from a shared channel; tasks submitted back-to-back may
// complete out of order when dispatched to different workers. The
// collector publishes results in completion order.
//
// # Lifecycle
//
// A Scheduler is constructed explicitly and injected into whatever needs
// it; there is no process-global instance. Shutdown queues one nil
// sentinel per worker, waits a bounded time for the pool to drain, and
// is idempotent.
package scheduler
