// Package tasks defines the task and result model for the background
// scheduler.
//
// A Task is an immutable description of one unit of simulated work, a
// Result is its outcome. Results carry a uniform success/error vocabulary:
// worker failures are never raised across execution contexts, they are
// converted into a Result with StatusError and a human-readable message.
//
// # Task identifiers
//
// IDs have the form {type}_{submitter}_{counter}_{millis}:
//
//	t, _ := tasks.New(tasks.TypeTranscription, "audio/ms-wu.mp3", "session-7", "")
//	// t.ID == "transcription_session-7_42_1735772400000"
//
// The counter is process-wide and monotonic, so two submissions from the
// same submitter within the same millisecond still get distinct IDs.
package tasks
