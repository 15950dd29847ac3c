// Package clinic implements the experiment session service: the
// AI-assisted clinical workflow the participant interacts with.
//
// Each Service instance is one session. It resolves patient cases from
// the dataset, delegates simulated transcription and reasoning to the
// background scheduler with bounded waits, and falls back to synchronous
// in-process lookups whenever the scheduler is unavailable. It also
// generates EHR and conclusion text for the current case, persists
// filled-in patient record forms as JSON, and reports a display-only
// status snapshot.
//
// A timed-out wait is not an error: the Outcome carries the task ID and
// the participant can fetch the result later via TaskResult.
package clinic
