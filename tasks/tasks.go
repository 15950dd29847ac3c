package tasks

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// Common errors.
var (
	// ErrUnknownType indicates the task type is not recognized.
	ErrUnknownType = errors.New("unknown task type")

	// ErrEmptyPayload indicates the task carries no payload.
	ErrEmptyPayload = errors.New("empty task payload")

	// ErrEmptySubmitter indicates no submitter identity was provided.
	ErrEmptySubmitter = errors.New("empty submitter ID")
)

// TaskType identifies the kind of work a task represents.
type TaskType string

const (
	// TypeTranscription simulates speech transcription of a patient recording.
	TypeTranscription TaskType = "transcription"

	// TypeReasoning simulates clinical reasoning over transcribed text.
	TypeReasoning TaskType = "reasoning"
)

// String returns the string representation of the type.
func (t TaskType) String() string {
	return string(t)
}

// Valid returns true if the type is a known value.
func (t TaskType) Valid() bool {
	switch t {
	case TypeTranscription, TypeReasoning:
		return true
	default:
		return false
	}
}

// Task is an immutable description of one unit of work.
type Task struct {
	// Type is the kind of work to perform.
	Type TaskType

	// ID uniquely identifies the task for the lifetime of the process.
	ID string

	// Payload is the type-specific input: an audio reference for
	// transcription, a text blob for reasoning.
	Payload string

	// SubmitterID identifies the caller or session that submitted the task.
	SubmitterID string

	// CaseHint, when set, names the case directly and bypasses
	// inference from the payload.
	CaseHint string

	// SubmittedAt is when the task was created. Set once, never updated.
	SubmittedAt time.Time
}

// ResultStatus represents the outcome classification of a processed task.
type ResultStatus string

const (
	// StatusSuccess indicates the task produced its output.
	StatusSuccess ResultStatus = "success"

	// StatusError indicates the task failed; the result payload holds
	// a human-readable message.
	StatusError ResultStatus = "error"
)

// String returns the string representation of the status.
func (s ResultStatus) String() string {
	return string(s)
}

// Valid returns true if the status is a known value.
func (s ResultStatus) Valid() bool {
	return s == StatusSuccess || s == StatusError
}

// Result is the outcome of processing one task.
type Result struct {
	// TaskID matches the originating task.
	TaskID string

	// Payload is the computed output, or a human-readable error
	// message when Status is StatusError.
	Payload string

	// Status classifies the outcome.
	Status ResultStatus

	// CompletedAt is when the worker finished the task.
	CompletedAt time.Time
}

// IsError returns true if the result carries an error message.
func (r *Result) IsError() bool {
	return r.Status == StatusError
}

// Success builds a successful result for the given task ID.
func Success(taskID, payload string) *Result {
	return &Result{
		TaskID:      taskID,
		Payload:     payload,
		Status:      StatusSuccess,
		CompletedAt: time.Now(),
	}
}

// Failure builds an error result for the given task ID. Use task ID
// "unknown" when the originating task could not be read.
func Failure(taskID, message string) *Result {
	return &Result{
		TaskID:      taskID,
		Payload:     message,
		Status:      StatusError,
		CompletedAt: time.Now(),
	}
}

// counter feeds NewID. Process-wide so IDs stay unique across schedulers.
var counter atomic.Uint64

// NewID generates a unique task ID of the form
// {type}_{submitter}_{counter}_{millis}. The monotonic counter keeps IDs
// distinct even when the same submitter hits the same millisecond.
func NewID(typ TaskType, submitterID string, at time.Time) string {
	n := counter.Add(1)
	return fmt.Sprintf("%s_%s_%d_%d", typ, submitterID, n, at.UnixMilli())
}

// New constructs a task with a freshly generated ID and submission time.
func New(typ TaskType, payload, submitterID, caseHint string) (*Task, error) {
	if !typ.Valid() {
		return nil, ErrUnknownType
	}
	if payload == "" {
		return nil, ErrEmptyPayload
	}
	if submitterID == "" {
		return nil, ErrEmptySubmitter
	}

	now := time.Now()
	return &Task{
		Type:        typ,
		ID:          NewID(typ, submitterID, now),
		Payload:     payload,
		SubmitterID: submitterID,
		CaseHint:    caseHint,
		SubmittedAt: now,
	}, nil
}
