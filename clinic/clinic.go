package clinic

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Abigail99216/audio/cases"
	"github.com/Abigail99216/audio/scheduler"
	"github.com/Abigail99216/audio/tasks"
)

// Common errors.
var (
	// ErrNoAudio indicates no audio reference was provided.
	ErrNoAudio = errors.New("no audio file selected")

	// ErrNoText indicates no input text was provided.
	ErrNoText = errors.New("no text to process")

	// ErrNoCurrentCase indicates no case has been established yet.
	ErrNoCurrentCase = errors.New("no current case; run transcription first")

	// ErrNoIndex indicates case search is not available.
	ErrNoIndex = errors.New("case search index not available")
)

// Config configures a Service.
type Config struct {
	// Loader is the session's own dataset snapshot, also used for the
	// synchronous fallback path.
	Loader cases.Loader

	// Scheduler runs the simulated long-running work. Optional: when nil
	// (or stopped), transcription and reasoning fall back to synchronous
	// in-process lookups.
	Scheduler *scheduler.Scheduler

	// Index enables keyword search over the dataset. Optional.
	Index *cases.Index

	// RecordsDir is where saved patient records are written.
	// Default: patient_records
	RecordsDir string

	// SessionID identifies this session; tasks are submitted under it.
	// A fresh UUID is generated when empty.
	SessionID string

	// TranscribeWait bounds the wait for a transcription result.
	// Default: 30 seconds
	TranscribeWait time.Duration

	// ReasonWait bounds the wait for a reasoning result; reasoning is
	// allowed longer.
	// Default: 60 seconds
	ReasonWait time.Duration

	// Logger for service events. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Service drives one experiment session: it plays the role of the
// assistant behind the UI, tracking the current case and delegating
// simulated work to the scheduler.
type Service struct {
	cfg    Config
	loader cases.Loader
	sched  *scheduler.Scheduler
	index  *cases.Index
	log    *zap.Logger

	mu          sync.Mutex
	currentCase string
}

// New creates a session service.
func New(cfg Config) *Service {
	if cfg.Loader == nil {
		cfg.Loader = cases.Unavailable{}
	}
	if cfg.RecordsDir == "" {
		cfg.RecordsDir = "patient_records"
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if cfg.TranscribeWait <= 0 {
		cfg.TranscribeWait = 30 * time.Second
	}
	if cfg.ReasonWait <= 0 {
		cfg.ReasonWait = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Service{
		cfg:    cfg,
		loader: cfg.Loader,
		sched:  cfg.Scheduler,
		index:  cfg.Index,
		log:    cfg.Logger.Named("clinic"),
	}
}

// SessionID returns the session identifier tasks are submitted under.
func (s *Service) SessionID() string {
	return s.cfg.SessionID
}

// CurrentCase returns the case established by the last successful
// transcription, if any.
func (s *Service) CurrentCase() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentCase
}

// setCurrentCase records the active case for the session.
func (s *Service) setCurrentCase(name string) {
	s.mu.Lock()
	s.currentCase = name
	s.mu.Unlock()
	s.log.Info("current case updated", zap.String("case", name))
}

// schedulerAvailable reports whether async processing can be used.
func (s *Service) schedulerAvailable() bool {
	return s.sched != nil && s.sched.Running()
}

// Outcome is the result of an asynchronous operation. When the wait
// window elapses before the task finishes, TimedOut is set and Text
// tells the user how to retrieve the result later; the task itself
// keeps running.
type Outcome struct {
	// Text is the display text: the task output, or retry guidance on
	// timeout.
	Text string

	// TaskID identifies the underlying task, when one was submitted.
	TaskID string

	// TimedOut is set when the wait window elapsed first.
	TimedOut bool
}

// Transcribe performs the simulated transcription synchronously: it
// resolves the case from the audio reference and returns the scripted
// dialogue.
func (s *Service) Transcribe(audioRef string) (string, error) {
	if audioRef == "" {
		return "", ErrNoAudio
	}

	name, ok := cases.Infer(filepath.Base(audioRef), s.loader.Names())
	if !ok {
		return "", fmt.Errorf("cannot identify case from audio file %s", filepath.Base(audioRef))
	}

	rec, err := s.loader.Lookup(name)
	if err != nil {
		return "", fmt.Errorf("no data found for case %s", name)
	}

	s.setCurrentCase(name)
	return cases.DialogueText(name, rec.Dialogue), nil
}

// TranscribeAsync submits a transcription task and waits up to the
// configured window for its result. Without a running scheduler it
// falls back to the synchronous path.
func (s *Service) TranscribeAsync(audioRef string) (*Outcome, error) {
	if audioRef == "" {
		return nil, ErrNoAudio
	}

	if !s.schedulerAvailable() {
		s.log.Warn("scheduler unavailable, transcribing synchronously")
		text, err := s.Transcribe(audioRef)
		if err != nil {
			return nil, err
		}
		return &Outcome{Text: text}, nil
	}

	taskID, err := s.sched.Submit(tasks.TypeTranscription, audioRef, s.cfg.SessionID, "")
	if err != nil {
		return nil, err
	}

	res, ok := s.sched.Await(taskID, s.cfg.TranscribeWait)
	if !ok {
		s.log.Warn("transcription wait timed out", zap.String("task_id", taskID))
		return &Outcome{
			Text: fmt.Sprintf("Transcription task submitted, task ID: %s\n"+
				"Processing is taking longer than expected; check back for the result.", taskID),
			TaskID:   taskID,
			TimedOut: true,
		}, nil
	}

	if res.IsError() {
		return nil, fmt.Errorf("transcription failed: %s", res.Payload)
	}

	if name, ok := cases.Infer(filepath.Base(audioRef), s.loader.Names()); ok {
		s.setCurrentCase(name)
	}
	return &Outcome{Text: res.Payload, TaskID: taskID}, nil
}

// Reason returns the pre-authored clinical reasoning for the current
// case synchronously.
func (s *Service) Reason(text string) (string, error) {
	if text == "" {
		return "", ErrNoText
	}

	name := s.CurrentCase()
	if name == "" {
		return "", ErrNoCurrentCase
	}

	rec, err := s.loader.Lookup(name)
	if err != nil {
		return "", fmt.Errorf("no data found for case %s", name)
	}

	return cases.ReasoningText(name, rec.Reasoning), nil
}

// ReasonAsync submits a reasoning task with the current case as hint
// (falling back to inference from the text) and waits for its result.
// Without a running scheduler it falls back to the synchronous path.
func (s *Service) ReasonAsync(text string) (*Outcome, error) {
	if text == "" {
		return nil, ErrNoText
	}

	if !s.schedulerAvailable() {
		s.log.Warn("scheduler unavailable, reasoning synchronously")
		out, err := s.Reason(text)
		if err != nil {
			return nil, err
		}
		return &Outcome{Text: out}, nil
	}

	hint := s.CurrentCase()
	if hint == "" {
		hint, _ = cases.Infer(text, s.loader.Names())
	}

	taskID, err := s.sched.Submit(tasks.TypeReasoning, text, s.cfg.SessionID, hint)
	if err != nil {
		return nil, err
	}

	res, ok := s.sched.Await(taskID, s.cfg.ReasonWait)
	if !ok {
		s.log.Warn("reasoning wait timed out", zap.String("task_id", taskID))
		return &Outcome{
			Text: fmt.Sprintf("Reasoning task submitted, task ID: %s\n"+
				"Reasoning takes a while; check back for the result.", taskID),
			TaskID:   taskID,
			TimedOut: true,
		}, nil
	}

	if res.IsError() {
		return nil, fmt.Errorf("reasoning failed: %s", res.Payload)
	}
	return &Outcome{Text: res.Payload, TaskID: taskID}, nil
}

// TaskResult exposes the non-blocking result snapshot, so callers can
// poll for a task they previously gave up waiting on.
func (s *Service) TaskResult(taskID string) (*tasks.Result, bool) {
	if s.sched == nil {
		return nil, false
	}
	return s.sched.Result(taskID)
}

// GenerateRecord wraps the transcription and the pre-authored EHR text
// for the current case.
func (s *Service) GenerateRecord(transcription string) (string, error) {
	name := s.CurrentCase()
	if name == "" {
		return "", ErrNoCurrentCase
	}

	rec, err := s.loader.Lookup(name)
	if err != nil {
		return "", fmt.Errorf("no data found for case %s", name)
	}

	return cases.EHRText(name, transcription, rec.EHR), nil
}

// Conclusion returns the pre-authored diagnostic conclusion for the
// current case.
func (s *Service) Conclusion() (string, error) {
	name := s.CurrentCase()
	if name == "" {
		return "", ErrNoCurrentCase
	}

	rec, err := s.loader.Lookup(name)
	if err != nil {
		return "", fmt.Errorf("no data found for case %s", name)
	}

	return cases.ConclusionText(name, rec.Conclusion), nil
}

// SearchCases runs a keyword search over the case dataset.
func (s *Service) SearchCases(query string, limit int) ([]cases.Match, error) {
	if s.index == nil {
		return nil, ErrNoIndex
	}
	return s.index.Search(query, limit)
}
