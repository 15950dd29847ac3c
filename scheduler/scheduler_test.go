package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Abigail99216/audio/cases"
	"github.com/Abigail99216/audio/tasks"
)

func testLoader() cases.Loader {
	return cases.NewStaticLoader(map[string]*cases.Record{
		"Case-A": {Name: "Case-A", Dialogue: "D", Reasoning: "R", EHR: "E", Conclusion: "C"},
		"Case-B": {Name: "Case-B", Dialogue: "D2", Reasoning: "R2"},
	})
}

func testConfig() Config {
	return Config{
		Workers:      2,
		ProcessDelay: 10 * time.Millisecond,
		ShutdownWait: time.Second,
		LoaderFactory: func() (cases.Loader, error) {
			return testLoader(), nil
		},
	}
}

func TestSubmitAndAwait(t *testing.T) {
	s := New(testConfig())
	defer s.Shutdown()

	id, err := s.Submit(tasks.TypeTranscription, "audio/Case-A.mp3", "session-1", "")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	res, ok := s.Await(id, 2*time.Second)
	if !ok {
		t.Fatal("Expected result within wait window")
	}
	if res.IsError() {
		t.Fatalf("Unexpected error result: %s", res.Payload)
	}
	if res.Payload != cases.DialogueText("Case-A", "D") {
		t.Errorf("Unexpected payload: %q", res.Payload)
	}

	// Reasoning with an explicit case hint bypasses inference.
	id, err = s.Submit(tasks.TypeReasoning, "some transcribed text", "session-1", "Case-A")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	res, ok = s.Await(id, 2*time.Second)
	if !ok {
		t.Fatal("Expected result within wait window")
	}
	if res.IsError() {
		t.Fatalf("Unexpected error result: %s", res.Payload)
	}
	if res.Payload != cases.ReasoningText("Case-A", "R") {
		t.Errorf("Unexpected payload: %q", res.Payload)
	}
}

func TestReasoningInfersCaseFromText(t *testing.T) {
	s := New(testConfig())
	defer s.Shutdown()

	id, err := s.Submit(tasks.TypeReasoning, "notes mentioning Case-B throughout", "session-1", "")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	res, ok := s.Await(id, 2*time.Second)
	if !ok {
		t.Fatal("Expected result within wait window")
	}
	if res.Payload != cases.ReasoningText("Case-B", "R2") {
		t.Errorf("Unexpected payload: %q", res.Payload)
	}
}

func TestUnknownCase(t *testing.T) {
	s := New(testConfig())
	defer s.Shutdown()

	// Transcription: payload names no known case.
	id, _ := s.Submit(tasks.TypeTranscription, "audio/unlabeled.mp3", "session-1", "")
	res, ok := s.Await(id, 2*time.Second)
	if !ok {
		t.Fatal("Expected result within wait window")
	}
	if !res.IsError() {
		t.Fatal("Expected error result")
	}
	if !strings.Contains(res.Payload, "cannot identify case") {
		t.Errorf("Unexpected message: %q", res.Payload)
	}

	// Reasoning: no hint and nothing inferable from the text.
	id, _ = s.Submit(tasks.TypeReasoning, "text without any known patient", "session-1", "")
	res, ok = s.Await(id, 2*time.Second)
	if !ok {
		t.Fatal("Expected result within wait window")
	}
	if !res.IsError() {
		t.Fatal("Expected error result")
	}
	if !strings.Contains(res.Payload, "run transcription first") {
		t.Errorf("Unexpected message: %q", res.Payload)
	}
}

func TestCaseMissingFromDataset(t *testing.T) {
	s := New(testConfig())
	defer s.Shutdown()

	// Hint names a case the dataset does not have.
	id, _ := s.Submit(tasks.TypeReasoning, "text", "session-1", "Case-Z")
	res, ok := s.Await(id, 2*time.Second)
	if !ok {
		t.Fatal("Expected result within wait window")
	}
	if !res.IsError() {
		t.Fatal("Expected error result")
	}
	if !strings.Contains(res.Payload, "Case-Z") {
		t.Errorf("Expected message naming the case, got %q", res.Payload)
	}
}

func TestResultSnapshotNonBlocking(t *testing.T) {
	s := New(testConfig())
	defer s.Shutdown()

	// Unknown ID: immediate miss, indistinguishable from pending.
	start := time.Now()
	if _, ok := s.Result("never-submitted"); ok {
		t.Error("Expected no result for unknown ID")
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Snapshot read took %v, expected immediate return", elapsed)
	}

	// Pending task: also an immediate miss.
	id, _ := s.Submit(tasks.TypeTranscription, "audio/Case-A.mp3", "session-1", "")
	if _, ok := s.Result(id); ok {
		t.Error("Expected no result immediately after submit")
	}
}

func TestTimeoutDoesNotCancel(t *testing.T) {
	s := New(testConfig())
	defer s.Shutdown()

	id, _ := s.Submit(tasks.TypeTranscription, "audio/Case-A.mp3", "session-1", "")

	// Give up long before the simulated delay elapses.
	if _, ok := s.Await(id, time.Millisecond); ok {
		t.Fatal("Expected wait to time out")
	}

	// The task kept running; the result shows up later.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if res, ok := s.Result(id); ok {
			if res.IsError() {
				t.Fatalf("Unexpected error result: %s", res.Payload)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Result never arrived after abandoned wait")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestAtMostOnceDelivery(t *testing.T) {
	s := New(testConfig())
	defer s.Shutdown()

	const n = 20
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id, err := s.Submit(tasks.TypeTranscription, "audio/Case-A.mp3", fmt.Sprintf("s-%d", i), "")
		if err != nil {
			t.Fatalf("Submit failed: %v", err)
		}
		ids = append(ids, id)
	}

	for _, id := range ids {
		res, ok := s.Await(id, 5*time.Second)
		if !ok {
			t.Fatalf("Task %s never completed", id)
		}
		if res.TaskID != id {
			t.Errorf("Result task ID %s does not match %s", res.TaskID, id)
		}
	}

	st := s.Status()
	if st.Pending != 0 {
		t.Errorf("Expected 0 pending tasks, got %d", st.Pending)
	}
	if st.Completed != n {
		t.Errorf("Expected %d completed tasks, got %d", n, st.Completed)
	}
}

func TestStatus(t *testing.T) {
	s := New(testConfig())
	defer s.Shutdown()

	st := s.Status()
	if st.Workers != 2 {
		t.Errorf("Expected 2 workers, got %d", st.Workers)
	}
	if st.Time.IsZero() {
		t.Error("Expected status time to be set")
	}
}

func TestShutdownIdempotent(t *testing.T) {
	s := New(testConfig())

	id, _ := s.Submit(tasks.TypeTranscription, "audio/Case-A.mp3", "session-1", "")

	s.Shutdown()
	s.Shutdown() // second call must be a no-op

	if s.Running() {
		t.Error("Expected scheduler to report not running")
	}

	// Submissions after shutdown are refused.
	if _, err := s.Submit(tasks.TypeTranscription, "audio/Case-A.mp3", "session-1", ""); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}

	// Work queued before shutdown was still drained.
	if res, ok := s.Result(id); !ok {
		t.Error("Expected queued task to complete during shutdown")
	} else if res.IsError() {
		t.Errorf("Unexpected error result: %s", res.Payload)
	}
}

func TestSubmitValidation(t *testing.T) {
	s := New(testConfig())
	defer s.Shutdown()

	if _, err := s.Submit(tasks.TaskType("speech"), "x", "s", ""); !errors.Is(err, tasks.ErrUnknownType) {
		t.Errorf("Expected ErrUnknownType, got %v", err)
	}
	if _, err := s.Submit(tasks.TypeReasoning, "", "s", ""); !errors.Is(err, tasks.ErrEmptyPayload) {
		t.Errorf("Expected ErrEmptyPayload, got %v", err)
	}
}

func TestWorkerDatasetLoadFailure(t *testing.T) {
	cfg := testConfig()
	cfg.LoaderFactory = func() (cases.Loader, error) {
		return nil, errors.New("dataset file corrupt")
	}

	s := New(cfg)
	defer s.Shutdown()

	// Workers fall back to an empty dataset: every case is unknown,
	// reported as an error result rather than a crash.
	id, _ := s.Submit(tasks.TypeTranscription, "audio/Case-A.mp3", "session-1", "")
	res, ok := s.Await(id, 2*time.Second)
	if !ok {
		t.Fatal("Expected result within wait window")
	}
	if !res.IsError() {
		t.Fatal("Expected error result from worker without dataset")
	}
}

func TestWorkerUnknownTypeResult(t *testing.T) {
	// Submit validates types, so exercise the worker's guard directly.
	w := newWorker(1, testConfig().withDefaults(), zap.NewNop())

	res := w.process(&tasks.Task{
		Type:    tasks.TaskType("speech"),
		ID:      "speech_s_1_0",
		Payload: "audio/Case-A.mp3",
	})
	if !res.IsError() {
		t.Fatal("Expected error result")
	}
	if !strings.Contains(res.Payload, "unknown task type") {
		t.Errorf("Unexpected message: %q", res.Payload)
	}
}

func TestOutOfOrderCompletion(t *testing.T) {
	s := New(testConfig())
	defer s.Shutdown()

	// Two tasks on two workers; both must complete regardless of order.
	id1, _ := s.Submit(tasks.TypeTranscription, "audio/Case-A.mp3", "s", "")
	id2, _ := s.Submit(tasks.TypeReasoning, "t", "s", "Case-B")

	for _, id := range []string{id1, id2} {
		if _, ok := s.Await(id, 2*time.Second); !ok {
			t.Errorf("Task %s never completed", id)
		}
	}
}
