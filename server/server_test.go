package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Abigail99216/audio/cases"
	"github.com/Abigail99216/audio/clinic"
	"github.com/Abigail99216/audio/scheduler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLoader() cases.Loader {
	return cases.NewStaticLoader(map[string]*cases.Record{
		"Case-A": {
			Name:       "Case-A",
			Dialogue:   "Doctor: what brings you in? Patient: chest pain.",
			Reasoning:  "Chest pain suggests a cardiac workup.",
			EHR:        "Chief complaint: chest pain.",
			Conclusion: "Stable angina.",
		},
	})
}

func testServer(t *testing.T) (*Server, *scheduler.Scheduler) {
	t.Helper()

	sched := scheduler.New(scheduler.Config{
		Workers:      2,
		ProcessDelay: 10 * time.Millisecond,
		ShutdownWait: time.Second,
		LoaderFactory: func() (cases.Loader, error) {
			return testLoader(), nil
		},
	})
	t.Cleanup(sched.Shutdown)

	ix, err := cases.NewIndex(testLoader())
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	t.Cleanup(func() { ix.Close() })

	svc := clinic.New(clinic.Config{
		Loader:         testLoader(),
		Scheduler:      sched,
		Index:          ix,
		RecordsDir:     t.TempDir(),
		TranscribeWait: 2 * time.Second,
		ReasonWait:     2 * time.Second,
	})

	return New(svc, sched, nil), sched
}

func doJSON(t *testing.T, router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSubmitAndFetchTask(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.Router()

	w := doJSON(t, router, http.MethodPost, "/api/tasks",
		`{"type":"transcription","payload":"audio/Case-A.mp3"}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("Expected 202, got %d: %s", w.Code, w.Body)
	}

	var submitted struct {
		TaskID string `json:"task_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("Bad response body: %v", err)
	}
	if submitted.TaskID == "" {
		t.Fatal("Expected a task ID")
	}

	// Bounded wait for the result.
	w = doJSON(t, router, http.MethodGet, "/api/tasks/"+submitted.TaskID+"?wait=2s", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body)
	}

	var result struct {
		Status  string `json:"status"`
		Payload string `json:"payload"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("Bad response body: %v", err)
	}
	if result.Status != "success" {
		t.Errorf("Expected success, got %s (%s)", result.Status, result.Payload)
	}
}

func TestSubmitTaskValidation(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.Router()

	w := doJSON(t, router, http.MethodPost, "/api/tasks", `{"type":"speech","payload":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unknown type, got %d", w.Code)
	}
}

func TestGetTaskNotReady(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.Router()

	// Never-submitted ID: indistinguishable from pending, reported 404.
	w := doJSON(t, router, http.MethodGet, "/api/tasks/nothing-here", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestTranscribeEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.Router()

	w := doJSON(t, router, http.MethodPost, "/api/transcribe", `{"audio":"audio/Case-A.mp3"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), "Dialogue for Case-A") {
		t.Errorf("Unexpected body: %s", w.Body)
	}

	// Unknown case surfaces the worker's error message verbatim.
	w = doJSON(t, router, http.MethodPost, "/api/transcribe", `{"audio":"audio/unlabeled.mp3"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422, got %d: %s", w.Code, w.Body)
	}
}

func TestReasoningEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.Router()

	// Transcribe first so the current case is set.
	doJSON(t, router, http.MethodPost, "/api/transcribe", `{"audio":"audio/Case-A.mp3"}`)

	w := doJSON(t, router, http.MethodPost, "/api/reasoning", `{"text":"dialogue text"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), "Clinical reasoning for Case-A") {
		t.Errorf("Unexpected body: %s", w.Body)
	}
}

func TestEHRAndConclusionEndpoints(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.Router()

	// Before any transcription there is no current case.
	w := doJSON(t, router, http.MethodGet, "/api/conclusion", "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 without a current case, got %d", w.Code)
	}

	doJSON(t, router, http.MethodPost, "/api/transcribe", `{"audio":"audio/Case-A.mp3"}`)

	w = doJSON(t, router, http.MethodPost, "/api/ehr", `{"transcription":"the dialogue"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), "Health record for Case-A") {
		t.Errorf("Unexpected body: %s", w.Body)
	}

	w = doJSON(t, router, http.MethodGet, "/api/conclusion", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body)
	}
	if !strings.Contains(w.Body.String(), "Stable angina") {
		t.Errorf("Unexpected body: %s", w.Body)
	}
}

func TestStatusEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.Router()

	w := doJSON(t, router, http.MethodGet, "/api/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var st struct {
		SchedulerRunning bool `json:"scheduler_running"`
		Workers          int  `json:"workers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &st); err != nil {
		t.Fatalf("Bad response body: %v", err)
	}
	if !st.SchedulerRunning || st.Workers != 2 {
		t.Errorf("Unexpected status: %+v", st)
	}
}

func TestCaseSearchEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.Router()

	w := doJSON(t, router, http.MethodGet, "/api/cases/search?q=chest", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body)
	}

	w = doJSON(t, router, http.MethodGet, "/api/cases/search", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing query, got %d", w.Code)
	}
}

func TestSaveRecordEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	router := srv.Router()

	w := doJSON(t, router, http.MethodPost, "/api/records",
		`{"name":"Jane Roe","patient_id":"P-001","diagnosis":"angina"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body)
	}

	w = doJSON(t, router, http.MethodPost, "/api/records", `{"name":"Jane Roe"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 without patient ID, got %d", w.Code)
	}
}

func TestSchedulerUnavailable(t *testing.T) {
	svc := clinic.New(clinic.Config{Loader: testLoader()})
	srv := New(svc, nil, nil)
	router := srv.Router()

	w := doJSON(t, router, http.MethodPost, "/api/tasks",
		`{"type":"transcription","payload":"audio/Case-A.mp3"}`)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", w.Code)
	}

	// The clinic endpoints still work via the synchronous fallback.
	w = doJSON(t, router, http.MethodPost, "/api/transcribe", `{"audio":"audio/Case-A.mp3"}`)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 via fallback, got %d: %s", w.Code, w.Body)
	}
}
