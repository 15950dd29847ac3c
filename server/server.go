// Package server exposes the experiment session over HTTP.
package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Abigail99216/audio/clinic"
	"github.com/Abigail99216/audio/scheduler"
	"github.com/Abigail99216/audio/tasks"
)

// Server routes HTTP requests to the session service and the scheduler.
type Server struct {
	svc   *clinic.Service
	sched *scheduler.Scheduler
	log   *zap.Logger
}

// New creates a server for the given session service. The scheduler may
// be nil; task submission and waiting then report unavailability.
func New(svc *clinic.Service, sched *scheduler.Scheduler, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, sched: sched, log: log.Named("server")}
}

// Router builds the HTTP routes.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	api.POST("/tasks", s.submitTask)
	api.GET("/tasks/:id", s.getTask)
	api.GET("/status", s.getStatus)
	api.POST("/transcribe", s.transcribe)
	api.POST("/reasoning", s.reason)
	api.POST("/ehr", s.generateEHR)
	api.GET("/conclusion", s.getConclusion)
	api.GET("/cases/search", s.searchCases)
	api.POST("/records", s.saveRecord)

	return router
}

// taskRequest is a raw task submission.
type taskRequest struct {
	Type     string `json:"type"`
	Payload  string `json:"payload"`
	CaseHint string `json:"case_hint"`
}

// submitTask enqueues a task and returns its ID without waiting.
func (s *Server) submitTask(c *gin.Context) {
	if s.sched == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler unavailable"})
		return
	}

	var req taskRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id, err := s.sched.Submit(tasks.TaskType(req.Type), req.Payload, s.svc.SessionID(), req.CaseHint)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"task_id": id})
}

// getTask returns a task's result. With ?wait= it blocks up to that
// long; otherwise it is a non-blocking snapshot. 404 covers both "still
// pending" and "never submitted"; the two are not distinguished.
func (s *Server) getTask(c *gin.Context) {
	if s.sched == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler unavailable"})
		return
	}

	id := c.Param("id")

	var res *tasks.Result
	var ok bool
	if waitStr := c.Query("wait"); waitStr != "" {
		wait, err := time.ParseDuration(waitStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wait duration"})
			return
		}
		res, ok = s.sched.Await(id, wait)
	} else {
		res, ok = s.sched.Result(id)
	}

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"task_id": id, "status": "not ready"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task_id":      res.TaskID,
		"status":       res.Status.String(),
		"payload":      res.Payload,
		"completed_at": res.CompletedAt,
	})
}

// getStatus reports the display-only system snapshot.
func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.svc.Status())
}

// transcribe runs the simulated transcription with a bounded wait.
func (s *Server) transcribe(c *gin.Context) {
	var req struct {
		Audio string `json:"audio"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	out, err := s.svc.TranscribeAsync(req.Audio)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	s.respondOutcome(c, out)
}

// reason runs the simulated clinical reasoning with a bounded wait.
func (s *Server) reason(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	out, err := s.svc.ReasonAsync(req.Text)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	s.respondOutcome(c, out)
}

// respondOutcome maps an async outcome to an HTTP response. Timeouts
// are 202: the task is still running and the ID allows later polling.
func (s *Server) respondOutcome(c *gin.Context, out *clinic.Outcome) {
	if out.TimedOut {
		c.JSON(http.StatusAccepted, gin.H{
			"task_id": out.TaskID,
			"message": out.Text,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"task_id": out.TaskID,
		"text":    out.Text,
	})
}

// generateEHR wraps a transcription with the current case's health record.
func (s *Server) generateEHR(c *gin.Context) {
	var req struct {
		Transcription string `json:"transcription"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	text, err := s.svc.GenerateRecord(req.Transcription)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": text})
}

// getConclusion returns the diagnostic conclusion for the current case.
func (s *Server) getConclusion(c *gin.Context) {
	text, err := s.svc.Conclusion()
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"text": text})
}

// searchCases runs a keyword search over the case dataset.
func (s *Server) searchCases(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}

	limit := 5
	if l := c.Query("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	matches, err := s.svc.SearchCases(query, limit)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"matches": matches})
}

// saveRecord persists a filled-in patient record form.
func (s *Server) saveRecord(c *gin.Context) {
	var rec clinic.PatientRecord
	if err := c.BindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	path, err := s.svc.SaveRecord(rec)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"path": path})
}
