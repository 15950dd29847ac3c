package clinic

import (
	"fmt"
	"time"
)

// SystemStatus is a read-only snapshot used for display only.
type SystemStatus struct {
	SchedulerRunning bool      `json:"scheduler_running"`
	Workers          int       `json:"workers"`
	Pending          int       `json:"pending"`
	Completed        int       `json:"completed"`
	Time             time.Time `json:"time"`
	Note             string    `json:"note,omitempty"`
}

// Status reports the scheduler's counters, or a synchronous-mode note
// when no scheduler is available.
func (s *Service) Status() SystemStatus {
	if !s.schedulerAvailable() {
		return SystemStatus{
			Time: time.Now(),
			Note: "scheduler unavailable, running in synchronous mode",
		}
	}

	st := s.sched.Status()
	return SystemStatus{
		SchedulerRunning: true,
		Workers:          st.Workers,
		Pending:          st.Pending,
		Completed:        st.Completed,
		Time:             st.Time,
	}
}

// Text renders the status for display.
func (st SystemStatus) Text() string {
	state := "running"
	if !st.SchedulerRunning {
		state = "unavailable"
	}

	text := "=== System status ===\n" +
		fmt.Sprintf("Scheduler: %s\n", state) +
		fmt.Sprintf("Pending tasks: %d\n", st.Pending) +
		fmt.Sprintf("Completed tasks: %d\n", st.Completed) +
		fmt.Sprintf("Workers: %d\n", st.Workers) +
		fmt.Sprintf("Time: %s\n", st.Time.Format("2006-01-02 15:04:05"))
	if st.Note != "" {
		text += fmt.Sprintf("Note: %s\n", st.Note)
	}
	return text
}
