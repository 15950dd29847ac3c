// Package config loads experiment configuration from a TOML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Abigail99216/audio/logging"
)

// Config is the top-level experiment configuration.
type Config struct {
	Dataset   Dataset        `toml:"dataset"`
	Scheduler Scheduler      `toml:"scheduler"`
	Server    Server         `toml:"server"`
	Log       logging.Config `toml:"log"`
}

// Dataset locates the case dataset and record output directory.
type Dataset struct {
	// Path is the case dataset workbook.
	Path string `toml:"path"`

	// RecordsDir is where saved patient records are written.
	RecordsDir string `toml:"records_dir"`
}

// Scheduler tunes the background task scheduler.
type Scheduler struct {
	// Workers is the worker pool size.
	Workers int `toml:"workers"`

	// QueueSize is the task channel capacity.
	QueueSize int `toml:"queue_size"`

	// ProcessDelayMS is the simulated per-task latency in milliseconds.
	ProcessDelayMS int `toml:"process_delay_ms"`

	// ShutdownWaitMS bounds the worker drain at shutdown, in milliseconds.
	ShutdownWaitMS int `toml:"shutdown_wait_ms"`
}

// ProcessDelay returns the simulated latency as a duration.
func (s Scheduler) ProcessDelay() time.Duration {
	return time.Duration(s.ProcessDelayMS) * time.Millisecond
}

// ShutdownWait returns the drain bound as a duration.
func (s Scheduler) ShutdownWait() time.Duration {
	return time.Duration(s.ShutdownWaitMS) * time.Millisecond
}

// Server configures the HTTP front end.
type Server struct {
	// Addr is the listen address.
	Addr string `toml:"addr"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Dataset: Dataset{
			Path:       "scripts.xlsx",
			RecordsDir: "patient_records",
		},
		Scheduler: Scheduler{
			Workers:        2,
			QueueSize:      64,
			ProcessDelayMS: 2000,
			ShutdownWaitMS: 5000,
		},
		Server: Server{
			Addr: ":8080",
		},
		Log: logging.DefaultConfig(),
	}
}

// Load reads configuration from path, overlaying the defaults. A missing
// file is not an error; the defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}

	return cfg, nil
}
