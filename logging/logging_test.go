package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNewDefaults(t *testing.T) {
	logger := New(DefaultConfig())
	if logger == nil {
		t.Fatal("Expected a logger")
	}
	logger.Info("hello")
	_ = logger.Sync()
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "experiment.log")

	cfg := DefaultConfig()
	cfg.Format = "json"
	cfg.Outputs = []string{path}

	logger := New(cfg)
	logger.Info("written to file", zap.String("k", "v"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Reading log file failed: %v", err)
	}
	if !strings.Contains(string(data), "written to file") {
		t.Errorf("Log file missing entry: %s", data)
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "experiment.log")

	cfg := Config{Level: "error", Format: "json", Outputs: []string{path}}
	logger := New(cfg)
	logger.Info("filtered out")
	logger.Error("kept")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Reading log file failed: %v", err)
	}
	if strings.Contains(string(data), "filtered out") {
		t.Error("Info entry not filtered at error level")
	}
	if !strings.Contains(string(data), "kept") {
		t.Error("Error entry missing")
	}
}
