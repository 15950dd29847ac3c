// Command clinicd serves the simulated clinical workflow over HTTP.
//
// It loads the scripted case dataset, starts the background task
// scheduler, and exposes the session API until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Abigail99216/audio/cases"
	"github.com/Abigail99216/audio/clinic"
	"github.com/Abigail99216/audio/config"
	"github.com/Abigail99216/audio/logging"
	"github.com/Abigail99216/audio/scheduler"
	"github.com/Abigail99216/audio/server"
	"github.com/Abigail99216/audio/shutdown"
)

func main() {
	configPath := flag.String("config", "clinicd.toml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	log := logging.New(cfg.Log)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Error("exiting on error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	// The interactive loader is shared; each worker loads its own
	// snapshot through the factory so a bad workbook degrades rather
	// than aborts.
	loader, err := cases.LoadXLSX(cfg.Dataset.Path)
	var sharedLoader cases.Loader = loader
	if err != nil {
		log.Warn("case dataset unavailable, serving without case data",
			zap.String("path", cfg.Dataset.Path), zap.Error(err))
		sharedLoader = cases.Unavailable{}
	}

	var index *cases.Index
	if err == nil {
		index, err = cases.NewIndex(loader)
		if err != nil {
			log.Warn("case search index unavailable", zap.Error(err))
			index = nil
		}
	}

	sched := scheduler.New(scheduler.Config{
		Workers:      cfg.Scheduler.Workers,
		QueueSize:    cfg.Scheduler.QueueSize,
		ProcessDelay: cfg.Scheduler.ProcessDelay(),
		ShutdownWait: cfg.Scheduler.ShutdownWait(),
		LoaderFactory: func() (cases.Loader, error) {
			return cases.LoadXLSX(cfg.Dataset.Path)
		},
		Logger: log,
	})

	svc := clinic.New(clinic.Config{
		Loader:     sharedLoader,
		Scheduler:  sched,
		Index:      index,
		RecordsDir: cfg.Dataset.RecordsDir,
		SessionID:  uuid.NewString(),
		Logger:     log,
	})

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.New(svc, sched, log).Router(),
	}

	coord := shutdown.NewCoordinator(shutdown.DefaultConfig(), log)
	coord.RegisterWithPhase("http", shutdown.HandlerFunc(func(ctx context.Context) error {
		return srv.Shutdown(ctx)
	}), 10)
	coord.RegisterWithPhase("scheduler", shutdown.HandlerFunc(func(ctx context.Context) error {
		sched.Shutdown()
		return nil
	}), 20)
	if index != nil {
		coord.RegisterWithPhase("index", shutdown.HandlerFunc(func(ctx context.Context) error {
			return index.Close()
		}), 30)
	}
	coord.HandleSignals()

	log.Info("serving",
		zap.String("addr", cfg.Server.Addr),
		zap.String("session_id", svc.SessionID()),
		zap.Int("workers", cfg.Scheduler.Workers))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		coord.Trigger()
		<-coord.Done()
		return err
	case <-coord.Done():
		return coord.Err()
	}
}
