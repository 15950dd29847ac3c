package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Coordinator runs registered handlers in phase order when the process
// shuts down, whether triggered explicitly or by a termination signal.
type Coordinator struct {
	config Config
	log    *zap.Logger

	mu       sync.Mutex
	handlers []registration

	shutdownOnce sync.Once
	shutdownErr  error
	done         chan struct{}
	signalChan   chan os.Signal
}

// NewCoordinator creates a shutdown coordinator.
func NewCoordinator(config Config, log *zap.Logger) *Coordinator {
	if config.Timeout == 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	if config.DefaultPhase == 0 {
		config.DefaultPhase = DefaultConfig().DefaultPhase
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Coordinator{
		config:     config,
		log:        log.Named("shutdown"),
		done:       make(chan struct{}),
		signalChan: make(chan os.Signal, 1),
	}
}

// Register adds a handler at the default phase.
func (c *Coordinator) Register(name string, handler Handler) {
	c.RegisterWithPhase(name, handler, c.config.DefaultPhase)
}

// RegisterWithPhase adds a handler at a specific phase. Lower phases
// shut down first; handlers within a phase shut down concurrently.
func (c *Coordinator) RegisterWithPhase(name string, handler Handler, phase int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, registration{name: name, handler: handler, phase: phase})
}

// RegisterFunc registers a plain function at the default phase.
func (c *Coordinator) RegisterFunc(name string, fn func(ctx context.Context) error) {
	c.Register(name, HandlerFunc(fn))
}

// Shutdown runs the registered handlers once. Later calls wait for the
// first run and return its error, so it is safe to call from both a
// signal handler and the main path.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.shutdownOnce.Do(func() {
		c.shutdownErr = c.run(ctx)
		close(c.done)
	})
	<-c.done
	return c.shutdownErr
}

// ShutdownWithTimeout runs Shutdown bounded by the configured timeout.
func (c *Coordinator) ShutdownWithTimeout() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
	defer cancel()
	return c.Shutdown(ctx)
}

// HandleSignals triggers shutdown on SIGINT or SIGTERM.
func (c *Coordinator) HandleSignals() {
	signal.Notify(c.signalChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-c.signalChan
		c.log.Info("signal received", zap.String("signal", sig.String()))
		_ = c.ShutdownWithTimeout()
	}()
}

// Trigger injects a termination signal, mainly for tests.
func (c *Coordinator) Trigger() {
	select {
	case c.signalChan <- syscall.SIGTERM:
	default:
	}
}

// Done is closed when shutdown has completed.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Err returns the shutdown error, valid once Done is closed.
func (c *Coordinator) Err() error {
	select {
	case <-c.done:
		return c.shutdownErr
	default:
		return nil
	}
}

// run executes all handlers grouped by phase.
func (c *Coordinator) run(ctx context.Context) error {
	c.mu.Lock()
	handlers := make([]registration, len(c.handlers))
	copy(handlers, c.handlers)
	c.mu.Unlock()

	sort.SliceStable(handlers, func(i, j int) bool {
		return handlers[i].phase < handlers[j].phase
	})

	var failed bool
	for start := 0; start < len(handlers); {
		end := start
		for end < len(handlers) && handlers[end].phase == handlers[start].phase {
			end++
		}

		select {
		case <-ctx.Done():
			c.log.Warn("shutdown timed out", zap.Int("phase", handlers[start].phase))
			return ErrTimeout
		default:
		}

		if c.runPhase(ctx, handlers[start:end]) {
			failed = true
		}
		start = end
	}

	if failed {
		return ErrHandlerFailed
	}
	return nil
}

// runPhase runs one phase's handlers concurrently. Returns true if any
// handler failed.
func (c *Coordinator) runPhase(ctx context.Context, group []registration) bool {
	var wg sync.WaitGroup
	errs := make([]error, len(group))

	for i, reg := range group {
		wg.Add(1)
		go func(idx int, r registration) {
			defer wg.Done()

			start := time.Now()
			err := r.handler.OnShutdown(ctx)
			errs[idx] = err

			if err != nil {
				c.log.Error("handler failed",
					zap.String("handler", r.name),
					zap.Duration("took", time.Since(start)),
					zap.Error(err))
			} else {
				c.log.Info("handler stopped",
					zap.String("handler", r.name),
					zap.Duration("took", time.Since(start)))
			}
		}(i, reg)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return true
		}
	}
	return false
}
