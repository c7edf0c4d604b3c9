package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskpulse-api/internal/config"
	"github.com/phrazzld/taskpulse-api/internal/platform/logger"
	"golang.org/x/sync/errgroup"
)

// ErrScannerPanic wraps a panic recovered from a scanner.
var ErrScannerPanic = errors.New("scanner panicked")

// ErrAlreadyStarted is returned by Start when the scheduler is running or stopped.
var ErrAlreadyStarted = errors.New("scheduler already started")

// Config holds the scheduler timing settings.
type Config struct {
	// Interval is the time between two ticks. Defaults to one minute.
	Interval time.Duration
	// RunOnStart runs a tick immediately when the scheduler starts.
	RunOnStart bool
	// Timeout bounds a single tick. Zero means no limit.
	Timeout time.Duration
}

// ConfigFromSettings converts the application scheduler settings.
func ConfigFromSettings(cfg config.SchedulerConfig) Config {
	return Config{
		Interval:   time.Duration(cfg.IntervalMinutes) * time.Minute,
		RunOnStart: cfg.RunOnStart,
		Timeout:    time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
}

// RunReport summarizes one tick.
type RunReport struct {
	StartedAt time.Time             `json:"started_at"`
	Duration  time.Duration         `json:"duration"`
	Results   map[string]ScanResult `json:"results"`
	Errors    map[string]error      `json:"-"`
}

// Failed reports whether any scanner returned an error.
func (r RunReport) Failed() bool {
	return len(r.Errors) > 0
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now as the source of each tick's "now".
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// Scheduler runs its scanners on a fixed cadence until stopped.
type Scheduler struct {
	scanners   []Scanner
	config     Config
	now        func() time.Time
	logger     *slog.Logger
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
}

// New creates a Scheduler for the given scanners. It does not start ticking
// until Start is called.
func New(cfg Config, scanners []Scanner, logger *slog.Logger, opts ...Option) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		scanners:   scanners,
		config:     cfg,
		now:        time.Now,
		logger:     logger.With(slog.String("component", "scheduler")),
		ctx:        ctx,
		cancelFunc: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the periodic scans in a background goroutine.
func (s *Scheduler) Start() error {
	err := ErrAlreadyStarted
	s.startOnce.Do(func() {
		err = nil
		s.wg.Add(1)
		go s.loop()
		s.logger.Info("scheduler started",
			slog.Duration("interval", s.config.Interval),
			slog.Int("scanners", len(s.scanners)))
	})
	return err
}

// Stop cancels any running tick and waits for the loop to exit.
// It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.cancelFunc()
		s.wg.Wait()
		s.logger.Info("scheduler stopped")
	})
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	if s.config.RunOnStart {
		s.tick()
	}

	// A tick that outlasts the interval makes the ticker drop ticks,
	// so two runs never overlap.
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Scheduler) tick() {
	ctx := s.ctx
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	report := s.RunOnce(ctx, s.now())
	if s.ctx.Err() != nil {
		return
	}

	attrs := []any{slog.Duration("duration", report.Duration)}
	for name, result := range report.Results {
		attrs = append(attrs, slog.Group(name,
			slog.Int("matched", result.Matched),
			slog.Int("notified", result.Notified),
			slog.Int("transitioned", result.Transitioned),
			slog.Int("failed", result.Failed)))
	}
	s.logger.Info("scan completed", attrs...)
}

// RunOnce runs every scanner once, concurrently, against the given time and
// waits for all of them. Scanner errors and panics are logged and collected
// in the report.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) RunReport {
	runLogger := s.logger.With(slog.String("run_id", uuid.NewString()))
	ctx = logger.WithLogger(ctx, runLogger)

	report := RunReport{
		StartedAt: now,
		Results:   make(map[string]ScanResult, len(s.scanners)),
		Errors:    make(map[string]error),
	}
	started := time.Now()

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for _, scanner := range s.scanners {
		g.Go(func() error {
			result, err := runScanner(ctx, scanner, now)

			mu.Lock()
			defer mu.Unlock()
			report.Results[scanner.Name()] = result
			if err != nil {
				report.Errors[scanner.Name()] = err
				runLogger.Error("scanner failed",
					slog.String("scanner", scanner.Name()),
					slog.String("error", err.Error()))
			}
			// Never return the error: a failing scanner must not cancel its siblings.
			return nil
		})
	}
	_ = g.Wait()

	report.Duration = time.Since(started)
	return report
}

func runScanner(ctx context.Context, scanner Scanner, now time.Time) (result ScanResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			logger.FromContext(ctx).Error("recovered from scanner panic",
				slog.String("scanner", scanner.Name()),
				slog.Any("panic", p),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("%w: %s: %v", ErrScannerPanic, scanner.Name(), p)
		}
	}()
	return scanner.Scan(ctx, now)
}
