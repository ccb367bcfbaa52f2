package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"IVSolver/internal/batch"
	"IVSolver/internal/collector"
	"IVSolver/internal/exporter"
	"IVSolver/internal/model"
	"IVSolver/internal/notifier"
	"IVSolver/internal/recorder"
)

// Notifier delivers batch reports. TelegramNotifier satisfies it.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// ErrBatchRunning is returned when a run is requested while another is in progress.
var ErrBatchRunning = errors.New("a batch is already running")

// Scheduler runs the collect, solve, export, record and notify pipeline,
// either on a cron schedule or on demand.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Runner    *batch.Runner
	Output    string
	Notifier  Notifier // nil disables notifications
	Recorder  recorder.Recorder
	Ctx       context.Context

	running sync.Mutex
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, runner *batch.Runner, output string, n Notifier, rec recorder.Recorder) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Runner:    runner,
		Output:    output,
		Notifier:  n,
		Recorder:  rec,
		Ctx:       ctx,
	}
}

// Register adds the batch job under a six-field cron expression.
func (s *Scheduler) Register(expr string) error {
	if _, err := s.Cron.AddFunc(expr, s.batchTask); err != nil {
		return fmt.Errorf("register batch task: %w", err)
	}
	log.Printf("[INFO] batch scheduled: %s", expr)
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

func (s *Scheduler) batchTask() {
	if _, err := s.RunBatchNow(); err != nil {
		log.Printf("[ERROR] scheduled batch: %v", err)
	}
}

// RunBatchNow executes the pipeline once. Only one run proceeds at a time.
func (s *Scheduler) RunBatchNow() (*model.BatchSummary, error) {
	if !s.running.TryLock() {
		return nil, ErrBatchRunning
	}
	defer s.running.Unlock()

	log.Printf("[INFO] running batch from %s", s.Collector.Source.Name())
	trades, err := s.Collector.Collect(s.Ctx)
	if err != nil {
		s.trySend(notifier.FormatFailure("collect", err))
		return nil, fmt.Errorf("collect: %w", err)
	}
	log.Printf("[INFO] collected %d trades", len(trades))

	solutions, summary, err := s.Runner.Run(s.Ctx, trades)
	if err != nil {
		s.trySend(notifier.FormatFailure("solve", err))
		return nil, fmt.Errorf("solve: %w", err)
	}
	summary.Source = s.Collector.Source.Name()

	if s.Output != "" {
		nanCount, err := exporter.WriteFile(s.Output, solutions)
		if err != nil {
			s.trySend(notifier.FormatFailure("export", err))
			return nil, fmt.Errorf("export: %w", err)
		}
		summary.Output = s.Output
		log.Printf("[INFO] wrote %d solutions to %s, %d without a solution", len(solutions), s.Output, nanCount)
	}

	if _, err := s.Recorder.RecordRun(&summary, solutions); err != nil {
		log.Printf("[ERROR] record batch: %v", err)
	}

	log.Printf("[INFO] batch done: total=%d solved=%d nan=%d took=%s",
		summary.Total, summary.Solved, summary.NaNCount, summary.Duration.Round(time.Millisecond))
	s.trySend(notifier.FormatBatchReport(&summary))
	return &summary, nil
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(command string) string {
	switch command {
	case "/run":
		summary, err := s.RunBatchNow()
		if err != nil {
			return notifier.FormatFailure("run", err)
		}
		// RunBatchNow already sent the report when a notifier is configured.
		if s.Notifier != nil {
			return ""
		}
		return notifier.FormatBatchReport(summary)
	case "/last":
		run, err := s.Recorder.LastRun()
		if errors.Is(err, recorder.ErrNoRuns) {
			return "No batch has run yet."
		}
		if err != nil {
			return notifier.FormatFailure("history", err)
		}
		return notifier.FormatBatchReport(&run.BatchSummary)
	default:
		return notifier.FormatHelp()
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
