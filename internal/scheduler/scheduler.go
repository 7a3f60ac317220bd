package scheduler

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"RiskSentinel/internal/alerts"
	"RiskSentinel/internal/artifacts"
	"RiskSentinel/internal/model"
	"RiskSentinel/internal/notifier"
	"RiskSentinel/internal/pipeline"
)

// Pipeline is the job the scheduler runs.
type Pipeline interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

// Scheduler runs the pipeline on a cron schedule and answers chat commands.
// At most one run is in flight; a tick that finds a run active is skipped.
type Scheduler struct {
	Cron     *cron.Cron
	Pipeline Pipeline
	Notifier notifier.Notifier
	DataDir  string
	Log      zerolog.Logger
	Ctx      context.Context

	running sync.Mutex
	async   sync.WaitGroup
}

// NewScheduler creates a new Scheduler. n may be nil.
func NewScheduler(ctx context.Context, p Pipeline, n notifier.Notifier, dataDir string, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Pipeline: p,
		Notifier: n,
		DataDir:  dataDir,
		Log:      log.With().Str("component", "scheduler").Logger(),
		Ctx:      ctx,
	}
}

// Register schedules the pipeline with a six-field cron spec.
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddFunc(spec, func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register run task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for cron jobs and runs started
// with RunAsync to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.async.Wait()
	s.Log.Info().Msg("scheduler stopped")
}

// RunAsync starts RunNow in the background. Stop waits for it.
func (s *Scheduler) RunAsync() {
	s.async.Add(1)
	go func() {
		defer s.async.Done()
		s.RunNow()
	}()
}

// RunNow executes the pipeline immediately. It returns false without
// running when another run is in progress.
func (s *Scheduler) RunNow() bool {
	if !s.running.TryLock() {
		s.Log.Warn().Msg("previous run still active, skipping")
		return false
	}
	defer s.running.Unlock()

	rep, err := s.Pipeline.Run(s.Ctx)
	if err != nil {
		s.Log.Error().Err(err).Msg("run failed")
		s.trySend(fmt.Sprintf("❌ RiskSentinel run failed: %v", err))
		return true
	}
	s.Log.Info().Float64("score", rep.Composite.Score).Int("alerts", len(rep.AlertsAdded)).Msg("scheduled run complete")
	return true
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(_ context.Context, command string) string {
	var verb string
	if f := strings.Fields(command); len(f) > 0 {
		verb = f[0]
	}
	switch verb {
	case "/score":
		var latest model.Latest
		found, err := artifacts.ReadJSON(filepath.Join(s.DataDir, pipeline.LatestFileName), &latest)
		if err != nil {
			return fmt.Sprintf("❌ cannot read latest score: %v", err)
		}
		if !found {
			return "No score yet. Send /run to compute one."
		}
		return notifier.FormatLatest(&latest)
	case "/alerts":
		var f alerts.File
		if _, err := artifacts.ReadJSON(filepath.Join(s.DataDir, alerts.CombinedFileName), &f); err != nil {
			return fmt.Sprintf("❌ cannot read alerts: %v", err)
		}
		if len(f.Alerts) == 0 {
			return "No alerts stored."
		}
		if len(f.Alerts) > 5 {
			f.Alerts = f.Alerts[:5]
		}
		return notifier.FormatAlerts(f.Alerts)
	case "/run":
		s.RunAsync()
		return "⏳ Run started."
	default:
		return "Commands:\n• /score latest composite\n• /alerts recent alerts\n• /run run now"
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		s.Log.Error().Err(err).Msg("send notification")
	}
}
