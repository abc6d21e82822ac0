// Package scheduler runs the watchlist batch on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/notify"
	"github.com/andresuchdata/demandcast/backend-go/internal/pipeline"
	"github.com/andresuchdata/demandcast/backend-go/internal/report"
	"github.com/andresuchdata/demandcast/backend-go/internal/storage"
)

// BatchRunner runs a batch of pairs.
type BatchRunner interface {
	RunBatch(ctx context.Context, req pipeline.BatchRequest) pipeline.BatchResult
}

// ReportStore archives rendered reports.
type ReportStore interface {
	storage.ObjectStorage
	ObjectKey(name string) string
}

// Job is one scheduled run: batch forecast, archive the workbook, notify.
// Store and Notifier are optional.
type Job struct {
	Runner        BatchRunner
	WatchlistPath string
	Store         ReportStore
	Notifier      notify.Notifier
	Timeout       time.Duration

	now func() time.Time
}

// JobOutcome reports what a run did.
type JobOutcome struct {
	Batch     pipeline.BatchResult
	ReportKey string
	Notified  bool
}

// Run executes the job once. The watchlist is re-read every time so edits
// apply without a restart.
func (j *Job) Run(ctx context.Context) (JobOutcome, error) {
	var out JobOutcome

	req, err := LoadWatchlist(j.WatchlistPath)
	if err != nil {
		return out, err
	}

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	out.Batch = j.Runner.RunBatch(ctx, req)

	if j.Store != nil {
		data, err := report.BatchXLSX(out.Batch)
		if err != nil {
			return out, err
		}
		key := j.Store.ObjectKey(report.FileName(j.clock()))
		if err := j.Store.UploadObject(ctx, key, data, report.ContentTypeXLSX); err != nil {
			return out, err
		}
		out.ReportKey = key
	}

	if j.Notifier != nil {
		if err := j.Notifier.NotifyBatch(ctx, out.Batch); err != nil {
			return out, err
		}
		out.Notified = true
	}
	return out, nil
}

func (j *Job) clock() time.Time {
	if j.now != nil {
		return j.now()
	}
	return time.Now()
}

// cronLogger routes the cron library's logs through zerolog. Cron reports every
// wake-up at info level, so those go to debug. A nil l uses the global logger.
type cronLogger struct {
	l *zerolog.Logger
}

func (c cronLogger) logger() *zerolog.Logger {
	if c.l != nil {
		return c.l
	}
	return &log.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.logger().Debug().Str("component", "cron").Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.logger().Error().Str("component", "cron").Err(err).Fields(keysAndValues).Msg(msg)
}

// Scheduler wraps a cron runner with a single job.
type Scheduler struct {
	cron   *cron.Cron
	job    *Job
	spec   string
	ctx    context.Context
	cancel context.CancelFunc
}

// New validates the 5-field cron spec and registers job.
func New(spec string, job *Job) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, domain.WrapError(domain.KindConfiguration, err, "invalid schedule %q", spec)
	}

	cronLog := cronLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:   cron.New(cron.WithLogger(cronLog), cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog))),
		job:    job,
		spec:   spec,
		ctx:    ctx,
		cancel: cancel,
	}
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		cancel()
		return nil, domain.WrapError(domain.KindConfiguration, err, "invalid schedule %q", spec)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	start := time.Now()
	out, err := s.job.Run(s.ctx)
	if err != nil {
		log.Error().Err(err).Str("watchlist", s.job.WatchlistPath).Msg("scheduled forecast failed")
		return
	}
	log.Info().
		Int("total", out.Batch.Total).
		Int("failed", out.Batch.Failed).
		Str("report", out.ReportKey).
		Bool("notified", out.Notified).
		Dur("elapsed", time.Since(start)).
		Msg("scheduled forecast completed")
}

// Start begins firing the job in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	entries := s.cron.Entries()
	if len(entries) > 0 {
		log.Info().Str("spec", s.spec).Time("next", entries[0].Next).Msg("forecast scheduler started")
	}
}

// Stop cancels a running job and returns a context done once it has exited.
func (s *Scheduler) Stop() context.Context {
	s.cancel()
	return s.cron.Stop()
}
