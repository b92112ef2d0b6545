package organizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"fileorg/internal/config"
	"fileorg/internal/deps"
	"fileorg/internal/history"
	"fileorg/internal/logging"
	"fileorg/internal/metadata"
	"fileorg/internal/naming"
	"fileorg/internal/preflight"
	"fileorg/internal/services"
	"fileorg/internal/signature"
)

// Organizer runs organize jobs. One Organizer may run jobs sequentially or
// concurrently against different destinations.
type Organizer struct {
	cfg      *config.Config
	logger   *slog.Logger
	matcher  *signature.Matcher
	registry *metadata.Registry
	resolver naming.Resolver
	history  *history.Store
}

// Option customizes an Organizer.
type Option func(*Organizer)

// WithMatcher replaces the default signature matcher.
func WithMatcher(m *signature.Matcher) Option {
	return func(o *Organizer) {
		if m != nil {
			o.matcher = m
		}
	}
}

// WithRegistry replaces the metadata registry built from config.
func WithRegistry(r *metadata.Registry) Option {
	return func(o *Organizer) {
		if r != nil {
			o.registry = r
		}
	}
}

// WithResolver replaces the naming resolver.
func WithResolver(r naming.Resolver) Option {
	return func(o *Organizer) {
		o.resolver = r
	}
}

// WithHistory records runs and transfers in store.
func WithHistory(store *history.Store) Option {
	return func(o *Organizer) {
		o.history = store
	}
}

// New constructs an Organizer from cfg.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Organizer {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	o := &Organizer{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "organizer"),
		matcher: signature.Default(),
	}
	o.registry = metadata.NewRegistry(metadata.Options{
		FFprobeBinary: deps.ResolveFFprobePath(cfg.FFprobeBinary()),
		ProbeTimeout:  time.Duration(cfg.Media.ProbeTimeoutSeconds) * time.Second,
		Logger:        logger,
	})
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run holds the mutable state of one Run call.
type run struct {
	*Organizer
	id      string
	job     Job
	sink    Sink
	sampler *logging.ProgressSampler

	mu       sync.Mutex
	state    State
	stats    Stats
	failures []Failure
	store    *history.Store
	recorded bool
}

// Run executes job and blocks until it reaches a terminal state. The returned
// Result always carries the counters gathered so far; Err is set for failed
// and cancelled runs.
func (o *Organizer) Run(ctx context.Context, job Job, sink Sink) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	if sink == nil {
		sink = NopSink{}
	}
	r := &run{
		Organizer: o,
		id:        uuid.NewString(),
		sink:      sink,
		state:     StateIdle,
		stats:     Stats{PerCategory: make(map[signature.Category]int)},
		store:     o.history,
	}
	ctx = services.WithRunID(ctx, r.id)
	started := time.Now()

	err := r.execute(ctx, job)

	state := StateCompleted
	switch services.TerminalState(err) {
	case services.RunCancelled:
		state = StateCancelled
	case services.RunFailed:
		state = StateFailed
	}
	r.finish(ctx, state, err)

	r.mu.Lock()
	defer r.mu.Unlock()
	return Result{
		RunID:    r.id,
		State:    state,
		Stats:    r.stats.clone(),
		Err:      err,
		Started:  started,
		Finished: time.Now(),
		Failures: append([]Failure(nil), r.failures...),
	}
}

func (r *run) execute(ctx context.Context, job Job) error {
	logger := logging.WithContext(ctx, r.logger)

	normalized, err := normalizeJob(job)
	if err != nil {
		r.job = job
		return r.fatal(logger, err)
	}
	r.job = normalized
	r.sampler = logging.NewProgressSampler(r.job.ProgressEvery)

	if err := preflight.CheckSource(r.job.SourceRoot); err != nil {
		return r.fatal(logger, err)
	}
	if err := preflight.CheckDestination(r.job.DestRoot, r.job.SourceRoot); err != nil {
		return r.fatal(logger, err)
	}
	lock, err := acquireDestinationLock(r.cfg.LockDir(), r.job.DestRoot)
	if err != nil {
		return r.fatal(logger, err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release destination lock", logging.Error(err))
		}
	}()

	r.beginHistory(ctx)
	logger.Info("organize run started",
		logging.String("source", r.job.SourceRoot),
		logging.String("destination", r.job.DestRoot),
		logging.Bool("by_category", r.job.ByCategory),
		logging.Bool("enrich", r.job.EnrichFilenames),
		logging.Bool("move", r.job.Move),
		logging.Int("workers", r.job.Workers),
	)
	r.emitLog(SeverityInfo, fmt.Sprintf("Organizing %s into %s", r.job.SourceRoot, r.job.DestRoot), "")

	r.setState(StateScanning)
	scanned, err := r.scan(ctx)
	r.mu.Lock()
	r.stats.Scanned = len(scanned.files)
	r.stats.Folders = scanned.folders
	r.mu.Unlock()
	if err != nil {
		if services.TerminalState(err) == services.RunCancelled {
			return err
		}
		return r.fatal(logger, err)
	}
	logger.Info("scan complete",
		logging.Int("files", len(scanned.files)),
		logging.Int("folders", scanned.folders),
	)

	r.setState(StateProcessing)
	r.mu.Lock()
	if r.sampler.ShouldEmit(0, r.stats.Scanned) {
		r.sink.Progress(r.snapshotLocked("", signature.Other))
	}
	r.mu.Unlock()
	return r.process(ctx, scanned.files)
}

func (r *run) process(ctx context.Context, files []string) error {
	if r.job.Workers <= 1 {
		for _, path := range files {
			if err := r.checkCancelled(ctx); err != nil {
				return err
			}
			r.handle(ctx, path)
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(r.job.Workers)
	for _, path := range files {
		if err := r.checkCancelled(ctx); err != nil {
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			if r.checkCancelled(ctx) != nil {
				return nil
			}
			r.handle(ctx, path)
			return nil
		})
	}
	_ = g.Wait()

	r.mu.Lock()
	finished := r.stats.Processed() == len(files)
	r.mu.Unlock()
	if finished {
		return nil
	}
	return r.checkCancelled(ctx)
}

func (r *run) checkCancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled: %w", err)
	}
	if r.job.Cancel.Cancelled() {
		return fmt.Errorf("run cancelled: %w", context.Canceled)
	}
	return nil
}

func (r *run) fatal(logger *slog.Logger, err error) error {
	logging.ErrorWithContext(logger, "organize run failed", "run_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hintFor(err)),
	)
	r.emitLog(SeverityError, err.Error(), "")
	return err
}

func (r *run) finish(ctx context.Context, state State, err error) {
	logger := logging.WithContext(ctx, r.logger)
	r.setState(state)

	r.mu.Lock()
	stats := r.stats.clone()
	processed := stats.Processed()
	r.sink.Progress(r.snapshotLocked("", signature.Other))
	r.mu.Unlock()

	attrs := []logging.Attr{
		logging.String("state", string(state)),
		logging.Int("scanned", stats.Scanned),
		logging.Int("succeeded", stats.Succeeded),
		logging.Int("failed", stats.Failed),
		logging.Int("folders", stats.Folders),
	}
	switch state {
	case StateCompleted:
		logger.Info("organize run completed", logging.Args(attrs...)...)
		r.emitLog(SeveritySuccess, fmt.Sprintf("Organized %d of %d files", stats.Succeeded, stats.Scanned), "")
	case StateCancelled:
		logger.Info("organize run cancelled", logging.Args(attrs...)...)
		r.emitLog(SeverityWarning, fmt.Sprintf("Cancelled after %d of %d files", processed, stats.Scanned), "")
	}
	r.finishHistory(ctx, state, stats, err)
}

func (r *run) setState(state State) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}

func (r *run) snapshotLocked(current string, category signature.Category) Progress {
	return Progress{
		State:       r.state,
		Scanned:     r.stats.Scanned,
		Processed:   r.stats.Processed(),
		Succeeded:   r.stats.Succeeded,
		Failed:      r.stats.Failed,
		CurrentFile: current,
		Category:    category,
	}
}

func (r *run) emitLog(severity Severity, message, path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sink.Log(Entry{Time: time.Now(), Severity: severity, Message: message, Path: path})
}

func normalizeJob(job Job) (Job, error) {
	if strings.TrimSpace(job.SourceRoot) == "" {
		return job, services.Wrap(services.ErrValidation, "preflight", "validate job", "Source directory is required", nil)
	}
	if strings.TrimSpace(job.DestRoot) == "" {
		return job, services.Wrap(services.ErrValidation, "preflight", "validate job", "Destination directory is required", nil)
	}
	for _, target := range []*string{&job.SourceRoot, &job.DestRoot} {
		expanded, err := config.ExpandPath(strings.TrimSpace(*target))
		if err != nil {
			return job, services.Wrap(services.ErrValidation, "preflight", "validate job", fmt.Sprintf("Cannot resolve %s", *target), err)
		}
		*target = filepath.Clean(expanded)
	}
	if job.ProgressEvery <= 0 {
		job.ProgressEvery = 10
	}
	if job.Workers <= 0 {
		job.Workers = 1
	}
	if job.Workers > MaxWorkers {
		job.Workers = MaxWorkers
	}
	if job.Cancel == nil {
		job.Cancel = &Canceller{}
	}
	return job, nil
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrLocked):
		return "wait for the other run to finish or choose another destination"
	case errors.Is(err, services.ErrNotFound):
		return "check the source path"
	case errors.Is(err, services.ErrValidation):
		return "check that the source is readable and the destination writable"
	default:
		return "see log for details"
	}
}
