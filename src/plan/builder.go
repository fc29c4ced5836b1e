package plan

import (
	"context"
	"fmt"
	"time"

	"citriage/src/archive"
	"citriage/src/classify"
	"citriage/src/condense"
	"citriage/src/cost"
	"citriage/src/logger"
	"citriage/src/provider"
	"golang.org/x/sync/errgroup"
)

// JobListUnavailable is the job name recorded when a failed run's job list
// could not be fetched.
const JobListUnavailable = "(job list unavailable)"

// Timeouts bound individual provider calls. Zero means no limit.
type Timeouts struct {
	Metadata time.Duration
	Log      time.Duration
}

// Request describes one dry run.
type Request struct {
	Repository  string
	Branch      string
	Limit       int
	AIRequested bool
	ReportPath  string
	LogPath     string
}

// Builder runs the dry-run phase: it queries the provider, condenses the
// logs of failed jobs, prices them and saves the resulting plan.
type Builder struct {
	provider    provider.Provider
	condenser   *condense.Condenser
	estimator   *cost.Estimator
	store       Store
	logger      logger.Logger
	timeouts    Timeouts
	concurrency int
	now         func() time.Time

	// processing log, see WithProcessingLog
	fileLog  bool
	archiver *archive.Archiver
	debug    bool
}

// Option configures a Builder.
type Option func(*Builder)

func WithTimeouts(t Timeouts) Option {
	return func(b *Builder) { b.timeouts = t }
}

// WithConcurrency sets how many job logs are fetched at once. Values
// below 1 mean sequential.
func WithConcurrency(n int) Option {
	return func(b *Builder) { b.concurrency = n }
}

// WithProcessingLog makes Build archive the report and processing log of an
// earlier run with a (may be nil) and then append its own progress to
// Request.LogPath.
func WithProcessingLog(a *archive.Archiver, debug bool) Option {
	return func(b *Builder) {
		b.fileLog = true
		b.archiver = a
		b.debug = debug
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

func NewBuilder(p provider.Provider, c *condense.Condenser, e *cost.Estimator, s Store, log logger.Logger, opts ...Option) *Builder {
	b := &Builder{
		provider:    p,
		condenser:   c,
		estimator:   e,
		store:       s,
		logger:      log,
		concurrency: 1,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.concurrency < 1 {
		b.concurrency = 1
	}
	return b
}

// Build creates and saves a plan. Only a failed run listing or a failed
// save is returned as an error; per-job problems are recorded in the plan.
func (b *Builder) Build(ctx context.Context, req Request) (*Plan, Handle, error) {
	if !b.fileLog || req.LogPath == "" {
		return b.build(ctx, req)
	}

	var moved []string
	if b.archiver != nil {
		var err error
		moved, err = b.archiver.Archive(req.ReportPath, req.LogPath)
		if err != nil {
			b.logger.Warn("Could not archive previous outputs: %v", err)
		}
	}

	run := *b
	fileLog, err := logger.NewFileLogger(req.LogPath, b.debug)
	if err != nil {
		b.logger.Warn("Processing log unavailable, logging to the console only: %v", err)
	} else {
		defer fileLog.Close()
		run.logger = logger.Multi(b.logger, fileLog)
	}

	for _, path := range moved {
		run.logger.Info("Archived previous output to %s", path)
	}
	return run.build(ctx, req)
}

func (b *Builder) build(ctx context.Context, req Request) (*Plan, Handle, error) {
	runs, err := b.listRuns(ctx, req)
	if err != nil {
		return nil, "", provider.WrapError(fmt.Errorf("failed to list runs for branch %q: %w", req.Branch, err))
	}
	b.logger.Info("Fetched %d run(s) for branch %s from %s", len(runs), req.Branch, b.provider.Name())

	buckets := classify.Classify(runs)
	b.logger.Info("Classified runs: %d passed, %d failed, %d pending",
		len(buckets.Passed), len(buckets.Failed), len(buckets.Pending))
	for _, r := range buckets.Passed {
		if !classify.IsKnownConclusion(r.Conclusion) {
			b.logger.Warn("Run %s (%s) has unrecognized conclusion %q; counted as passed", r.ID, r.WorkflowName, r.Conclusion)
		}
	}

	now := b.now()
	p := &Plan{
		Version:     CurrentVersion,
		ID:          NewID(now),
		Provider:    b.provider.Name(),
		Repository:  req.Repository,
		Branch:      req.Branch,
		CreatedAt:   now.UTC(),
		ReportPath:  req.ReportPath,
		LogPath:     req.LogPath,
		AIRequested: req.AIRequested,
		Passed:      summarize(buckets.Passed),
		Failed:      summarize(buckets.Failed),
		Pending:     summarize(buckets.Pending),
	}

	items, pending := b.collectJobs(ctx, buckets.Failed)
	b.fetchLogs(ctx, items, pending)

	total := 0.0
	for _, item := range items {
		total += item.EstimatedCost
		if item.LogAvailable() && b.estimator.Eligible(item.Condensed()) {
			p.EligibleJobs++
		}
	}
	p.FailedJobs = items
	p.EstimatedCost = cost.Round(total)

	b.logger.Info("Plan %s: %d failed job(s), %d eligible for AI summary, projected cost $%.4f",
		p.ID, len(p.FailedJobs), p.EligibleJobs, p.EstimatedCost)

	h, err := b.store.Save(ctx, p)
	if err != nil {
		return nil, "", fmt.Errorf("failed to save plan: %w", err)
	}
	b.logger.Info("Plan written to %s", h)
	return p, h, nil
}

func (b *Builder) listRuns(ctx context.Context, req Request) ([]provider.Run, error) {
	ctx, cancel := withTimeout(ctx, b.timeouts.Metadata)
	defer cancel()
	return b.provider.ListRuns(ctx, req.Branch, req.Limit)
}

// collectJobs lists the jobs of each failed run in order and returns one
// item per failed job, plus the indexes of items whose log still needs
// fetching.
func (b *Builder) collectJobs(ctx context.Context, failed []provider.Run) ([]FailedJobItem, []int) {
	var (
		items   []FailedJobItem
		pending []int
	)

	for _, run := range failed {
		jobs, err := b.listJobs(ctx, run.ID)
		if err != nil {
			b.logger.Warn("Run %s (%s): could not list jobs: %v", run.ID, run.WorkflowName, err)
			item := itemFor(run, provider.Job{Name: JobListUnavailable, Conclusion: run.Conclusion})
			item.FetchError = fmt.Sprintf("job list unavailable: %v", err)
			items = append(items, item)
			continue
		}

		n := 0
		for _, job := range jobs {
			if !classify.IsFailedConclusion(job.Conclusion) {
				continue
			}
			pending = append(pending, len(items))
			items = append(items, itemFor(run, job))
			n++
		}
		b.logger.Info("Run %s (%s): %d of %d job(s) failed", run.ID, run.WorkflowName, n, len(jobs))
	}
	return items, pending
}

func (b *Builder) listJobs(ctx context.Context, runID string) ([]provider.Job, error) {
	ctx, cancel := withTimeout(ctx, b.timeouts.Metadata)
	defer cancel()
	return b.provider.ListJobs(ctx, runID)
}

// fetchLogs fills in the logs of items[idx] for each idx in pending. Each
// fetch writes only its own slot, so order is fixed up front and one
// failure never affects another job.
func (b *Builder) fetchLogs(ctx context.Context, items []FailedJobItem, pending []int) {
	var g errgroup.Group
	g.SetLimit(b.concurrency)

	for _, idx := range pending {
		g.Go(func() error {
			b.fetchLog(ctx, &items[idx])
			return nil
		})
	}
	_ = g.Wait()
}

func (b *Builder) fetchLog(ctx context.Context, item *FailedJobItem) {
	ctx, cancel := withTimeout(ctx, b.timeouts.Log)
	defer cancel()

	raw, err := b.provider.FetchJobLog(ctx, item.RunID, item.JobID)
	if err != nil {
		item.FetchError = err.Error()
		b.logger.Warn("Job %s (%s): log unavailable: %v", item.JobID, item.JobName, err)
		return
	}

	condensed := b.condenser.Condense(raw)
	item.RawLog = &raw
	item.CondensedLog = &condensed
	item.RawBytes = len(raw)
	item.CondensedBytes = len(condensed)
	item.EstimatedCost = b.estimator.Estimate(condensed)

	b.logger.Info("Job %s (%s): %d bytes raw, %d bytes condensed", item.JobID, item.JobName, item.RawBytes, item.CondensedBytes)
}

func itemFor(run provider.Run, job provider.Job) FailedJobItem {
	return FailedJobItem{
		RunID:         run.ID,
		WorkflowName:  run.WorkflowName,
		RunURL:        run.URL,
		RunNumber:     run.RunNumber,
		RunCreatedAt:  run.CreatedAt,
		RunUpdatedAt:  run.UpdatedAt,
		RunConclusion: run.Conclusion,
		JobID:         job.ID,
		JobName:       job.Name,
		JobConclusion: job.Conclusion,
		JobStartedAt:  job.StartedAt,
	}
}

func summarize(runs []provider.Run) []RunSummary {
	out := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		out = append(out, SummarizeRun(r))
	}
	return out
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
