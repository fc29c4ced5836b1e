// Package execute runs the second phase: it loads a plan, asks the gate
// whether to spend money, summarizes each failed job and writes the report
// and the processing log.
package execute

import (
	"context"
	"fmt"
	"os"
	"time"

	"citriage/src/archive"
	"citriage/src/cost"
	"citriage/src/fsutil"
	"citriage/src/gate"
	"citriage/src/logger"
	"citriage/src/plan"
	"citriage/src/report"
	"citriage/src/summarize"
)

const (
	DefaultReportPath = "citriage-report.md"
	DefaultLogPath    = "citriage-processing.log"
)

// Config wires an Executor.
type Config struct {
	Store plan.Store
	// Summarizer may be nil, in which case every job gets a fallback summary.
	Summarizer summarize.Summarizer
	// SummarizerErr explains a nil Summarizer in the processing log.
	SummarizerErr error
	Estimator     *cost.Estimator
	Prompter      gate.Prompter
	// Archiver may be nil to leave previous outputs in place.
	Archiver *archive.Archiver
	// Logger receives console output; the processing log is written separately.
	Logger           logger.Logger
	SummarizeTimeout time.Duration
	Debug            bool
}

// Options are per-run choices.
type Options struct {
	// Handle selects a plan; empty means the most recent one.
	Handle      plan.Handle
	AutoConfirm bool
	Interactive bool
	// ReportPath and LogPath override the paths stored in the plan.
	ReportPath string
	LogPath    string
}

// Result describes a completed run.
type Result struct {
	Plan       *plan.Plan
	Handle     plan.Handle
	Decision   gate.Decision
	Entries    []report.Entry
	ActualCost float64
	AICalls    int
	AIFailures int
	ReportPath string
	LogPath    string
	Archived   []string
	// LogErr is set when the processing log could not be opened.
	LogErr error
	// ReportErr is set when the report could not be written.
	ReportErr error
}

// Executor runs plans. It never modifies a loaded plan.
type Executor struct {
	cfg Config
}

func New(cfg Config) *Executor {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewSilentLogger()
	}
	if cfg.Estimator == nil {
		cfg.Estimator = cost.New(cost.DefaultPricing())
	}
	return &Executor{cfg: cfg}
}

// Run executes one plan. It fails only when the plan cannot be loaded.
// Output problems are recorded in Result.LogErr and Result.ReportErr;
// per-job problems end up in the report.
func (e *Executor) Run(ctx context.Context, opts Options) (*Result, error) {
	p, h, err := plan.Resolve(ctx, e.cfg.Store, opts.Handle)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	res := &Result{
		Plan:       p,
		Handle:     h,
		ReportPath: firstNonEmpty(opts.ReportPath, p.ReportPath, DefaultReportPath),
		LogPath:    firstNonEmpty(opts.LogPath, p.LogPath, DefaultLogPath),
	}

	if e.cfg.Archiver != nil {
		paths := []string{res.ReportPath}
		if predates(res.LogPath, p.CreatedAt) {
			paths = append(paths, res.LogPath)
		}
		moved, err := e.cfg.Archiver.Archive(paths...)
		if err != nil {
			e.cfg.Logger.Warn("Could not archive previous outputs: %v", err)
		}
		res.Archived = moved
	}

	log := e.cfg.Logger
	fileLog, err := logger.NewFileLogger(res.LogPath, e.cfg.Debug)
	if err != nil {
		res.LogErr = err
		log.Warn("Processing log unavailable, logging to the console only: %v", err)
	} else {
		defer fileLog.Close()
		log = logger.Multi(e.cfg.Logger, fileLog)
	}

	for _, path := range res.Archived {
		log.Info("Archived previous output to %s", path)
	}
	log.Info("Loaded plan %s from %s: branch %s, %d failed job(s), %d eligible, projected cost $%.4f",
		p.ID, h, p.Branch, len(p.FailedJobs), p.EligibleJobs, p.EstimatedCost)

	requested := p.AIRequested
	if requested && e.cfg.Summarizer == nil {
		reason := e.cfg.SummarizerErr
		if reason == nil {
			reason = summarize.ErrNoCredential
		}
		log.Warn("AI summaries requested but unavailable: %v", reason)
		requested = false
	}

	res.Decision = gate.Decide(ctx, gate.Input{
		Cost:         p.EstimatedCost,
		EligibleJobs: p.EligibleJobs,
		AutoConfirm:  opts.AutoConfirm,
		Interactive:  opts.Interactive,
		Requested:    requested,
	}, e.cfg.Prompter, log)

	actual := 0.0
	for _, item := range p.FailedJobs {
		entry, spent := e.process(ctx, log, item, res)
		actual += spent
		res.Entries = append(res.Entries, entry)
	}
	res.ActualCost = actual

	log.Info("Projected cost: $%.4f; actual cost: $%.4f from %d successful AI call(s), %d failed",
		p.EstimatedCost, actual, res.AICalls, res.AIFailures)

	content := report.Render(p, res.Entries, actual)
	if err := fsutil.WriteFileAtomic(res.ReportPath, []byte(content), 0644); err != nil {
		res.ReportErr = err
		log.Error("Failed to write report to %s: %v", res.ReportPath, err)
		return res, nil
	}
	log.Info("Report written to %s", res.ReportPath)
	return res, nil
}

// process summarizes one job and returns its entry and the incurred cost.
func (e *Executor) process(ctx context.Context, log logger.Logger, item plan.FailedJobItem, res *Result) (report.Entry, float64) {
	entry := report.Entry{Item: item}

	if !item.LogAvailable() {
		log.Warn("Job %s (%s / %s): could not retrieve log: %s", item.JobID, item.WorkflowName, item.JobName, item.FetchError)
		entry.Source = report.SourceUnavailable
		return entry, 0
	}

	condensed := item.Condensed()
	log.Info("Job %s (%s / %s): raw %d bytes, condensed %d bytes", item.JobID, item.WorkflowName, item.JobName, item.RawBytes, item.CondensedBytes)

	if res.Decision.Proceed && e.cfg.Estimator.Eligible(condensed) {
		summary, err := e.summarize(ctx, item)
		if err == nil {
			res.AICalls++
			spent := e.cfg.Estimator.Actual(summary.InputTokens, summary.OutputTokens)
			log.Info("Job %s: AI summary by %s, %d input / %d output tokens, $%.4f",
				item.JobID, summary.Model, summary.InputTokens, summary.OutputTokens, spent)
			entry.Source = report.SourceAI
			entry.Model = summary.Model
			entry.Text = summary.Text
			return entry, spent
		}
		res.AIFailures++
		log.Warn("Job %s: AI summary failed, using fallback: %v", item.JobID, err)
	}

	entry.Source = report.SourceFallback
	entry.Text = summarize.Fallback(condensed).Markdown()
	return entry, 0
}

func (e *Executor) summarize(ctx context.Context, item plan.FailedJobItem) (*summarize.Summary, error) {
	if e.cfg.SummarizeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.SummarizeTimeout)
		defer cancel()
	}
	return e.cfg.Summarizer.Summarize(ctx, summarize.Request{
		WorkflowName: item.WorkflowName,
		JobName:      item.JobName,
		CondensedLog: item.Condensed(),
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// predates reports whether path exists and was last written before t.
// A processing log written after the plan was created belongs to that
// plan's own dry run and is appended to instead of archived.
func predates(path string, t time.Time) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.ModTime().Before(t)
}
