package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"citriage/src/archive"
	"citriage/src/broker"
	"citriage/src/condense"
	"citriage/src/config"
	"citriage/src/cost"
	"citriage/src/execute"
	"citriage/src/gate"
	"citriage/src/gitutil"
	"citriage/src/logger"
	"citriage/src/plan"
	"citriage/src/provider"
	"citriage/src/summarize"
)

// flagKeys maps command flags onto config keys. A flag overrides the
// config file and environment only when it is set on the command line.
var flagKeys = map[string]string{
	"provider":    "provider.name",
	"repo":        "provider.repository",
	"limit":       "limit",
	"concurrency": "provider.concurrency",
	"plan-dir":    "paths.plan_dir",
	"output-dir":  "paths.output_dir",
}

// app holds everything a command needs once configuration is loaded.
type app struct {
	cfg    *config.Config
	log    logger.Logger
	store  plan.Store
	bus    broker.Broker
	events *broker.Emitter
	git    gitutil.Repo
}

// newApp loads configuration for cmd and opens the plan store and the
// event broker. The caller must call close.
func newApp(ctx context.Context, cmd *cobra.Command, log logger.Logger) (*app, error) {
	v, err := config.New(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := bindFlags(cmd, v); err != nil {
		return nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: log, store: store}
	a.bus = openBroker(cfg, log)
	a.events = broker.NewEmitter(a.bus, log)
	return a, nil
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", name, err)
		}
	}
	return nil
}

func openStore(ctx context.Context, cfg *config.Config) (plan.Store, error) {
	if cfg.Store.PostgresDSN == "" {
		return plan.NewFileStore(cfg.Paths.PlanDir), nil
	}
	s, err := plan.NewPostgresStore(ctx, cfg.Store.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open plan store: %w", err)
	}
	return s, nil
}

// openBroker falls back to the in-memory broker when Redpanda cannot be
// reached; events are never required for a run to succeed.
func openBroker(cfg *config.Config, log logger.Logger) broker.Broker {
	b, err := broker.Open(cfg.Events.Brokers)
	if err != nil {
		log.Warn("Event broker unavailable, events stay in-process: %v", err)
		return broker.NewInMemoryBroker()
	}
	if rp, ok := b.(*broker.RedpandaBroker); ok {
		rp.SetLogger(log)
	}
	return b
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("Failed to close plan store: %v", err)
	}
	if err := a.bus.Close(); err != nil {
		a.log.Warn("Failed to close event broker: %v", err)
	}
}

// repository returns the configured repository or the one behind the
// local origin remote.
func (a *app) repository(ctx context.Context) (string, error) {
	if a.cfg.Provider.Repository != "" {
		return a.cfg.Provider.Repository, nil
	}
	repo, err := a.git.OriginRepository(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: set --repo (%v)", provider.ErrInvalidRepository, err)
	}
	a.log.Debug("Using repository %s from the origin remote", repo)
	return repo, nil
}

// branch returns name, or the checked-out branch when name is empty.
func (a *app) branch(ctx context.Context, name string) (string, error) {
	if name != "" {
		return name, nil
	}
	b, err := a.git.CurrentBranch(ctx)
	if err != nil {
		return "", fmt.Errorf("no --branch given and the current branch is unknown: %w", err)
	}
	return b, nil
}

func (a *app) estimator() *cost.Estimator {
	return cost.New(a.cfg.Pricing)
}

// builder creates the plan builder for repository.
func (a *app) builder(repository string, extra ...plan.Option) (*plan.Builder, error) {
	prov, err := provider.New(a.cfg.Provider.Name, provider.Options{
		Token:      a.cfg.Provider.Token(),
		Repository: repository,
		BaseURL:    a.cfg.Provider.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	c, err := condense.New(a.cfg.Condense)
	if err != nil {
		return nil, fmt.Errorf("invalid condense settings: %w", err)
	}
	opts := []plan.Option{
		plan.WithTimeouts(plan.Timeouts{
			Metadata: a.cfg.Timeouts.Metadata(),
			Log:      a.cfg.Timeouts.Log(),
		}),
		plan.WithConcurrency(a.cfg.Provider.Concurrency),
	}
	return plan.NewBuilder(prov, c, a.estimator(), a.store, a.log, append(opts, extra...)...), nil
}

func (a *app) archiver() *archive.Archiver {
	return archive.New(a.cfg.Paths.ArchiveDir)
}

// executor creates the executor that asks prompter before spending.
func (a *app) executor(prompter gate.Prompter) *execute.Executor {
	cfg := execute.Config{
		Store:            a.store,
		Estimator:        a.estimator(),
		Prompter:         prompter,
		Archiver:         a.archiver(),
		Logger:           a.log,
		SummarizeTimeout: a.cfg.Timeouts.Summarize(),
		Debug:            verbose,
	}
	client, err := a.summarizer()
	if err != nil {
		cfg.SummarizerErr = err
	} else {
		cfg.Summarizer = client
	}
	return execute.New(cfg)
}

func (a *app) summarizer() (*summarize.AnthropicClient, error) {
	s := a.cfg.Summarizer
	if s.APIKey == "" {
		return nil, summarize.ErrNoCredential
	}
	return summarize.NewAnthropicClient(s.APIKey,
		summarize.WithModel(s.Model),
		summarize.WithBaseURL(s.BaseURL),
		summarize.WithMaxTokens(s.MaxTokens),
		summarize.WithTimeout(a.cfg.Timeouts.Summarize()),
	)
}
