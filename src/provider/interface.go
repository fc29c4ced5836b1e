package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	ErrInvalidRepository = errors.New("invalid repository")
	ErrProviderUnknown   = errors.New("unknown CI provider")
)

// Provider defines the read-only query surface of a CI platform.
// All methods are side-effect free and safe to retry.
type Provider interface {
	// Name returns the provider name (e.g., "buildkite", "github")
	Name() string

	// ListRuns returns the most recent runs for a branch, newest first, bounded by limit.
	ListRuns(ctx context.Context, branch string, limit int) ([]Run, error)

	// ListJobs returns the jobs of a run in provider order.
	ListJobs(ctx context.Context, runID string) ([]Job, error)

	// FetchJobLog retrieves the raw log content for a job
	FetchJobLog(ctx context.Context, runID, jobID string) (string, error)
}

// Factory builds a Provider from options.
type Factory func(opts Options) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// RegisterProvider makes a provider available by name. Implementations
// call it from init.
func RegisterProvider(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = factory
}

// New returns the provider registered under name.
func New(name string, opts Options) (Provider, error) {
	registryMu.RLock()
	factory, ok := registry[strings.ToLower(name)]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s (available: %s)", ErrProviderUnknown, name, strings.Join(Registered(), ", "))
	}
	return factory(opts)
}

// Registered returns the sorted names of all registered providers.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SplitRepository splits "owner/repo" into its two parts.
func SplitRepository(repository string) (owner, repo string, err error) {
	parts := strings.Split(strings.TrimSpace(repository), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %q (expected owner/name)", ErrInvalidRepository, repository)
	}
	return parts[0], parts[1], nil
}
