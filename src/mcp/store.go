package mcp

import (
	"context"
	"fmt"
	"sync"

	"citriage/src/plan"
)

// PlanCache memoizes plans loaded from a plan.Store. Plans are immutable
// once saved, so entries never go stale.
type PlanCache struct {
	store plan.Store

	mu    sync.RWMutex
	plans map[plan.Handle]*plan.Plan
}

// NewPlanCache creates a cache in front of s.
func NewPlanCache(s plan.Store) *PlanCache {
	return &PlanCache{
		store: s,
		plans: make(map[plan.Handle]*plan.Plan),
	}
}

// Put records a plan the caller just saved.
func (c *PlanCache) Put(h plan.Handle, p *plan.Plan) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans[h] = p
}

// Get returns the plan for h, or the latest plan when h is empty.
func (c *PlanCache) Get(ctx context.Context, h plan.Handle) (*plan.Plan, plan.Handle, error) {
	if h != "" {
		c.mu.RLock()
		p, ok := c.plans[h]
		c.mu.RUnlock()
		if ok {
			return p, h, nil
		}
	}

	p, resolved, err := plan.Resolve(ctx, c.store, h)
	if err != nil {
		return nil, "", err
	}
	c.Put(resolved, p)
	return p, resolved, nil
}

// Job returns the failed job jobID within the plan identified by h.
func (c *PlanCache) Job(ctx context.Context, h plan.Handle, jobID string) (*plan.Plan, plan.FailedJobItem, error) {
	p, _, err := c.Get(ctx, h)
	if err != nil {
		return nil, plan.FailedJobItem{}, err
	}
	for _, item := range p.FailedJobs {
		if item.JobID == jobID {
			return p, item, nil
		}
	}
	return p, plan.FailedJobItem{}, fmt.Errorf("job %s is not a failed job in plan %s", jobID, p.ID)
}
