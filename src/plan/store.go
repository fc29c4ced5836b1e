package plan

import (
	"context"
	"errors"
)

var (
	// ErrNoPlan is returned when no plan can be located.
	ErrNoPlan = errors.New("no plan found")

	// ErrCorruptPlan is returned when a stored plan cannot be decoded.
	ErrCorruptPlan = errors.New("plan is unreadable")
)

// Store persists plans. Saved plans are never overwritten.
type Store interface {
	// Save writes p and returns a handle that Load accepts.
	Save(ctx context.Context, p *Plan) (Handle, error)

	// Load reads the plan identified by h.
	Load(ctx context.Context, h Handle) (*Plan, error)

	// Latest returns the most recently written plan.
	Latest(ctx context.Context) (*Plan, Handle, error)

	// List returns all stored plans, newest first.
	List(ctx context.Context) ([]Entry, error)

	Close() error
}

// Resolve loads h when it is set and the latest plan otherwise.
func Resolve(ctx context.Context, s Store, h Handle) (*Plan, Handle, error) {
	if h != "" {
		p, err := s.Load(ctx, h)
		return p, h, err
	}
	return s.Latest(ctx)
}
