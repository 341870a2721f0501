// Package workgroup binds a set of workers to one context so they start and
// stop as a unit.
package workgroup

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type workgroup struct {
	ctx   context.Context
	group errgroup.Group
}

// WithContext returns a group whose workers all receive ctx.
func WithContext(ctx context.Context) *workgroup {
	return &workgroup{
		ctx:   ctx,
		group: errgroup.Group{},
	}
}

// Work runs fn under the group's context.
func (g *workgroup) Work(fn func(context.Context) error) {
	g.group.Go(func() error {
		return fn(g.ctx)
	})
}

// Wait blocks until all workers return and yields the first error.
func (g *workgroup) Wait() error {
	return g.group.Wait()
}
