package retrieval

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// BuildFunc builds an index.
type BuildFunc func(ctx context.Context) (*Index, error)

// Provider builds its index at most once. Concurrent first callers share a
// single build; later callers get the cached index. A failed build is not
// cached, so the next call tries again.
type Provider struct {
	build BuildFunc
	group singleflight.Group
	index atomic.Pointer[Index]
}

// NewProvider returns a Provider that builds with build.
func NewProvider(build BuildFunc) *Provider {
	return &Provider{build: build}
}

// NewDirProvider returns a Provider that builds from a corpus directory.
func NewDirProvider(dir string, opts Options) *Provider {
	return NewProvider(func(ctx context.Context) (*Index, error) {
		return Build(ctx, dir, opts)
	})
}

// Get returns the index, building it on first use. The build is shared by
// every concurrent caller and runs without their cancellation; a caller
// whose ctx ends first stops waiting with ctx.Err().
func (p *Provider) Get(ctx context.Context) (*Index, error) {
	if idx := p.index.Load(); idx != nil {
		return idx, nil
	}

	ch := p.group.DoChan("index", func() (any, error) {
		if idx := p.index.Load(); idx != nil {
			return idx, nil
		}
		idx, err := p.build(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		p.index.Store(idx)
		return idx, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Index), nil
	}
}

// Query builds the index if needed and queries it.
func (p *Provider) Query(ctx context.Context, text string, k int) (string, error) {
	idx, err := p.Get(ctx)
	if err != nil {
		return "", err
	}
	return idx.Query(ctx, text, k)
}

// Close releases the index if it was built.
func (p *Provider) Close() error {
	return p.index.Load().Close()
}
