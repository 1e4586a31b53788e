package render

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/glamour"
)

// rendererPool keeps one sync.Pool of glamour renderers per option set.
// glamour.TermRenderer is NOT safe for concurrent Render() calls, so
// callers borrow a renderer and return it when done rather than sharing
// a single instance.
type rendererPool struct {
	mu    sync.RWMutex
	pools map[string]*sync.Pool
}

var pool = &rendererPool{
	pools: make(map[string]*sync.Pool),
}

// poolKey generates a unique key based on options.
func poolKey(opts Options) string {
	return fmt.Sprintf("%s:%d:%t", opts.Style, opts.Width, opts.PreserveNewLines)
}

// forOptions returns or creates the pool for the given options.
func (p *rendererPool) forOptions(opts Options) *sync.Pool {
	key := poolKey(opts)

	// Try fast read
	p.mu.RLock()
	if sp, ok := p.pools[key]; ok {
		p.mu.RUnlock()
		return sp
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check
	if sp, ok := p.pools[key]; ok {
		return sp
	}

	sp := &sync.Pool{
		New: func() interface{} {
			renderer, err := newRenderer(opts)
			if err != nil {
				return nil
			}
			return renderer
		},
	}
	p.pools[key] = sp
	return sp
}

// get borrows a renderer from the pool.
func (p *rendererPool) get(opts Options) (*glamour.TermRenderer, error) {
	borrowed := p.forOptions(opts).Get()
	if borrowed == nil {
		// Pool's New function failed, create directly to surface the error
		return newRenderer(opts)
	}
	return borrowed.(*glamour.TermRenderer), nil
}

// put returns a renderer to the pool.
func (p *rendererPool) put(opts Options, renderer *glamour.TermRenderer) {
	if renderer == nil {
		return
	}
	p.forOptions(opts).Put(renderer)
}

// newRenderer creates a TermRenderer with the specified options.
func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	rendererOpts := []glamour.TermRendererOption{
		glamour.WithStylePath(opts.Style),
		glamour.WithWordWrap(opts.Width),
		glamour.WithEmoji(),
	}

	if opts.PreserveNewLines {
		rendererOpts = append(rendererOpts, glamour.WithPreservedNewLines())
	}

	return glamour.NewTermRenderer(rendererOpts...)
}

// ClearCache drops all pooled renderers (useful for testing).
func ClearCache() {
	pool.mu.Lock()
	pool.pools = make(map[string]*sync.Pool)
	pool.mu.Unlock()
}

// CacheSize returns the number of distinct option sets pooled.
func CacheSize() int {
	pool.mu.RLock()
	defer pool.mu.RUnlock()
	return len(pool.pools)
}
