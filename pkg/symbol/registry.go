package symbol

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/vango-dev/resume/internal/errors"
	"github.com/vango-dev/resume/pkg/dom"
	"github.com/vango-dev/resume/pkg/task"
)

// Importer resolves a locator found at node. The returned future settles
// with the symbol's value on loop.
type Importer interface {
	Import(loop *task.Loop, locator string, node dom.Node) *task.Future
}

// ImporterFunc adapts a function to Importer.
type ImporterFunc func(loop *task.Loop, locator string, node dom.Node) *task.Future

// Import implements Importer.
func (f ImporterFunc) Import(loop *task.Loop, locator string, node dom.Node) *task.Future {
	return f(loop, locator, node)
}

// Registry is an in-process Importer mapping "path#symbol" keys to
// values.
type Registry struct {
	mu      sync.RWMutex
	symbols map[string]any
	lazy    bool
	logger  *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLazy makes every import settle on a later task, the way a fetch
// over the network would.
func WithLazy(lazy bool) Option {
	return func(r *Registry) { r.lazy = lazy }
}

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		symbols: make(map[string]any),
		logger:  slog.Default().With("component", "symbol"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds key ("path#symbol") to value, replacing any previous
// binding.
func (r *Registry) Register(key string, value any) {
	loc := MustParse(key)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.symbols[loc.Key()] = value
}

// Lookup returns the value bound to a locator, ignoring its arguments.
func (r *Registry) Lookup(loc Locator) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.symbols[loc.Key()]
	return v, ok
}

// Keys returns the registered keys in order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.symbols))
	for k := range r.symbols {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Import implements Importer.
func (r *Registry) Import(loop *task.Loop, locator string, node dom.Node) *task.Future {
	loc, err := Parse(locator)
	if err != nil {
		return loop.Rejected(err)
	}
	loc = loc.ResolveBase(BaseOf(node))

	v, ok := r.Lookup(loc)
	if !ok {
		r.logger.Debug("symbol not found", "locator", loc.Key())
		return loop.Rejected(errors.New("R022").WithDetail("%s", loc.Key()))
	}
	if !r.lazy {
		return loop.Resolved(v)
	}
	f, resolve, _ := loop.NewFuture()
	loop.Post(func() { resolve(v) })
	return f
}
