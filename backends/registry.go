package backends

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/kidylee/incubator-opendal/interfaces"
)

// Constructor builds a backend from a configuration map. Implementations
// must validate the configuration up front and return an error wrapping
// interfaces.ErrInvalidConfig when it is unusable; they must not retain
// the map after returning.
type Constructor func(cfg interfaces.Config, log *slog.Logger) (interfaces.Backend, error)

// Registry maps scheme names to backend constructors. Adding a scheme is
// a registration, never an edit to existing dispatch code. Scheme matching
// is case-sensitive.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register adds a constructor for a scheme. It panics on an empty scheme,
// a nil constructor, or a duplicate registration, since all three are
// programming errors at package initialization time.
func (r *Registry) Register(scheme string, ctor Constructor) {
	if scheme == "" {
		panic("backends: Register called with empty scheme")
	}
	if ctor == nil {
		panic("backends: Register called with nil constructor for " + scheme)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[scheme]; exists {
		panic("backends: scheme registered twice: " + scheme)
	}
	r.constructors[scheme] = ctor
}

// New constructs a backend for the given scheme. The configuration is
// copied before it is handed to the constructor, so the caller's map is
// never retained. Construction is all-or-nothing: on error no backend is
// returned and nothing needs releasing.
func (r *Registry) New(scheme string, cfg interfaces.Config, log *slog.Logger) (interfaces.Backend, error) {
	if scheme == "" {
		return nil, fmt.Errorf("%w: empty scheme", interfaces.ErrUnknownScheme)
	}
	if log == nil {
		log = slog.Default()
	}

	r.mu.RLock()
	ctor, ok := r.constructors[scheme]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", interfaces.ErrUnknownScheme, scheme)
	}

	backend, err := ctor(cfg.Clone(), log)
	if err != nil {
		return nil, err
	}

	log.Debug("Constructed storage backend",
		slog.String("scheme", scheme),
		slog.String("backend_name", backend.Name()))

	return backend, nil
}

// Schemes returns the registered scheme names, sorted.
func (r *Registry) Schemes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// defaultRegistry holds the schemes registered by this package's init
// functions plus anything callers register themselves.
var defaultRegistry = NewRegistry()

// Register adds a constructor to the default registry.
func Register(scheme string, ctor Constructor) {
	defaultRegistry.Register(scheme, ctor)
}

// New constructs a backend for a scheme from the default registry.
func New(scheme string, cfg interfaces.Config, log *slog.Logger) (interfaces.Backend, error) {
	return defaultRegistry.New(scheme, cfg, log)
}

// Schemes returns the schemes known to the default registry.
func Schemes() []string {
	return defaultRegistry.Schemes()
}
