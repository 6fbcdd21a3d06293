// Registry manages adapter registration and lookup.
//
// DESIGN: Ordered table of model-ID pattern → Constructor. Lookup returns
// the first registration whose pattern matches, in registration order.
// Overlapping patterns are not re-ranked; ResolveAll exposes every match so
// a caller can choose a more specific one.
//
// Patterns match at the start of the model ID.
package adapters

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
)

// ErrNotFound is returned when no registered pattern matches a model ID.
var ErrNotFound = errors.New("no adapter registered for model")

// Registration is one pattern → constructor entry.
type Registration struct {
	Pattern     string
	Constructor Constructor

	re *regexp.Regexp
}

// Matches reports whether the registration's pattern matches modelID.
func (r Registration) Matches(modelID string) bool {
	return r.re.MatchString(modelID)
}

// AdapterName builds a client-less adapter to report its family name.
func (r Registration) AdapterName() string {
	return NameOf(r.Constructor("", Options{}))
}

// Registry manages adapter registration.
type Registry struct {
	entries []Registration
	mu      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry creates a registry holding the built-in adapters in
// their canonical order.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, b := range builtins {
		r.MustRegister(b.pattern, b.ctor)
	}
	return r
}

// Register appends pattern → ctor. Registering the same pair twice is a no-op.
func (r *Registry) Register(pattern string, ctor Constructor) error {
	if ctor == nil {
		return fmt.Errorf("register %q: nil constructor", pattern)
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return fmt.Errorf("register %q: %w", pattern, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ptr := reflect.ValueOf(ctor).Pointer()
	for _, e := range r.entries {
		if e.Pattern == pattern && reflect.ValueOf(e.Constructor).Pointer() == ptr {
			return nil
		}
	}
	r.entries = append(r.entries, Registration{Pattern: pattern, Constructor: ctor, re: re})
	return nil
}

// MustRegister is Register for static tables; it panics on an invalid pattern.
func (r *Registry) MustRegister(pattern string, ctor Constructor) {
	if err := r.Register(pattern, ctor); err != nil {
		panic(err)
	}
}

// Resolve returns the constructor of the first registration matching modelID.
func (r *Registry) Resolve(modelID string) (Constructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.Matches(modelID) {
			return e.Constructor, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, modelID)
}

// ResolveAll returns every registration matching modelID, in order.
func (r *Registry) ResolveAll(modelID string) []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Registration
	for _, e := range r.entries {
		if e.Matches(modelID) {
			out = append(out, e)
		}
	}
	return out
}

// Registrations returns a snapshot of the table.
func (r *Registry) Registrations() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Registration(nil), r.entries...)
}

// Len returns the number of registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// New resolves provider.modelName and builds the adapter for modelName.
func (r *Registry) New(provider, modelName string, opts Options) (Adapter, error) {
	ctor, err := r.Resolve(provider + "." + modelName)
	if err != nil {
		return nil, err
	}
	return ctor(modelName, opts), nil
}

// Build constructs the adapter for a full "provider.model" key. Lookup uses
// the whole key; the adapter receives only the model name.
func (r *Registry) Build(key string, opts Options) (Adapter, error) {
	provider, modelName, err := SplitModelKey(key)
	if err != nil {
		return nil, err
	}
	return r.New(provider, modelName, opts)
}

// SplitModelKey splits key at its first dot into provider and model name.
func SplitModelKey(key string) (provider, modelName string, err error) {
	provider, modelName, ok := strings.Cut(key, ".")
	if !ok || provider == "" || modelName == "" {
		return "", "", fmt.Errorf("%w: %q is not a provider.model key", ErrNotFound, key)
	}
	return provider, modelName, nil
}
