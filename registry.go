package relay

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/muir/reflectutils"
)

// Lifetime controls whether the registry rebuilds a service on every
// resolution or caches the first instance.
type Lifetime int

const (
	// Transient services are rebuilt by their factory on every resolution.
	Transient Lifetime = iota
	// Singleton services are built once and the instance is cached.
	Singleton
)

// Resolver is the one capability the chain executor and the builders consume
// from the surrounding container layer: given a type, return a constructed
// instance.  It is always passed explicitly; nothing in this package reaches
// for a global locator.  Any host container can stand in by implementing it.
type Resolver interface {
	ResolveType(ctx context.Context, t reflect.Type) (any, error)
}

// Factory builds a service instance.  Factories may resolve their own
// dependencies through the supplied Resolver.
type Factory[T any] func(ctx context.Context, r Resolver) (T, error)

type binding struct {
	factory  func(ctx context.Context, r Resolver) (any, error)
	lifetime Lifetime
}

// Registry is a minimal reflect.Type-keyed service registry.  It gives the
// fluent builders a concrete container to target without pulling in a DI
// framework.  Registration is expected at startup; resolution is safe for
// concurrent use.
type Registry struct {
	mu          sync.RWMutex
	bindings    map[reflect.Type]*binding
	instances   map[reflect.Type]any
	conditional map[reflect.Type]*conditionalSet
}

var _ Resolver = &Registry{}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bindings:    make(map[reflect.Type]*binding),
		instances:   make(map[reflect.Type]any),
		conditional: make(map[reflect.Type]*conditionalSet),
	}
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Register binds a factory for T under the given lifetime.  A later
// registration for the same type replaces the earlier one and drops any
// cached singleton instance.
func Register[T any](r *Registry, lifetime Lifetime, factory Factory[T]) {
	t := typeOf[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, t)
	r.bindings[t] = &binding{
		factory: func(ctx context.Context, res Resolver) (any, error) {
			return factory(ctx, res)
		},
		lifetime: lifetime,
	}
}

// RegisterInstance binds an already-built value as a singleton.
func RegisterInstance[T any](r *Registry, instance T) {
	t := typeOf[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bindings, t)
	r.instances[t] = instance
}

// Bound reports whether t has any registration (binding, instance, or
// conditional rule set).
func (r *Registry) Bound(t reflect.Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.instances[t]; ok {
		return true
	}
	if _, ok := r.bindings[t]; ok {
		return true
	}
	_, ok := r.conditional[t]
	return ok
}

// ResolveType implements Resolver.  Conditional rule sets take precedence
// over plain bindings for the same type.
func (r *Registry) ResolveType(ctx context.Context, t reflect.Type) (any, error) {
	r.mu.RLock()
	if instance, ok := r.instances[t]; ok {
		r.mu.RUnlock()
		return instance, nil
	}
	cs := r.conditional[t]
	b, bound := r.bindings[t]
	r.mu.RUnlock()

	if cs != nil {
		return cs.resolve(ctx, r)
	}
	if !bound {
		return nil, fmt.Errorf("%w: %s", ErrNotRegistered, reflectutils.TypeName(t))
	}
	instance, err := b.factory(ctx, r)
	if err != nil {
		return nil, err
	}
	if b.lifetime == Singleton {
		r.mu.Lock()
		// a concurrent resolve may have won; keep the first instance
		if cached, ok := r.instances[t]; ok {
			instance = cached
		} else {
			r.instances[t] = instance
		}
		r.mu.Unlock()
	}
	return instance, nil
}

// Resolve resolves T through any Resolver.
func Resolve[T any](ctx context.Context, r Resolver) (T, error) {
	var zero T
	instance, err := r.ResolveType(ctx, typeOf[T]())
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s resolved to incompatible %s",
			ErrNotRegistered, reflectutils.TypeName(typeOf[T]()), reflectutils.TypeName(reflect.TypeOf(instance)))
	}
	return typed, nil
}

// MustResolve is a wrapper for Resolve.  It panic()s if Resolve returns
// error.
func MustResolve[T any](ctx context.Context, r Resolver) T {
	instance, err := Resolve[T](ctx, r)
	if err != nil {
		panic(err)
	}
	return instance
}
