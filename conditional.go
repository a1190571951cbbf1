package relay

import (
	"context"
	"fmt"
	"reflect"

	"github.com/muir/reflectutils"
)

// Predicate examines the caller's context at resolution time to decide
// whether a conditional rule applies.
type Predicate func(ctx context.Context) bool

type conditionalRule struct {
	when Predicate
	use  func(ctx context.Context, r Resolver) (any, error)
}

// conditionalSet is immutable once installed in the registry; the builder
// installs a fresh copy after every change.
type conditionalSet struct {
	forType  reflect.Type
	rules    []conditionalRule
	fallback func(ctx context.Context, r Resolver) (any, error)
}

func (cs *conditionalSet) resolve(ctx context.Context, r Resolver) (any, error) {
	for _, rule := range cs.rules {
		if rule.when(ctx) {
			return rule.use(ctx, r)
		}
	}
	if cs.fallback != nil {
		return cs.fallback(ctx, r)
	}
	return nil, fmt.Errorf("%w: no conditional rule matched %s and no fallback is configured",
		ErrNotRegistered, reflectutils.TypeName(cs.forType))
}

// ConditionalBuilder assembles predicate-selected factories for T.  Rules
// are evaluated in the order they were added; the first match wins.
//
//	relay.RegisterConditional[PaymentGateway](reg).
//		When(func(ctx context.Context) bool { return region(ctx) == "eu" }).
//		Use(newEUGateway).
//		Otherwise(newDefaultGateway)
type ConditionalBuilder[T any] struct {
	registry *Registry
	rules    []conditionalRule
	fallback func(ctx context.Context, r Resolver) (any, error)
	pending  Predicate
}

// RegisterConditional starts a conditional registration for T.  Nothing is
// installed until the first Use or Otherwise call.
func RegisterConditional[T any](r *Registry) *ConditionalBuilder[T] {
	return &ConditionalBuilder[T]{registry: r}
}

// When sets the predicate for the next Use call.
func (b *ConditionalBuilder[T]) When(pred Predicate) *ConditionalBuilder[T] {
	if pred == nil {
		panic(fmt.Errorf("%w: nil predicate", ErrInvalidArgument))
	}
	b.pending = pred
	return b
}

// Use binds factory to the most recent When predicate and installs the
// updated rule set.
func (b *ConditionalBuilder[T]) Use(factory Factory[T]) *ConditionalBuilder[T] {
	if b.pending == nil {
		panic(fmt.Errorf("%w: Use without a preceding When", ErrInvalidArgument))
	}
	if factory == nil {
		panic(fmt.Errorf("%w: nil factory", ErrInvalidArgument))
	}
	b.rules = append(b.rules, conditionalRule{when: b.pending, use: eraseFactory(factory)})
	b.pending = nil
	b.install()
	return b
}

// Otherwise sets the fallback factory used when no predicate matches.
func (b *ConditionalBuilder[T]) Otherwise(factory Factory[T]) *ConditionalBuilder[T] {
	if factory == nil {
		panic(fmt.Errorf("%w: nil factory", ErrInvalidArgument))
	}
	b.fallback = eraseFactory(factory)
	b.install()
	return b
}

// install replaces the whole rule set under the registry lock so resolvers
// never observe a half-built set.
func (b *ConditionalBuilder[T]) install() {
	t := typeOf[T]()
	set := &conditionalSet{
		forType:  t,
		rules:    append([]conditionalRule(nil), b.rules...),
		fallback: b.fallback,
	}
	b.registry.mu.Lock()
	delete(b.registry.instances, t)
	b.registry.conditional[t] = set
	b.registry.mu.Unlock()
}

func eraseFactory[T any](f Factory[T]) func(context.Context, Resolver) (any, error) {
	return func(ctx context.Context, r Resolver) (any, error) {
		return f(ctx, r)
	}
}
