package relay

import (
	"context"
)

// RelayBuilder assembles a multi-target Dispatcher[T] and optionally
// registers it.  Targets are resolved once, in the order they were added,
// when the builder is built; the resulting target set is fixed for the life
// of the dispatcher.
//
//	err := relay.NewRelay[Notifier](reg).
//		WithStrategy(relay.Broadcast).
//		To(newEmailNotifier, newSMSNotifier).
//		Register(ctx)
type RelayBuilder[T any] struct {
	registry  *Registry
	strategy  Strategy
	factories []Factory[T]
}

// NewRelay starts a multi-target registration for capability T.
func NewRelay[T any](r *Registry) *RelayBuilder[T] {
	return &RelayBuilder[T]{registry: r, strategy: Broadcast}
}

// WithStrategy selects the dispatch strategy.  The default is Broadcast.
// The value is not validated here; an unrecognized strategy surfaces as
// ErrUnsupportedStrategy at dispatch time.
func (b *RelayBuilder[T]) WithStrategy(s Strategy) *RelayBuilder[T] {
	b.strategy = s
	return b
}

// To appends target factories in dispatch order.
func (b *RelayBuilder[T]) To(factories ...Factory[T]) *RelayBuilder[T] {
	b.factories = append(b.factories, factories...)
	return b
}

// ToInstances appends already-built targets in dispatch order.
func (b *RelayBuilder[T]) ToInstances(targets ...T) *RelayBuilder[T] {
	for _, target := range targets {
		target := target
		b.factories = append(b.factories, func(context.Context, Resolver) (T, error) {
			return target, nil
		})
	}
	return b
}

// Build resolves every target factory once, in order, and constructs the
// dispatcher.  An empty target set is legal; only round-robin selection
// then fails, with ErrNoTargets.
func (b *RelayBuilder[T]) Build(ctx context.Context) (*Dispatcher[T], error) {
	targets := make([]T, 0, len(b.factories))
	for _, factory := range b.factories {
		target, err := factory(ctx, b.registry)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return NewDispatcher(b.strategy, targets...), nil
}

// Register builds the dispatcher and registers it as a singleton instance
// so that every resolver of *Dispatcher[T] shares the same target set and
// rotation cursor.
func (b *RelayBuilder[T]) Register(ctx context.Context) error {
	d, err := b.Build(ctx)
	if err != nil {
		return err
	}
	RegisterInstance(b.registry, d)
	return nil
}

// MustRegister is a wrapper for Register.  It panic()s if Register returns
// error.
func (b *RelayBuilder[T]) MustRegister(ctx context.Context) {
	if err := b.Register(ctx); err != nil {
		panic(err)
	}
}
