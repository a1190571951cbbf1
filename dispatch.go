package relay

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Strategy selects how an operation is applied across a dispatcher's target
// set.
type Strategy int

const (
	// Broadcast invokes the operation on every target sequentially, in
	// target order.  The first failure aborts the remaining invocations.
	Broadcast Strategy = iota

	// Failover tries targets in order and stops at the first success.
	// Earlier failures are discarded except the last, which is kept for
	// diagnostic wrapping when every target fails.
	Failover

	// FirstSuccessful behaves exactly like Failover.  Both names exist
	// because callers express different intents with them.
	FirstSuccessful

	// RoundRobin invokes exactly one target, advancing a rotation cursor.
	RoundRobin

	// Parallel invokes every target concurrently and awaits all of them.
	Parallel
)

func (s Strategy) String() string {
	switch s {
	case Broadcast:
		return "broadcast"
	case Failover:
		return "failover"
	case FirstSuccessful:
		return "first-successful"
	case RoundRobin:
		return "round-robin"
	case Parallel:
		return "parallel"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Operation is applied to one target of a dispatch.
type Operation[T any] func(ctx context.Context, target T) error

// ResultOperation is applied to one target of a dispatch and produces a
// result.
type ResultOperation[T, R any] func(ctx context.Context, target T) (R, error)

// Dispatcher applies operations across a fixed, ordered set of targets
// under one strategy.  The target slice never changes after construction;
// the only mutable state is the round-robin cursor behind its lock, so a
// dispatcher is safe for concurrent use.
type Dispatcher[T any] struct {
	strategy Strategy
	targets  []T

	mu     sync.Mutex
	cursor uint64
}

// NewDispatcher builds a dispatcher over the given targets.  The targets
// are copied so later mutation of the caller's slice cannot reach the
// dispatcher.
func NewDispatcher[T any](strategy Strategy, targets ...T) *Dispatcher[T] {
	return &Dispatcher[T]{
		strategy: strategy,
		targets:  append([]T(nil), targets...),
	}
}

// Strategy returns the strategy the dispatcher was built with.
func (d *Dispatcher[T]) Strategy() Strategy { return d.strategy }

// Len reports the number of targets.
func (d *Dispatcher[T]) Len() int { return len(d.targets) }

// Targets returns a copy of the target set in dispatch order.
func (d *Dispatcher[T]) Targets() []T { return append([]T(nil), d.targets...) }

// NextTarget returns one target, advancing the rotation cursor.  The cursor
// increments without bound; indexing stays correct across uint64 wraparound
// because only the modulo is used.
func (d *Dispatcher[T]) NextTarget() (T, error) {
	var zero T
	if len(d.targets) == 0 {
		return zero, fmt.Errorf("%w: dispatcher has no targets", ErrNoTargets)
	}
	d.mu.Lock()
	index := d.cursor % uint64(len(d.targets))
	d.cursor++
	d.mu.Unlock()
	return d.targets[index], nil
}

// DispatchAll applies op across the target set according to the
// dispatcher's strategy, discarding results.
//
// Broadcast invokes every target in order and stops at the first failure.
// Failover and FirstSuccessful stop at the first success and return
// *AllTargetsFailedError when nothing succeeds.  RoundRobin invokes exactly
// one target.  Parallel fires every invocation concurrently, waits for all
// of them, and reports the first failure.
func (d *Dispatcher[T]) DispatchAll(ctx context.Context, op Operation[T]) error {
	if op == nil {
		return fmt.Errorf("%w: nil operation", ErrInvalidArgument)
	}
	switch d.strategy {
	case Broadcast:
		for _, target := range d.targets {
			if err := op(ctx, target); err != nil {
				return err
			}
		}
		return nil
	case Failover, FirstSuccessful:
		var last error
		for _, target := range d.targets {
			if err := op(ctx, target); err != nil {
				last = err
				continue
			}
			return nil
		}
		return &AllTargetsFailedError{Targets: len(d.targets), Last: last}
	case RoundRobin:
		target, err := d.NextTarget()
		if err != nil {
			return err
		}
		return op(ctx, target)
	case Parallel:
		// plain Group, not WithContext: a failing target must not
		// cancel its siblings
		var g errgroup.Group
		for _, target := range d.targets {
			target := target
			g.Go(func() error {
				return op(ctx, target)
			})
		}
		return g.Wait()
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedStrategy, d.strategy)
	}
}

// DispatchResults applies op across the target set and collects results.
// It is a free function because Go methods cannot introduce the result type
// parameter.
//
// Broadcast and Parallel return one result per target in target order (not
// completion order).  Failover, FirstSuccessful, and RoundRobin return
// single-element slices.
func DispatchResults[T, R any](ctx context.Context, d *Dispatcher[T], op ResultOperation[T, R]) ([]R, error) {
	if op == nil {
		return nil, fmt.Errorf("%w: nil operation", ErrInvalidArgument)
	}
	switch d.strategy {
	case Broadcast:
		results := make([]R, 0, len(d.targets))
		for _, target := range d.targets {
			result, err := op(ctx, target)
			if err != nil {
				return nil, err
			}
			results = append(results, result)
		}
		return results, nil
	case Failover, FirstSuccessful:
		var last error
		for _, target := range d.targets {
			result, err := op(ctx, target)
			if err != nil {
				last = err
				continue
			}
			return []R{result}, nil
		}
		return nil, &AllTargetsFailedError{Targets: len(d.targets), Last: last}
	case RoundRobin:
		target, err := d.NextTarget()
		if err != nil {
			return nil, err
		}
		result, err := op(ctx, target)
		if err != nil {
			return nil, err
		}
		return []R{result}, nil
	case Parallel:
		results := make([]R, len(d.targets))
		var g errgroup.Group
		for i, target := range d.targets {
			i, target := i, target
			g.Go(func() error {
				result, err := op(ctx, target)
				if err != nil {
					return err
				}
				results[i] = result
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return results, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedStrategy, d.strategy)
	}
}
