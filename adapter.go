package relay

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/muir/reflectutils"
)

// RegisterAdapter makes T resolvable by wrapping a resolved S, covering the
// classic adapt-a-legacy-type registration.  The adapter binding is
// transient; S keeps whatever lifetime it was registered with.
func RegisterAdapter[S, T any](r *Registry, adapt func(S) T) {
	Register(r, Transient, func(ctx context.Context, res Resolver) (T, error) {
		var zero T
		if adapt == nil {
			return zero, fmt.Errorf("%w: nil adapt function for %s",
				ErrInvalidArgument, reflectutils.TypeName(typeOf[T]()))
		}
		inner, err := Resolve[S](ctx, res)
		if err != nil {
			return zero, err
		}
		return adapt(inner), nil
	})
}

// transformMethodName is the structural capability every chain transformer
// must expose: Transform(context.Context, <source>) (<target>, error).
const transformMethodName = "Transform"

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// chainStep is one edge of a transformation pipeline: convert a value of
// the source type into the target type using the referenced transformer,
// which is resolved from the chain's Resolver at execution time.
type chainStep struct {
	source      reflect.Type
	target      reflect.Type
	transformer reflect.Type
	final       bool
}

// Chain threads a single value through an ordered list of transformation
// steps.  The step list is assembled up front and read-only afterwards;
// Execute holds no state across calls and is safe for concurrent use once
// assembly is done.
type Chain struct {
	resolver Resolver
	source   reflect.Type
	result   reflect.Type
	steps    []chainStep
	invalid  error // first adjacency violation, reported by Execute
}

// NewChain declares a pipeline from S to R whose transformers are resolved
// through r.
func NewChain[S, R any](r Resolver) *Chain {
	return &Chain{
		resolver: r,
		source:   typeOf[S](),
		result:   typeOf[R](),
	}
}

// Step appends a From -> To edge transformed by X.  X must be registered
// with the chain's resolver and expose
// Transform(context.Context, From) (To, error).
//
// The first step's From must match the chain's declared source; every later
// step's From must accept what the previous step produces.  A violating
// step poisons the chain: Execute fails with ErrStepMismatch before running
// anything.
func Step[From, To, X any](c *Chain) *Chain {
	step := chainStep{
		source:      typeOf[From](),
		target:      typeOf[To](),
		transformer: typeOf[X](),
		final:       true,
	}
	expect := c.source
	if n := len(c.steps); n > 0 {
		expect = c.steps[n-1].target
		c.steps[n-1].final = false
	}
	if c.invalid == nil && !expect.AssignableTo(step.source) {
		c.invalid = fmt.Errorf("%w: step %d consumes %s but the chain produces %s at that point",
			ErrStepMismatch, len(c.steps)+1,
			reflectutils.TypeName(step.source), reflectutils.TypeName(expect))
	}
	c.steps = append(c.steps, step)
	return c
}

// String renders the chain's edges with their transformers.  The final edge
// is marked with "=>".
func (c *Chain) String() string {
	var sb strings.Builder
	sb.WriteString(reflectutils.TypeName(c.source))
	for _, step := range c.steps {
		arrow := "->"
		if step.final {
			arrow = "=>"
		}
		fmt.Fprintf(&sb, " %s[%s] %s", arrow,
			reflectutils.TypeName(step.transformer), reflectutils.TypeName(step.target))
	}
	return sb.String()
}

// Execute threads source through the chain and returns the final value.
//
// Type identity is verified twice: at entry (source against the first
// step's declared source type) and at exit (the produced value against the
// chain's declared result type).  Between steps the registered edge types
// stand in for static checking, so a transformer that lies about its output
// is caught by the next transformer's input check or by the exit check.
// Errors raised by a transformer propagate unchanged and abort the chain.
func (c *Chain) Execute(ctx context.Context, source any) (any, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil source", ErrInvalidArgument)
	}
	if len(c.steps) == 0 {
		return nil, ErrEmptyChain
	}
	if c.invalid != nil {
		return nil, c.invalid
	}
	sourceType := reflect.TypeOf(source)
	if !sourceType.AssignableTo(c.steps[0].source) {
		return nil, fmt.Errorf("%w: chain expects %s, got %s",
			ErrSourceTypeMismatch,
			reflectutils.TypeName(c.steps[0].source), reflectutils.TypeName(sourceType))
	}
	current := source
	for _, step := range c.steps {
		next, err := c.runStep(ctx, step, current)
		if err != nil {
			return nil, err
		}
		current = next
	}
	resultType := reflect.TypeOf(current)
	if resultType == nil || !resultType.AssignableTo(c.result) {
		got := "nil"
		if resultType != nil {
			got = reflectutils.TypeName(resultType)
		}
		return nil, fmt.Errorf("%w: chain is declared to produce %s, produced %s",
			ErrResultTypeMismatch, reflectutils.TypeName(c.result), got)
	}
	return current, nil
}

func (c *Chain) runStep(ctx context.Context, step chainStep, current any) (any, error) {
	transformer, err := c.resolver.ResolveType(ctx, step.transformer)
	if err != nil {
		return nil, err
	}
	method := reflect.ValueOf(transformer).MethodByName(transformMethodName)
	if !method.IsValid() {
		return nil, fmt.Errorf("%w: %s has no %s method",
			ErrInvalidTransformer, reflectutils.TypeName(step.transformer), transformMethodName)
	}
	mt := method.Type()
	if mt.NumIn() != 2 || mt.In(0) != contextType ||
		mt.NumOut() != 2 || mt.Out(1) != errorType {
		return nil, fmt.Errorf("%w: %s.%s must be %s(context.Context, %s) (%s, error)",
			ErrInvalidTransformer,
			reflectutils.TypeName(step.transformer), transformMethodName, transformMethodName,
			reflectutils.TypeName(step.source), reflectutils.TypeName(step.target))
	}
	currentType := reflect.TypeOf(current)
	if currentType == nil || !currentType.AssignableTo(mt.In(1)) {
		got := "nil"
		if currentType != nil {
			got = reflectutils.TypeName(currentType)
		}
		return nil, fmt.Errorf("%w: %s cannot transform %s",
			ErrInvalidTransformer, reflectutils.TypeName(step.transformer), got)
	}
	out := method.Call([]reflect.Value{reflect.ValueOf(ctx), reflect.ValueOf(current)})
	if !out[1].IsNil() {
		// transformer failures pass through untouched
		return nil, out[1].Interface().(error)
	}
	return out[0].Interface(), nil
}

// ExecuteAs runs the chain and asserts the result to R.
func ExecuteAs[R any](ctx context.Context, c *Chain, source any) (R, error) {
	var zero R
	out, err := c.Execute(ctx, source)
	if err != nil {
		return zero, err
	}
	typed, ok := out.(R)
	if !ok {
		return zero, fmt.Errorf("%w: chain produced %s, asserted as %s",
			ErrResultTypeMismatch,
			reflectutils.TypeName(reflect.TypeOf(out)), reflectutils.TypeName(typeOf[R]()))
	}
	return typed, nil
}
