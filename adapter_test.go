package relay

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	rawText       string
	processedText string
	finalText     string
)

type processTransformer struct{}

func (processTransformer) Transform(_ context.Context, in rawText) (processedText, error) {
	return processedText("Processed: " + string(in)), nil
}

type finalizeTransformer struct{}

func (finalizeTransformer) Transform(_ context.Context, in processedText) (finalText, error) {
	return finalText("Final: " + string(in)), nil
}

var errScrambled = errors.New("scrambled input")

type failingTransformer struct{}

func (failingTransformer) Transform(_ context.Context, _ rawText) (processedText, error) {
	return "", errScrambled
}

// methodlessTransformer has no Transform method at all.
type methodlessTransformer struct{}

// looseTransformer declares an any output, so the chain's exit check is the
// only thing standing between it and a mistyped result.
type looseTransformer struct{}

func (looseTransformer) Transform(_ context.Context, in processedText) (any, error) {
	return in, nil
}

func chainRegistry() *Registry {
	reg := NewRegistry()
	Register(reg, Transient, func(context.Context, Resolver) (processTransformer, error) {
		return processTransformer{}, nil
	})
	Register(reg, Transient, func(context.Context, Resolver) (finalizeTransformer, error) {
		return finalizeTransformer{}, nil
	})
	Register(reg, Transient, func(context.Context, Resolver) (failingTransformer, error) {
		return failingTransformer{}, nil
	})
	Register(reg, Transient, func(context.Context, Resolver) (methodlessTransformer, error) {
		return methodlessTransformer{}, nil
	})
	Register(reg, Transient, func(context.Context, Resolver) (looseTransformer, error) {
		return looseTransformer{}, nil
	})
	return reg
}

func TestChainTwoSteps(t *testing.T) {
	c := NewChain[rawText, finalText](chainRegistry())
	Step[rawText, processedText, processTransformer](c)
	Step[processedText, finalText, finalizeTransformer](c)

	out, err := c.Execute(context.Background(), rawText("test"))
	require.NoError(t, err)
	assert.Equal(t, finalText("Final: Processed: test"), out)

	typed, err := ExecuteAs[finalText](context.Background(), c, rawText("test"))
	require.NoError(t, err)
	assert.Equal(t, finalText("Final: Processed: test"), typed)
}

func TestChainEmpty(t *testing.T) {
	c := NewChain[rawText, finalText](chainRegistry())
	for _, source := range []any{rawText("x"), 42, "anything"} {
		_, err := c.Execute(context.Background(), source)
		require.ErrorIs(t, err, ErrEmptyChain)
	}
}

func TestChainNilSource(t *testing.T) {
	c := NewChain[rawText, finalText](chainRegistry())
	Step[rawText, processedText, processTransformer](c)
	_, err := c.Execute(context.Background(), nil)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestChainSourceTypeMismatch(t *testing.T) {
	c := NewChain[rawText, finalText](chainRegistry())
	Step[rawText, processedText, processTransformer](c)
	Step[processedText, finalText, finalizeTransformer](c)
	_, err := c.Execute(context.Background(), 42)
	require.ErrorIs(t, err, ErrSourceTypeMismatch)
	assert.Contains(t, err.Error(), "rawText")
	assert.Contains(t, err.Error(), "int")
}

func TestChainTransformerNotRegistered(t *testing.T) {
	c := NewChain[rawText, processedText](NewRegistry())
	Step[rawText, processedText, processTransformer](c)
	_, err := c.Execute(context.Background(), rawText("test"))
	require.ErrorIs(t, err, ErrNotRegistered)
	assert.Contains(t, err.Error(), "processTransformer")
}

func TestChainInvalidTransformer(t *testing.T) {
	c := NewChain[rawText, processedText](chainRegistry())
	Step[rawText, processedText, methodlessTransformer](c)
	_, err := c.Execute(context.Background(), rawText("test"))
	require.ErrorIs(t, err, ErrInvalidTransformer)
	assert.Contains(t, err.Error(), "methodlessTransformer")
}

func TestChainTransformerErrorPropagatesUnwrapped(t *testing.T) {
	c := NewChain[rawText, processedText](chainRegistry())
	Step[rawText, processedText, failingTransformer](c)
	_, err := c.Execute(context.Background(), rawText("test"))
	require.Error(t, err)
	assert.Equal(t, errScrambled, err, "transformer failures must not be wrapped")
}

func TestChainStepMismatch(t *testing.T) {
	c := NewChain[rawText, finalText](chainRegistry())
	Step[rawText, processedText, processTransformer](c)
	// finalText does not follow from processedText
	Step[finalText, finalText, finalizeTransformer](c)
	_, err := c.Execute(context.Background(), rawText("test"))
	require.ErrorIs(t, err, ErrStepMismatch)
	assert.Contains(t, err.Error(), "processedText")
	assert.Contains(t, err.Error(), "finalText")
}

func TestChainResultTypeMismatch(t *testing.T) {
	c := NewChain[rawText, finalText](chainRegistry())
	Step[rawText, processedText, processTransformer](c)
	Step[processedText, any, looseTransformer](c)
	_, err := c.Execute(context.Background(), rawText("test"))
	require.ErrorIs(t, err, ErrResultTypeMismatch)
	assert.Contains(t, err.Error(), "finalText")
	assert.Contains(t, err.Error(), "processedText")
}

func TestExecuteAsWrongAssertion(t *testing.T) {
	c := NewChain[rawText, processedText](chainRegistry())
	Step[rawText, processedText, processTransformer](c)
	_, err := ExecuteAs[finalText](context.Background(), c, rawText("test"))
	require.ErrorIs(t, err, ErrResultTypeMismatch)
}

func TestChainString(t *testing.T) {
	c := NewChain[rawText, finalText](chainRegistry())
	Step[rawText, processedText, processTransformer](c)
	Step[processedText, finalText, finalizeTransformer](c)
	s := c.String()
	assert.Contains(t, s, "->")
	assert.Contains(t, s, "=>", "the final edge is marked")
	assert.Contains(t, s, "processTransformer")
	assert.Contains(t, s, "finalizeTransformer")
}

func TestChainStatelessAcrossCalls(t *testing.T) {
	c := NewChain[rawText, finalText](chainRegistry())
	Step[rawText, processedText, processTransformer](c)
	Step[processedText, finalText, finalizeTransformer](c)
	for i := 0; i < 3; i++ {
		out, err := c.Execute(context.Background(), rawText("again"))
		require.NoError(t, err)
		assert.Equal(t, finalText("Final: Processed: again"), out)
	}
}

type legacyGreeter struct {
	salutation string
}

func (g *legacyGreeter) Greet(name string) string {
	return g.salutation + ", " + name
}

type Greeter interface {
	Hello(name string) string
}

type greeterAdapter struct {
	legacy *legacyGreeter
}

func (a greeterAdapter) Hello(name string) string {
	return a.legacy.Greet(name) + "!"
}

func TestRegisterAdapter(t *testing.T) {
	reg := NewRegistry()
	Register(reg, Singleton, func(context.Context, Resolver) (*legacyGreeter, error) {
		return &legacyGreeter{salutation: "Hello"}, nil
	})
	RegisterAdapter(reg, func(legacy *legacyGreeter) Greeter {
		return greeterAdapter{legacy: legacy}
	})

	greeter, err := Resolve[Greeter](context.Background(), reg)
	require.NoError(t, err)
	assert.Equal(t, "Hello, world!", greeter.Hello("world"))
}

func TestRegisterAdapterMissingInner(t *testing.T) {
	reg := NewRegistry()
	RegisterAdapter(reg, func(legacy *legacyGreeter) Greeter {
		return greeterAdapter{legacy: legacy}
	})
	_, err := Resolve[Greeter](context.Background(), reg)
	require.ErrorIs(t, err, ErrNotRegistered)
}
