/*

Package relay is a fluent extension layer over a service registry.  It adds
conditional service selection by runtime context, multi-target fan-out
dispatch with selectable strategies, adapter-pattern wrapping of legacy
types, and multi-step adapter transformation chains.  The registry does the
constructing; relay decides which construction happens and how calls fan
out.

Dispatch

A Dispatcher applies a caller-supplied operation across an ordered,
immutable set of targets under one strategy: Broadcast (all targets in
order), Parallel (all targets concurrently, results in target order),
Failover / FirstSuccessful (first target that succeeds wins), or RoundRobin
(exactly one target per call, rotating).  Dispatchers are assembled with a
fluent builder and can be registered back into the registry:

	err := relay.NewRelay[Notifier](reg).
		WithStrategy(relay.Broadcast).
		To(newEmailNotifier, newSMSNotifier).
		Register(ctx)

	d, _ := relay.Resolve[*relay.Dispatcher[Notifier]](ctx, reg)
	err = d.DispatchAll(ctx, func(ctx context.Context, n Notifier) error {
		return n.Notify(ctx, "deploy finished")
	})

Adapter chains

A Chain threads a value through an ordered list of transformation steps.
Each step names its source type, its target type, and the transformer that
performs the hop; transformers are resolved from the registry when the
chain runs and must expose Transform(context.Context, From) (To, error).
Type identity is verified when a value enters the chain and when it leaves:

	c := relay.NewChain[RawOrder, Invoice](reg)
	relay.Step[RawOrder, Order, *OrderParser](c)
	relay.Step[Order, Invoice, *InvoiceWriter](c)
	invoice, err := relay.ExecuteAs[Invoice](ctx, c, raw)

Conditional selection

Conditional registrations pick an implementation at resolution time by
examining the caller's context:

	relay.RegisterConditional[PaymentGateway](reg).
		When(func(ctx context.Context) bool { return region(ctx) == "eu" }).
		Use(newEUGateway).
		Otherwise(newDefaultGateway)

Errors

Every failure kind has a sentinel (ErrNoTargets, ErrEmptyChain,
ErrSourceTypeMismatch, ...) checkable with errors.Is.  When every target of
a Failover dispatch fails, the returned *AllTargetsFailedError wraps the
last underlying failure.  Nothing is logged and nothing is retried; failures
surface synchronously to the caller.

*/
package relay
