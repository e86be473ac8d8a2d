// Package observability defines the tracing, metrics and logging interfaces
// threaded through finchat, together with the attribute keys and span names
// every component uses when it records something.
//
// A [Provider] is attached to a [context.Context] with [ContextWithObserver]
// and the active [Span] with [ContextWithSpan]. Lower layers (HTTP helpers,
// tools, memory) only ever look them up with [ObserverFromContext] and
// [SpanFromContext] and stay silent when nothing is attached.
package observability
