// Package ai holds the provider-agnostic chat types: requests, messages,
// tool calls and responses, plus the [Provider] and [StreamProvider]
// interfaces a model backend implements. Streaming replies are delivered as
// a [ChatStream] of [StreamEvent] deltas.
package ai
