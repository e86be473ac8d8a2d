// Package client sits between raw providers and the agent patterns. A
// [Client] fixes the model, system prompt and tool catalog, and runs every
// call through a middleware chain built once by [New].
//
// Middleware comes in pairs ([MiddlewareConfig]) so blocking and streaming
// calls are wrapped alike. [WithObserver] adds tracing and metrics as the
// outermost layer; package middleware provides slog request logging.
package client
