// Package slogobs implements [observability.Provider] on top of log/slog.
// Spans, metric updates and log calls all become slog records rendered by
// [Handler] in compact, pretty or JSON form. Level and format default to the
// FINCHAT_LOG_LEVEL / FINCHAT_LOG_FORMAT environment variables.
package slogobs
