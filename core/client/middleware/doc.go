// Package middleware holds ready-made [client.MiddlewareConfig] values.
//
// [NewLoggingMiddleware] writes one slog record when a call starts and one
// when it completes or fails, for both blocking and streaming calls:
//
//	c, err := client.New(provider,
//	    client.WithMiddleware(middleware.NewLoggingMiddleware(logger, middleware.LogLevelStandard)),
//	)
package middleware
