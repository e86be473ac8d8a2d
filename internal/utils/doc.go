// Package utils holds the HTTP and string helpers shared by the model
// provider and the tools: JSON request round-trips ([DoPostJSON],
// [DoGetJSON]), a streaming POST with an [SSEScanner] to read the reply, and
// small text helpers used in log output.
package utils
