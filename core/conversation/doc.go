// Package conversation keeps a bounded dialogue window and a "current topic"
// in front of an answering capability, so that follow-up questions such as
// "what was its revenue?" reach the agents with enough context.
//
// The first query of a session is forwarded verbatim. Every later query is
// wrapped in a prompt naming the company under discussion and quoting the
// most recent turns:
//
//	Previous conversation context:
//	- Currently discussing: TATAMOTORS.NS
//	- Recent messages:
//	user: What about TATAMOTORS.NS?
//
//	Based on this context, please answer: What about TATAMOTORS.NS?
//
// Failures of the answering capability, panics included, are reported to an
// [ErrorReporter] and never reach the caller.
package conversation
