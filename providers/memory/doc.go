// Package memory defines where chat messages are kept between turns.
// Read methods return errors so a database-backed store can report failures;
// the in-process implementation lives in [github.com/leofalp/finchat/providers/memory/inmemory].
package memory
