// Package inmemory is a mutex-guarded, slice-backed [memory.Provider].
// History lives only as long as the process.
package inmemory
