package cache

import (
	"context"

	"github.com/krisalay/durable-lru-cache/types"
)

/*
Cache defines the PUBLIC API of the durable LRU cache.
This is a contract that guarantees certain behaviors, without exposing internals.
The LRU core, the log, recovery and compaction are all hidden behind this interface.
*/
type Cache[V any] interface {

	/*
		Get retrieves the value associated with the given key.

		BEHAVIOR:
		-------------------
		1. If the key exists:
		   - Mark it most recently used
		   - Append a GET record so the new order survives a crash
		   - Return (value, true, nil)

		2. If the key does NOT exist:
		   - Return (zero, false, nil). A miss is a normal result, not an error.

		A non-nil error means the hit happened in memory but could not be made durable.
	*/
	Get(key string) (V, bool, error)

	/*
		Put stores a key-value pair in the cache.

		BEHAVIOR:
		---------
		- Stores the value in memory and marks it most recently used
		- Evicts exactly one least recently used entry if a NEW key overflows capacity
		- Appends a PUT record and syncs it before returning

		A non-nil I/O error means memory changed but the log may not have.
	*/
	Put(key string, value V) error

	/*
		Delete removes a key from the cache.

		This operation is idempotent:
		- Removing a non-existing key is safe and writes nothing to the log
	*/
	Delete(key string) error

	/*
		Compact rewrites the log to one PUT per live entry, oldest first,
		and atomically replaces the old log.

		Keys, values and recency order are NOT changed.
	*/
	Compact() error

	/*
		GetOrLoad returns the cached value or loads, caches and logs it on a miss.
		Concurrent misses on the same key share a single load.
	*/
	GetOrLoad(ctx context.Context, key string, loader types.Loader[V]) (V, error)

	/*
		Snapshot returns entries from least to most recently used.

		- Debugging
		- Verifying recovery
		- Observability in production
	*/
	Snapshot() []types.Entry[V]

	/*
		Close gracefully shuts down the cache.

		BEHAVIOR:
		---------
		- Stops background compaction
		- Closes the log file

		WHEN TO CALL:
		-------------
		- Application shutdown
		- Tests cleanup
	*/
	Close() error
}
