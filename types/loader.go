package types

import "context"

// Loader is the contract between the cache and whatever produces values on a miss.
type Loader[V any] interface {

	/*
		Load is called when the cache misses. The key was not found in memory,
		so the cache asks the Loader to produce it.
		1. Cache checks memory → key not found
		2. Cache calls Load(key)
		3. Loader computes the value (DB, API, expensive function)
		4. Cache stores the result in memory AND appends it to the log
		5. Cache returns the value

		A Loader error is returned to the caller as-is and nothing is cached.
	*/
	Load(ctx context.Context, key string) (V, error)
}

// LoaderFunc adapts an ordinary function to the Loader interface.
type LoaderFunc[V any] func(ctx context.Context, key string) (V, error)

// Load calls f(ctx, key).
func (f LoaderFunc[V]) Load(ctx context.Context, key string) (V, error) {
	return f(ctx, key)
}
