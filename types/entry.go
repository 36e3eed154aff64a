package types

// Entry is one key/value pair as held by the LRU core.
// It is returned by value from snapshots, so callers may keep it freely.
type Entry[V any] struct {
	Key   string
	Value V
}
