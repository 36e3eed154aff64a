package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle. The cache will call these methods whenever something happens.

Calls are made while the cache lock is held, so implementations must be cheap
and must never call back into the cache.
*/
type Metrics interface {

	// Hit is called when Get finds the key in memory.
	Hit()

	// Miss is called when Get does NOT find the key.
	Miss()

	// Eviction is called when a key is removed because the cache is full and needs space.
	Eviction()

	// Append is called after a record has been durably appended to the log.
	Append()

	// Compaction is called after the log has been rewritten and swapped in.
	Compaction()

	// Corrupt is called for every log record skipped during recovery.
	Corrupt()
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

If someone does not care about metrics, the cache still works without
nil checks everywhere: the constructor falls back to this type.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()        {}
func (NoopMetrics) Miss()       {}
func (NoopMetrics) Eviction()   {}
func (NoopMetrics) Append()     {}
func (NoopMetrics) Compaction() {}
func (NoopMetrics) Corrupt()    {}
