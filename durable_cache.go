package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	api "github.com/krisalay/durable-lru-cache/api"
	"github.com/krisalay/durable-lru-cache/engine"
	"github.com/krisalay/durable-lru-cache/lru"
	"github.com/krisalay/durable-lru-cache/types"
	"github.com/krisalay/durable-lru-cache/wal"
	"golang.org/x/sync/singleflight"
)

/*
DurableCache is the main cache implementation.
This struct is the orchestrator that connects:
- the LRU core (what is cached, in which order)
- the appender (what has been made durable)
- the recovery engine (how the core is rebuilt at startup)
- compaction (how the log is kept small)
- loading, metrics and logging

One mutex guards the core AND the log together. An eviction decision and
the record that explains it are a single linearized unit, and Compact holds
the same lock for snapshot, rewrite and swap.
*/
type DurableCache[V any] struct {
	mu sync.Mutex

	cfg     Config
	logger  *slog.Logger
	metrics types.Metrics

	core *lru.Core[V]
	log  *wal.Appender

	// logRecords is how many records the log file currently holds.
	logRecords int

	// recencyDirty is set when a hit was not logged (RecencyOnCompact).
	recencyDirty bool

	// err is the first I/O failure; once set the cache is degraded.
	err    error
	closed bool

	// singleflight prevents multiple goroutines from loading the same missing key simultaneously.
	sf singleflight.Group

	// Goroutine ownership.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ api.Cache[any] = (*DurableCache[any])(nil)

// Stats is a point-in-time view of cache and log size.
type Stats struct {
	Entries    int
	Capacity   int
	LogRecords int
	LogBytes   int64
}

/*
New opens the cache backed by cfg.LogPath.

BEHAVIOR:
---------
1. Validate the config (capacity must be positive, a log path is required)
2. Remove a temp file left by a compaction that crashed before its rename
3. Replay the log into a fresh LRU core
4. Cut off a torn final line so new records start on a clean line
5. Open the log for appending and start background compaction if configured
*/
func New[V any](cfg Config) (*DurableCache[V], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	logger := cfg.Logger.With("log", cfg.LogPath)

	tmpPath := cfg.LogPath + wal.TempSuffix
	if err := os.Remove(tmpPath); err == nil {
		logger.Warn("removed leftover compaction file", "path", tmpPath)
	} else if !os.IsNotExist(err) {
		return nil, &wal.IOError{Op: "remove", Path: tmpPath, Err: err}
	}

	core, rep, err := engine.Recover[V](cfg.LogPath, cfg.Capacity, engine.Options{
		Strict:  cfg.StrictRecovery,
		Logger:  logger,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("recover cache: %w", err)
	}

	if rep.TornTail {
		if err := wal.TruncateTail(cfg.LogPath, rep.ValidSize); err != nil {
			return nil, fmt.Errorf("recover cache: %w", err)
		}
		logger.Warn("truncated torn log tail", "offset", rep.ValidSize)
	}

	appender, err := wal.OpenAppender(cfg.LogPath, wal.AppenderConfig{
		SyncMode: cfg.SyncMode,
		FileMode: cfg.FileMode,
	})
	if err != nil {
		return nil, fmt.Errorf("open cache log: %w", err)
	}

	logger.Info("cache recovered",
		"entries", core.Len(),
		"capacity", cfg.Capacity,
		"records", rep.Records,
		"corrupt", rep.Corrupt,
		"evicted", rep.Evicted)

	ctx, cancel := context.WithCancel(context.Background())
	c := &DurableCache[V]{
		cfg:        cfg,
		logger:     logger,
		metrics:    cfg.Metrics,
		core:       core,
		log:        appender,
		logRecords: rep.Complete,
		ctx:        ctx,
		cancel:     cancel,
	}

	if cfg.CompactInterval > 0 {
		c.wg.Add(1)
		go c.compactionLoop()
	}

	return c, nil
}

/*
Get retrieves a value from the cache.

RETURN VALUES:
--------------
- (value, true, nil)  : hit; the key is now most recently used
- (zero, false, nil)  : miss; a miss is never an error
- (value, true, err)  : hit, but the GET record could not be made durable
*/
func (c *DurableCache[V]) Get(key string) (V, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	if c.closed {
		return zero, false, ErrClosed
	}

	v, ok := c.core.Get(key)
	if !ok {
		c.metrics.Miss()
		return zero, false, nil
	}
	c.metrics.Hit()

	if c.cfg.Recency != RecencyLogged {
		c.recencyDirty = true
		return v, true, nil
	}
	return v, true, c.appendLocked(wal.Get(key))
}

/*
Put stores a value and marks it most recently used.

If a new key pushes the cache over capacity, the least recently used entry
is evicted. The eviction itself is not logged: replaying the PUT reproduces it.

The value must be JSON-serializable, and the key and any strings in the
value must be valid UTF-8 (ErrInvalidUTF8). These errors are returned before
anything changes. Values are stored as given, so callers must not mutate
them afterwards.
*/
func (c *DurableCache[V]) Put(key string, value V) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode value for %q: %w", key, err)
	}
	if err := wal.CheckText(key, raw); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	if evicted, ok := c.core.Put(key, value); ok {
		c.metrics.Eviction()
		c.logger.Debug("evicted", "key", evicted.Key)
	}
	return c.appendLocked(wal.Put(key, raw))
}

// Delete removes key. Deleting a missing key is a no-op and writes nothing.
func (c *DurableCache[V]) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if !c.core.Delete(key) {
		return nil
	}
	return c.appendLocked(wal.Del(key))
}

/*
GetOrLoad returns the cached value for key, or loads it on a miss.

singleflight ensures that if 100 goroutines miss on the same key, only ONE
of them calls the loader. The loaded value is Put (and therefore logged)
before it is returned. Loader errors are returned as-is and nothing is cached.
*/
func (c *DurableCache[V]) GetOrLoad(ctx context.Context, key string, loader types.Loader[V]) (V, error) {
	if v, ok, err := c.Get(key); ok || err != nil {
		return v, err
	}

	val, err, _ := c.sf.Do(key, func() (any, error) {
		v, err := loader.Load(ctx, key)
		if err != nil {
			return nil, err
		}
		return v, c.Put(key, v)
	})
	v, _ := val.(V)
	return v, err
}

// Peek returns the value for key without changing recency and without logging.
func (c *DurableCache[V]) Peek(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.core.Peek(key)
}

// Len returns the number of entries.
func (c *DurableCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.core.Len()
}

// Keys returns keys from least to most recently used.
func (c *DurableCache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.core.Keys()
}

// Snapshot returns entries from least to most recently used.
func (c *DurableCache[V]) Snapshot() []types.Entry[V] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.core.Snapshot()
}

// Stats returns entry and log counters.
func (c *DurableCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:    c.core.Len(),
		Capacity:   c.core.Cap(),
		LogRecords: c.logRecords,
		LogBytes:   c.log.Size(),
	}
}

// Err returns the first log I/O failure seen by this cache, or nil.
// A non-nil result means memory and log may disagree; the cache keeps
// serving and does not retry.
func (c *DurableCache[V]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

/*
Compact rewrites the log as one PUT per live entry, oldest first, and
atomically swaps it in. Keys, values and recency order are unchanged.

The cache lock is held for the whole snapshot + write + rename, so no
concurrent mutation can be lost or duplicated relative to the new log.
*/
func (c *DurableCache[V]) Compact() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	return c.compactLocked()
}

/*
Close gracefully shuts down the cache.

- Stops the background compaction loop
- Closes the log file

Close is safe to call multiple times. Later operations return ErrClosed.
*/
func (c *DurableCache[V]) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	// Cancel outside the lock so the loop can finish an in-flight Compact.
	cancel()
	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.log.Close()
}

func (c *DurableCache[V]) appendLocked(r wal.Record) error {
	if err := c.log.Append(r); err != nil {
		if errors.Is(err, wal.ErrAppenderClosed) {
			// Only a failed reopen after compaction leaves the log closed
			// while the cache is open.
			err = &wal.IOError{Op: "append", Path: c.cfg.LogPath, Err: err}
		}
		c.failLocked(err)
		return err
	}
	c.metrics.Append()
	c.logRecords++

	if c.cfg.CompactAfter > 0 && c.logRecords-c.core.Len() >= c.cfg.CompactAfter {
		// The record above is already durable. A failed compaction leaves
		// the old log in place, so it is reported but not returned.
		if err := c.compactLocked(); err != nil {
			c.logger.Error("inline compaction failed", "err", err)
		}
	}
	return nil
}

func (c *DurableCache[V]) compactLocked() error {
	snapshot := c.core.Snapshot()
	records := make([]wal.Record, 0, len(snapshot))
	for _, e := range snapshot {
		raw, err := json.Marshal(e.Value)
		if err != nil {
			return fmt.Errorf("cache: encode value for %q: %w", e.Key, err)
		}
		records = append(records, wal.Put(e.Key, raw))
	}

	before := c.log.Size()
	if err := wal.Rewrite(c.cfg.LogPath, records, c.cfg.FileMode); err != nil {
		c.failLocked(err)
		return err
	}

	// The old descriptor now points at the replaced file.
	if err := c.log.Close(); err != nil {
		c.logger.Warn("closing replaced log", "err", err)
	}
	appender, err := wal.OpenAppender(c.cfg.LogPath, wal.AppenderConfig{
		SyncMode: c.cfg.SyncMode,
		FileMode: c.cfg.FileMode,
	})
	if err != nil {
		c.failLocked(err)
		return err
	}
	c.log = appender
	c.logRecords = len(records)
	c.recencyDirty = false
	c.metrics.Compaction()

	c.logger.Info("log compacted",
		"entries", len(records),
		"bytes_before", before,
		"bytes_after", appender.Size())
	return nil
}

// needsCompactionLocked reports whether the log holds history beyond the live state.
func (c *DurableCache[V]) needsCompactionLocked() bool {
	return c.logRecords > c.core.Len() || c.recencyDirty
}

func (c *DurableCache[V]) failLocked(err error) {
	if c.err == nil && errors.Is(err, wal.ErrIO) {
		c.err = err
	}
	c.logger.Error("log write failed", "err", err)
}
