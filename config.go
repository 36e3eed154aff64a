package cache

import (
	"log/slog"
	"os"
	"time"

	"github.com/krisalay/durable-lru-cache/types"
	"github.com/krisalay/durable-lru-cache/wal"
)

// Recency selects how read recency reaches the log.
type Recency int

const (
	// RecencyLogged appends a GET record for every hit, so the exact recency
	// order survives a crash at any point.
	RecencyLogged Recency = iota

	// RecencyOnCompact does not log hits. Recency is persisted only when the
	// log is compacted, which roughly halves log volume for read-heavy loads.
	// After a crash, keys read since the last compaction come back in their
	// write order, which may change which key a later insert evicts.
	RecencyOnCompact
)

// Config controls capacity, durability and maintenance behavior.
//
// Correctness-first defaults (see DefaultConfig):
//   - every record is fsynced before the operation returns
//   - every hit is logged
//   - corrupt records are skipped, never fatal
//   - no automatic compaction
type Config struct {
	// Capacity is the maximum number of entries. Must be positive.
	Capacity int

	// LogPath is the append-only log owned by this cache. A missing file
	// means an empty cache.
	LogPath string

	// SyncMode controls fsync after each append. wal.SyncNone is not durable.
	SyncMode wal.SyncMode

	// Recency selects whether hits are logged.
	Recency Recency

	// StrictRecovery refuses to start when corruption is found anywhere but
	// the final line of the log.
	StrictRecovery bool

	// CompactAfter triggers an inline compaction once the log holds this many
	// records more than there are live entries. Zero disables it.
	CompactAfter int

	// CompactInterval runs a background compaction on this period when the
	// log holds redundant history. Zero disables the background loop.
	CompactInterval time.Duration

	// FileMode is used when creating log files.
	FileMode os.FileMode

	// Logger receives structured events. Nil means slog.Default().
	Logger *slog.Logger

	// Metrics observes cache events. Nil means types.NoopMetrics.
	Metrics types.Metrics
}

// DefaultConfig returns the durable defaults for a cache of the given
// capacity backed by the log at logPath.
func DefaultConfig(capacity int, logPath string) Config {
	return Config{
		Capacity: capacity,
		LogPath:  logPath,
		SyncMode: wal.SyncAlways,
		Recency:  RecencyLogged,
		FileMode: 0644,
	}
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return ErrInvalidCapacity
	}
	if c.LogPath == "" {
		return ErrNoLogPath
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.FileMode == 0 {
		c.FileMode = 0644
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Metrics == nil {
		c.Metrics = types.NoopMetrics{}
	}
	return c
}
