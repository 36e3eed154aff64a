package engine

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/krisalay/durable-lru-cache/lru"
	"github.com/krisalay/durable-lru-cache/types"
	"github.com/krisalay/durable-lru-cache/wal"
)

/*
The recovery engine is the "brain" that turns a log back into a cache.
It is responsible for the replay RULES, NOT storage.

It decides:
- In which order records are applied (strictly file order)
- What each record does to the LRU core
- Which records are skipped as corrupt
- Whether corruption is tolerable

It does NOT:
- Write to the log
- Handle locking
- Decide eviction order (the LRU core does)
*/

// Options controls recovery behavior.
type Options struct {

	// Strict rejects corruption anywhere except the final line of the log.
	// A torn final line is an expected crash artifact; anything earlier
	// means the log was damaged some other way.
	//
	// When false, every corrupt record is skipped and logged.
	Strict bool

	// Logger receives warnings about skipped records. Nil means slog.Default().
	Logger *slog.Logger

	// Metrics is told about every skipped record. Nil means NoopMetrics.
	Metrics types.Metrics
}

// Report summarizes one recovery.
type Report struct {
	// Exists is false when there was no log file (an empty cache).
	Exists bool
	// Records counts non-blank log lines read.
	Records int
	// Complete counts non-blank lines that end in a newline. These are the
	// records that remain once a torn tail is truncated.
	Complete int
	// Applied counts records replayed against the core.
	Applied int
	// Corrupt counts records skipped as undecodable.
	Corrupt int
	// Evicted counts entries evicted during replay.
	Evicted int
	// TornTail reports a final line without a newline.
	TornTail bool
	// ValidSize is the byte offset just past the last complete line.
	ValidSize int64
}

/*
Apply replays one decoded record against core, exactly as the live cache
operations would:

  - PUT : core.Put, including capacity-triggered eviction
  - GET : core.Get, promotes the key if present, no-op otherwise
  - DEL : core.Delete, no-op if absent

It returns the entry evicted by a PUT, if any.
*/
func Apply[V any](core *lru.Core[V], op wal.Op, key string, value V) (evicted types.Entry[V], ok bool) {
	switch op {
	case wal.OpPut:
		return core.Put(key, value)
	case wal.OpGet:
		core.Get(key)
	case wal.OpDel:
		core.Delete(key)
	}
	return evicted, false
}

/*
Recover rebuilds an LRU core from the log at path.

BEHAVIOR:
---------
  - A missing log means an empty cache, not an error
  - A final line without a newline is a torn write and is never applied
  - Records are read and applied strictly in file order
  - A corrupt record (including a PUT whose value does not decode into V)
    is skipped and logged as a warning
  - With Options.Strict, a corrupt record followed by any further record
    fails recovery with wal.ErrCorruptRecord

Read failures are returned as *wal.IOError.
*/
func Recover[V any](path string, capacity int, opts Options) (*lru.Core[V], Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}

	core, err := lru.New[V](capacity)
	if err != nil {
		return nil, Report{}, err
	}

	var (
		rep         Report
		lastCorrupt int // line number of the most recent corrupt record, 0 if none
	)

	scan, err := wal.Scan(path, func(line wal.Line) error {
		if lastCorrupt != 0 {
			// Corruption that is not at the tail.
			if opts.Strict {
				return fmt.Errorf("%w: line %d of %s is followed by more records", wal.ErrCorruptRecord, lastCorrupt, path)
			}
			logger.Error("corrupt log record before end of log", "path", path, "line", lastCorrupt)
			lastCorrupt = 0
		}

		if !line.Complete {
			// The write of this record never finished, so it was never
			// acknowledged. It is dropped even if it happens to decode.
			rep.Corrupt++
			metrics.Corrupt()
			logger.Warn("dropping torn log tail", "path", path, "line", line.Num)
			return nil
		}

		op, key, value, err := decode[V](line.Data)
		if err != nil {
			rep.Corrupt++
			lastCorrupt = line.Num
			metrics.Corrupt()
			logger.Warn("skipping corrupt log record",
				"path", path, "line", line.Num, "complete", line.Complete, "err", err)
			return nil
		}

		if _, evicted := Apply(core, op, key, value); evicted {
			rep.Evicted++
		}
		rep.Applied++
		return nil
	})
	rep.Exists = scan.Exists
	rep.Records = scan.Lines
	rep.Complete = scan.Complete
	rep.TornTail = scan.TornTail
	rep.ValidSize = scan.ValidSize
	if err != nil {
		return nil, rep, err
	}

	return core, rep, nil
}

func decode[V any](line []byte) (op wal.Op, key string, value V, err error) {
	r, err := wal.Decode(line)
	if err != nil {
		return op, key, value, err
	}
	if r.Op == wal.OpPut {
		if err := json.Unmarshal(r.Value, &value); err != nil {
			return op, key, value, fmt.Errorf("%w: value for %q: %v", wal.ErrCorruptRecord, r.Key, err)
		}
	}
	return r.Op, r.Key, value, nil
}
