package cache

import (
	"errors"

	"github.com/krisalay/durable-lru-cache/lru"
	"github.com/krisalay/durable-lru-cache/wal"
)

var (
	// ErrInvalidCapacity is returned by New when Capacity is not positive.
	ErrInvalidCapacity = lru.ErrInvalidCapacity

	// ErrNoLogPath is returned by New when LogPath is empty.
	ErrNoLogPath = errors.New("cache: log path is required")

	// ErrClosed is returned by operations on a closed cache.
	ErrClosed = errors.New("cache is closed")

	// ErrIO matches every log I/O failure. A mutation that returned it is
	// applied in memory but must not be assumed durable.
	ErrIO = wal.ErrIO

	// ErrInvalidUTF8 is returned by Put for a key or string value that is
	// not valid UTF-8. The cache is left unchanged.
	ErrInvalidUTF8 = wal.ErrInvalidUTF8

	// ErrCorruptRecord is returned by New in strict recovery mode when the
	// log is damaged anywhere but its final line.
	ErrCorruptRecord = wal.ErrCorruptRecord
)
