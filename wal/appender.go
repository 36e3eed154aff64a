package wal

import (
	"os"
	"path/filepath"
	"sync"
)

// SyncMode determines when appended records are synced to disk.
type SyncMode int

const (
	// SyncAlways - fsync after every append. An acknowledged record survives a crash.
	SyncAlways SyncMode = iota
	// SyncNone - leave flushing to the OS. Only for benchmarks; records may be lost on a crash.
	SyncNone
)

// AppenderConfig configures Appender behavior.
type AppenderConfig struct {
	SyncMode SyncMode
	// FileMode is used when the log file is created.
	FileMode os.FileMode
}

// DefaultAppenderConfig returns the durable defaults.
func DefaultAppenderConfig() AppenderConfig {
	return AppenderConfig{
		SyncMode: SyncAlways,
		FileMode: 0644,
	}
}

// Appender appends encoded records to the end of the log file.
type Appender struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	size     int64
	records  int
	syncMode SyncMode
}

// OpenAppender opens the log at path for appending, creating it and its
// parent directory when missing.
func OpenAppender(path string, cfg AppenderConfig) (*Appender, error) {
	if cfg.FileMode == 0 {
		cfg.FileMode = 0644
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, ioErr("mkdir", dir, err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, cfg.FileMode)
	if err != nil {
		return nil, ioErr("open", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, ioErr("stat", path, err)
	}

	return &Appender{
		file:     file,
		path:     path,
		size:     info.Size(),
		syncMode: cfg.SyncMode,
	}, nil
}

// Append encodes r and writes it as one line at the end of the log. With
// SyncAlways the data is fsynced before Append returns.
//
// The whole line goes out in a single write. If the write or the sync fails,
// the file is truncated back to its previous length so a half-written line
// can never prefix the next record.
func (a *Appender) Append(r Record) error {
	line, err := Encode(r)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return ErrAppenderClosed
	}

	n, err := a.file.Write(line)
	if err == nil && n < len(line) {
		err = errShortWrite
	}
	if err != nil {
		a.rollback()
		return ioErr("write", a.path, err)
	}

	if a.syncMode == SyncAlways {
		if err := a.file.Sync(); err != nil {
			a.rollback()
			return ioErr("sync", a.path, err)
		}
	}

	a.size += int64(len(line))
	a.records++
	return nil
}

// rollback is best-effort: the caller already reports the original failure.
func (a *Appender) rollback() {
	_ = a.file.Truncate(a.size)
}

// Sync forces written data to disk. It is only needed with SyncNone.
func (a *Appender) Sync() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.file == nil {
		return ErrAppenderClosed
	}
	return a.syncLocked()
}

func (a *Appender) syncLocked() error {
	if err := a.file.Sync(); err != nil {
		return ioErr("sync", a.path, err)
	}
	return nil
}

// Records returns how many records were appended through this Appender.
func (a *Appender) Records() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.records
}

// Size returns the current log file size in bytes.
func (a *Appender) Size() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.size
}

// Close closes the log file. Under SyncNone it first syncs whatever was
// appended, so a clean shutdown is durable in every mode. Close is safe to
// call more than once.
func (a *Appender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.file == nil {
		return nil
	}
	var syncErr error
	if a.syncMode == SyncNone {
		syncErr = a.syncLocked()
	}
	err := a.file.Close()
	a.file = nil
	if syncErr != nil {
		return syncErr
	}
	if err != nil {
		return ioErr("close", a.path, err)
	}
	return nil
}

// TruncateTail cuts the log at path down to size bytes and syncs it. Recovery
// uses it to drop a torn final line before new records are appended.
func TruncateTail(path string, size int64) error {
	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return ioErr("open", path, err)
	}
	defer file.Close()

	if err := file.Truncate(size); err != nil {
		return ioErr("truncate", path, err)
	}
	if err := file.Sync(); err != nil {
		return ioErr("sync", path, err)
	}
	return nil
}
