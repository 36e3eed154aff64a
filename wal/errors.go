package wal

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptRecord is returned when a log line cannot be decoded into a record.
	ErrCorruptRecord = errors.New("corrupt log record")

	// ErrIO matches every *IOError through errors.Is.
	ErrIO = errors.New("log i/o failure")

	// ErrAppenderClosed is returned by Append after Close.
	ErrAppenderClosed = errors.New("appender is closed")

	// ErrInvalidUTF8 is returned for a key or string value that is not valid
	// UTF-8. JSON would replace the bad bytes, so it could not be replayed as written.
	ErrInvalidUTF8 = errors.New("invalid UTF-8")
)

// IOError reports that the log could not be opened, written, synced or
// renamed. When it comes back from an append the in-memory state has already
// changed, so the mutation must not be assumed durable.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("wal: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrIO) true for every IOError.
func (e *IOError) Is(target error) bool { return target == ErrIO }

func ioErr(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}

var errShortWrite = errors.New("short write")
