package wal

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"os"
)

// Line is one raw line of the log as seen by Scan.
type Line struct {
	// Num is the 1-based line number.
	Num int
	// Data is the line without its trailing newline.
	Data []byte
	// Complete is false only for a final line with no trailing newline,
	// i.e. a record whose write was interrupted.
	Complete bool
}

// ScanResult summarizes a Scan.
type ScanResult struct {
	// Exists is false when the log file does not exist yet.
	Exists bool
	// Lines counts non-blank lines handed to the callback.
	Lines int
	// Complete counts non-blank lines that end in a newline.
	Complete int
	// ValidSize is the byte offset just past the last complete line.
	ValidSize int64
	// TornTail reports a trailing line without a newline.
	TornTail bool
}

// Scan reads the log at path from the start and calls fn for each non-blank
// line in file order. A missing file is not an error. Scanning stops at the
// first error returned by fn, which Scan returns unchanged.
func Scan(path string, fn func(Line) error) (ScanResult, error) {
	var res ScanResult

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return res, nil
		}
		return res, ioErr("open", path, err)
	}
	defer file.Close()
	res.Exists = true

	reader := bufio.NewReaderSize(file, 64*1024)
	num := 0
	for {
		data, err := reader.ReadBytes('\n')
		if len(data) > 0 {
			num++
			complete := data[len(data)-1] == '\n'
			if complete {
				res.ValidSize += int64(len(data))
				data = data[:len(data)-1]
			} else {
				res.TornTail = true
			}

			if len(bytes.TrimSpace(data)) > 0 {
				res.Lines++
				if complete {
					res.Complete++
				}
				if ferr := fn(Line{Num: num, Data: data, Complete: complete}); ferr != nil {
					return res, ferr
				}
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return res, nil
			}
			return res, ioErr("read", path, err)
		}
	}
}
