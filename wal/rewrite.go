package wal

import (
	"bufio"
	"os"
	"path/filepath"
)

// TempSuffix is appended to the log path for the file Rewrite builds.
const TempSuffix = ".tmp"

// Rewrite atomically replaces the log at path with exactly records.
//
// The new log is written to path+TempSuffix, synced, closed and renamed over
// path, then the parent directory is synced so the rename itself is durable.
// A crash before the rename leaves the old log untouched; a crash after it
// leaves the complete new log.
func Rewrite(path string, records []Record, mode os.FileMode) error {
	if mode == 0 {
		mode = 0644
	}
	tmpPath := path + TempSuffix

	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return ioErr("create", tmpPath, err)
	}

	fail := func(op string, err error) error {
		file.Close()
		os.Remove(tmpPath)
		return ioErr(op, tmpPath, err)
	}

	writer := bufio.NewWriterSize(file, 64*1024)
	for _, r := range records {
		line, err := Encode(r)
		if err != nil {
			file.Close()
			os.Remove(tmpPath)
			return err
		}
		if _, err := writer.Write(line); err != nil {
			return fail("write", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fail("flush", err)
	}
	if err := file.Sync(); err != nil {
		return fail("sync", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return ioErr("close", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return ioErr("rename", path, err)
	}
	return syncDir(filepath.Dir(path))
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return ioErr("open", dir, err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return ioErr("sync", dir, err)
	}
	return nil
}
