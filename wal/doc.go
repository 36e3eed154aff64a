// Package wal implements the durable side of the cache: a line-delimited,
// append-only operation log.
//
// Every line is one JSON record:
//
//	{"op":"PUT","key":"A","value":1}
//	{"op":"GET","key":"A"}
//	{"op":"DEL","key":"A"}
//
// Key components:
//   - Record codec: Encode / Decode, one record per line, never spanning lines
//   - Appender: write + fsync before returning, so an acknowledged record survives a crash
//   - Scan: sequential reader that tolerates a torn final line
//   - Rewrite: temp file + fsync + rename, used by compaction
package wal
