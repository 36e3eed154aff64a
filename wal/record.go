package wal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Op is the kind of a logged operation.
type Op string

const (
	// OpPut upserts a key and marks it most recently used.
	OpPut Op = "PUT"
	// OpGet marks an existing key most recently used. Absent keys are a no-op on replay.
	OpGet Op = "GET"
	// OpDel removes a key if present.
	OpDel Op = "DEL"
)

func (o Op) valid() bool {
	return o == OpPut || o == OpGet || o == OpDel
}

// Record is one logged operation. Value is raw JSON and is only carried by PUT.
type Record struct {
	Op    Op              `json:"op"`
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value,omitempty"`
}

// Put builds a PUT record.
func Put(key string, value json.RawMessage) Record {
	return Record{Op: OpPut, Key: key, Value: value}
}

// Get builds a GET record.
func Get(key string) Record {
	return Record{Op: OpGet, Key: key}
}

// Del builds a DEL record.
func Del(key string) Record {
	return Record{Op: OpDel, Key: key}
}

// CheckText reports whether key and an encoded value survive the log unchanged.
// encoding/json writes the escape \ufffd in place of every invalid UTF-8 byte,
// which would replay as a different key or value.
func CheckText(key string, value json.RawMessage) error {
	if !utf8.ValidString(key) {
		return fmt.Errorf("wal: key %q: %w", key, ErrInvalidUTF8)
	}
	if hasReplacementEscape(value) {
		return fmt.Errorf("wal: value for %q: %w", key, ErrInvalidUTF8)
	}
	return nil
}

// hasReplacementEscape finds a \ufffd escape whose backslash is not itself escaped.
func hasReplacementEscape(data []byte) bool {
	esc := []byte(`\ufffd`)
	for i := 0; ; {
		j := bytes.Index(data[i:], esc)
		if j < 0 {
			return false
		}
		at := i + j
		slashes := 0
		for k := at - 1; k >= 0 && data[k] == '\\'; k-- {
			slashes++
		}
		if slashes%2 == 0 {
			return true
		}
		i = at + 1
	}
}

// Encode serializes r to a single newline-terminated line.
// JSON escapes control characters, so keys and values containing newlines
// still produce exactly one line.
func Encode(r Record) ([]byte, error) {
	if !r.Op.valid() {
		return nil, fmt.Errorf("wal: encode: unknown op %q", r.Op)
	}
	if r.Op == OpPut {
		if len(r.Value) == 0 {
			return nil, fmt.Errorf("wal: encode: PUT %q without value", r.Key)
		}
	} else {
		r.Value = nil
	}
	if err := CheckText(r.Key, r.Value); err != nil {
		return nil, err
	}

	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("wal: encode %s %q: %w", r.Op, r.Key, err)
	}
	return append(data, '\n'), nil
}

// wireRecord uses pointers so a missing field can be told apart from a zero one.
type wireRecord struct {
	Op    *string         `json:"op"`
	Key   *string         `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Decode parses one line produced by Encode. It never panics: anything that
// is not a complete, well-formed record yields an error wrapping ErrCorruptRecord.
func Decode(line []byte) (Record, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Record{}, fmt.Errorf("%w: empty line", ErrCorruptRecord)
	}

	var w wireRecord
	if err := json.Unmarshal(line, &w); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if w.Op == nil || !Op(*w.Op).valid() {
		return Record{}, fmt.Errorf("%w: missing or unknown op", ErrCorruptRecord)
	}
	if w.Key == nil {
		return Record{}, fmt.Errorf("%w: missing key", ErrCorruptRecord)
	}

	r := Record{Op: Op(*w.Op), Key: *w.Key}
	if r.Op == OpPut {
		if len(w.Value) == 0 {
			return Record{}, fmt.Errorf("%w: PUT %q without value", ErrCorruptRecord, r.Key)
		}
		r.Value = w.Value
	}
	return r, nil
}
