// Package keys derives stable cache keys from function call arguments.
//
// The same logical call always yields the same key: keyword arguments are
// sorted by name, nested maps are sorted by key, and every argument carries
// its Go type so that 1 and "1" never collide.
package keys

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
)

// typed is one canonicalized argument.
type typed struct {
	T string          `json:"t"`
	V json.RawMessage `json:"v"`
}

// Make returns the canonical key for a call with positional args and keyword
// args kwargs. The result is itself a JSON document, so it is unambiguous.
//
// Arguments must be JSON-encodable. Functions, channels, NaN and cyclic
// values return an error rather than a key that could collide.
func Make(args []any, kwargs map[string]any) (string, error) {
	positional := make([]typed, 0, len(args))
	for i, a := range args {
		t, err := canonical(a)
		if err != nil {
			return "", fmt.Errorf("keys: argument %d: %w", i, err)
		}
		positional = append(positional, t)
	}

	names := make([]string, 0, len(kwargs))
	for name := range kwargs {
		names = append(names, name)
	}
	sort.Strings(names)

	keyword := make([][2]any, 0, len(names))
	for _, name := range names {
		t, err := canonical(kwargs[name])
		if err != nil {
			return "", fmt.Errorf("keys: argument %q: %w", name, err)
		}
		keyword = append(keyword, [2]any{name, t})
	}

	data, err := json.Marshal([2]any{positional, keyword})
	if err != nil {
		return "", fmt.Errorf("keys: %w", err)
	}
	return string(data), nil
}

// For returns a bounded-length key for a call to the function named fn:
// the name followed by the hash of Make(args, kwargs).
func For(fn string, args []any, kwargs map[string]any) (string, error) {
	k, err := Make(args, kwargs)
	if err != nil {
		return "", err
	}
	return fn + ":" + Hash(k), nil
}

// Hash converts a string into a fixed-width hex digest.
// FNV is a fast, non-cryptographic hash; keys are not a security boundary.
func Hash(s string) string {
	h := fnv.New64a()
	h.Write([]byte(s))
	return strconv.FormatUint(h.Sum64(), 16)
}

func canonical(v any) (typed, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return typed{}, fmt.Errorf("%T cannot be canonicalized: %w", v, err)
	}
	return typed{T: fmt.Sprintf("%T", v), V: raw}, nil
}
