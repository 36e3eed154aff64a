package keys

import (
	"math"
	"testing"
)

func mustMake(t *testing.T, args []any, kwargs map[string]any) string {
	t.Helper()
	k, err := Make(args, kwargs)
	if err != nil {
		t.Fatalf("make: %v", err)
	}
	return k
}

func TestMake_KeywordOrderDoesNotMatter(t *testing.T) {
	a := mustMake(t, nil, map[string]any{"a": 1, "b": 2})
	b := mustMake(t, nil, map[string]any{"b": 2, "a": 1})
	if a != b {
		t.Fatalf("expected equal keys, got %q and %q", a, b)
	}
}

func TestMake_NestedMapsAreSorted(t *testing.T) {
	a := mustMake(t, []any{map[string]any{"x": 1, "y": []int{1, 2}}}, nil)
	b := mustMake(t, []any{map[string]any{"y": []int{1, 2}, "x": 1}}, nil)
	if a != b {
		t.Fatalf("expected equal keys, got %q and %q", a, b)
	}
}

func TestMake_UnhashableValuesAreSupported(t *testing.T) {
	a := mustMake(t, []any{[]int{1, 2}}, nil)
	if a != mustMake(t, []any{[]int{1, 2}}, nil) {
		t.Fatal("slices must produce stable keys")
	}
	if a == mustMake(t, []any{[]int{2, 1}}, nil) {
		t.Fatal("slice order must matter")
	}
}

func TestMake_TypesAreDistinguished(t *testing.T) {
	cases := [][2][]any{
		{{1}, {"1"}},
		{{1}, {int64(1)}},
		{{[]int{1}}, {[]string{"1"}}},
		{{"a", "b"}, {"a,b"}},
	}
	for _, c := range cases {
		if mustMake(t, c[0], nil) == mustMake(t, c[1], nil) {
			t.Errorf("%v and %v must not collide", c[0], c[1])
		}
	}
}

func TestMake_PositionalAndKeywordDiffer(t *testing.T) {
	pos := mustMake(t, []any{1, 2}, nil)
	kw := mustMake(t, nil, map[string]any{"a": 1, "b": 2})
	if pos == kw {
		t.Fatal("positional and keyword calls are different argument shapes")
	}
}

type user struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestMake_StructsUseAllFields(t *testing.T) {
	a := mustMake(t, []any{user{ID: 1, Name: "Alice"}}, nil)
	b := mustMake(t, []any{user{ID: 1, Name: "Bob"}}, nil)
	if a == b {
		t.Fatal("users with different names must not collide")
	}
}

func TestMake_RejectsUnencodableValues(t *testing.T) {
	bad := []any{func() {}, make(chan int), math.NaN()}
	for _, v := range bad {
		if _, err := Make([]any{v}, nil); err == nil {
			t.Errorf("expected error for %T", v)
		}
		if _, err := Make(nil, map[string]any{"v": v}); err == nil {
			t.Errorf("expected error for keyword %T", v)
		}
	}
}

func TestFor_IsStableAndPrefixed(t *testing.T) {
	a, err := For("add", []any{1}, map[string]any{"b": 2})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := For("add", []any{1}, map[string]any{"b": 2})
	c, _ := For("sub", []any{1}, map[string]any{"b": 2})
	if a != b {
		t.Fatalf("expected stable key, got %q and %q", a, b)
	}
	if a == c || a[:4] != "add:" {
		t.Fatalf("expected function name prefix, got %q and %q", a, c)
	}
}

func TestHash_FixedAlphabet(t *testing.T) {
	if Hash("x") != Hash("x") || Hash("x") == Hash("y") {
		t.Fatal("hash must be deterministic and discriminate simple inputs")
	}
}
