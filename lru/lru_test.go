package lru

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/krisalay/durable-lru-cache/types"
)

func mustNew(t *testing.T, capacity int) *Core[int] {
	t.Helper()
	c, err := New[int](capacity)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return c
}

func TestNew_RejectsNonPositiveCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1, -100} {
		if _, err := New[int](capacity); err != ErrInvalidCapacity {
			t.Errorf("capacity %d: expected ErrInvalidCapacity, got %v", capacity, err)
		}
	}
}

func TestGet_PromotesKey(t *testing.T) {
	c := mustNew(t, 3)
	c.Put("A", 1)
	c.Put("B", 2)
	c.Put("C", 3)

	if v, ok := c.Get("A"); !ok || v != 1 {
		t.Fatalf("expected A=1, got %v ok=%v", v, ok)
	}

	// A is now most recent, so inserting D must evict B.
	evicted, ok := c.Put("D", 4)
	if !ok || evicted.Key != "B" || evicted.Value != 2 {
		t.Fatalf("expected B to be evicted, got %+v ok=%v", evicted, ok)
	}

	if got, want := c.Keys(), []string{"C", "A", "D"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected keys %v, got %v", want, got)
	}
}

func TestGet_MissingKeyIsNotAnError(t *testing.T) {
	c := mustNew(t, 2)
	c.Put("A", 1)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected missing key to report ok=false")
	}
	if got := c.Keys(); !reflect.DeepEqual(got, []string{"A"}) {
		t.Fatalf("order changed on miss: %v", got)
	}
}

func TestPeek_DoesNotPromote(t *testing.T) {
	c := mustNew(t, 2)
	c.Put("A", 1)
	c.Put("B", 2)

	if v, ok := c.Peek("A"); !ok || v != 1 {
		t.Fatalf("expected A=1, got %v", v)
	}

	evicted, _ := c.Put("C", 3)
	if evicted.Key != "A" {
		t.Fatalf("Peek must not promote; expected A evicted, got %q", evicted.Key)
	}
}

func TestPut_ReinsertionRelocatesWithoutDuplicate(t *testing.T) {
	c := mustNew(t, 5)
	c.Put("A", 1)
	c.Put("B", 2)
	if _, ok := c.Put("A", 3); ok {
		t.Fatal("updating an existing key must not evict")
	}

	want := []types.Entry[int]{{Key: "B", Value: 2}, {Key: "A", Value: 3}}
	if got := c.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected snapshot %v, got %v", want, got)
	}
	if c.Len() != 2 {
		t.Fatalf("expected len 2, got %d", c.Len())
	}
}

func TestPut_UpdateAtCapacityDoesNotEvict(t *testing.T) {
	c := mustNew(t, 2)
	c.Put("A", 1)
	c.Put("B", 2)

	if _, ok := c.Put("A", 10); ok {
		t.Fatal("update at capacity must not evict")
	}
	if c.Len() != 2 {
		t.Fatalf("expected len 2, got %d", c.Len())
	}
}

func TestPut_CapacityOne(t *testing.T) {
	c := mustNew(t, 1)
	c.Put("A", 1)
	evicted, ok := c.Put("B", 2)
	if !ok || evicted.Key != "A" {
		t.Fatalf("expected A evicted, got %+v", evicted)
	}
	if got := c.Keys(); !reflect.DeepEqual(got, []string{"B"}) {
		t.Fatalf("expected [B], got %v", got)
	}
}

func TestDelete(t *testing.T) {
	c := mustNew(t, 3)
	c.Put("A", 1)
	c.Put("B", 2)
	c.Put("C", 3)

	if !c.Delete("B") {
		t.Fatal("expected B to be deleted")
	}
	if c.Delete("B") {
		t.Fatal("second delete must report absence")
	}
	if c.Delete("nope") {
		t.Fatal("deleting a missing key must be a no-op")
	}

	if got := c.Keys(); !reflect.DeepEqual(got, []string{"A", "C"}) {
		t.Fatalf("expected [A C], got %v", got)
	}

	// Delete head and tail, then make sure the list still links correctly.
	c.Delete("A")
	c.Delete("C")
	if c.Len() != 0 || len(c.Keys()) != 0 {
		t.Fatalf("expected empty core, got %v", c.Keys())
	}
	c.Put("D", 4)
	if got := c.Keys(); !reflect.DeepEqual(got, []string{"D"}) {
		t.Fatalf("expected [D], got %v", got)
	}
}

func TestSizeNeverExceedsCapacity(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for capacity := 1; capacity <= 8; capacity++ {
		c := mustNew(t, capacity)
		for i := 0; i < 2000; i++ {
			key := fmt.Sprintf("k%d", rng.Intn(20))
			switch rng.Intn(3) {
			case 0:
				c.Put(key, i)
			case 1:
				c.Get(key)
			case 2:
				c.Delete(key)
			}
			if c.Len() > capacity {
				t.Fatalf("capacity %d: size %d after op %d", capacity, c.Len(), i)
			}
			if len(c.Keys()) != c.Len() {
				t.Fatalf("capacity %d: list and index disagree", capacity)
			}
		}
	}
}
