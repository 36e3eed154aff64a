package cache_test

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	cache "github.com/krisalay/durable-lru-cache"
	"github.com/krisalay/durable-lru-cache/wal"
)

func newBenchmarkCache(b *testing.B, syncMode wal.SyncMode) *cache.DurableCache[int] {
	b.Helper()
	cfg := cache.DefaultConfig(
		100000, // capacity
		filepath.Join(b.TempDir(), "bench.jsonl"),
	)
	cfg.SyncMode = syncMode
	cfg.Logger = quiet

	c, err := cache.New[int](cfg)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { c.Close() })
	return c
}

//
// ================= SINGLE THREAD BENCH =================
//

func BenchmarkCacheGetHit(b *testing.B) {
	c := newBenchmarkCache(b, wal.SyncNone)

	c.Put("key", 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("key")
	}
}

func BenchmarkCacheGetMiss(b *testing.B) {
	c := newBenchmarkCache(b, wal.SyncNone)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := fmt.Sprintf("miss-%d", i)
		c.Get(key)
	}
}

func BenchmarkCachePeek(b *testing.B) {
	c := newBenchmarkCache(b, wal.SyncNone)

	c.Put("key", 1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Peek("key")
	}
}

//
// ================= PARALLEL BENCH =================
//

func BenchmarkCacheParallelGet(b *testing.B) {
	c := newBenchmarkCache(b, wal.SyncNone)

	for i := 0; i < 1000; i++ {
		c.Put(fmt.Sprintf("key-%d", i), i)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			c.Get("key-42")
		}
	})
}

//
// ================= WRITE BENCH =================
//

func BenchmarkCachePut(b *testing.B) {
	c := newBenchmarkCache(b, wal.SyncNone)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Put(fmt.Sprintf("key-%d", i), i)
	}
}

// Every append is fsynced; this is the durable write path.
func BenchmarkCachePutSynced(b *testing.B) {
	c := newBenchmarkCache(b, wal.SyncAlways)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Put(fmt.Sprintf("key-%d", i), i)
	}
}

//
// ================= RECOVERY & COMPACTION =================
//

func BenchmarkRecover(b *testing.B) {
	cfg := cache.DefaultConfig(1000, filepath.Join(b.TempDir(), "recover.jsonl"))
	cfg.SyncMode = wal.SyncNone
	cfg.Logger = quiet

	c, err := cache.New[int](cfg)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 10000; i++ {
		c.Put(fmt.Sprintf("key-%d", i%2000), i)
	}
	c.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c, err := cache.New[int](cfg)
		if err != nil {
			b.Fatal(err)
		}
		c.Close()
	}
}

func BenchmarkCompact(b *testing.B) {
	c := newBenchmarkCache(b, wal.SyncNone)
	for i := 0; i < 10000; i++ {
		c.Put(fmt.Sprintf("key-%d", i), i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := c.Compact(); err != nil {
			b.Fatal(err)
		}
	}
}

//
// ================= HIGH CONCURRENCY TEST =================
//

func BenchmarkCacheHighConcurrency(b *testing.B) {
	c := newBenchmarkCache(b, wal.SyncNone)

	keys := make([]string, 10000)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
		c.Put(keys[i], i)
	}

	b.ResetTimer()

	wg := sync.WaitGroup{}
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < b.N/100; j++ {
				c.Get(keys[j%len(keys)])
			}
		}(i)
	}
	wg.Wait()
}
