package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cache "github.com/krisalay/durable-lru-cache"
	"github.com/krisalay/durable-lru-cache/wal"
	"golang.org/x/sync/errgroup"
)

// ================= BENCHMARK =================

func main() {
	synced := flag.Bool("sync", false, "fsync every append")
	flag.Parse()

	if err := run(*synced); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(synced bool) error {
	// ---------------- Cache Config ----------------
	const (
		capacity    = 200000
		preloadKeys = 100000
		goroutines  = 200
		opsPerG     = 5000
	)

	dir, err := os.MkdirTemp("", "cache-bench")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	cfg := cache.DefaultConfig(capacity, filepath.Join(dir, "bench.jsonl"))
	cfg.SyncMode = wal.SyncNone
	if synced {
		cfg.SyncMode = wal.SyncAlways
	}

	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")

	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Capacity     :", capacity)
	fmt.Println("Preload Keys :", preloadKeys)
	fmt.Println("Goroutines   :", goroutines)
	fmt.Println("Ops/Goroutine:", opsPerG)
	fmt.Println("Fsync        :", synced)
	fmt.Println("---------------------------------")

	c, err := cache.New[int](cfg)
	if err != nil {
		return err
	}

	// ---------------- Preload Cache ----------------
	fmt.Println("Preloading cache...")
	for i := 0; i < preloadKeys; i++ {
		if err := c.Put(fmt.Sprintf("key-%d", i), i); err != nil {
			return err
		}
	}
	fmt.Println("Preload complete.")

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")

	start := time.Now()

	var g errgroup.Group
	for i := 0; i < goroutines; i++ {
		i := i
		g.Go(func() error {
			for j := 0; j < opsPerG; j++ {
				key := fmt.Sprintf("key-%d", (i*opsPerG+j)%preloadKeys)
				if j%10 == 0 {
					if err := c.Put(key, j); err != nil {
						return err
					}
					continue
				}
				if _, _, err := c.Get(key); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	duration := time.Since(start)
	totalOps := goroutines * opsPerG
	stats := c.Stats()

	// ---------------- Recovery ----------------
	if err := c.Close(); err != nil {
		return err
	}
	recoverStart := time.Now()
	c, err = cache.New[int](cfg)
	if err != nil {
		return err
	}
	recoverTime := time.Since(recoverStart)

	compactStart := time.Now()
	if err := c.Compact(); err != nil {
		return err
	}
	compactTime := time.Since(compactStart)
	after := c.Stats()
	c.Close()

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Printf("Log Records      : %d (%d bytes)\n", stats.LogRecords, stats.LogBytes)
	fmt.Printf("Recovery Time    : %v\n", recoverTime)
	fmt.Printf("Compaction Time  : %v\n", compactTime)
	fmt.Printf("Compacted Log    : %d records (%d bytes)\n", after.LogRecords, after.LogBytes)
	fmt.Println("=========================================")
	return nil
}
