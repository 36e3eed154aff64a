package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	cache "github.com/krisalay/durable-lru-cache"
	"github.com/krisalay/durable-lru-cache/config"
	"github.com/krisalay/durable-lru-cache/keys"
	"github.com/krisalay/durable-lru-cache/types"
)

// ================= METRICS =================
type Metrics struct {
	mu          sync.Mutex
	hits        int
	misses      int
	evictions   int
	appends     int
	compactions int
	corrupt     int
}

func (m *Metrics) Hit()        { m.mu.Lock(); m.hits++; m.mu.Unlock() }
func (m *Metrics) Miss()       { m.mu.Lock(); m.misses++; m.mu.Unlock() }
func (m *Metrics) Eviction()   { m.mu.Lock(); m.evictions++; m.mu.Unlock() }
func (m *Metrics) Append()     { m.mu.Lock(); m.appends++; m.mu.Unlock() }
func (m *Metrics) Compaction() { m.mu.Lock(); m.compactions++; m.mu.Unlock() }
func (m *Metrics) Corrupt()    { m.mu.Lock(); m.corrupt++; m.mu.Unlock() }

func (m *Metrics) Print() {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Println("\n==================== METRICS ====================")
	fmt.Printf("HITS        : %d\n", m.hits)
	fmt.Printf("MISSES      : %d\n", m.misses)
	fmt.Printf("EVICTIONS   : %d\n", m.evictions)
	fmt.Printf("APPENDS     : %d\n", m.appends)
	fmt.Printf("COMPACTIONS : %d\n", m.compactions)
	fmt.Printf("CORRUPT     : %d\n", m.corrupt)
}

// ================= SLOW FUNCTION =================

// slowSquare stands in for an expensive computation worth memoizing.
func slowSquare(ctx context.Context, n int) (int, error) {
	select {
	case <-time.After(200 * time.Millisecond):
		return n * n, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// ================= MAIN =================

func main() {
	configPath := flag.String("config", "cache.yaml", "path to YAML config")
	keep := flag.Bool("keep", false, "keep an existing log instead of starting fresh")
	flag.Parse()

	if err := run(*configPath, *keep); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(configPath string, keep bool) error {
	ctx := context.Background()

	fileCfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := fileCfg.Logger()

	cfg, err := fileCfg.CacheConfig(logger)
	if err != nil {
		return err
	}
	metrics := &Metrics{}
	cfg.Metrics = metrics

	if !keep {
		os.Remove(cfg.LogPath)
	}

	fmt.Println("\n==================== SYSTEM BOOT ====================")

	// ---------------- System Config ----------------
	fmt.Println("EVICTION POLICY : LRU")
	fmt.Println("CAPACITY        :", cfg.Capacity)
	fmt.Println("LOG FILE        :", cfg.LogPath)
	fmt.Println("SYNC            :", fileCfg.Sync)
	fmt.Println("RECENCY         :", fileCfg.Recency)

	c, err := cache.New[int](cfg)
	if err != nil {
		return err
	}

	// ====================================================
	fmt.Println("\n==================== 1) OPERATIONS ====================")

	for i, k := range []string{"A", "B", "C"} {
		c.Put(k, i+1)
		fmt.Printf("CACHE  → PUT %s = %d\n", k, i+1)
	}
	v, _, _ := c.Get("A")
	fmt.Println("CACHE  → GET A =", v)
	c.Put("D", 4)
	fmt.Println("CACHE  → PUT D = 4")

	_, ok, _ := c.Get("B")
	fmt.Println("CACHE  → GET B found =", ok)
	fmt.Println("CACHE  → ORDER (LRU → MRU) =", c.Keys())

	// ====================================================
	fmt.Println("\n==================== 2) CRASH & RECOVERY ====================")

	before := c.Keys()
	c.Close()

	// A crash mid-write leaves a partial record at the end of the log.
	if f, err := os.OpenFile(cfg.LogPath, os.O_APPEND|os.O_WRONLY, 0); err == nil {
		f.WriteString(`{"op":"PUT","key":"E","val`)
		f.Close()
		fmt.Println("SYSTEM → simulated crash during write")
	}

	c, err = cache.New[int](cfg)
	if err != nil {
		return err
	}
	fmt.Println("SYSTEM → order before crash =", before)
	fmt.Println("SYSTEM → order after replay =", c.Keys())

	// ====================================================
	fmt.Println("\n==================== 3) COMPACTION ====================")

	for i := 0; i < 20; i++ {
		c.Get("C")
		c.Get("A")
	}
	stats := c.Stats()
	fmt.Printf("LOG    → before: %d records, %d bytes\n", stats.LogRecords, stats.LogBytes)

	if err := c.Compact(); err != nil {
		return err
	}
	stats = c.Stats()
	fmt.Printf("LOG    → after : %d records, %d bytes\n", stats.LogRecords, stats.LogBytes)
	fmt.Println("CACHE  → ORDER (LRU → MRU) =", c.Keys())

	// ====================================================
	fmt.Println("\n==================== 4) MEMOIZATION ====================")

	key, err := keys.For("slowSquare", []any{12}, nil)
	if err != nil {
		return err
	}
	loader := types.LoaderFunc[int](func(ctx context.Context, _ string) (int, error) {
		fmt.Println("LOADER → computing slowSquare(12)")
		return slowSquare(ctx, 12)
	})

	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			val, err := c.GetOrLoad(ctx, key, loader)
			fmt.Printf("GOROUTINE-%d → slowSquare(12) = %v err=%v\n", id, val, err)
		}(i)
	}
	wg.Wait()

	start := time.Now()
	val, _ := c.GetOrLoad(ctx, key, loader)
	fmt.Printf("CACHE  → slowSquare(12) = %d in %v (cached)\n", val, time.Since(start))

	// ====================================================
	metrics.Print()

	// ====================================================
	fmt.Println("\n==================== SHUTDOWN ====================")
	if err := c.Close(); err != nil {
		return err
	}
	if err := c.Err(); err != nil {
		fmt.Println("SYSTEM → cache degraded:", err)
	}
	fmt.Println("SYSTEM → cache closed cleanly")
	return nil
}
