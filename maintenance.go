package cache

import (
	"errors"
	"time"
)

// compactionLoop periodically rewrites the log while it holds redundant history.
//
// This is the only way recency reaches the log under RecencyOnCompact.
func (c *DurableCache[V]) compactionLoop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.CompactInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if err := c.compactIfNeeded(); err != nil && !errors.Is(err, ErrClosed) {
				c.logger.Error("background compaction failed", "err", err)
			}
		}
	}
}

func (c *DurableCache[V]) compactIfNeeded() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if !c.needsCompactionLocked() {
		return nil
	}
	return c.compactLocked()
}
