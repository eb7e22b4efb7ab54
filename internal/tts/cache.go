package tts

import (
	"crypto/sha1"
	"fmt"
	"sync"
	"time"

	"github.com/iabetor/voxkit/internal/logger"
)

// resultCache 合成结果的内存 LRU 缓存。
// 读写路径都由同一把锁保护；容量超限时淘汰最久未访问的条目。
type resultCache struct {
	mu         sync.Mutex
	maxEntries int
	entries    map[string]*cacheEntry
}

type cacheEntry struct {
	result   *Result
	lastUsed time.Time
}

// newResultCache 创建结果缓存，maxEntries <= 0 表示禁用。
func newResultCache(maxEntries int) *resultCache {
	return &resultCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*cacheEntry),
	}
}

// cacheKey 由引擎和全部请求参数构成，任一参数不同即视为不同条目。
func cacheKey(engineID string, req Request) string {
	h := sha1.Sum([]byte(fmt.Sprintf("%s|%s|%s|%.3f|%d|%.3f",
		engineID, req.VoicePack, req.Text, req.Speed, req.Pitch, req.Energy)))
	return fmt.Sprintf("%x", h)
}

// get 查找缓存，命中时刷新访问时间。
func (c *resultCache) get(key string) (*Result, bool) {
	if c.maxEntries <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry.lastUsed = time.Now()
	return entry.result, true
}

// put 写入缓存，容量超限时先淘汰最久未访问的条目。
func (c *resultCache) put(key string, result *Result) {
	if c.maxEntries <= 0 || result == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxEntries {
		var oldestKey string
		var oldest time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.lastUsed.Before(oldest) {
				oldestKey = k
				oldest = e.lastUsed
			}
		}
		delete(c.entries, oldestKey)
		logger.Debugf("[tts] 缓存已满，淘汰最久未使用条目")
	}

	c.entries[key] = &cacheEntry{result: result, lastUsed: time.Now()}
}

// len 返回当前条目数。
func (c *resultCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
