package tts

import (
	"fmt"
	"testing"
)

func TestResultCache_GetPut(t *testing.T) {
	c := newResultCache(10)
	key := cacheKey("stub", Request{Text: "你好", VoicePack: "default", Speed: 1.0, Energy: 1.0})

	if _, ok := c.get(key); ok {
		t.Fatal("空缓存不应命中")
	}

	res := &Result{Samples: make([]float32, 100), SampleRate: 16000}
	c.put(key, res)

	got, ok := c.get(key)
	if !ok {
		t.Fatal("写入后应命中")
	}
	if got != res {
		t.Error("应返回同一结果")
	}
}

func TestResultCache_Disabled(t *testing.T) {
	for _, maxEntries := range []int{0, -1} {
		c := newResultCache(maxEntries)
		key := cacheKey("stub", Request{Text: "x"})
		c.put(key, &Result{Samples: []float32{0}, SampleRate: 16000})
		if _, ok := c.get(key); ok {
			t.Errorf("maxEntries=%d 的缓存不应命中", maxEntries)
		}
		if c.len() != 0 {
			t.Errorf("maxEntries=%d 的缓存不应有条目: %d", maxEntries, c.len())
		}
	}
}

func TestResultCache_EvictsWhenFull(t *testing.T) {
	c := newResultCache(3)
	res := &Result{Samples: []float32{0}, SampleRate: 16000}
	for i := 0; i < 5; i++ {
		c.put(fmt.Sprintf("key-%d", i), res)
	}
	if c.len() != 3 {
		t.Errorf("条目数不应超过容量: got %d, want 3", c.len())
	}
}

func TestCacheKey_DistinguishesParams(t *testing.T) {
	base := Request{Text: "你好", VoicePack: "default", Speed: 1.0, Pitch: 0, Energy: 1.0}
	baseKey := cacheKey("edge", base)

	variants := []Request{
		{Text: "你好吗", VoicePack: "default", Speed: 1.0, Pitch: 0, Energy: 1.0},
		{Text: "你好", VoicePack: "female", Speed: 1.0, Pitch: 0, Energy: 1.0},
		{Text: "你好", VoicePack: "default", Speed: 1.5, Pitch: 0, Energy: 1.0},
		{Text: "你好", VoicePack: "default", Speed: 1.0, Pitch: 3, Energy: 1.0},
		{Text: "你好", VoicePack: "default", Speed: 1.0, Pitch: 0, Energy: 0.5},
	}
	for i, v := range variants {
		if cacheKey("edge", v) == baseKey {
			t.Errorf("变体 %d 的键不应与基准相同", i)
		}
	}

	if cacheKey("gtts", base) == baseKey {
		t.Error("不同引擎的键不应相同")
	}
	if cacheKey("edge", base) != baseKey {
		t.Error("相同请求的键应稳定")
	}
}
