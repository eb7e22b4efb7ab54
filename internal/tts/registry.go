package tts

import (
	"context"
	"fmt"
	"sync"

	"github.com/iabetor/voxkit/internal/logger"
)

// Registry 引擎注册表：持有按优先级排序的后端适配器，
// 负责逐个加载、记录加载状态，并把所有合成调用
// 转发给当前选中的引擎。
//
// 不变式：任一时刻至多一个引擎是当前引擎，且当前引擎必然处于
// loaded 状态；没有引擎加载成功时当前引擎显式为空。
type Registry struct {
	mu         sync.RWMutex
	candidates []Engine // 固定的优先级顺序
	byID       map[string]Engine
	states     map[string]LoadState
	current    string // 当前引擎 ID，"" 表示无

	retry RetryPolicy
	cache *resultCache
}

// NewRegistry 创建引擎注册表。candidates 顺序即加载优先级。
func NewRegistry(candidates []Engine, retry RetryPolicy, cacheEntries int) *Registry {
	byID := make(map[string]Engine, len(candidates))
	states := make(map[string]LoadState, len(candidates))
	for _, e := range candidates {
		byID[e.ID()] = e
		states[e.ID()] = StateNotAttempted
	}
	return &Registry{
		candidates: candidates,
		byID:       byID,
		states:     states,
		retry:      retry,
		cache:      newResultCache(cacheEntries),
	}
}

// InitializeAll 按优先级逐个尝试加载引擎。
// 单个引擎的加载失败只记录日志，不影响后续引擎；
// 第一个加载成功的引擎成为默认当前引擎。
// 所有引擎都失败时返回 ErrNoEngineLoaded。
func (r *Registry) InitializeAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	loaded := 0
	for _, engine := range r.candidates {
		id := engine.ID()
		if err := engine.Load(ctx); err != nil {
			r.states[id] = StateFailed
			logger.Warnf("[tts] ✗ %s 加载失败: %v", engine.Name(), err)
			continue
		}
		r.states[id] = StateLoaded
		loaded++
		logger.Infof("[tts] ✓ %s 加载成功", engine.Name())
		if r.current == "" {
			r.current = id
		}
	}

	if loaded == 0 {
		logger.Error("[tts] 没有可用的合成引擎")
		return ErrNoEngineLoaded
	}

	logger.Infof("[tts] 成功加载 %d/%d 个引擎，当前引擎: %s", loaded, len(r.candidates), r.current)
	return nil
}

// Select 切换当前引擎。目标引擎未成功加载时返回
// ErrEngineUnavailable，且不改变当前引擎。
func (r *Registry) Select(engineID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.states[engineID]
	if !ok {
		return fmt.Errorf("未知引擎 %s: %w", engineID, ErrEngineUnavailable)
	}
	if state != StateLoaded {
		return fmt.Errorf("引擎 %s 状态为 %s: %w", engineID, state, ErrEngineUnavailable)
	}

	if r.current != engineID {
		logger.Infof("[tts] 切换引擎: %s -> %s", r.current, engineID)
		r.current = engineID
	}
	return nil
}

// Current 返回当前引擎 ID，没有已加载引擎时返回空字符串。
func (r *Registry) Current() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// State 返回指定引擎的加载状态，未知引擎返回 StateNotAttempted。
func (r *Registry) State(engineID string) LoadState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.states[engineID]
}

// Engines 按优先级顺序返回所有候选引擎的信息。
func (r *Registry) Engines() []EngineInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]EngineInfo, 0, len(r.candidates))
	for _, e := range r.candidates {
		infos = append(infos, EngineInfo{
			ID:    e.ID(),
			Name:  e.Name(),
			State: r.states[e.ID()],
		})
	}
	return infos
}

// Synthesize 通过当前引擎合成语音。
// 结果缓存命中时直接返回；否则在统一重试策略下调用后端。
// 失败时返回带原因的错误，调用方（CLI、批处理）决定如何呈现。
func (r *Registry) Synthesize(ctx context.Context, req Request) (*Result, error) {
	req = req.Normalize()
	if req.Text == "" {
		return nil, ErrEmptyText
	}

	r.mu.RLock()
	currentID := r.current
	engine := r.byID[currentID]
	r.mu.RUnlock()

	if currentID == "" || engine == nil {
		return nil, ErrNoEngineLoaded
	}

	key := cacheKey(currentID, req)
	if result, ok := r.cache.get(key); ok {
		logger.Debugf("[tts] 缓存命中: engine=%s, %d 个样本", currentID, len(result.Samples))
		return result, nil
	}

	var result *Result
	err := r.retry.Do(ctx, engine.Name(), func() error {
		res, synthErr := engine.Synthesize(ctx, req)
		if synthErr != nil {
			return synthErr
		}
		if res == nil || len(res.Samples) == 0 {
			return ErrEmptyAudio
		}
		if res.SampleRate <= 0 {
			return fmt.Errorf("后端返回无效采样率 %d", res.SampleRate)
		}
		result = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("引擎 %s 合成失败: %w", currentID, err)
	}

	r.cache.put(key, result)
	return result, nil
}

// Close 释放实现了 Close 的引擎持有的资源。
func (r *Registry) Close() {
	for _, e := range r.candidates {
		if c, ok := e.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
