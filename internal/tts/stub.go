package tts

import (
	"context"

	"github.com/iabetor/voxkit/internal/logger"
)

// stubSampleRate 是占位引擎的固定采样率。
const stubSampleRate = 16000

// StubEngine 是满足 Engine 接口的空实现：总能加载成功，
// 输出时长确定的静音。用于测试和所有真实后端都不可用时的
// 显式兜底（需在配置的 priority 列表中显式启用）。
type StubEngine struct{}

// NewStubEngine 创建占位引擎。
func NewStubEngine() *StubEngine {
	return &StubEngine{}
}

func (s *StubEngine) ID() string   { return "stub" }
func (s *StubEngine) Name() string { return "占位引擎 (静音输出)" }

// Load 永远成功。
func (s *StubEngine) Load(ctx context.Context) error {
	logger.Warn("[tts] 占位引擎已启用，输出为静音")
	return nil
}

// Synthesize 输出静音。时长由文本长度和语速确定：
// 每个字符 120ms，除以语速因子。相同请求的输出完全一致。
func (s *StubEngine) Synthesize(ctx context.Context, req Request) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	req = req.Normalize()
	runes := len([]rune(req.Text))
	if runes == 0 {
		return nil, ErrEmptyText
	}

	perRuneMs := 120.0 / req.Speed
	numSamples := int(float64(runes) * perRuneMs / 1000.0 * stubSampleRate)
	if numSamples < 1 {
		numSamples = 1
	}

	return &Result{
		Samples:    make([]float32, numSamples),
		SampleRate: stubSampleRate,
	}, nil
}
