// Package tts 实现多后端语音合成：统一的引擎接口、
// 按优先级加载的引擎注册表，以及各第三方后端的适配器。
package tts

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Engine 定义语音合成后端的统一接口。
type Engine interface {
	// ID 返回引擎标识，用于配置、语音包映射和日志。
	ID() string

	// Name 返回人类可读的引擎描述。
	Name() string

	// Load 初始化引擎（检查依赖、模型文件、凭证等）。
	// 失败返回错误；加载结果由注册表记录，进程内不会重试。
	Load(ctx context.Context) error

	// Synthesize 将文本合成为单声道 float32 音频样本。
	Synthesize(ctx context.Context, req Request) (*Result, error)
}

// LoadState 引擎加载状态。进程生命周期内
// NOT_ATTEMPTED -> LOADED 或 NOT_ATTEMPTED -> FAILED，均为终态。
type LoadState int

const (
	StateNotAttempted LoadState = iota
	StateLoaded
	StateFailed
)

func (s LoadState) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return "not-attempted"
	}
}

// Request 一次合成请求的参数。
type Request struct {
	Text      string
	VoicePack string
	Speed     float64 // 语速因子 0.5-2.0，1.0 为正常
	Pitch     int     // 音调偏移（半音）-12~12
	Energy    float64 // 音量因子 0.1-2.0，1.0 为正常
}

// Normalize 填充零值默认参数并把各参数钳位到支持范围。
func (r Request) Normalize() Request {
	if r.VoicePack == "" {
		r.VoicePack = "default"
	}
	if r.Speed == 0 {
		r.Speed = 1.0
	}
	if r.Energy == 0 {
		r.Energy = 1.0
	}
	if r.Speed < 0.5 {
		r.Speed = 0.5
	} else if r.Speed > 2.0 {
		r.Speed = 2.0
	}
	if r.Pitch < -12 {
		r.Pitch = -12
	} else if r.Pitch > 12 {
		r.Pitch = 12
	}
	if r.Energy < 0.1 {
		r.Energy = 0.1
	} else if r.Energy > 2.0 {
		r.Energy = 2.0
	}
	return r
}

// Result 一次合成的输出：归一化到 [-1,1] 的单声道样本和采样率。
type Result struct {
	Samples    []float32
	SampleRate int
}

// Duration 返回音频时长。
func (r *Result) Duration() time.Duration {
	if r == nil || r.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(r.Samples)) / float64(r.SampleRate) * float64(time.Second))
}

// EngineInfo 引擎描述信息，供 CLI 展示。
type EngineInfo struct {
	ID    string
	Name  string
	State LoadState
}

var (
	// ErrEngineUnavailable 请求的引擎未成功加载。
	ErrEngineUnavailable = errors.New("引擎不可用")
	// ErrNoEngineLoaded 没有任何引擎加载成功。
	ErrNoEngineLoaded = errors.New("没有可用的合成引擎")
	// ErrEmptyText 合成文本为空。
	ErrEmptyText = errors.New("合成文本不能为空")
	// ErrEmptyAudio 后端返回了空音频。
	ErrEmptyAudio = errors.New("后端未返回音频数据")
)

// IsNetworkError 判断是否为网络错误（可重试）。
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())

	networkErrors := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"eof",
	}

	for _, pattern := range networkErrors {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// IsQuotaExhaustedError 判断是否为云服务额度耗尽错误（不可重试）。
func IsQuotaExhaustedError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()

	quotaErrors := []string{
		"ResourceInsufficient",
		"QuotaExhausted",
		"InvalidParameter.Resource",
	}

	for _, code := range quotaErrors {
		if strings.Contains(errStr, code) {
			return true
		}
	}
	return false
}
