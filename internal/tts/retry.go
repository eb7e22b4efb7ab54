package tts

import (
	"context"
	"fmt"
	"time"

	"github.com/iabetor/voxkit/internal/config"
	"github.com/iabetor/voxkit/internal/logger"
)

// RetryPolicy 合成调用的重试策略。
// 在注册表层统一应用于所有引擎，只重试网络类错误；
// 额度耗尽等确定性失败立即返回。
type RetryPolicy struct {
	MaxAttempts   int           // 最大尝试次数（含首次）
	InitialDelay  time.Duration // 首次重试前的等待
	BackoffFactor float64       // 指数退避因子
}

// DefaultRetryPolicy 返回默认重试策略。
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   3,
		InitialDelay:  500 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

// RetryPolicyFromConfig 从配置构建重试策略，非法值回退到默认值。
func RetryPolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	p := DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.InitialDelayMs > 0 {
		p.InitialDelay = time.Duration(cfg.InitialDelayMs) * time.Millisecond
	}
	if cfg.BackoffFactor >= 1.0 {
		p.BackoffFactor = cfg.BackoffFactor
	}
	return p
}

// delay 返回第 attempt 次重试前的等待时间（attempt 从 1 开始）。
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.InitialDelay
	for i := 1; i < attempt; i++ {
		d = time.Duration(float64(d) * p.BackoffFactor)
	}
	return d
}

// Do 执行 fn，网络类错误按策略重试，其他错误立即返回。
func (p RetryPolicy) Do(ctx context.Context, name string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			d := p.delay(attempt - 1)
			logger.Warnf("[tts] %s 调用失败，%v 后第 %d 次重试: %v", name, d, attempt, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
			}
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !IsNetworkError(err) || IsQuotaExhaustedError(err) {
			return err
		}
	}

	return fmt.Errorf("%s 重试 %d 次后仍失败: %w", name, attempts, lastErr)
}
