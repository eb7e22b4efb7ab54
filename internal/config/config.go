package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 是 voxkit 的顶层配置结构。
type Config struct {
	Model      ModelConfig           `yaml:"model"`
	Audio      AudioConfig           `yaml:"audio"`
	TTS        TTSConfig             `yaml:"tts"`
	VoicePacks map[string]PackConfig `yaml:"voice_packs"`
	Translate  TranslateConfig       `yaml:"translate"`
	Cache      CacheConfig           `yaml:"cache"`
	History    HistoryConfig         `yaml:"history"`
	Batch      BatchConfig           `yaml:"batch"`
	Log        LogConfig             `yaml:"log"`
}

// ModelConfig 本地生成式模型配置（sherpa-onnx VITS 模型目录）。
type ModelConfig struct {
	Dir        string `yaml:"dir"`
	NumThreads int    `yaml:"num_threads"`
}

// AudioConfig 音频输出配置。
type AudioConfig struct {
	// SampleRate 保存 WAV 时的目标采样率，引擎输出会重采样到此值。
	// 设为 0 表示保留引擎原始采样率。
	SampleRate int `yaml:"sample_rate"`
	Channels   int `yaml:"channels"`
}

// TTSConfig 语音合成配置。
type TTSConfig struct {
	// Priority 引擎尝试顺序，第一个加载成功的成为默认引擎。
	Priority []string      `yaml:"priority"`
	Edge     EdgeConfig    `yaml:"edge"`
	Tencent  TencentConfig `yaml:"tencent"`
	GTTS     GTTSConfig    `yaml:"gtts"`
	Say      SayConfig     `yaml:"say"`
	Retry    RetryConfig   `yaml:"retry"`
}

// EdgeConfig Edge TTS 配置。
type EdgeConfig struct {
	Voice string `yaml:"voice"`
}

// TencentConfig 腾讯云 TTS 配置。
type TencentConfig struct {
	SecretID  string `yaml:"secret_id"`
	SecretKey string `yaml:"secret_key"`
	VoiceType int64  `yaml:"voice_type"`
	Region    string `yaml:"region"`
}

// GTTSConfig Google 翻译 TTS 配置。
type GTTSConfig struct {
	Lang string `yaml:"lang"`
	TLD  string `yaml:"tld"`
	// RequestsPerMinute 客户端限速，避免被服务端封禁。
	RequestsPerMinute int `yaml:"requests_per_minute"`
}

// SayConfig macOS say 配置。
type SayConfig struct {
	Voice string `yaml:"voice"`
}

// RetryConfig 合成重试策略配置，在注册表层统一应用。
type RetryConfig struct {
	MaxAttempts    int     `yaml:"max_attempts"`
	InitialDelayMs int     `yaml:"initial_delay_ms"`
	BackoffFactor  float64 `yaml:"backoff_factor"`
}

// PackConfig 语音包定义。
type PackConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Gender      string `yaml:"gender"`
	Style       string `yaml:"style"`
	Emotion     string `yaml:"emotion"`
	// Engines 引擎特定的语音标识映射，如 edge -> zh-CN-XiaoxiaoNeural。
	Engines map[string]string `yaml:"engines"`
}

// TranslateConfig 腾讯云机器翻译配置（合成前翻译）。
type TranslateConfig struct {
	SecretID  string `yaml:"secret_id"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
}

// CacheConfig 合成结果缓存配置。
type CacheConfig struct {
	// MaxEntries 最大缓存条目数。未设置或为 0 时使用默认值 100，
	// 负值禁用缓存。
	MaxEntries int `yaml:"max_entries"`
}

// HistoryConfig 合成历史记录配置。
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// BatchConfig 批量处理配置。
type BatchConfig struct {
	OutputDir string `yaml:"output_dir"`
}

// LogConfig 日志配置。
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
}

// Load 读取 YAML 配置文件并返回 Config。
// 文件不存在时返回内置默认配置。
// 支持 ${VAR_NAME} 形式的环境变量展开。
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			setDefaults(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	// 展开环境变量，如 ${VOXKIT_TENCENT_SECRET_KEY}
	expanded := os.Expand(string(data), func(key string) string {
		return os.Getenv(key)
	})

	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}

	setDefaults(cfg)
	return cfg, nil
}

// setDefaults 为未设置的配置项填充默认值。
func setDefaults(cfg *Config) {
	if cfg.Model.Dir == "" {
		cfg.Model.Dir = "models/vits-zh"
	}
	if cfg.Model.NumThreads == 0 {
		cfg.Model.NumThreads = 2
	}
	if cfg.Audio.Channels == 0 {
		cfg.Audio.Channels = 1
	}
	if len(cfg.TTS.Priority) == 0 {
		cfg.TTS.Priority = []string{"edge", "gtts", "say", "cosy"}
	}
	if cfg.TTS.Edge.Voice == "" {
		cfg.TTS.Edge.Voice = "zh-CN-XiaoxiaoNeural"
	}
	if cfg.TTS.Tencent.VoiceType == 0 {
		cfg.TTS.Tencent.VoiceType = 1001
	}
	if cfg.TTS.Tencent.Region == "" {
		cfg.TTS.Tencent.Region = "ap-guangzhou"
	}
	if cfg.TTS.GTTS.Lang == "" {
		cfg.TTS.GTTS.Lang = "zh-CN"
	}
	if cfg.TTS.GTTS.TLD == "" {
		cfg.TTS.GTTS.TLD = "com"
	}
	if cfg.TTS.GTTS.RequestsPerMinute == 0 {
		cfg.TTS.GTTS.RequestsPerMinute = 50
	}
	if cfg.TTS.Retry.MaxAttempts == 0 {
		cfg.TTS.Retry.MaxAttempts = 3
	}
	if cfg.TTS.Retry.InitialDelayMs == 0 {
		cfg.TTS.Retry.InitialDelayMs = 500
	}
	if cfg.TTS.Retry.BackoffFactor == 0 {
		cfg.TTS.Retry.BackoffFactor = 2.0
	}
	if cfg.Translate.Region == "" {
		cfg.Translate.Region = "ap-guangzhou"
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = 100
	}
	if cfg.Batch.OutputDir == "" {
		cfg.Batch.OutputDir = "batch_output"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if cfg.History.Path == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			cfg.History.Path = filepath.Join(home, ".voxkit", "voxkit.db")
		} else {
			cfg.History.Path = "./voxkit.db"
		}
	} else if strings.HasPrefix(cfg.History.Path, "~/") {
		home, _ := os.UserHomeDir()
		if home != "" {
			cfg.History.Path = filepath.Join(home, cfg.History.Path[2:])
		}
	}
}
