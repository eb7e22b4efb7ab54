package tts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/time/rate"

	"github.com/iabetor/voxkit/internal/audio"
	"github.com/iabetor/voxkit/internal/config"
	"github.com/iabetor/voxkit/internal/logger"
	"github.com/iabetor/voxkit/internal/voicepack"
)

// GTTSEngine 使用 Google 翻译的 TTS 服务实现合成，
// 通过 gtts-cli 子进程获取 MP3，再用 go-mp3 解码为 PCM。
// 免费、无需密钥，但必须客户端限速，避免被服务端封禁。
type GTTSEngine struct {
	cfg     config.GTTSConfig
	packs   *voicepack.Mapper
	limiter *rate.Limiter
}

// NewGTTSEngine 创建 Google 翻译 TTS 引擎。
func NewGTTSEngine(cfg config.GTTSConfig, packs *voicepack.Mapper) *GTTSEngine {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 50
	}
	return &GTTSEngine{
		cfg:     cfg,
		packs:   packs,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
	}
}

func (e *GTTSEngine) ID() string   { return "gtts" }
func (e *GTTSEngine) Name() string { return "gTTS (Google 翻译语音)" }

// Load 检查 gtts-cli 是否已安装。
func (e *GTTSEngine) Load(ctx context.Context) error {
	if _, err := exec.LookPath("gtts-cli"); err != nil {
		return fmt.Errorf("未找到 gtts-cli（pip install gTTS）: %w", err)
	}
	return nil
}

// langTLD 返回语音包映射的 lang:tld 对，映射值非法时使用配置默认值。
func (e *GTTSEngine) langTLD(packID string) (string, string) {
	mapped := e.packs.Map("gtts", packID)
	if lang, tld, ok := strings.Cut(mapped, ":"); ok && lang != "" && tld != "" {
		return lang, tld
	}
	return e.cfg.Lang, e.cfg.TLD
}

// Synthesize 将文本合成为单声道 float32 音频样本。
func (e *GTTSEngine) Synthesize(ctx context.Context, req Request) (*Result, error) {
	// 限速等待，可被 ctx 取消
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	lang, tld := e.langTLD(req.VoicePack)
	logger.Debugf("[tts] gtts: 正在合成 %d 个字符，lang=%s tld=%s", len([]rune(req.Text)), lang, tld)

	tmpFile, err := os.CreateTemp("", "voxkit-gtts-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("创建临时文件失败: %w", err)
	}
	mp3Path := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(mp3Path)

	cmd := exec.CommandContext(ctx, "gtts-cli",
		"--lang", lang,
		"--tld", tld,
		"--output", mp3Path,
		req.Text,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr != "" {
			logger.Warnf("[tts] gtts-cli stderr: %s", stderrStr)
		}
		return nil, fmt.Errorf("gtts-cli 执行失败: %w", err)
	}

	mp3Data, err := os.ReadFile(mp3Path)
	if err != nil {
		return nil, fmt.Errorf("读取 gtts 输出失败: %w", err)
	}
	if len(mp3Data) == 0 {
		return nil, ErrEmptyAudio
	}

	samples, sampleRate, err := decodeMP3Mono(mp3Data)
	if err != nil {
		return nil, err
	}

	samples = audio.ApplyPlaybackParams(samples, req.Speed, req.Pitch, req.Energy)
	logger.Debugf("[tts] gtts: 生成 %d 个单声道样本，采样率 %d Hz", len(samples), sampleRate)

	return &Result{Samples: samples, SampleRate: sampleRate}, nil
}
