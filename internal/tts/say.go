package tts

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/iabetor/voxkit/internal/audio"
	"github.com/iabetor/voxkit/internal/config"
	"github.com/iabetor/voxkit/internal/logger"
	"github.com/iabetor/voxkit/internal/voicepack"
)

// saySampleRate 是 afconvert 输出的采样率。
const saySampleRate = 22050

// SayEngine 使用 macOS 内置 say 命令实现合成，作为离线系统语音后端。
// 仅在 macOS 上可用。
type SayEngine struct {
	cfg   config.SayConfig
	packs *voicepack.Mapper
}

// NewSayEngine 创建 macOS say 引擎。
func NewSayEngine(cfg config.SayConfig, packs *voicepack.Mapper) *SayEngine {
	return &SayEngine{cfg: cfg, packs: packs}
}

func (s *SayEngine) ID() string   { return "say" }
func (s *SayEngine) Name() string { return "macOS say (离线系统语音)" }

// Load 检查运行平台和 say / afconvert 命令是否可用。
func (s *SayEngine) Load(ctx context.Context) error {
	if runtime.GOOS != "darwin" {
		return fmt.Errorf("say 引擎仅支持 macOS，当前平台: %s", runtime.GOOS)
	}
	if _, err := exec.LookPath("say"); err != nil {
		return fmt.Errorf("未找到 say 命令: %w", err)
	}
	if _, err := exec.LookPath("afconvert"); err != nil {
		return fmt.Errorf("未找到 afconvert 命令: %w", err)
	}
	return nil
}

func (s *SayEngine) voice(packID string) string {
	if v := s.packs.Map("say", packID); v != "" {
		return v
	}
	return s.cfg.Voice
}

// Synthesize 使用 say 命令将文本转换为单声道 float32 音频样本。
// say 先输出 AIFF 文件，再用 afconvert 转为 16-bit LE PCM WAV。
func (s *SayEngine) Synthesize(ctx context.Context, req Request) (*Result, error) {
	voice := s.voice(req.VoicePack)
	logger.Debugf("[tts] say: 正在合成 %d 个字符，语音=%s", len([]rune(req.Text)), voice)

	tmpFile, err := os.CreateTemp("", "voxkit-say-*.aiff")
	if err != nil {
		return nil, fmt.Errorf("创建临时文件失败: %w", err)
	}
	aiffPath := tmpFile.Name()
	tmpFile.Close()
	defer os.Remove(aiffPath)

	wavPath := aiffPath + ".wav"
	defer os.Remove(wavPath)

	args := []string{"-o", aiffPath}
	if voice != "" {
		args = append(args, "-v", voice)
	}
	// say 的语速选项以每分钟词数表示，180 约为正常语速
	args = append(args, "-r", fmt.Sprintf("%d", int(180*req.Speed)))
	args = append(args, req.Text)

	cmd := exec.CommandContext(ctx, "say", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("say 执行失败: %w, stderr: %s", err, stderr.String())
	}

	// 转换为 16-bit LE 单声道 PCM
	convertCmd := exec.CommandContext(ctx, "afconvert",
		"-f", "WAVE",
		"-d", fmt.Sprintf("LEI16@%d", saySampleRate),
		"-c", "1",
		aiffPath, wavPath,
	)
	var convertStderr bytes.Buffer
	convertCmd.Stderr = &convertStderr

	if err := convertCmd.Run(); err != nil {
		return nil, fmt.Errorf("afconvert 执行失败: %w, stderr: %s", err, convertStderr.String())
	}

	samples, sampleRate, err := audio.ReadWAV(wavPath)
	if err != nil {
		return nil, fmt.Errorf("读取 say 输出失败: %w", err)
	}
	if len(samples) == 0 {
		return nil, ErrEmptyAudio
	}

	// 语速已由 say 处理，只剩音调和音量
	samples = audio.ApplyPlaybackParams(samples, 1.0, req.Pitch, req.Energy)
	logger.Debugf("[tts] say: 生成 %d 个单声道样本", len(samples))

	return &Result{Samples: samples, SampleRate: sampleRate}, nil
}
