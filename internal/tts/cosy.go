package tts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"github.com/iabetor/voxkit/internal/audio"
	"github.com/iabetor/voxkit/internal/config"
	"github.com/iabetor/voxkit/internal/logger"
	"github.com/iabetor/voxkit/internal/voicepack"
)

// CosyEngine 使用 sherpa-onnx 离线 TTS 运行本地生成式语音模型
// （VITS 风格的 onnx 模型），完全离线、无网络依赖。
// 语速由模型原生支持，音调和音量在合成后后处理。
type CosyEngine struct {
	cfg   config.ModelConfig
	packs *voicepack.Mapper

	mu  sync.Mutex // sherpa-onnx 的底层实例不保证线程安全
	tts *sherpa.OfflineTts
}

// NewCosyEngine 创建本地模型引擎。
func NewCosyEngine(cfg config.ModelConfig, packs *voicepack.Mapper) *CosyEngine {
	return &CosyEngine{cfg: cfg, packs: packs}
}

func (e *CosyEngine) ID() string   { return "cosy" }
func (e *CosyEngine) Name() string { return "本地生成式模型 (sherpa-onnx)" }

// Load 检查模型文件并初始化 sherpa-onnx 离线 TTS。
// 模型目录需包含 model.onnx、lexicon.txt 和 tokens.txt。
func (e *CosyEngine) Load(ctx context.Context) error {
	modelPath := filepath.Join(e.cfg.Dir, "model.onnx")
	lexiconPath := filepath.Join(e.cfg.Dir, "lexicon.txt")
	tokensPath := filepath.Join(e.cfg.Dir, "tokens.txt")

	for _, p := range []string{modelPath, lexiconPath, tokensPath} {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("模型文件缺失: %s", p)
		}
	}

	sherpaCfg := sherpa.OfflineTtsConfig{}
	sherpaCfg.Model.Vits.Model = modelPath
	sherpaCfg.Model.Vits.Lexicon = lexiconPath
	sherpaCfg.Model.Vits.Tokens = tokensPath
	sherpaCfg.Model.NumThreads = e.cfg.NumThreads
	sherpaCfg.Model.Provider = "cpu"
	sherpaCfg.MaxNumSentences = 1

	tts := sherpa.NewOfflineTts(&sherpaCfg)
	if tts == nil {
		return fmt.Errorf("初始化本地模型失败，模型目录: %s", e.cfg.Dir)
	}

	e.tts = tts
	logger.Infof("[tts] 本地模型已加载: %s (threads=%d)", e.cfg.Dir, e.cfg.NumThreads)
	return nil
}

// speakerID 返回语音包映射的说话人编号，映射值非法时使用 0。
func (e *CosyEngine) speakerID(packID string) int {
	mapped := e.packs.Map("cosy", packID)
	if sid, err := strconv.Atoi(mapped); err == nil && sid >= 0 {
		return sid
	}
	return 0
}

// Synthesize 使用本地模型将文本转换为单声道 float32 音频样本。
func (e *CosyEngine) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if e.tts == nil {
		return nil, ErrEngineUnavailable
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	sid := e.speakerID(req.VoicePack)
	logger.Debugf("[tts] cosy: 正在合成 %d 个字符，speaker=%d speed=%.2f",
		len([]rune(req.Text)), sid, req.Speed)

	e.mu.Lock()
	generated := e.tts.Generate(req.Text, sid, float32(req.Speed))
	e.mu.Unlock()

	if generated == nil || len(generated.Samples) == 0 {
		return nil, ErrEmptyAudio
	}

	// 语速已由模型处理，只剩音调和音量
	samples := audio.ApplyPlaybackParams(generated.Samples, 1.0, req.Pitch, req.Energy)
	logger.Debugf("[tts] cosy: 生成 %d 个单声道样本，采样率 %d Hz",
		len(samples), generated.SampleRate)

	return &Result{Samples: samples, SampleRate: generated.SampleRate}, nil
}

// Close 释放模型资源。
func (e *CosyEngine) Close() {
	if e.tts != nil {
		sherpa.DeleteOfflineTts(e.tts)
		e.tts = nil
	}
}
