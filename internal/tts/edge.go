package tts

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
	"github.com/pp-group/edge-tts-go/biz/service/tts/edge"

	"github.com/iabetor/voxkit/internal/audio"
	"github.com/iabetor/voxkit/internal/config"
	"github.com/iabetor/voxkit/internal/logger"
	"github.com/iabetor/voxkit/internal/voicepack"
)

// EdgeEngine 使用微软 Edge TTS 云端神经语音实现合成，
// 通过 edge-tts-go 获取 MP3 音频，再用 go-mp3 解码为 PCM。
// 语速/音调/音量在解码后统一后处理。
type EdgeEngine struct {
	packs         *voicepack.Mapper
	fallbackVoice string
}

// NewEdgeEngine 创建 Edge TTS 引擎。
func NewEdgeEngine(cfg config.EdgeConfig, packs *voicepack.Mapper) *EdgeEngine {
	return &EdgeEngine{
		packs:         packs,
		fallbackVoice: cfg.Voice,
	}
}

func (e *EdgeEngine) ID() string   { return "edge" }
func (e *EdgeEngine) Name() string { return "Edge TTS (微软云端神经语音)" }

// Load 验证 edge-tts 客户端可以创建。网络可达性在首次合成时才会暴露。
func (e *EdgeEngine) Load(ctx context.Context) error {
	if _, err := edge.NewCommunicate("你好", edge.WithVoice(e.voice("default"))); err != nil {
		return fmt.Errorf("创建 edge-tts 实例失败: %w", err)
	}
	return nil
}

func (e *EdgeEngine) voice(packID string) string {
	if v := e.packs.Map("edge", packID); v != "" {
		return v
	}
	return e.fallbackVoice
}

// Synthesize 将文本合成为单声道 float32 音频样本。
func (e *EdgeEngine) Synthesize(ctx context.Context, req Request) (*Result, error) {
	voice := e.voice(req.VoicePack)
	logger.Debugf("[tts] edge: 正在合成 %d 个字符，语音=%s", len([]rune(req.Text)), voice)

	comm, err := edge.NewCommunicate(req.Text, edge.WithVoice(voice))
	if err != nil {
		return nil, fmt.Errorf("创建 edge-tts 实例失败: %w", err)
	}

	ch, err := comm.Stream()
	if err != nil {
		return nil, fmt.Errorf("edge-tts 开始流式合成失败: %w", err)
	}

	// 从 channel 收集所有音频数据
	var mp3Buf bytes.Buffer
	for msg := range ch {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		// Stream() 返回的 map 中，type=="audio" 的条目包含音频数据
		if msgType, ok := msg["type"].(string); ok && msgType == "audio" {
			if data, ok := msg["data"].([]byte); ok {
				mp3Buf.Write(data)
			}
		}
	}

	mp3Data := mp3Buf.Bytes()
	if len(mp3Data) == 0 {
		return nil, ErrEmptyAudio
	}

	samples, sampleRate, err := decodeMP3Mono(mp3Data)
	if err != nil {
		return nil, err
	}

	samples = audio.ApplyPlaybackParams(samples, req.Speed, req.Pitch, req.Energy)
	logger.Debugf("[tts] edge: 生成 %d 个单声道样本，采样率 %d Hz", len(samples), sampleRate)

	return &Result{Samples: samples, SampleRate: sampleRate}, nil
}

// decodeMP3Mono 将 MP3 数据解码为单声道 float32 样本。
// go-mp3 固定输出立体声 signed 16-bit LE PCM。
func decodeMP3Mono(data []byte) ([]float32, int, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, fmt.Errorf("MP3 解码失败: %w", err)
	}

	pcmData, err := io.ReadAll(decoder)
	if err != nil {
		return nil, 0, fmt.Errorf("读取 PCM 数据失败: %w", err)
	}

	samples := audio.StereoToMonoFloat32(pcmData)
	if len(samples) == 0 {
		return nil, 0, ErrEmptyAudio
	}
	return samples, decoder.SampleRate(), nil
}
