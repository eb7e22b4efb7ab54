package tts

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	tencenttts "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/tts/v20190823"

	"github.com/iabetor/voxkit/internal/audio"
	"github.com/iabetor/voxkit/internal/config"
	"github.com/iabetor/voxkit/internal/logger"
	"github.com/iabetor/voxkit/internal/voicepack"
)

// TencentEngine 使用腾讯云 TTS 实现语音合成。
// 适用于中国大陆网络环境，支持多种中文音色。
// 语速和音量由服务端原生支持，音调在解码后后处理。
type TencentEngine struct {
	cfg    config.TencentConfig
	packs  *voicepack.Mapper
	client *tencenttts.Client
}

// NewTencentEngine 创建腾讯云 TTS 引擎。
func NewTencentEngine(cfg config.TencentConfig, packs *voicepack.Mapper) *TencentEngine {
	return &TencentEngine{cfg: cfg, packs: packs}
}

func (e *TencentEngine) ID() string   { return "tencent" }
func (e *TencentEngine) Name() string { return "腾讯云 TTS" }

// Load 校验凭证并创建客户端。
func (e *TencentEngine) Load(ctx context.Context) error {
	if e.cfg.SecretID == "" || e.cfg.SecretKey == "" {
		return fmt.Errorf("腾讯云 TTS 需要 SecretID 和 SecretKey")
	}

	credential := common.NewCredential(e.cfg.SecretID, e.cfg.SecretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.Endpoint = "tts.tencentcloudapi.com"

	client, err := tencenttts.NewClient(credential, e.cfg.Region, cpf)
	if err != nil {
		return fmt.Errorf("创建腾讯云 TTS 客户端失败: %w", err)
	}

	e.client = client
	logger.Infof("[tts] 腾讯云 TTS 引擎已初始化 (voice=%d, region=%s)", e.cfg.VoiceType, e.cfg.Region)
	return nil
}

// voiceType 返回语音包对应的音色编号，映射值非法时使用配置的默认音色。
func (e *TencentEngine) voiceType(packID string) int64 {
	mapped := e.packs.Map("tencent", packID)
	if v, err := strconv.ParseInt(mapped, 10, 64); err == nil && v > 0 {
		return v
	}
	return e.cfg.VoiceType
}

// Synthesize 将文本合成为单声道 float32 音频样本。
// 腾讯云 TTS 返回 Base64 编码的 MP3，需要解码为 PCM。
func (e *TencentEngine) Synthesize(ctx context.Context, req Request) (*Result, error) {
	if e.client == nil {
		return nil, ErrEngineUnavailable
	}

	voiceType := e.voiceType(req.VoicePack)
	logger.Debugf("[tts] 腾讯云: 正在合成 %d 个字符，音色=%d", len([]rune(req.Text)), voiceType)

	request := tencenttts.NewTextToVoiceRequest()
	request.Text = common.StringPtr(req.Text)
	request.SessionId = common.StringPtr(uuid.NewString())
	request.VoiceType = common.Int64Ptr(voiceType)
	request.Codec = common.StringPtr("mp3")
	// 腾讯云语速范围 [-2, 6]，0 为正常；音量范围 [0, 10]，5 为正常
	request.Speed = common.Float64Ptr((req.Speed - 1.0) * 2.0)
	request.Volume = common.Float64Ptr(req.Energy * 5.0)

	response, err := e.client.TextToVoiceWithContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("腾讯云 TTS 合成失败: %w", err)
	}

	if response.Response == nil || response.Response.Audio == nil {
		return nil, ErrEmptyAudio
	}

	mp3Data, err := base64.StdEncoding.DecodeString(*response.Response.Audio)
	if err != nil {
		return nil, fmt.Errorf("Base64 解码失败: %w", err)
	}
	if len(mp3Data) == 0 {
		return nil, ErrEmptyAudio
	}

	samples, sampleRate, err := decodeMP3Mono(mp3Data)
	if err != nil {
		return nil, err
	}

	// 语速和音量已由服务端处理，只剩音调
	samples = audio.ApplyPlaybackParams(samples, 1.0, req.Pitch, 1.0)
	logger.Debugf("[tts] 腾讯云: 生成 %d 个单声道样本，采样率 %d Hz", len(samples), sampleRate)

	return &Result{Samples: samples, SampleRate: sampleRate}, nil
}
