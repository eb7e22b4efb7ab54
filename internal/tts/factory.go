package tts

import (
	"github.com/iabetor/voxkit/internal/config"
	"github.com/iabetor/voxkit/internal/logger"
	"github.com/iabetor/voxkit/internal/voicepack"
)

// BuildCandidates 按配置的 priority 顺序构建候选引擎列表。
// 未知的引擎 ID 记录警告后跳过。
func BuildCandidates(cfg *config.Config, packs *voicepack.Mapper) []Engine {
	candidates := make([]Engine, 0, len(cfg.TTS.Priority))
	for _, id := range cfg.TTS.Priority {
		switch id {
		case "edge":
			candidates = append(candidates, NewEdgeEngine(cfg.TTS.Edge, packs))
		case "tencent":
			candidates = append(candidates, NewTencentEngine(cfg.TTS.Tencent, packs))
		case "gtts":
			candidates = append(candidates, NewGTTSEngine(cfg.TTS.GTTS, packs))
		case "say":
			candidates = append(candidates, NewSayEngine(cfg.TTS.Say, packs))
		case "cosy":
			candidates = append(candidates, NewCosyEngine(cfg.Model, packs))
		case "stub":
			candidates = append(candidates, NewStubEngine())
		default:
			logger.Warnf("[tts] 未知引擎 ID，已跳过: %s", id)
		}
	}
	return candidates
}

// NewRegistryFromConfig 从配置构建完整的引擎注册表。
func NewRegistryFromConfig(cfg *config.Config, packs *voicepack.Mapper) *Registry {
	return NewRegistry(
		BuildCandidates(cfg, packs),
		RetryPolicyFromConfig(cfg.TTS.Retry),
		cfg.Cache.MaxEntries,
	)
}
