// Package voicepack 管理抽象语音包到各引擎具体语音标识的映射。
package voicepack

import (
	"sort"

	"github.com/iabetor/voxkit/internal/config"
	"github.com/iabetor/voxkit/internal/logger"
)

// Pack 一个语音包：一组语音特征及其在各引擎下的具体语音标识。
type Pack struct {
	ID          string
	Name        string
	Description string
	Gender      string
	Style       string
	Emotion     string
	// Engines 引擎 ID -> 该引擎的语音标识。
	// edge 为语音名称，tencent 为音色编号，gtts 为 lang:tld，
	// say 为系统语音名称，cosy 为说话人编号。
	Engines map[string]string
}

// Mapper 语音包映射器。只读查表，无副作用。
type Mapper struct {
	packs    map[string]Pack
	defaults map[string]string // 引擎 ID -> 默认语音标识
}

// builtinPacks 内置语音包表，可被配置文件中的 voice_packs 覆盖或扩展。
func builtinPacks() map[string]Pack {
	return map[string]Pack{
		"default": {
			ID: "default", Name: "默认语音包", Description: "标准中文语音",
			Gender: "unknown", Style: "neutral", Emotion: "neutral",
			Engines: map[string]string{
				"edge": "zh-CN-XiaoxiaoNeural", "tencent": "1001",
				"gtts": "zh-CN:com", "say": "Tingting", "cosy": "0", "stub": "stub",
			},
		},
		"female": {
			ID: "female", Name: "女声语音包", Description: "温柔女声",
			Gender: "female", Style: "gentle", Emotion: "gentle",
			Engines: map[string]string{
				"edge": "zh-CN-XiaoxiaoNeural", "tencent": "1002",
				"gtts": "zh-CN:com", "say": "Tingting", "cosy": "1", "stub": "stub",
			},
		},
		"male": {
			ID: "male", Name: "男声语音包", Description: "磁性男声",
			Gender: "male", Style: "deep", Emotion: "deep",
			Engines: map[string]string{
				"edge": "zh-CN-YunxiNeural", "tencent": "1018",
				"gtts": "zh-TW:com", "say": "Tingting", "cosy": "2", "stub": "stub",
			},
		},
		"child": {
			ID: "child", Name: "儿童语音包", Description: "活泼可爱的儿童声音",
			Gender: "unknown", Style: "cute", Emotion: "happy",
			Engines: map[string]string{
				"edge": "zh-CN-XiaoyiNeural", "tencent": "1021",
				"gtts": "zh-CN:com", "say": "Tingting", "cosy": "3", "stub": "stub",
			},
		},
		"elder": {
			ID: "elder", Name: "老年语音包", Description: "慈祥的老年声音",
			Gender: "unknown", Style: "wise", Emotion: "calm",
			Engines: map[string]string{
				"edge": "zh-CN-YunyangNeural", "tencent": "1017",
				"gtts": "zh-CN:com", "say": "Tingting", "cosy": "4", "stub": "stub",
			},
		},
		"robot": {
			ID: "robot", Name: "机器人语音包", Description: "科技感的机器人声音",
			Gender: "unknown", Style: "robotic", Emotion: "neutral",
			Engines: map[string]string{
				"edge": "zh-CN-YunxiaNeural", "tencent": "1001",
				"gtts": "en:com", "say": "Tingting", "cosy": "5", "stub": "stub",
			},
		},
		"angry": {
			ID: "angry", Name: "愤怒语音包", Description: "愤怒情绪的声音",
			Gender: "unknown", Style: "angry", Emotion: "angry",
			Engines: map[string]string{
				"edge": "zh-CN-YunjianNeural", "tencent": "1018",
				"gtts": "zh-CN:com", "say": "Tingting", "cosy": "6", "stub": "stub",
			},
		},
		"sad": {
			ID: "sad", Name: "悲伤语音包", Description: "悲伤情绪的声音",
			Gender: "unknown", Style: "sad", Emotion: "sad",
			Engines: map[string]string{
				"edge": "zh-CN-XiaomoNeural", "tencent": "1003",
				"gtts": "zh-CN:com", "say": "Tingting", "cosy": "7", "stub": "stub",
			},
		},
	}
}

// engineDefaults 各引擎的兜底语音标识，语音包未覆盖某引擎时使用。
func engineDefaults() map[string]string {
	return map[string]string{
		"edge":    "zh-CN-XiaoxiaoNeural",
		"tencent": "1001",
		"gtts":    "zh-CN:com",
		"say":     "Tingting",
		"cosy":    "0",
		"stub":    "stub",
	}
}

// NewMapper 创建语音包映射器，内置语音包与配置中的 voice_packs 合并，
// 同名时配置覆盖内置定义。
func NewMapper(overrides map[string]config.PackConfig) *Mapper {
	packs := builtinPacks()

	for id, pc := range overrides {
		pack := Pack{
			ID:          id,
			Name:        pc.Name,
			Description: pc.Description,
			Gender:      pc.Gender,
			Style:       pc.Style,
			Emotion:     pc.Emotion,
			Engines:     make(map[string]string, len(pc.Engines)),
		}
		// 覆盖内置包时保留其未被覆盖的引擎映射
		if base, ok := packs[id]; ok {
			for k, v := range base.Engines {
				pack.Engines[k] = v
			}
			if pack.Name == "" {
				pack.Name = base.Name
			}
			if pack.Description == "" {
				pack.Description = base.Description
			}
		}
		for k, v := range pc.Engines {
			pack.Engines[k] = v
		}
		packs[id] = pack
	}

	logger.Infof("[voicepack] 已加载 %d 个语音包", len(packs))

	return &Mapper{
		packs:    packs,
		defaults: engineDefaults(),
	}
}

// Map 返回语音包在指定引擎下的语音标识。
// 语音包未知或未定义该引擎的映射时，返回该引擎的默认语音标识。
func (m *Mapper) Map(engineID, packID string) string {
	if pack, ok := m.packs[packID]; ok {
		if id := pack.Engines[engineID]; id != "" {
			return id
		}
	}
	if id := m.defaults[engineID]; id != "" {
		return id
	}
	// 未知引擎没有指定默认值，退回通用标识
	return "default"
}

// Get 返回指定语音包，不存在时第二个返回值为 false。
func (m *Mapper) Get(packID string) (Pack, bool) {
	pack, ok := m.packs[packID]
	return pack, ok
}

// Has 返回语音包是否存在。
func (m *Mapper) Has(packID string) bool {
	_, ok := m.packs[packID]
	return ok
}

// List 返回所有语音包，按 ID 排序。
func (m *Mapper) List() []Pack {
	out := make([]Pack, 0, len(m.packs))
	for _, pack := range m.packs {
		out = append(out, pack)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
