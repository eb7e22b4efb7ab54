package audio

import (
	"math"
)

// Resample 使用线性插值将样本从 srcRate 重采样到 dstRate。
// srcRate == dstRate 时原样返回。
func Resample(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate || len(samples) == 0 || srcRate <= 0 || dstRate <= 0 {
		return samples
	}

	ratio := float64(srcRate) / float64(dstRate)
	outLen := int(math.Round(float64(len(samples)) / ratio))
	if outLen < 1 {
		outLen = 1
	}

	out := make([]float32, outLen)
	for i := 0; i < outLen; i++ {
		pos := float64(i) * ratio
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}

// ApplyGain 按 energy 因子缩放样本，结果钳位到 [-1.0, 1.0]。
func ApplyGain(samples []float32, energy float64) []float32 {
	if energy == 1.0 {
		return samples
	}
	g := float32(energy)
	out := make([]float32, len(samples))
	for i, s := range samples {
		v := s * g
		if v > 1.0 {
			v = 1.0
		} else if v < -1.0 {
			v = -1.0
		}
		out[i] = v
	}
	return out
}

// ApplyPlaybackParams 对引擎原生不支持的合成参数做统一后处理。
// speed 和 pitch（半音）合并为一个播放速率因子 speed * 2^(pitch/12)，
// 通过重采样实现；变速会同时改变音高，与简易播放器的行为一致。
// energy 通过增益实现。不需要处理的参数传 1.0 / 0 / 1.0。
func ApplyPlaybackParams(samples []float32, speed float64, pitch int, energy float64) []float32 {
	factor := speed * math.Pow(2, float64(pitch)/12.0)
	if factor > 0 && factor != 1.0 {
		// 播放速率 factor 相当于把 srcRate 当作 dstRate*factor 来重采样
		const virtualRate = 48000
		samples = Resample(samples, virtualRate, int(math.Round(virtualRate/factor)))
	}
	return ApplyGain(samples, energy)
}
