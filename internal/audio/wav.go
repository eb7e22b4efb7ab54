package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

const (
	wavRiffHeaderSize = 12 // RIFF + 文件大小 + WAVE
	wavFmtChunkSize   = 16 // PCM fmt 块数据长度
	wavDataHeaderSize = 8  // 块 ID 4 字节 + 块大小 4 字节
	wavBitsPerSample  = 16
	wavFormatPCM      = 1
)

// EncodeWAV 将单声道 float32 样本编码为 16-bit LE PCM 的 WAV 字节流。
func EncodeWAV(samples []float32, sampleRate int) []byte {
	pcm := Float32ToBytes(samples)
	dataSize := len(pcm)

	var buf bytes.Buffer
	buf.Grow(wavRiffHeaderSize + wavDataHeaderSize + wavFmtChunkSize + wavDataHeaderSize + dataSize)

	// RIFF 头
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(4+wavDataHeaderSize+wavFmtChunkSize+wavDataHeaderSize+dataSize))
	buf.WriteString("WAVE")

	// fmt 块（单声道 16-bit PCM）
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(wavFmtChunkSize))
	binary.Write(&buf, binary.LittleEndian, uint16(wavFormatPCM))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // 声道数
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2)) // 字节率
	binary.Write(&buf, binary.LittleEndian, uint16(2))            // 块对齐
	binary.Write(&buf, binary.LittleEndian, uint16(wavBitsPerSample))

	// data 块
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	buf.Write(pcm)

	return buf.Bytes()
}

// WriteWAV 将单声道 float32 样本写入 WAV 文件，必要时创建父目录。
func WriteWAV(path string, samples []float32, sampleRate int) error {
	if len(samples) == 0 {
		return fmt.Errorf("没有音频数据可写入")
	}
	if sampleRate <= 0 {
		return fmt.Errorf("无效的采样率: %d", sampleRate)
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}

	if err := os.WriteFile(path, EncodeWAV(samples, sampleRate), 0644); err != nil {
		return fmt.Errorf("写入 WAV 文件 %s 失败: %w", path, err)
	}
	return nil
}

// DecodeWAV 解析 WAV 字节流，返回单声道 float32 样本和采样率。
// 动态遍历块列表，跳过 LIST 等元数据块，只接受 16-bit PCM。
// 立体声数据会被混合为单声道。
func DecodeWAV(data []byte) ([]float32, int, error) {
	if len(data) < wavRiffHeaderSize {
		return nil, 0, fmt.Errorf("WAV 数据过短 (%d 字节)", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("不是有效的 WAV 数据")
	}

	var (
		sampleRate int
		channels   int
		bits       int
		fmtFound   bool
	)

	// 从 RIFF 头之后开始遍历块
	offset := wavRiffHeaderSize
	for offset+wavDataHeaderSize <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + wavDataHeaderSize

		switch chunkID {
		case "fmt ":
			if chunkSize < wavFmtChunkSize || body+wavFmtChunkSize > len(data) {
				return nil, 0, fmt.Errorf("fmt 块长度无效: %d", chunkSize)
			}
			format := int(binary.LittleEndian.Uint16(data[body : body+2]))
			if format != wavFormatPCM {
				return nil, 0, fmt.Errorf("不支持的 WAV 编码格式: %d（仅支持未压缩 PCM）", format)
			}
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			fmtFound = true

		case "data":
			if !fmtFound {
				return nil, 0, fmt.Errorf("data 块出现在 fmt 块之前")
			}
			if body+chunkSize > len(data) {
				return nil, 0, fmt.Errorf("data 块长度超出文件大小")
			}
			if bits != wavBitsPerSample {
				return nil, 0, fmt.Errorf("不支持的位深: %d（仅支持 16-bit）", bits)
			}
			pcm := data[body : body+chunkSize]
			switch channels {
			case 1:
				return BytesToFloat32(pcm), sampleRate, nil
			case 2:
				return StereoToMonoFloat32(pcm), sampleRate, nil
			default:
				return nil, 0, fmt.Errorf("不支持的声道数: %d", channels)
			}
		}

		// 块按偶数字节对齐
		if chunkSize%2 != 0 {
			chunkSize++
		}
		offset = body + chunkSize
	}

	return nil, 0, fmt.Errorf("未找到 data 块")
}

// ReadWAV 读取 WAV 文件，返回单声道 float32 样本和采样率。
func ReadWAV(path string) ([]float32, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("读取 WAV 文件 %s 失败: %w", path, err)
	}
	return DecodeWAV(data)
}
