// Package batch 实现 CSV 批量合成：解析任务清单、逐条合成并
// 生成 WAV 文件和处理报告。
package batch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/iabetor/voxkit/internal/audio"
	"github.com/iabetor/voxkit/internal/logger"
	"github.com/iabetor/voxkit/internal/tts"
)

// csvHeader 是任务清单的列定义，text 之外的列均可留空。
var csvHeader = []string{"text", "voice_pack", "speed", "pitch", "energy"}

// Item 一条批量合成任务。
type Item struct {
	Line    int // CSV 行号（从 1 开始，含表头）
	Request tts.Request
}

// ItemResult 单条任务的处理结果。
type ItemResult struct {
	Item       Item
	OutputPath string
	Duration   time.Duration
	Err        error
}

// Report 整批任务的处理报告。
type Report struct {
	Total   int
	Succeed int
	Failed  int
	Results []ItemResult
}

// Synthesizer 批处理需要的合成能力，由引擎注册表实现。
type Synthesizer interface {
	Synthesize(ctx context.Context, req tts.Request) (*tts.Result, error)
}

// ParseCSV 解析任务清单。首行必须是表头 text,voice_pack,speed,pitch,energy；
// 数值列留空时使用默认值，非法数值视为该行错误。
func ParseCSV(r io.Reader) ([]Item, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("读取 CSV 表头失败: %w", err)
	}
	if len(header) < 1 || strings.TrimSpace(strings.ToLower(header[0])) != "text" {
		return nil, fmt.Errorf("CSV 表头非法，首列应为 text: %v", header)
	}

	var items []Item
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("第 %d 行解析失败: %w", line, err)
		}

		item, err := parseRecord(line, record)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func parseRecord(line int, record []string) (Item, error) {
	get := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	text := get(0)
	if text == "" {
		return Item{}, fmt.Errorf("第 %d 行: 文本不能为空", line)
	}

	req := tts.Request{Text: text, VoicePack: get(1)}

	if s := get(2); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Item{}, fmt.Errorf("第 %d 行: 语速非法: %s", line, s)
		}
		req.Speed = v
	}
	if s := get(3); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return Item{}, fmt.Errorf("第 %d 行: 音调非法: %s", line, s)
		}
		req.Pitch = v
	}
	if s := get(4); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return Item{}, fmt.Errorf("第 %d 行: 音量非法: %s", line, s)
		}
		req.Energy = v
	}

	return Item{Line: line, Request: req}, nil
}

// ParseCSVFile 打开并解析任务清单文件。
func ParseCSVFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开任务清单失败: %w", err)
	}
	defer f.Close()
	return ParseCSV(f)
}

// WriteTemplate 输出带示例行的任务清单模板。
func WriteTemplate(w io.Writer) error {
	writer := csv.NewWriter(w)
	rows := [][]string{
		csvHeader,
		{"你好，世界", "default", "1.0", "0", "1.0"},
		{"这是第二条示例", "female", "1.2", "", ""},
		{"Hello from the batch file", "", "", "", ""},
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("写入模板失败: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Process 逐条处理任务，合成结果写入 outputDir 下的 WAV 文件。
// outputRate > 0 时保存前重采样到该采样率，0 表示保留引擎原始采样率。
// 单条失败不中断整批，失败详情记录在报告里；ctx 取消时提前结束。
func Process(ctx context.Context, syn Synthesizer, items []Item, outputDir string, outputRate int) (*Report, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("任务清单为空")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}

	report := &Report{Total: len(items)}
	for i, item := range items {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		res := ItemResult{Item: item}
		result, err := syn.Synthesize(ctx, item.Request)
		if err != nil {
			res.Err = err
			report.Failed++
			logger.Warnf("[batch] 第 %d 行合成失败: %v", item.Line, err)
		} else {
			samples, sampleRate := result.Samples, result.SampleRate
			if outputRate > 0 && outputRate != sampleRate {
				samples = audio.Resample(samples, sampleRate, outputRate)
				sampleRate = outputRate
			}
			path := OutputFilename(outputDir, i+1, item.Request.Text)
			if err := audio.WriteWAV(path, samples, sampleRate); err != nil {
				res.Err = err
				report.Failed++
				logger.Warnf("[batch] 第 %d 行写入失败: %v", item.Line, err)
			} else {
				res.OutputPath = path
				res.Duration = result.Duration()
				report.Succeed++
				logger.Infof("[batch] (%d/%d) %s", i+1, len(items), path)
			}
		}
		report.Results = append(report.Results, res)
	}

	logger.Infof("[batch] 批处理完成: 共 %d 条，成功 %d 条，失败 %d 条",
		report.Total, report.Succeed, report.Failed)
	return report, nil
}
