package batch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iabetor/voxkit/internal/audio"
	"github.com/iabetor/voxkit/internal/tts"
)

func TestParseCSV(t *testing.T) {
	input := `text,voice_pack,speed,pitch,energy
你好世界,female,1.2,2,0.8
第二条,,,,
Hello,robot,0.5,-3,
`
	items, err := ParseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("条数: got %d, want 3", len(items))
	}

	first := items[0]
	if first.Line != 2 {
		t.Errorf("行号: got %d, want 2", first.Line)
	}
	if first.Request.Text != "你好世界" || first.Request.VoicePack != "female" {
		t.Errorf("首条请求不匹配: %+v", first.Request)
	}
	if first.Request.Speed != 1.2 || first.Request.Pitch != 2 || first.Request.Energy != 0.8 {
		t.Errorf("首条参数不匹配: %+v", first.Request)
	}

	// 空列保持零值，由合成方归一化
	second := items[1]
	if second.Request.Text != "第二条" || second.Request.VoicePack != "" ||
		second.Request.Speed != 0 || second.Request.Pitch != 0 || second.Request.Energy != 0 {
		t.Errorf("第二条应保持零值: %+v", second.Request)
	}

	third := items[2]
	if third.Request.Speed != 0.5 || third.Request.Pitch != -3 {
		t.Errorf("第三条参数不匹配: %+v", third.Request)
	}
}

func TestParseCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"错误表头", "name,value\nx,1\n"},
		{"空文本", "text,voice_pack,speed,pitch,energy\n,default,1.0,0,1.0\n"},
		{"非法语速", "text,voice_pack,speed,pitch,energy\n你好,default,abc,0,1.0\n"},
		{"非法音调", "text,voice_pack,speed,pitch,energy\n你好,default,1.0,xx,1.0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCSV(strings.NewReader(tt.input)); err == nil {
				t.Error("应返回错误")
			}
		})
	}
}

func TestWriteTemplate_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTemplate(&buf); err != nil {
		t.Fatalf("写模板失败: %v", err)
	}
	items, err := ParseCSV(&buf)
	if err != nil {
		t.Fatalf("模板应能被解析: %v", err)
	}
	if len(items) == 0 {
		t.Error("模板应包含示例行")
	}
}

// fakeSynth 第 failAt 条（从 1 开始）返回错误，其余返回固定音频。
type fakeSynth struct {
	calls  int
	failAt int
}

func (f *fakeSynth) Synthesize(ctx context.Context, req tts.Request) (*tts.Result, error) {
	f.calls++
	if f.calls == f.failAt {
		return nil, errors.New("模拟失败")
	}
	return &tts.Result{Samples: make([]float32, 1600), SampleRate: 16000}, nil
}

func TestProcess(t *testing.T) {
	dir := t.TempDir()
	items := []Item{
		{Line: 2, Request: tts.Request{Text: "你好"}},
		{Line: 3, Request: tts.Request{Text: "会失败的一条"}},
		{Line: 4, Request: tts.Request{Text: "world"}},
	}
	syn := &fakeSynth{failAt: 2}

	report, err := Process(context.Background(), syn, items, dir, 0)
	if err != nil {
		t.Fatalf("Process 失败: %v", err)
	}
	if report.Total != 3 || report.Succeed != 2 || report.Failed != 1 {
		t.Errorf("报告不匹配: %+v", report)
	}
	if report.Results[1].Err == nil {
		t.Error("第二条应记录错误")
	}

	// 成功的条目应有输出文件
	for _, res := range report.Results {
		if res.Err != nil {
			continue
		}
		if res.OutputPath == "" {
			t.Error("成功条目应有输出路径")
			continue
		}
		if _, err := os.Stat(res.OutputPath); err != nil {
			t.Errorf("输出文件不存在: %v", err)
		}
		if res.Duration <= 0 {
			t.Errorf("时长应为正: %v", res.Duration)
		}
	}
}

// rateSynth 以固定采样率返回 1 秒音频。
type rateSynth struct {
	rate int
}

func (r *rateSynth) Synthesize(ctx context.Context, req tts.Request) (*tts.Result, error) {
	return &tts.Result{Samples: make([]float32, r.rate), SampleRate: r.rate}, nil
}

func TestProcess_ResamplesToOutputRate(t *testing.T) {
	dir := t.TempDir()
	items := []Item{{Line: 2, Request: tts.Request{Text: "重采样"}}}

	report, err := Process(context.Background(), &rateSynth{rate: 22050}, items, dir, 16000)
	if err != nil {
		t.Fatalf("Process 失败: %v", err)
	}
	if report.Succeed != 1 {
		t.Fatalf("报告不匹配: %+v", report)
	}

	samples, sampleRate, err := audio.ReadWAV(report.Results[0].OutputPath)
	if err != nil {
		t.Fatalf("读取输出 WAV 失败: %v", err)
	}
	if sampleRate != 16000 {
		t.Errorf("输出采样率: got %d, want 16000", sampleRate)
	}
	// 1 秒音频重采样后样本数应约等于目标采样率
	if n := len(samples); n < 15900 || n > 16100 {
		t.Errorf("重采样后样本数: got %d, want ~16000", n)
	}
}

func TestProcess_ZeroRateKeepsNative(t *testing.T) {
	dir := t.TempDir()
	items := []Item{{Line: 2, Request: tts.Request{Text: "原始采样率"}}}

	report, err := Process(context.Background(), &rateSynth{rate: 22050}, items, dir, 0)
	if err != nil {
		t.Fatalf("Process 失败: %v", err)
	}
	_, sampleRate, err := audio.ReadWAV(report.Results[0].OutputPath)
	if err != nil {
		t.Fatalf("读取输出 WAV 失败: %v", err)
	}
	if sampleRate != 22050 {
		t.Errorf("outputRate 为 0 时应保留原始采样率: got %d", sampleRate)
	}
}

func TestProcess_EmptyItems(t *testing.T) {
	if _, err := Process(context.Background(), &fakeSynth{}, nil, t.TempDir(), 0); err == nil {
		t.Error("空清单应返回错误")
	}
}

func TestProcess_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	items := []Item{{Line: 2, Request: tts.Request{Text: "x"}}}
	if _, err := Process(ctx, &fakeSynth{}, items, t.TempDir(), 0); !errors.Is(err, context.Canceled) {
		t.Errorf("取消后应返回 context.Canceled, got %v", err)
	}
}

func TestOutputFilename(t *testing.T) {
	dir := t.TempDir()
	path := OutputFilename(dir, 1, "你好 world")
	name := filepath.Base(path)

	if !strings.HasPrefix(name, "001_") {
		t.Errorf("应带序号前缀: %s", name)
	}
	if !strings.HasSuffix(name, ".wav") {
		t.Errorf("应为 .wav: %s", name)
	}
	if !strings.Contains(name, "ni") || !strings.Contains(name, "hao") || !strings.Contains(name, "world") {
		t.Errorf("文件名应含拼音和原文: %s", name)
	}

	// 相同文本生成不同文件名
	if OutputFilename(dir, 1, "你好") == OutputFilename(dir, 1, "你好") {
		t.Error("相同文本应生成不同文件名")
	}
}

func TestSlugify(t *testing.T) {
	for _, in := range []string{"!!!###", "Hello World", "你好，世界！"} {
		got := slugify(in)
		if got == "" {
			t.Errorf("slugify(%s) 不应为空", in)
		}
		for _, r := range got {
			if !(r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
				t.Errorf("slugify(%s) 含非法字符 %q: %s", in, r, got)
			}
		}
	}
	if slugify("!!!") != "audio" {
		t.Errorf("纯符号应回退到 audio: %s", slugify("!!!"))
	}
}
