package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/iabetor/voxkit/internal/audio"
	"github.com/iabetor/voxkit/internal/batch"
	"github.com/iabetor/voxkit/internal/config"
	"github.com/iabetor/voxkit/internal/history"
	"github.com/iabetor/voxkit/internal/logger"
	"github.com/iabetor/voxkit/internal/translate"
	"github.com/iabetor/voxkit/internal/tts"
	"github.com/iabetor/voxkit/internal/voicepack"
)

func main() {
	configPath := flag.String("config", "configs/voxkit.yaml", "配置文件路径")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSize:    cfg.Log.MaxSize,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAge:     cfg.Log.MaxAge,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Ctrl+C 时取消正在进行的合成
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var exitCode int
	switch args[0] {
	case "synth":
		exitCode = cmdSynth(ctx, cfg, args[1:])
	case "batch":
		exitCode = cmdBatch(ctx, cfg, args[1:])
	case "voices":
		exitCode = cmdVoices(cfg)
	case "engines":
		exitCode = cmdEngines(ctx, cfg)
	case "selftest":
		exitCode = cmdSelftest(ctx, cfg, args[1:])
	case "config":
		exitCode = cmdConfig(cfg, *configPath)
	default:
		fmt.Fprintf(os.Stderr, "未知命令: %s\n", args[0])
		printUsage()
		exitCode = 1
	}
	os.Exit(exitCode)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "voxkit 多后端语音合成工具")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "用法: voxkit [-config <path>] <command> [args]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "命令:")
	fmt.Fprintln(os.Stderr, "  synth -text <文本> [-out <文件>]  合成语音并保存 WAV / 播放")
	fmt.Fprintln(os.Stderr, "  batch <清单.csv>                  按 CSV 清单批量合成")
	fmt.Fprintln(os.Stderr, "  batch -template                   输出 CSV 清单模板")
	fmt.Fprintln(os.Stderr, "  voices                            列出语音包")
	fmt.Fprintln(os.Stderr, "  engines                           列出引擎及加载状态")
	fmt.Fprintln(os.Stderr, "  selftest                          逐个引擎合成测试句")
	fmt.Fprintln(os.Stderr, "  config                            打印生效的配置")
}

// buildRegistry 构建语音包映射和引擎注册表并完成加载。
func buildRegistry(ctx context.Context, cfg *config.Config) (*tts.Registry, *voicepack.Mapper, error) {
	packs := voicepack.NewMapper(cfg.VoicePacks)
	registry := tts.NewRegistryFromConfig(cfg, packs)
	if err := registry.InitializeAll(ctx); err != nil {
		registry.Close()
		return nil, nil, err
	}
	return registry, packs, nil
}

func cmdSynth(ctx context.Context, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("synth", flag.ExitOnError)
	text := fs.String("text", "", "要合成的文本")
	out := fs.String("out", "", "输出 WAV 文件路径（留空则仅播放）")
	voice := fs.String("voice", "default", "语音包")
	speed := fs.Float64("speed", 1.0, "语速因子 0.5-2.0")
	pitch := fs.Int("pitch", 0, "音调偏移（半音）-12~12")
	energy := fs.Float64("energy", 1.0, "音量因子 0.1-2.0")
	engine := fs.String("engine", "", "指定引擎（默认用优先级最高的可用引擎）")
	translateTo := fs.String("translate-to", "", "合成前先翻译到目标语言，如 en、日语")
	play := fs.Bool("play", false, "合成后通过扬声器播放")
	fs.Parse(args)

	if *text == "" {
		fmt.Fprintln(os.Stderr, "用法: voxkit synth -text <文本> [-out out.wav] [-voice female] [-play]")
		return 1
	}
	if *out == "" && !*play {
		fmt.Fprintln(os.Stderr, "需要 -out 或 -play 至少一个，否则结果无处可去")
		return 1
	}

	registry, _, err := buildRegistry(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化引擎失败: %v\n", err)
		return 1
	}
	defer registry.Close()

	if *engine != "" {
		if err := registry.Select(*engine); err != nil {
			fmt.Fprintf(os.Stderr, "选择引擎失败: %v\n", err)
			return 1
		}
	}

	input := *text
	if *translateTo != "" {
		tr, err := translate.New(cfg.Translate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "初始化翻译失败: %v\n", err)
			return 1
		}
		translated, err := tr.Translate(ctx, input, *translateTo)
		if err != nil {
			fmt.Fprintf(os.Stderr, "翻译失败: %v\n", err)
			return 1
		}
		fmt.Printf("翻译结果: %s\n", translated)
		input = translated
	}

	result, err := registry.Synthesize(ctx, tts.Request{
		Text:      input,
		VoicePack: *voice,
		Speed:     *speed,
		Pitch:     *pitch,
		Energy:    *energy,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "合成失败: %v\n", err)
		return 1
	}

	samples, sampleRate := result.Samples, result.SampleRate
	if cfg.Audio.SampleRate > 0 && cfg.Audio.SampleRate != sampleRate {
		samples = audio.Resample(samples, sampleRate, cfg.Audio.SampleRate)
		sampleRate = cfg.Audio.SampleRate
	}

	if *out != "" {
		if err := audio.WriteWAV(*out, samples, sampleRate); err != nil {
			fmt.Fprintf(os.Stderr, "保存 WAV 失败: %v\n", err)
			return 1
		}
		fmt.Printf("已保存: %s (%.2fs, %d Hz, 引擎 %s)\n",
			*out, result.Duration().Seconds(), sampleRate, registry.Current())
	}

	recordHistory(cfg, registry.Current(), *voice, input, *speed, *pitch, *energy, result, *out)

	if *play {
		player, err := audio.NewPlayer(cfg.Audio.Channels)
		if err != nil {
			fmt.Fprintf(os.Stderr, "初始化播放器失败: %v\n", err)
			return 1
		}
		defer player.Close()
		if err := player.Play(ctx, samples, sampleRate); err != nil {
			fmt.Fprintf(os.Stderr, "播放失败: %v\n", err)
			return 1
		}
	}
	return 0
}

// recordHistory 历史记录是尽力而为的，失败只记日志不影响主流程。
func recordHistory(cfg *config.Config, engineID, voice, text string,
	speed float64, pitch int, energy float64, result *tts.Result, outPath string) {
	if !cfg.History.Enabled {
		return
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		logger.Warnf("[main] 打开历史数据库失败: %v", err)
		return
	}
	defer store.Close()

	if err := store.Add(history.Record{
		EngineID:   engineID,
		VoicePack:  voice,
		Text:       text,
		Speed:      speed,
		Pitch:      pitch,
		Energy:     energy,
		SampleRate: result.SampleRate,
		DurationMs: result.Duration().Milliseconds(),
		OutputPath: outPath,
	}); err != nil {
		logger.Warnf("[main] 写入合成历史失败: %v", err)
	}
}

func cmdBatch(ctx context.Context, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("batch", flag.ExitOnError)
	template := fs.Bool("template", false, "输出 CSV 清单模板到标准输出")
	outDir := fs.String("out-dir", "", "输出目录（默认取配置 batch.output_dir）")
	fs.Parse(args)

	if *template {
		if err := batch.WriteTemplate(os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "输出模板失败: %v\n", err)
			return 1
		}
		return 0
	}

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "用法: voxkit batch <清单.csv> | voxkit batch -template")
		return 1
	}

	items, err := batch.ParseCSVFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "解析任务清单失败: %v\n", err)
		return 1
	}

	registry, _, err := buildRegistry(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化引擎失败: %v\n", err)
		return 1
	}
	defer registry.Close()

	dir := *outDir
	if dir == "" {
		dir = cfg.Batch.OutputDir
	}

	report, err := batch.Process(ctx, registry, items, dir, cfg.Audio.SampleRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "批处理中断: %v\n", err)
		return 1
	}

	fmt.Printf("共 %d 条，成功 %d 条，失败 %d 条\n", report.Total, report.Succeed, report.Failed)
	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Printf("  ✗ 第 %d 行: %v\n", res.Item.Line, res.Err)
		}
	}
	if report.Failed > 0 {
		return 1
	}
	return 0
}

func cmdVoices(cfg *config.Config) int {
	packs := voicepack.NewMapper(cfg.VoicePacks)
	fmt.Println("可用语音包:")
	for _, p := range packs.List() {
		fmt.Printf("  %-8s %s", p.ID, p.Name)
		if p.Description != "" {
			fmt.Printf(" - %s", p.Description)
		}
		fmt.Println()

		engines := make([]string, 0, len(p.Engines))
		for e := range p.Engines {
			engines = append(engines, e)
		}
		sort.Strings(engines)
		for _, e := range engines {
			fmt.Printf("           %s: %s\n", e, p.Engines[e])
		}
	}
	return 0
}

func cmdEngines(ctx context.Context, cfg *config.Config) int {
	packs := voicepack.NewMapper(cfg.VoicePacks)
	registry := tts.NewRegistryFromConfig(cfg, packs)
	defer registry.Close()

	// 全部失败也照常展示状态
	_ = registry.InitializeAll(ctx)

	fmt.Println("引擎状态（按优先级）:")
	for _, info := range registry.Engines() {
		marker := " "
		if info.ID == registry.Current() {
			marker = "*"
		}
		fmt.Printf("  %s %-8s [%-13s] %s\n", marker, info.ID, info.State, info.Name)
	}
	if registry.Current() == "" {
		fmt.Println("没有可用引擎")
		return 1
	}
	return 0
}

func cmdSelftest(ctx context.Context, cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("selftest", flag.ExitOnError)
	text := fs.String("text", "语音合成自检测试。", "测试文本")
	fs.Parse(args)

	registry, _, err := buildRegistry(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化引擎失败: %v\n", err)
		return 1
	}
	defer registry.Close()

	failed := 0
	for _, info := range registry.Engines() {
		if info.State != tts.StateLoaded {
			fmt.Printf("  - %-8s 跳过（%s）\n", info.ID, info.State)
			continue
		}
		if err := registry.Select(info.ID); err != nil {
			fmt.Printf("  ✗ %-8s 选择失败: %v\n", info.ID, err)
			failed++
			continue
		}
		result, err := registry.Synthesize(ctx, tts.Request{Text: *text})
		if err != nil {
			fmt.Printf("  ✗ %-8s 合成失败: %v\n", info.ID, err)
			failed++
			continue
		}
		fmt.Printf("  ✓ %-8s %.2fs @ %d Hz\n", info.ID, result.Duration().Seconds(), result.SampleRate)
	}
	if failed > 0 {
		return 1
	}
	return 0
}

func cmdConfig(cfg *config.Config, path string) int {
	fmt.Printf("配置文件: %s\n", path)
	fmt.Printf("引擎优先级: %v\n", cfg.TTS.Priority)
	fmt.Printf("输出采样率: %d (0 表示保留引擎原始采样率)\n", cfg.Audio.SampleRate)
	fmt.Printf("结果缓存: %d 条\n", cfg.Cache.MaxEntries)
	fmt.Printf("重试策略: 最多 %d 次, 首次延迟 %dms, 退避因子 %.1f\n",
		cfg.TTS.Retry.MaxAttempts, cfg.TTS.Retry.InitialDelayMs, cfg.TTS.Retry.BackoffFactor)
	fmt.Printf("历史记录: enabled=%v path=%s\n", cfg.History.Enabled, cfg.History.Path)
	fmt.Printf("批处理输出目录: %s\n", cfg.Batch.OutputDir)
	fmt.Printf("本地模型目录: %s (threads=%d)\n", cfg.Model.Dir, cfg.Model.NumThreads)
	return 0
}
