package tts

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeEngine 可编排加载/合成行为的测试引擎。
type fakeEngine struct {
	id        string
	loadErr   error
	synthErr  error
	synthFunc func(req Request) (*Result, error)
	synthN    int
}

func (f *fakeEngine) ID() string   { return f.id }
func (f *fakeEngine) Name() string { return "fake-" + f.id }
func (f *fakeEngine) Load(ctx context.Context) error {
	return f.loadErr
}
func (f *fakeEngine) Synthesize(ctx context.Context, req Request) (*Result, error) {
	f.synthN++
	if f.synthFunc != nil {
		return f.synthFunc(req)
	}
	if f.synthErr != nil {
		return nil, f.synthErr
	}
	return &Result{Samples: make([]float32, 160), SampleRate: 16000}, nil
}

func fastRetry() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, BackoffFactor: 1.0}
}

func TestInitializeAll_FirstLoadedBecomesCurrent(t *testing.T) {
	a := &fakeEngine{id: "a", loadErr: errors.New("缺少依赖")}
	b := &fakeEngine{id: "b"}
	c := &fakeEngine{id: "c"}
	r := NewRegistry([]Engine{a, b, c}, fastRetry(), 0)

	if err := r.InitializeAll(context.Background()); err != nil {
		t.Fatalf("有引擎加载成功时不应返回错误: %v", err)
	}
	if got := r.Current(); got != "b" {
		t.Errorf("当前引擎: got %s, want b", got)
	}
	if r.State("a") != StateFailed {
		t.Errorf("a 的状态: got %s, want failed", r.State("a"))
	}
	if r.State("b") != StateLoaded || r.State("c") != StateLoaded {
		t.Error("b/c 应为 loaded")
	}
}

func TestInitializeAll_AllFail(t *testing.T) {
	a := &fakeEngine{id: "a", loadErr: errors.New("x")}
	b := &fakeEngine{id: "b", loadErr: errors.New("y")}
	r := NewRegistry([]Engine{a, b}, fastRetry(), 0)

	if err := r.InitializeAll(context.Background()); !errors.Is(err, ErrNoEngineLoaded) {
		t.Fatalf("全部失败应返回 ErrNoEngineLoaded, got %v", err)
	}
	if got := r.Current(); got != "" {
		t.Errorf("当前引擎应为空: got %s", got)
	}

	if _, err := r.Synthesize(context.Background(), Request{Text: "hello"}); !errors.Is(err, ErrNoEngineLoaded) {
		t.Errorf("无引擎时合成应返回 ErrNoEngineLoaded, got %v", err)
	}
}

func TestSelect_FailedEngineDoesNotChangeCurrent(t *testing.T) {
	a := &fakeEngine{id: "a"}
	b := &fakeEngine{id: "b", loadErr: errors.New("未安装")}
	r := NewRegistry([]Engine{a, b}, fastRetry(), 0)
	if err := r.InitializeAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := r.Select("b"); !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("选择加载失败的引擎应返回 ErrEngineUnavailable, got %v", err)
	}
	if got := r.Current(); got != "a" {
		t.Errorf("当前引擎不应改变: got %s, want a", got)
	}
}

func TestSelect_UnknownEngine(t *testing.T) {
	a := &fakeEngine{id: "a"}
	r := NewRegistry([]Engine{a}, fastRetry(), 0)
	if err := r.InitializeAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := r.Select("zzz"); !errors.Is(err, ErrEngineUnavailable) {
		t.Errorf("未知引擎应返回 ErrEngineUnavailable, got %v", err)
	}
}

func TestSelect_LoadedEngine(t *testing.T) {
	a := &fakeEngine{id: "a"}
	b := &fakeEngine{id: "b"}
	r := NewRegistry([]Engine{a, b}, fastRetry(), 0)
	if err := r.InitializeAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := r.Select("b"); err != nil {
		t.Fatalf("选择已加载引擎失败: %v", err)
	}
	if got := r.Current(); got != "b" {
		t.Errorf("当前引擎: got %s, want b", got)
	}
}

func TestSynthesize_Basic(t *testing.T) {
	a := &fakeEngine{id: "a"}
	r := NewRegistry([]Engine{a}, fastRetry(), 0)
	if err := r.InitializeAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	res, err := r.Synthesize(context.Background(), Request{
		Text: "hello", VoicePack: "default", Speed: 1.0, Pitch: 0, Energy: 1.0,
	})
	if err != nil {
		t.Fatalf("合成失败: %v", err)
	}
	if len(res.Samples) == 0 {
		t.Error("样本不应为空")
	}
	if res.SampleRate <= 0 {
		t.Errorf("采样率应为正: %d", res.SampleRate)
	}
}

func TestSynthesize_EmptyText(t *testing.T) {
	a := &fakeEngine{id: "a"}
	r := NewRegistry([]Engine{a}, fastRetry(), 0)
	if err := r.InitializeAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Synthesize(context.Background(), Request{Text: ""}); !errors.Is(err, ErrEmptyText) {
		t.Errorf("空文本应返回 ErrEmptyText, got %v", err)
	}
}

func TestSynthesize_EmptyAudioIsError(t *testing.T) {
	a := &fakeEngine{id: "a", synthFunc: func(req Request) (*Result, error) {
		return &Result{Samples: nil, SampleRate: 16000}, nil
	}}
	r := NewRegistry([]Engine{a}, fastRetry(), 0)
	if err := r.InitializeAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Synthesize(context.Background(), Request{Text: "hi"}); !errors.Is(err, ErrEmptyAudio) {
		t.Errorf("空音频应返回 ErrEmptyAudio, got %v", err)
	}
}

func TestSynthesize_RetriesNetworkErrors(t *testing.T) {
	calls := 0
	a := &fakeEngine{id: "a"}
	a.synthFunc = func(req Request) (*Result, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("dial tcp: i/o timeout")
		}
		return &Result{Samples: make([]float32, 10), SampleRate: 16000}, nil
	}
	r := NewRegistry([]Engine{a}, fastRetry(), 0)
	if err := r.InitializeAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	res, err := r.Synthesize(context.Background(), Request{Text: "hi"})
	if err != nil {
		t.Fatalf("网络错误应被重试: %v", err)
	}
	if calls != 3 {
		t.Errorf("调用次数: got %d, want 3", calls)
	}
	if len(res.Samples) == 0 {
		t.Error("样本不应为空")
	}
}

func TestSynthesize_DoesNotRetryNonNetworkErrors(t *testing.T) {
	a := &fakeEngine{id: "a", synthErr: errors.New("InvalidParameter.Resource")}
	r := NewRegistry([]Engine{a}, fastRetry(), 0)
	if err := r.InitializeAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := r.Synthesize(context.Background(), Request{Text: "hi"}); err == nil {
		t.Fatal("应返回错误")
	}
	if a.synthN != 1 {
		t.Errorf("非网络错误不应重试: 调用 %d 次", a.synthN)
	}
}

func TestSynthesize_CacheHitSkipsEngine(t *testing.T) {
	a := &fakeEngine{id: "a"}
	r := NewRegistry([]Engine{a}, fastRetry(), 10)
	if err := r.InitializeAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	req := Request{Text: "缓存测试", VoicePack: "default"}
	if _, err := r.Synthesize(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Synthesize(context.Background(), req); err != nil {
		t.Fatal(err)
	}
	if a.synthN != 1 {
		t.Errorf("第二次调用应命中缓存: 引擎被调用 %d 次", a.synthN)
	}

	// 参数不同则不命中
	req2 := req
	req2.Speed = 1.5
	if _, err := r.Synthesize(context.Background(), req2); err != nil {
		t.Fatal(err)
	}
	if a.synthN != 2 {
		t.Errorf("参数不同不应命中缓存: 引擎被调用 %d 次", a.synthN)
	}
}

func TestEngines_ReportsStates(t *testing.T) {
	a := &fakeEngine{id: "a", loadErr: errors.New("x")}
	b := &fakeEngine{id: "b"}
	r := NewRegistry([]Engine{a, b}, fastRetry(), 0)
	if err := r.InitializeAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	infos := r.Engines()
	if len(infos) != 2 {
		t.Fatalf("引擎数量: got %d, want 2", len(infos))
	}
	if infos[0].ID != "a" || infos[0].State != StateFailed {
		t.Errorf("infos[0]: %+v", infos[0])
	}
	if infos[1].ID != "b" || infos[1].State != StateLoaded {
		t.Errorf("infos[1]: %+v", infos[1])
	}
}
