package history

import (
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("打开历史数据库失败: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreAddAndRecent(t *testing.T) {
	s := newTestStore(t)

	// 空库
	records, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent 失败: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("期望空列表，得到 %d 条", len(records))
	}

	rec := Record{
		EngineID:   "edge",
		VoicePack:  "female",
		Text:       "你好，世界",
		Speed:      1.2,
		Pitch:      2,
		Energy:     0.8,
		SampleRate: 24000,
		DurationMs: 1500,
		OutputPath: "/tmp/out.wav",
	}
	if err := s.Add(rec); err != nil {
		t.Fatalf("Add 失败: %v", err)
	}

	records, err = s.Recent(10)
	if err != nil {
		t.Fatalf("Recent 失败: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("期望 1 条，得到 %d 条", len(records))
	}
	got := records[0]
	if got.ID == 0 {
		t.Error("ID 不应为 0")
	}
	if got.EngineID != "edge" || got.VoicePack != "female" || got.Text != "你好，世界" {
		t.Errorf("记录不匹配: %+v", got)
	}
	if got.Speed != 1.2 || got.Pitch != 2 || got.Energy != 0.8 {
		t.Errorf("参数不匹配: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt 不应为零值")
	}
}

func TestStoreRecentOrderAndLimit(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 5; i++ {
		if err := s.Add(Record{EngineID: "stub", VoicePack: "default", Text: "t"}); err != nil {
			t.Fatalf("Add 失败: %v", err)
		}
	}

	records, err := s.Recent(3)
	if err != nil {
		t.Fatalf("Recent 失败: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("期望 3 条，得到 %d 条", len(records))
	}
	// 时间倒序
	if records[0].ID <= records[1].ID || records[1].ID <= records[2].ID {
		t.Errorf("应按 ID 倒序: %d %d %d", records[0].ID, records[1].ID, records[2].ID)
	}

	n, err := s.Count()
	if err != nil {
		t.Fatalf("Count 失败: %v", err)
	}
	if n != 5 {
		t.Errorf("总条数: got %d, want 5", n)
	}
}

func TestStoreReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("打开历史数据库失败: %v", err)
	}
	if err := s.Add(Record{EngineID: "edge", VoicePack: "default", Text: "persist"}); err != nil {
		t.Fatalf("Add 失败: %v", err)
	}
	s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("重新打开失败: %v", err)
	}
	defer s2.Close()

	records, err := s2.Recent(10)
	if err != nil {
		t.Fatalf("Recent 失败: %v", err)
	}
	if len(records) != 1 || records[0].Text != "persist" {
		t.Errorf("重开后记录丢失: %+v", records)
	}
}
