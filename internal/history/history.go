// Package history 用 SQLite 记录每次合成的历史，供查询和统计。
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/iabetor/voxkit/internal/logger"
)

// Record 一条合成历史。
type Record struct {
	ID         int64
	EngineID   string
	VoicePack  string
	Text       string
	Speed      float64
	Pitch      int
	Energy     float64
	SampleRate int
	DurationMs int64
	OutputPath string
	CreatedAt  time.Time
}

// Store 合成历史存储。
type Store struct {
	db   *sql.DB
	path string
}

// Open 打开或创建历史数据库。
// dbPath 为空时使用默认路径 ~/.voxkit/voxkit.db。
func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			dbPath = filepath.Join(home, ".voxkit", "voxkit.db")
		} else {
			dbPath = "./voxkit.db"
		}
	}

	// 确保目录存在
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建数据库目录失败: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}

	// 设置 WAL 模式（更好的并发性能）
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("设置 WAL 模式失败: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("启用外键约束失败: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Infof("[history] 历史数据库已打开: %s", dbPath)
	return s, nil
}

func (s *Store) migrate() error {
	schema := `CREATE TABLE IF NOT EXISTS synthesis_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		engine_id TEXT NOT NULL,
		voice_pack TEXT NOT NULL,
		text TEXT NOT NULL,
		speed REAL NOT NULL DEFAULT 1.0,
		pitch INTEGER NOT NULL DEFAULT 0,
		energy REAL NOT NULL DEFAULT 1.0,
		sample_rate INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		output_path TEXT DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("创建历史表失败: %w", err)
	}
	return nil
}

// Path 返回数据库文件路径。
func (s *Store) Path() string {
	return s.path
}

// Add 写入一条合成历史。
func (s *Store) Add(rec Record) error {
	_, err := s.db.Exec(
		`INSERT INTO synthesis_history
		(engine_id, voice_pack, text, speed, pitch, energy, sample_rate, duration_ms, output_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.EngineID, rec.VoicePack, rec.Text,
		rec.Speed, rec.Pitch, rec.Energy,
		rec.SampleRate, rec.DurationMs, rec.OutputPath,
	)
	if err != nil {
		return fmt.Errorf("写入合成历史失败: %w", err)
	}
	return nil
}

// Recent 返回最近的 limit 条历史，按时间倒序。
func (s *Store) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, engine_id, voice_pack, text, speed, pitch, energy,
		 sample_rate, duration_ms, output_path, created_at
		 FROM synthesis_history ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("查询合成历史失败: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EngineID, &rec.VoicePack, &rec.Text,
			&rec.Speed, &rec.Pitch, &rec.Energy,
			&rec.SampleRate, &rec.DurationMs, &rec.OutputPath, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("读取合成历史失败: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count 返回历史总条数。
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM synthesis_history`).Scan(&n); err != nil {
		return 0, fmt.Errorf("统计合成历史失败: %w", err)
	}
	return n, nil
}

// Close 关闭数据库。
func (s *Store) Close() error {
	return s.db.Close()
}
