package storage

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/1NormalGuy/August/internal/collector"
)

// Snapshot 单次采集对单个数据源的落盘结构
type Snapshot struct {
	Source string `json:"source"`
	// 时间戳，格式：2025-11-22 17:50:00
	Timestamp string            `json:"timestamp"`
	Items     []collector.Trend `json:"items"`
}

// SnapshotStore 快照存储：每个数据源一个目录，每轮采集追加一个 JSON 文件
type SnapshotStore struct {
	basePath string
}

func NewSnapshotStore(basePath string) *SnapshotStore {
	return &SnapshotStore{basePath: basePath}
}

// Save 保存一份快照，文件名按分钟时间戳生成；
// 同一分钟内重复保存时追加 _N 后缀，保证只追加、不覆盖
func (s *SnapshotStore) Save(sourceID string, items []collector.Trend) (string, error) {
	now := time.Now()

	sourceDir := filepath.Join(s.basePath, sourceID)
	if err := os.MkdirAll(sourceDir, 0o755); err != nil {
		return "", fmt.Errorf("snapshot: mkdir %s: %w", sourceDir, err)
	}

	base := now.Format("20060102_1504")
	filePath := filepath.Join(sourceDir, base+".json")
	for n := 2; ; n++ {
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			break
		}
		filePath = filepath.Join(sourceDir, fmt.Sprintf("%s_%d.json", base, n))
	}

	if items == nil {
		items = []collector.Trend{}
	}
	snap := Snapshot{
		Source:    sourceID,
		Timestamp: now.Format("2006-01-02 15:04:05"),
		Items:     items,
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("snapshot: marshal: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return "", fmt.Errorf("snapshot: write %s: %w", filePath, err)
	}

	return filePath, nil
}

// Load 加载指定日期的全部快照，日期格式 YYYYMMDD。
// 每个时间点一个列表；损坏或读不出来的文件直接跳过
func (s *SnapshotStore) Load(sourceID, dateStr string) [][]collector.Trend {
	sourceDir := filepath.Join(s.basePath, sourceID)
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil
	}

	var itemsList [][]collector.Trend
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, dateStr+"_") || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(sourceDir, name))
		if err != nil {
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			log.Printf("snapshot: skip corrupt file %s: %v", name, err)
			continue
		}
		itemsList = append(itemsList, snap.Items)
	}

	return itemsList
}

// Clear 删除单个数据源的快照目录
func (s *SnapshotStore) Clear(sourceID string) error {
	return os.RemoveAll(filepath.Join(s.basePath, sourceID))
}

// ClearAll 删除所有数据源目录，摘要缓存目录除外
func (s *SnapshotStore) ClearAll() error {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "summaries" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.basePath, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
