package aggregator

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/1NormalGuy/August/internal/collector"
	"github.com/1NormalGuy/August/internal/storage"
)

// SourceConfig 聚合时使用的数据源展示配置
type SourceConfig struct {
	ID   string
	Name string
}

// DailyAggregator 把一天内各源的所有快照合并成一份去重排序的日榜
type DailyAggregator struct {
	store   *storage.SnapshotStore
	dataDir string
	sources []SourceConfig
}

func NewDailyAggregator(store *storage.SnapshotStore, dataDir string, sources []SourceConfig) *DailyAggregator {
	return &DailyAggregator{store: store, dataDir: dataDir, sources: sources}
}

// Generate 聚合指定日期（格式 2006-01-02）的数据并写出日榜文件。
// 所有源都没有数据时返回 false，由调度方决定下个周期重试
func (a *DailyAggregator) Generate(date string) bool {
	dateKey := strings.ReplaceAll(date, "-", "")

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# %s 热门资讯\n\n", date))

	sectionCount := 0
	for _, src := range a.sources {
		lists := a.store.Load(src.ID, dateKey)
		merged := mergeTrends(lists)
		if len(merged) == 0 {
			// 当天没有任何数据的源不输出空段落
			continue
		}

		sb.WriteString(fmt.Sprintf("## %s\n\n", src.Name))
		for i, item := range merged {
			sb.WriteString(fmt.Sprintf("%d. [%s](%s)\n", i+1, item.Title, item.URL))
		}
		sb.WriteString("\n")
		sectionCount++
	}

	if sectionCount == 0 {
		log.Printf("aggregate %s: no source had any data", date)
		return false
	}

	if err := os.MkdirAll(a.dataDir, 0o755); err != nil {
		log.Printf("aggregate %s: mkdir: %v", date, err)
		return false
	}
	outPath := filepath.Join(a.dataDir, date+".md")
	if err := os.WriteFile(outPath, []byte(sb.String()), 0o644); err != nil {
		log.Printf("aggregate %s: write digest: %v", date, err)
		return false
	}

	log.Printf("aggregate %s: %d sources -> %s", date, sectionCount, outPath)
	return true
}

// mergeTrends 合并一天内多个快照：按 id 去重，冲突时保留见过的最高分，
// 分数相同保持首次出现的顺序，最终按分数降序
func mergeTrends(lists [][]collector.Trend) []collector.Trend {
	merged := make([]collector.Trend, 0, 64)
	index := make(map[string]int)

	for _, items := range lists {
		for _, it := range items {
			key := it.ID
			if key == "" {
				key = it.URL
			}
			if key == "" {
				continue
			}

			if pos, ok := index[key]; ok {
				if it.Score > merged[pos].Score {
					merged[pos].Score = it.Score
				}
				continue
			}
			index[key] = len(merged)
			merged = append(merged, it)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})

	return merged
}
