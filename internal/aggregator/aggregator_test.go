package aggregator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/1NormalGuy/August/internal/collector"
	"github.com/1NormalGuy/August/internal/storage"
)

func TestMergeTrendsDeduplicateKeepsMaxScore(t *testing.T) {
	lists := [][]collector.Trend{
		{
			{ID: "x", Title: "事件X", URL: "https://example.com/x", Score: 10},
			{ID: "y", Title: "事件Y", URL: "https://example.com/y", Score: 5},
		},
		{
			{ID: "x", Title: "事件X", URL: "https://example.com/x", Score: 20},
		},
	}

	merged := mergeTrends(lists)
	if len(merged) != 2 {
		t.Fatalf("merged = %d items, want 2", len(merged))
	}
	// x 应以最高分 20 排第一
	if merged[0].ID != "x" || merged[0].Score != 20 {
		t.Fatalf("first item = %+v, want x with score 20", merged[0])
	}
	if merged[1].ID != "y" {
		t.Fatalf("second item = %+v, want y", merged[1])
	}
}

func TestMergeTrendsEqualScoreKeepsFirstSeenOrder(t *testing.T) {
	lists := [][]collector.Trend{
		{
			{ID: "a", Title: "A", URL: "https://example.com/a"},
			{ID: "b", Title: "B", URL: "https://example.com/b"},
			{ID: "c", Title: "C", URL: "https://example.com/c"},
		},
	}
	merged := mergeTrends(lists)
	if merged[0].ID != "a" || merged[1].ID != "b" || merged[2].ID != "c" {
		t.Fatalf("stable order broken: %+v", merged)
	}
}

func TestGenerateWritesDigestFile(t *testing.T) {
	tempDir := t.TempDir()
	dataDir := t.TempDir()
	store := storage.NewSnapshotStore(tempDir)

	items := []collector.Trend{
		{ID: "https://example.com/1", Title: "头条", URL: "https://example.com/1", Score: 100},
		{ID: "https://example.com/2", Title: "次条", URL: "https://example.com/2", Score: 50},
	}
	if _, err := store.Save("weibo", items); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	agg := NewDailyAggregator(store, dataDir, []SourceConfig{
		{ID: "weibo", Name: "微博热搜"},
		{ID: "zhihu", Name: "知乎热榜"}, // 无数据，不应出现在日榜里
	})

	date := time.Now().Format("2006-01-02")
	if ok := agg.Generate(date); !ok {
		t.Fatalf("Generate returned false")
	}

	data, err := os.ReadFile(filepath.Join(dataDir, date+".md"))
	if err != nil {
		t.Fatalf("read digest: %v", err)
	}
	text := string(data)

	if !strings.HasPrefix(text, "# "+date+" 热门资讯") {
		t.Fatalf("missing title line: %q", text)
	}
	if !strings.Contains(text, "## 微博热搜") {
		t.Fatalf("missing source section: %q", text)
	}
	if strings.Contains(text, "## 知乎热榜") {
		t.Fatalf("empty source should be omitted: %q", text)
	}
	if !strings.Contains(text, "1. [头条](https://example.com/1)") {
		t.Fatalf("missing ranked line: %q", text)
	}
	if !strings.Contains(text, "2. [次条](https://example.com/2)") {
		t.Fatalf("missing second ranked line: %q", text)
	}
}

func TestGenerateNoDataReturnsFalse(t *testing.T) {
	store := storage.NewSnapshotStore(t.TempDir())
	agg := NewDailyAggregator(store, t.TempDir(), []SourceConfig{{ID: "weibo", Name: "微博热搜"}})
	if ok := agg.Generate("2025-01-01"); ok {
		t.Fatalf("Generate should fail with no data")
	}
}

func TestGenerateDeduplicatesAcrossSnapshots(t *testing.T) {
	tempDir := t.TempDir()
	dataDir := t.TempDir()
	store := storage.NewSnapshotStore(tempDir)

	// 同一条目在两份快照中出现，分数不同
	if _, err := store.Save("weibo", []collector.Trend{
		{ID: "x", Title: "事件X", URL: "https://example.com/x", Score: 10},
	}); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if _, err := store.Save("weibo", []collector.Trend{
		{ID: "x", Title: "事件X", URL: "https://example.com/x", Score: 20},
		{ID: "y", Title: "事件Y", URL: "https://example.com/y", Score: 15},
	}); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	agg := NewDailyAggregator(store, dataDir, []SourceConfig{{ID: "weibo", Name: "微博热搜"}})
	date := time.Now().Format("2006-01-02")
	if ok := agg.Generate(date); !ok {
		t.Fatalf("Generate returned false")
	}

	digest, err := ParseDigest(dataDir, date)
	if err != nil {
		t.Fatalf("ParseDigest error: %v", err)
	}
	if len(digest.Sources) != 1 {
		t.Fatalf("sources = %d, want 1", len(digest.Sources))
	}
	items := digest.Sources[0].Items
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2 (deduplicated)", len(items))
	}
	// 最高分 20 的 x 应排第一
	if items[0].Title != "事件X" || items[0].Rank != 1 {
		t.Fatalf("first item = %+v", items[0])
	}
}

func TestParseDigestRoundTrip(t *testing.T) {
	dataDir := t.TempDir()
	content := "# 2025-06-01 热门资讯\n\n## 微博热搜\n\n1. [标题一](https://example.com/1)\n2. [标题二](https://example.com/2)\n\n## 知乎热榜\n\n1. [问题一](https://example.com/q1)\n"
	if err := os.WriteFile(filepath.Join(dataDir, "2025-06-01.md"), []byte(content), 0o644); err != nil {
		t.Fatalf("write digest: %v", err)
	}

	digest, err := ParseDigest(dataDir, "2025-06-01")
	if err != nil {
		t.Fatalf("ParseDigest error: %v", err)
	}
	if digest.Title != "2025-06-01 热门资讯" {
		t.Fatalf("title = %q", digest.Title)
	}
	if len(digest.Sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(digest.Sources))
	}
	if digest.Sources[0].Name != "微博热搜" || len(digest.Sources[0].Items) != 2 {
		t.Fatalf("unexpected first source: %+v", digest.Sources[0])
	}
	it := digest.Sources[0].Items[1]
	if it.Rank != 2 || it.Title != "标题二" || it.Link != "https://example.com/2" {
		t.Fatalf("unexpected item: %+v", it)
	}
}

func TestAvailableDatesSortedDesc(t *testing.T) {
	dataDir := t.TempDir()
	for _, name := range []string{"2025-06-01.md", "2025-06-03.md", "2025-06-02.md", "notes.md", "readme.txt"} {
		if err := os.WriteFile(filepath.Join(dataDir, name), []byte("# x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	dates := AvailableDates(dataDir)
	want := []string{"2025-06-03", "2025-06-02", "2025-06-01"}
	if len(dates) != len(want) {
		t.Fatalf("dates = %v", dates)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Fatalf("dates = %v, want %v", dates, want)
		}
	}
}
