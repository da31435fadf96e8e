package summary

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// 锚点只覆盖当天日榜的前 50 条标题，锚点变化即判定整日缓存失效
const anchorTitleLimit = 50

// NewsItem 摘要请求中的一条新闻，来自已解析的日榜
type NewsItem struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Link       string `json:"link,omitempty"`
	SourceName string `json:"source_name"`
	Rank       int    `json:"rank,omitempty"`
}

// NewsID 条目的稳定身份，优先 url，回退 link
func (n NewsItem) NewsID() string {
	if n.URL != "" {
		return n.URL
	}
	return n.Link
}

// Record 一条已生成的摘要
type Record struct {
	NewsID      string `json:"news_id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	SourceName  string `json:"source_name"`
	Summary     string `json:"summary"`
	GeneratedAt string `json:"generated_at"`
}

// IndexEntry 索引项：缓存键到批次文件的映射
type IndexEntry struct {
	File      string `json:"file"`
	Title     string `json:"title"`
	Date      string `json:"date"`
	Timestamp string `json:"timestamp"`
}

// AnchorEntry 某日期日榜构成的指纹
type AnchorEntry struct {
	Hash      string `json:"hash"`
	UpdatedAt string `json:"updated_at"`
	NewsCount int    `json:"news_count"`
}

type batchFile struct {
	Date        string   `json:"date"`
	GeneratedAt string   `json:"generated_at"`
	Count       int      `json:"count"`
	Summaries   []Record `json:"summaries"`
}

// Cache 摘要缓存：index/anchor 常驻内存、落盘为 JSON 文件。
// 索引与锚点的写入都走同一把锁，并发请求下保持单写者纪律
type Cache struct {
	cacheDir string

	mu     sync.Mutex
	index  map[string]IndexEntry
	anchor map[string]AnchorEntry
}

func NewCache(summariesDir string) *Cache {
	c := &Cache{
		cacheDir: filepath.Join(summariesDir, "cache"),
		index:    make(map[string]IndexEntry),
		anchor:   make(map[string]AnchorEntry),
	}
	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		log.Printf("summary cache: mkdir %s: %v", c.cacheDir, err)
	}
	c.loadJSON(c.indexPath(), &c.index)
	c.loadJSON(c.anchorPath(), &c.anchor)
	return c
}

func (c *Cache) indexPath() string  { return filepath.Join(c.cacheDir, "index.json") }
func (c *Cache) anchorPath() string { return filepath.Join(c.cacheDir, "anchor.json") }

func (c *Cache) loadJSON(path string, dst any) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	if err := json.Unmarshal(data, dst); err != nil {
		log.Printf("summary cache: load %s: %v", path, err)
	}
}

// 调用方需持有 c.mu
func (c *Cache) saveJSON(path string, src any) {
	data, err := json.MarshalIndent(src, "", "  ")
	if err != nil {
		log.Printf("summary cache: marshal %s: %v", path, err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("summary cache: write %s: %v", path, err)
	}
}

// ComputeAnchor 计算日榜的锚点哈希：取前 50 条标题排序后拼接、哈希。
// 对输入顺序不敏感，前 50 条里任何标题变化都会改变结果
func (c *Cache) ComputeAnchor(items []NewsItem) string {
	limit := len(items)
	if limit > anchorTitleLimit {
		limit = anchorTitleLimit
	}
	titles := make([]string, 0, limit)
	for _, it := range items[:limit] {
		titles = append(titles, it.Title)
	}
	sort.Strings(titles)

	sum := sha256.Sum256([]byte(strings.Join(titles, "|")))
	return hex.EncodeToString(sum[:])[:16]
}

// CheckAnchor 检查日榜锚点是否与已存储的一致。
// true 表示日榜未变化，缓存仍然可用
func (c *Cache) CheckAnchor(date string, items []NewsItem) bool {
	current := c.ComputeAnchor(items)

	c.mu.Lock()
	stored := c.anchor[date].Hash
	c.mu.Unlock()

	if stored == current {
		log.Printf("summary cache: anchor match (date=%s, anchor=%s)", date, current)
		return true
	}
	log.Printf("summary cache: anchor changed (date=%s, old=%s, new=%s)", date, stored, current)
	return false
}

// UpdateAnchor 重新计算并持久化指定日期的锚点
func (c *Cache) UpdateAnchor(date string, items []NewsItem) {
	hash := c.ComputeAnchor(items)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.anchor[date] = AnchorEntry{
		Hash:      hash,
		UpdatedAt: time.Now().Format("2006-01-02 15:04:05"),
		NewsCount: len(items),
	}
	c.saveJSON(c.anchorPath(), c.anchor)
	log.Printf("summary cache: anchor updated (date=%s, hash=%s)", date, hash)
}

// InvalidateCacheForDate 移除指定日期的全部索引项。
// 批次文件本身不删除，只是不再可达
func (c *Cache) InvalidateCacheForDate(date string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, info := range c.index {
		if info.Date == date {
			delete(c.index, key)
			removed++
		}
	}
	if removed > 0 {
		c.saveJSON(c.indexPath(), c.index)
		log.Printf("summary cache: invalidated %d entries for %s", removed, date)
	}
}

func cacheKey(newsID string) string {
	sum := md5.Sum([]byte(newsID))
	return hex.EncodeToString(sum[:])[:12]
}

// GetSummary 按条目身份查缓存。索引命中后打开批次文件扫描；
// 文件缺失或损坏一律按未命中处理
func (c *Cache) GetSummary(newsID, title string) *Record {
	c.mu.Lock()
	info, ok := c.index[cacheKey(newsID)]
	c.mu.Unlock()
	if !ok {
		return nil
	}

	data, err := os.ReadFile(filepath.Join(c.cacheDir, info.File))
	if err != nil {
		return nil
	}
	var batch batchFile
	if err := json.Unmarshal(data, &batch); err != nil {
		log.Printf("summary cache: read batch %s: %v", info.File, err)
		return nil
	}
	for i := range batch.Summaries {
		if batch.Summaries[i].NewsID == newsID {
			return &batch.Summaries[i]
		}
	}
	return nil
}

// SaveSummaries 把一批摘要写入新的批次文件并登记索引。
// 返回批次文件名，I/O 失败时记录日志并返回空串
func (c *Cache) SaveSummaries(date string, records []Record) string {
	now := time.Now()
	timestamp := now.Format("150405")
	filename := date + "_" + timestamp + ".json"

	batch := batchFile{
		Date:        date,
		GeneratedAt: now.Format("2006-01-02 15:04:05"),
		Count:       len(records),
		Summaries:   records,
	}

	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		log.Printf("summary cache: marshal batch: %v", err)
		return ""
	}
	if err := os.WriteFile(filepath.Join(c.cacheDir, filename), data, 0o644); err != nil {
		log.Printf("summary cache: write batch %s: %v", filename, err)
		return ""
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range records {
		id := rec.NewsID
		if id == "" {
			id = rec.URL
		}
		c.index[cacheKey(id)] = IndexEntry{
			File:      filename,
			Title:     rec.Title,
			Date:      date,
			Timestamp: timestamp,
		}
	}
	c.saveJSON(c.indexPath(), c.index)
	log.Printf("summary cache: saved %d summaries to %s", len(records), filename)

	return filename
}

// HasSummary 索引中是否存在该条目的缓存键
func (c *Cache) HasSummary(newsID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.index[cacheKey(newsID)]
	return ok
}
