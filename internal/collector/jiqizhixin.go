package collector

import (
	"context"
	"fmt"
	"html"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	jqzxRSSURL       = "https://www.jiqizhixin.com/rss"
	jqzxMaxItems     = 30
	jqzxFetchTimeout = 30 * time.Second
	jqzxMaxDescRunes = 200
)

var htmlTagPattern = regexp.MustCompile(`<[^>]+>`)
var spacePattern = regexp.MustCompile(`\s+`)

// JiqizhixinFetcher 机器之心 RSS 抓取器
type JiqizhixinFetcher struct {
	parser *gofeed.Parser
}

func NewJiqizhixinFetcher() *JiqizhixinFetcher {
	return &JiqizhixinFetcher{parser: gofeed.NewParser()}
}

func (j *JiqizhixinFetcher) SourceID() string {
	return "jiqizhixin"
}

func (j *JiqizhixinFetcher) SourceName() string {
	return "机器之心"
}

func (j *JiqizhixinFetcher) Fetch() ([]Trend, error) {
	log.Println("fetch 机器之心 RSS...")

	ctx, cancel := context.WithTimeout(context.Background(), jqzxFetchTimeout)
	defer cancel()

	feed, err := j.parser.ParseURLWithContext(jqzxRSSURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("jiqizhixin: parse rss: %w", err)
	}

	entries := feed.Items
	if len(entries) > jqzxMaxItems {
		entries = entries[:jqzxMaxItems]
	}

	trends := make([]Trend, 0, len(entries))
	for i, entry := range entries {
		title := strings.TrimSpace(entry.Title)
		link := entry.Link
		if title == "" || link == "" {
			continue
		}

		desc := entry.Description
		if desc == "" {
			desc = entry.Content
		}
		desc = cleanHTML(desc)
		if rs := []rune(desc); len(rs) > jqzxMaxDescRunes {
			desc = string(rs[:jqzxMaxDescRunes]) + "..."
		}

		t, err := NewTrend(link, title, link)
		if err != nil {
			continue
		}
		// RSS 无热度值，用排名折算分数以保持条目顺序
		t.Score = 1000 - (i + 1)
		t.Description = desc
		trends = append(trends, t)
	}

	log.Printf("机器之心: 获取 %d 条新闻", len(trends))
	return trends, nil
}

// cleanHTML 清理 HTML 标签，保留纯文本
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	s = htmlTagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
